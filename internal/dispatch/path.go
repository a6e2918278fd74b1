package dispatch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/den-shell/den/internal/state"
)

// ErrNoPath is wrapped into the error LookPath returns when name isn't
// found in any PATH directory.
var ErrNoPath = errors.New("no such file or directory")

// ErrNotExecutable is wrapped into the error LookPath returns when a
// matching file exists but lacks the executable bit, so callers can
// surface exit code 126 (PermissionDenied) instead of 127.
var ErrNotExecutable = errors.New("permission denied")

// LookPath resolves name to an absolute executable path, consulting
// (and populating) the store's PATH cache exactly as bash's internal
// hash table does. A name containing a slash is resolved directly,
// bypassing both the cache and PATH, matching bash's own rule that
// slash-containing names are never looked up.
func LookPath(store *state.Store, name string) (string, error) {
	if strings.Contains(name, "/") {
		switch fileKind(name) {
		case fileExecutable:
			return name, nil
		case filePresentNotExecutable:
			return "", ErrNotExecutable
		default:
			return "", ErrNoPath
		}
	}

	if cached, ok := store.CachedPath(name); ok {
		if fileKind(cached) == fileExecutable {
			return cached, nil
		}
		store.ForgetPath(name)
	}

	pathVar, _ := store.Get("PATH")
	sawNotExecutable := false
	for _, dir := range strings.Split(pathVar, ":") {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		switch fileKind(candidate) {
		case fileExecutable:
			store.CachePath(name, candidate)
			return candidate, nil
		case filePresentNotExecutable:
			sawNotExecutable = true
		}
	}
	if sawNotExecutable {
		return "", ErrNotExecutable
	}
	return "", ErrNoPath
}

type fileStat int

const (
	fileAbsent fileStat = iota
	fileExecutable
	filePresentNotExecutable
)

func fileKind(path string) fileStat {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fileAbsent
	}
	if info.Mode()&0o111 != 0 {
		return fileExecutable
	}
	return filePresentNotExecutable
}
