package shellio

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading "~" or "~/..." to the user's home
// directory, lifted from the teacher's HistoryManager.ExpandPath. Used
// for $HISTFILE and $HOME/.denrc paths; unlike full tilde expansion in
// command text (internal/expand's job), this only ever runs on
// configuration-level paths den reads itself.
func ExpandHome(path string) string {
	if path == "" {
		return ""
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
