package safety

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// CommandAllowChecker decides whether a command line may run under
// restricted mode.
type CommandAllowChecker interface {
	// IsAllowed checks a single command segment.
	IsAllowed(cmd string) (bool, string)

	// IsAllowedWithPipes checks a full command line, splitting on |,
	// &&, ||, and ; and validating each segment (and any $()/backtick
	// substitutions within it).
	IsAllowedWithPipes(cmd string) (bool, string)
}

var _ CommandAllowChecker = (*CommandWhitelist)(nil)

// ValidationMode selects how Validator decides whether a command runs.
type ValidationMode string

const (
	// ModeBlacklist allows everything except commands matching
	// DangerousPatterns, which require confirmation.
	ModeBlacklist ValidationMode = "blacklist"
	// ModeWhitelist (restricted mode) only allows commands matching the
	// configured CommandWhitelist.
	ModeWhitelist ValidationMode = "whitelist"
)

// WhitelistPattern is one allowed command shape for restricted mode.
type WhitelistPattern struct {
	Pattern        *regexp.Regexp
	Description    string
	ExcludePattern *regexp.Regexp // if set and it matches, the command is NOT allowed
}

// WhitelistPatternJSON is the JSON shape ParseWhitelistPatternsJSON
// accepts for a user-supplied restricted-mode allow-list.
type WhitelistPatternJSON struct {
	Pattern         string `json:"pattern"`
	ExcludePattern  string `json:"exclude_pattern,omitempty"`
	Description     string `json:"description,omitempty"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty"`
}

// CommandWhitelist is the allow-list used by den's restricted mode, the
// `rbash`-style shell state entered via `den --restricted` (or
// DEN_RESTRICTED).
type CommandWhitelist struct {
	patterns []WhitelistPattern
}

const cmdBoundary = `(\s|$)`

// MustSimple builds a pattern matching a bare command name.
func MustSimple(cmd, desc string) WhitelistPattern {
	pattern := `^` + regexp.QuoteMeta(cmd) + cmdBoundary
	return WhitelistPattern{Pattern: regexp.MustCompile(pattern), Description: desc}
}

// MustSubcmd builds a pattern matching "cmd subcmd" (e.g. "git status").
func MustSubcmd(cmd, subcmd, desc string) WhitelistPattern {
	pattern := `^` + regexp.QuoteMeta(cmd) + `\s+` + regexp.QuoteMeta(subcmd) + cmdBoundary
	return WhitelistPattern{Pattern: regexp.MustCompile(pattern), Description: desc}
}

// MustPattern wraps an already-valid custom regex.
func MustPattern(pattern, desc string) WhitelistPattern {
	return WhitelistPattern{Pattern: regexp.MustCompile(pattern), Description: desc}
}

// MustExcluding builds a simple-command pattern with an exclusion regex
// (e.g. allow "find" but not "find -exec").
func MustExcluding(cmd, desc, exclude string) WhitelistPattern {
	pattern := `^` + regexp.QuoteMeta(cmd) + cmdBoundary
	return WhitelistPattern{
		Pattern:        regexp.MustCompile(pattern),
		Description:    desc,
		ExcludePattern: regexp.MustCompile(exclude),
	}
}

// MustSubcmdExcluding is MustSubcmd with an exclusion regex.
func MustSubcmdExcluding(cmd, subcmd, desc, exclude string) WhitelistPattern {
	pattern := `^` + regexp.QuoteMeta(cmd) + `\s+` + regexp.QuoteMeta(subcmd) + cmdBoundary
	return WhitelistPattern{
		Pattern:        regexp.MustCompile(pattern),
		Description:    desc,
		ExcludePattern: regexp.MustCompile(exclude),
	}
}

// NewCommandWhitelist builds a CommandWhitelist from the given patterns.
func NewCommandWhitelist(patterns []WhitelistPattern) *CommandWhitelist {
	return &CommandWhitelist{patterns: patterns}
}

// IsAllowed checks a single segment against the whitelist. Callers
// validating a full command line should use IsAllowedWithPipes, which
// applies the length bound before splitting.
func (w *CommandWhitelist) IsAllowed(cmd string) (bool, string) {
	for _, wp := range w.patterns {
		if wp.Pattern.MatchString(cmd) {
			if wp.ExcludePattern != nil && wp.ExcludePattern.MatchString(cmd) {
				continue
			}
			return true, wp.Description
		}
	}
	return false, ""
}

func (w *CommandWhitelist) isAllowedWithPipesInternal(cmd string, depth int, totalSegments *int) (bool, string) {
	if len(cmd) > MaxCommandLength {
		return false, ""
	}
	if depth >= MaxRecursionDepth {
		return false, ""
	}

	segments, err := splitCommandSegmentsQuoteAware(cmd)
	if err != nil {
		return false, ""
	}
	if len(segments) == 0 {
		return false, ""
	}

	*totalSegments += len(segments)
	if *totalSegments > MaxTotalSegments {
		return false, ""
	}

	var descriptions []string
	matchedCount := 0
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		allowed, desc := w.IsAllowed(segment)
		if !allowed {
			return false, ""
		}
		matchedCount++
		if desc != "" {
			descriptions = append(descriptions, desc)
		}

		if !w.validateSubstitutionsInternal(segment, depth, totalSegments) {
			return false, ""
		}
	}

	if matchedCount == 0 {
		return false, ""
	}
	return true, strings.Join(descriptions, " | ")
}

// IsAllowedWithPipes checks a full command line: every segment split on
// |, &&, ||, and ; must be allowed, and every $()/backtick substitution
// nested within each segment is validated recursively.
func (w *CommandWhitelist) IsAllowedWithPipes(cmd string) (bool, string) {
	totalSegments := 0
	return w.isAllowedWithPipesInternal(cmd, 0, &totalSegments)
}

// validateSubstitutionsInternal validates only the top-level
// substitutions in segment; isAllowedWithPipesInternal's own recursion
// handles anything nested deeper, so segment counting isn't doubled.
func (w *CommandWhitelist) validateSubstitutionsInternal(segment string, depth int, totalSegments *int) bool {
	if depth >= MaxRecursionDepth {
		return false
	}

	subCommands := ExtractImmediateDollarParenCommands(segment)
	subCommands = append(subCommands, ExtractImmediateBacktickCommands(segment)...)

	for _, subCmd := range subCommands {
		if allowed, _ := w.isAllowedWithPipesInternal(subCmd, depth+1, totalSegments); !allowed {
			return false
		}
	}
	return true
}

// DefaultWhitelistPatterns is the default restricted-mode allow-list:
// read-only commands that can't modify the filesystem or system state.
func DefaultWhitelistPatterns() []WhitelistPattern {
	var patterns []WhitelistPattern
	patterns = append(patterns, fileReadPatterns()...)
	patterns = append(patterns, searchPatterns()...)
	patterns = append(patterns, textProcessingPatterns()...)
	patterns = append(patterns, gitReadPatterns()...)
	patterns = append(patterns, devToolPatterns()...)
	patterns = append(patterns, systemInfoPatterns()...)
	patterns = append(patterns, utilityPatterns()...)
	patterns = append(patterns, containerPatterns()...)
	return patterns
}

func fileReadPatterns() []WhitelistPattern {
	return []WhitelistPattern{
		MustSimple("ls", "list directory contents"),
		MustSimple("cat", "display file contents"),
		MustSimple("head", "display first lines of file"),
		MustSimple("tail", "display last lines of file"),
		MustSimple("less", "page through file"),
		MustSimple("more", "page through file"),
		MustSimple("wc", "word/line/byte count"),
		MustSimple("file", "determine file type"),
		MustSimple("stat", "display file status"),
		MustSimple("readlink", "read symbolic link"),
		MustSimple("realpath", "resolve path"),
		MustSimple("basename", "strip directory from path"),
		MustSimple("dirname", "strip last path component"),
	}
}

func searchPatterns() []WhitelistPattern {
	return []WhitelistPattern{
		MustSimple("grep", "search file contents"),
		MustSimple("egrep", "extended grep"),
		MustSimple("fgrep", "fixed string grep"),
		MustSimple("rg", "ripgrep search"),
		MustSimple("ag", "silver searcher"),
		MustExcluding("find", "find files (read-only)", FindDangerousFlags),
		MustSimple("fd", "fd file finder"),
		MustSimple("locate", "locate files"),
		MustSimple("which", "locate command"),
		MustSimple("whereis", "locate binary"),
		MustSimple("type", "describe command type"),
	}
}

func textProcessingPatterns() []WhitelistPattern {
	return []WhitelistPattern{
		MustExcluding("awk", "awk text processing (read-only)", AwkDangerousPatterns),
		MustExcluding("sed", "sed text processing (read-only)", SedDangerousPatterns),
		MustSimple("sort", "sort lines"),
		MustSimple("uniq", "filter unique lines"),
		MustSimple("cut", "extract columns"),
		MustSimple("tr", "translate characters"),
		MustSimple("diff", "compare files"),
		MustSimple("comm", "compare sorted files"),
		MustSimple("cmp", "byte-by-byte compare"),
		MustSimple("md5sum", "compute MD5 checksum"),
		MustSimple("sha256sum", "compute SHA256 checksum"),
		MustSimple("sha1sum", "compute SHA1 checksum"),
		MustSimple("jq", "JSON processor"),
		MustSimple("yq", "YAML processor"),
	}
}

func gitReadPatterns() []WhitelistPattern {
	return []WhitelistPattern{
		MustSubcmd("git", "status", "git status"),
		MustSubcmd("git", "log", "git log"),
		MustSubcmd("git", "diff", "git diff"),
		MustSubcmd("git", "show", "git show"),
		MustSubcmdExcluding("git", "branch", "git branch list (read-only)", GitDeleteFlags),
		MustSubcmdExcluding("git", "tag", "git tag list (read-only)", GitDeleteFlags),
		MustSubcmd("git", "remote", "git remote"),
		MustSubcmd("git", "rev-parse", "git rev-parse"),
		MustSubcmd("git", "describe", "git describe"),
		MustSubcmd("git", "ls-files", "git ls-files"),
		MustSubcmd("git", "ls-tree", "git ls-tree"),
		MustSubcmd("git", "cat-file", "git cat-file"),
		MustSubcmd("git", "blame", "git blame"),
		MustSubcmd("git", "shortlog", "git shortlog"),
		MustSubcmd("git", "reflog", "git reflog"),
		MustPattern(`^git\s+stash\s+list`+cmdBoundary, "git stash list"),
		MustPattern(`^git\s+config\s+--get`+cmdBoundary, "git config get"),
		MustPattern(`^git\s+config\s+--list`+cmdBoundary, "git config list"),
	}
}

func devToolPatterns() []WhitelistPattern {
	return []WhitelistPattern{
		MustSubcmd("go", "version", "go version"),
		MustSubcmd("go", "env", "go environment"),
		MustSubcmd("go", "list", "go list packages"),
		MustSubcmd("go", "doc", "go documentation"),
		MustPattern(`^go\s+mod\s+graph`+cmdBoundary, "go mod graph"),
		MustPattern(`^go\s+mod\s+why`+cmdBoundary, "go mod why"),
		MustSubcmd("go", "vet", "go vet"),
		MustSubcmd("node", "--version", "node version"),
		MustSubcmd("npm", "version", "npm version"),
		MustSubcmd("npm", "ls", "npm list"),
		MustSubcmd("npm", "list", "npm list"),
		MustSubcmd("npm", "outdated", "npm outdated"),
		MustSubcmd("npm", "audit", "npm audit"),
		MustSubcmd("npm", "view", "npm view"),
		MustSubcmd("npm", "search", "npm search"),
		MustSubcmd("npm", "info", "npm info"),
		MustSubcmd("npm", "show", "npm show"),
		MustSubcmd("python", "--version", "python version"),
		MustSubcmd("python3", "--version", "python3 version"),
		MustSubcmd("pip", "list", "pip list"),
		MustSubcmd("pip", "show", "pip show"),
		MustSubcmd("pip", "freeze", "pip freeze"),
		MustSubcmd("pip3", "list", "pip3 list"),
		MustSubcmd("pip3", "show", "pip3 show"),
		MustSubcmd("pip3", "freeze", "pip3 freeze"),
		MustSubcmd("cargo", "--version", "cargo version"),
		MustSubcmd("rustc", "--version", "rustc version"),
		MustSubcmd("cargo", "tree", "cargo tree"),
		MustSubcmd("cargo", "metadata", "cargo metadata"),
		MustSubcmd("cargo", "check", "cargo check"),
	}
}

func systemInfoPatterns() []WhitelistPattern {
	return []WhitelistPattern{
		MustSimple("pwd", "print working directory"),
		MustSimple("whoami", "current user"),
		MustSimple("id", "user identity"),
		MustSimple("hostname", "hostname"),
		MustSimple("uname", "system info"),
		MustSimple("date", "current date/time"),
		MustSimple("uptime", "system uptime"),
		MustSimple("env", "environment variables"),
		MustSimple("printenv", "print environment"),
		MustSimple("ps", "process status"),
		MustSimple("df", "disk free space"),
		MustSimple("du", "disk usage"),
		MustSimple("free", "memory usage"),
		MustPattern(`^top\s+-b\s+-n\s*1`+cmdBoundary, "top batch mode"),
		MustSimple("lsof", "list open files"),
		MustSimple("netstat", "network statistics"),
		MustSimple("ss", "socket statistics"),
	}
}

func utilityPatterns() []WhitelistPattern {
	return []WhitelistPattern{
		MustSimple("echo", "echo"),
		MustSimple("printf", "printf"),
		MustSimple("test", "test condition"),
		MustPattern(`^\[\s`, "test condition"),
		MustPattern(`^\[\[\s`, "extended test"),
		MustSimple("true", "true"),
		MustSimple("false", "false"),
		MustPattern(`^sleep\s+[0-9]+(\.[0-9]+)?`+cmdBoundary, "sleep"),
		MustSimple("seq", "sequence generator"),
		MustSimple("expr", "expression evaluator"),
		MustSimple("bc", "calculator"),
		MustPattern(`^tar\s+-t`, "tar list"),
		MustSubcmd("tar", "--list", "tar list"),
		MustSimple("zipinfo", "zip info"),
		MustPattern(`^unzip\s+-l`, "unzip list"),
		MustPattern(`^unzip\s+-Z`, "unzip info"),
	}
}

func containerPatterns() []WhitelistPattern {
	return []WhitelistPattern{
		MustSubcmd("docker", "ps", "docker ps"),
		MustSubcmd("docker", "images", "docker images"),
		MustSubcmd("docker", "logs", "docker logs"),
		MustSubcmd("docker", "inspect", "docker inspect"),
		MustSubcmd("docker", "version", "docker version"),
		MustSubcmd("docker", "info", "docker info"),
		MustSubcmd("docker", "stats", "docker stats"),
		MustSubcmd("docker", "top", "docker top"),
		MustSubcmd("docker", "port", "docker port"),
		MustSubcmd("docker", "diff", "docker diff"),
		MustSubcmd("docker", "history", "docker history"),
		MustSubcmd("kubectl", "get", "kubectl get"),
		MustSubcmd("kubectl", "describe", "kubectl describe"),
		MustSubcmd("kubectl", "logs", "kubectl logs"),
		MustSubcmd("kubectl", "top", "kubectl top"),
		MustSubcmd("kubectl", "cluster-info", "kubectl cluster-info"),
		MustSubcmd("kubectl", "version", "kubectl version"),
		MustPattern(`^kubectl\s+config\s+view`+cmdBoundary, "kubectl config view"),
		MustPattern(`^kubectl\s+config\s+current-context`+cmdBoundary, "kubectl current-context"),
		MustSubcmd("kubectl", "api-resources", "kubectl api-resources"),
	}
}

// Patterns for detecting ReDoS-vulnerable regex constructs, applied to
// any user-supplied restricted-mode pattern before it's compiled.
var (
	nestedQuantifierPattern      = regexp.MustCompile(`\([^)]*[+*][^)]*\)[+*?]|\([^)]*[+*][^)]*\)\{`)
	largeRepetitionPattern       = regexp.MustCompile(`\{(\d+)(,(\d*))?\}`)
	alternationQuantifierPattern = regexp.MustCompile(`\([^)]*\|[^)]*\)[+*]|\([^)]*\|[^)]*\)\{`)
)

func validateRegexSafety(pattern string) error {
	if nestedQuantifierPattern.MatchString(pattern) {
		return ErrNestedQuantifiers
	}
	if alternationQuantifierPattern.MatchString(pattern) {
		return ErrAlternationQuantifier
	}

	matches := largeRepetitionPattern.FindAllStringSubmatch(pattern, -1)
	for _, match := range matches {
		if len(match) >= 2 {
			var count int
			if _, err := fmt.Sscanf(match[1], "%d", &count); err == nil && count >= 100 {
				return fmt.Errorf("%w: {%d,...}", ErrLargeRepetition, count)
			}
		}
	}
	return nil
}

func parseAndValidatePattern(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > MaxCommandLength {
		return nil, ErrPatternTooLong
	}
	if err := validateRegexSafety(pattern); err != nil {
		return nil, err
	}
	return regexp.Compile(pattern)
}

func parseSingleWhitelistPattern(jp WhitelistPatternJSON) (WhitelistPattern, error) {
	if jp.Pattern == "" {
		return WhitelistPattern{}, ErrPatternRequired
	}

	pattern := jp.Pattern
	if jp.CaseInsensitive && !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}

	re, err := parseAndValidatePattern(pattern)
	if err != nil {
		return WhitelistPattern{}, fmt.Errorf("invalid pattern %q: %w", jp.Pattern, err)
	}

	wp := WhitelistPattern{Pattern: re, Description: jp.Description}
	if wp.Description == "" {
		wp.Description = fmt.Sprintf("custom pattern: %s", jp.Pattern)
	}

	if jp.ExcludePattern != "" {
		excludeRe, err := parseAndValidatePattern(jp.ExcludePattern)
		if err != nil {
			return WhitelistPattern{}, fmt.Errorf("invalid exclude pattern %q: %w", jp.ExcludePattern, err)
		}
		wp.ExcludePattern = excludeRe
	}

	return wp, nil
}

// ParseWhitelistPatternsJSON parses a JSON array of user-supplied
// restricted-mode patterns. Nothing in den calls it; restricted mode
// always uses DefaultWhitelistPatterns. Fails entirely on the first
// invalid entry rather than returning a partial allow-list.
func ParseWhitelistPatternsJSON(jsonStr string) ([]WhitelistPattern, error) {
	if jsonStr == "" {
		return nil, nil
	}

	var jsonPatterns []WhitelistPatternJSON
	if err := json.Unmarshal([]byte(jsonStr), &jsonPatterns); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	result := make([]WhitelistPattern, 0, len(jsonPatterns))
	for i, jp := range jsonPatterns {
		wp, err := parseSingleWhitelistPattern(jp)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		result = append(result, wp)
	}
	return result, nil
}

// ValidateMode parses a validation-mode name from config/flags.
func ValidateMode(mode string) (ValidationMode, error) {
	switch strings.ToLower(mode) {
	case "blacklist", "":
		return ModeBlacklist, nil
	case "whitelist":
		return ModeWhitelist, nil
	default:
		return ModeBlacklist, fmt.Errorf(
			"invalid command validation mode: %s (must be 'blacklist' or 'whitelist')", mode)
	}
}
