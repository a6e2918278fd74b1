// Package safety implements den's restricted-mode command validation and
// dangerous-command confirmation: before the dispatcher hands a command
// line to the executor, this package decides whether it's safe to run
// outright, must be confirmed interactively, or is blocked by restricted
// mode's allow-list.
package safety

import (
	"errors"
	"strings"
)

// Sentinel errors for command validation, checkable with errors.Is().
var (
	ErrUnbalancedQuotes     = errors.New("unbalanced quotes in command")
	ErrUnbalancedParens     = errors.New("unbalanced $() in command")
	ErrNestedQuantifiers    = errors.New("pattern contains nested quantifiers which may cause ReDoS")
	ErrPatternTooLong       = errors.New("pattern too long")
	ErrPatternRequired      = errors.New("pattern is required")
	ErrWhitelistRequired    = errors.New("whitelist required for restricted mode")
	ErrLargeRepetition      = errors.New("pattern contains large repetition which may cause ReDoS")
	ErrAlternationQuantifier = errors.New("pattern contains alternation with quantifier which may cause ReDoS")
)

// Shared regex fragments for dangerous-command detection and whitelist
// exclusions.
const (
	GitDeleteFlags       = `(?i)(-d\s|-D\s|--delete\s)`
	FindDangerousFlags   = `(?i)(-exec\s|-execdir\s|-delete(\s|$)|-ok\s|-okdir\s)`
	AwkDangerousPatterns = `(?i)(system\s*\(|getline|print\s*>\s|print\s*>>\s|print\s*\|\s)`
	SedDangerousPatterns = `(?i)(-i\s|-i$|-i['"]|/e\s|/e$|/e['"]|/e[gp]*['"\s]|/e[gp]*$|/w\s)`
)

// Quote character sets for command-line parsing.
const (
	quoteCharsAll        = "'\"`"
	quoteCharsNoBacktick = "'\""
)

// Resource bounds guarding pattern matching against pathological input.
const (
	MaxCommandLength  = 10000
	MaxRecursionDepth = 20
	MaxTotalSegments  = 500
)

// commandExtractAction is invoked for each non-escaped, non-quote byte
// while scanning a command line. Returning >0 skips that many bytes.
type commandExtractAction func(cmd string, pos int, state quoteState, results *[]string) int

// parseCommandWithQuoteAwareness walks cmd tracking escape and quote
// state, invoking action at each byte not consumed by quoting.
func parseCommandWithQuoteAwareness(cmd string, quoteChars string, action commandExtractAction) []string {
	var results []string
	state := quoteNone
	escaped := false

	for i := 0; i < len(cmd); i++ {
		c := cmd[i]

		if escaped {
			escaped = false
			continue
		}
		if isEscapeChar(c, state) {
			escaped = true
			continue
		}
		if strings.ContainsRune(quoteChars, rune(c)) {
			state = updateQuoteState(state, c)
			continue
		}
		if skip := action(cmd, i, state, &results); skip > 0 {
			i += skip - 1
		}
	}
	return results
}

func extractDollarParenActionWithDepth(cmd string, pos int, state quoteState, results *[]string, depth int) int {
	if !isDollarParenStart(cmd, pos, state) {
		return 0
	}
	content, endPos := extractSingleDollarParen(cmd, pos+2, state)
	if content != "" {
		*results = append(*results, content)
		if depth < MaxRecursionDepth {
			nested := extractDollarParenCommandsWithDepth(content, depth+1)
			*results = append(*results, nested...)
		}
	}
	if endPos > pos {
		return endPos - pos + 1
	}
	return 0
}

func extractDollarParenCommandsWithDepth(cmd string, depth int) []string {
	if depth >= MaxRecursionDepth {
		return nil
	}
	action := func(cmd string, pos int, state quoteState, results *[]string) int {
		return extractDollarParenActionWithDepth(cmd, pos, state, results, depth)
	}
	return parseCommandWithQuoteAwareness(cmd, quoteCharsAll, action)
}

// ExtractDollarParenCommands recursively extracts every command found
// inside "$(...)" substitutions (respecting quoting), used to validate
// nested commands the same way their enclosing line is validated.
func ExtractDollarParenCommands(cmd string) []string {
	return extractDollarParenCommandsWithDepth(cmd, 0)
}

func extractImmediateDollarParenAction(cmd string, pos int, state quoteState, results *[]string) int {
	if !isDollarParenStart(cmd, pos, state) {
		return 0
	}
	content, endPos := extractSingleDollarParen(cmd, pos+2, state)
	if content != "" {
		*results = append(*results, content)
	}
	if endPos > pos {
		return endPos - pos + 1
	}
	return 0
}

// ExtractImmediateDollarParenCommands extracts only top-level "$(...)"
// substitutions, leaving nested ones for the caller's own recursion.
func ExtractImmediateDollarParenCommands(cmd string) []string {
	return parseCommandWithQuoteAwareness(cmd, quoteCharsAll, extractImmediateDollarParenAction)
}

func extractSingleDollarParen(cmd string, pos int, outerState quoteState) (string, int) {
	depth := 1
	state := outerState
	escaped := false
	start := pos

	for i := pos; i < len(cmd); i++ {
		c := cmd[i]
		if escaped {
			escaped = false
			continue
		}
		if isEscapeChar(c, state) {
			escaped = true
			continue
		}
		if isQuoteChar(c) {
			state = updateQuoteState(state, c)
			continue
		}
		if isDollarParenStart(cmd, i, state) {
			depth++
			i++
			continue
		}
		if c == ')' && (state == quoteNone || state == quoteDouble) {
			depth--
			if depth == 0 {
				return strings.TrimSpace(cmd[start:i]), i
			}
		}
	}
	return "", -1
}

func extractBacktickActionWithDepth(cmd string, pos int, state quoteState, results *[]string, depth int) int {
	c := cmd[pos]
	if c != '`' || state == quoteSingle {
		return 0
	}
	content, endPos := extractSingleBacktick(cmd, pos+1)
	if content != "" {
		*results = append(*results, content)
		if depth < MaxRecursionDepth {
			nested := extractDollarParenCommandsWithDepth(content, depth+1)
			*results = append(*results, nested...)
		}
	}
	if endPos > pos {
		return endPos - pos + 1
	}
	return 0
}

func extractBacktickCommandsWithDepth(cmd string, depth int) []string {
	if depth >= MaxRecursionDepth {
		return nil
	}
	action := func(cmd string, pos int, state quoteState, results *[]string) int {
		return extractBacktickActionWithDepth(cmd, pos, state, results, depth)
	}
	return parseCommandWithQuoteAwareness(cmd, quoteCharsNoBacktick, action)
}

// ExtractBacktickCommands recursively extracts commands from legacy
// backtick substitutions (which don't nest; inner backticks must be
// escaped), skipped entirely inside single quotes.
func ExtractBacktickCommands(cmd string) []string {
	return extractBacktickCommandsWithDepth(cmd, 0)
}

func extractImmediateBacktickAction(cmd string, pos int, state quoteState, results *[]string) int {
	c := cmd[pos]
	if c != '`' || state == quoteSingle {
		return 0
	}
	content, endPos := extractSingleBacktick(cmd, pos+1)
	if content != "" {
		*results = append(*results, content)
	}
	if endPos > pos {
		return endPos - pos + 1
	}
	return 0
}

// ExtractImmediateBacktickCommands extracts only top-level backtick
// substitutions.
func ExtractImmediateBacktickCommands(cmd string) []string {
	return parseCommandWithQuoteAwareness(cmd, quoteCharsNoBacktick, extractImmediateBacktickAction)
}

func extractSingleBacktick(cmd string, pos int) (string, int) {
	escaped := false
	start := pos
	var content strings.Builder

	for i := pos; i < len(cmd); i++ {
		c := cmd[i]
		if escaped {
			if c == '`' {
				content.WriteByte(c)
			} else {
				content.WriteByte('\\')
				content.WriteByte(c)
			}
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '`' {
			result := strings.TrimSpace(content.String())
			if result == "" {
				result = strings.TrimSpace(cmd[start:i])
			}
			return result, i
		}
		content.WriteByte(c)
	}
	return "", -1
}
