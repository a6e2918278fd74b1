package shellio

import "github.com/den-shell/den/internal/state"

// Prompt rendering proper (backslash escapes like \u, \h, \w, git
// branch/status, themes) belongs to the excluded prompt subsystem; den
// only needs PS1/PS2/PS3/PS4 to resolve to *something* so the shell is
// runnable standalone without that subsystem installed. These mirror
// bash's own fallback defaults when the variables are unset.
const (
	defaultPS1 = "$ "
	defaultPS2 = "> "
	defaultPS3 = "#? "
	defaultPS4 = "+ "
)

// Primary returns $PS1, or defaultPS1 if unset.
func Primary(store *state.Store) string {
	return promptVar(store, "PS1", defaultPS1)
}

// Continuation returns $PS2, shown while a command is syntactically
// incomplete (open quote, trailing `\`, unterminated heredoc/compound).
func Continuation(store *state.Store) string {
	return promptVar(store, "PS2", defaultPS2)
}

// Select returns $PS3, shown by the `select` builtin's menu loop.
func Select(store *state.Store) string {
	return promptVar(store, "PS3", defaultPS3)
}

// Trace returns $PS4, prefixed to each line of `set -x` output.
func Trace(store *state.Store) string {
	return promptVar(store, "PS4", defaultPS4)
}

func promptVar(store *state.Store, name, fallback string) string {
	if v, ok := store.Get(name); ok && v != "" {
		return v
	}
	return fallback
}
