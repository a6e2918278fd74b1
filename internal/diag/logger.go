package diag

import (
	"log/slog"
	"os"

	"github.com/den-shell/den/internal/shellio"
)

// New builds den's default diagnostic logger: colored text to stderr,
// colored only when both stderr is a terminal and $NO_COLOR is unset
// (the env var core reads per spec.md §6). Components that need to
// log — trap firing, job state changes, rc reload — take a *slog.Logger
// rather than importing diag directly, so tests can swap in
// slog.New(slog.NewTextHandler(io.Discard, nil)) instead.
func New(w *os.File, interactive bool) *slog.Logger {
	_, noColor := os.LookupEnv("NO_COLOR")
	color := interactive && !noColor && shellio.IsTerminal(w)
	return slog.New(NewTextHandler(w, WithColor(color)))
}
