// Package diag provides den's diagnostic logging: trap invocations,
// job-control transitions, rc-file reload notices, and internal
// warnings that aren't part of a command's own stdout/stderr. It is
// grounded on kazz187-taskguild's pkg/clog — a log/slog.Handler that
// renders colored text lines via fatih/color — stripped of clog's
// HTTP/Connect-RPC-specific column handling, which has no analogue in
// a shell.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/fatih/color"
)

// Config controls TextHandler's rendering.
type Config struct {
	// Color enables ANSI coloring of the level field. Callers should
	// set this false when $NO_COLOR is set or stderr isn't a terminal.
	Color bool
	// Level is the minimum level recorded; records below it are
	// dropped. Defaults to slog.LevelInfo if nil.
	Level *slog.Level
}

// Option configures a TextHandler.
type Option func(*Config)

// WithColor toggles ANSI coloring.
func WithColor(on bool) Option {
	return func(c *Config) { c.Color = on }
}

// WithLevel sets the minimum recorded level.
func WithLevel(level slog.Level) Option {
	return func(c *Config) { c.Level = &level }
}

// TextHandler is a slog.Handler that writes one colored line per
// record: a timestamp, a level tag, the message, then any attributes
// as sorted "key=value" pairs on indented continuation lines.
type TextHandler struct {
	cfg   Config
	attrs []slog.Attr
	w     io.Writer
}

// NewTextHandler builds a TextHandler writing to w.
func NewTextHandler(w io.Writer, opts ...Option) *TextHandler {
	cfg := Config{Color: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{cfg: cfg, w: w}
}

func (h *TextHandler) clone() *TextHandler {
	nh := *h
	nh.attrs = make([]slog.Attr, len(h.attrs))
	copy(nh.attrs, h.attrs)
	return &nh
}

// Enabled reports whether l meets the handler's minimum level.
func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	min := slog.LevelInfo
	if h.cfg.Level != nil {
		min = *h.cfg.Level
	}
	return l >= min
}

// WithAttrs returns a handler with additional attributes attached to
// every subsequent record.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := h.clone()
	nh.attrs = append(nh.attrs, attrs...)
	return nh
}

// WithGroup is a no-op: den's log records are flat, so groups just
// fall through to the handler unchanged rather than prefixing keys.
func (h *TextHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Handle renders record to the handler's writer.
func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	color.NoColor = !h.cfg.Color
	c := color.New()
	levelColor := levelColor(record.Level)

	if _, err := fmt.Fprintf(h.w, "%s ", record.Time.Format(time.RFC3339)); err != nil {
		return err
	}
	if _, err := levelColor.Fprintf(h.w, "%-5s ", record.Level); err != nil {
		return err
	}
	if _, err := c.Fprintf(h.w, "%s\n", record.Message); err != nil {
		return err
	}

	kv := make(map[string]slog.Value, len(h.attrs))
	for _, a := range h.attrs {
		kv[a.Key] = a.Value
	}
	record.Attrs(func(a slog.Attr) bool {
		kv[a.Key] = a.Value
		return true
	})
	if len(kv) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(h.w, "    %s=%s\n", k, kv[k]); err != nil {
			return err
		}
	}
	return nil
}

func levelColor(l slog.Level) *color.Color {
	switch {
	case l >= slog.LevelError:
		return color.New(color.FgRed)
	case l >= slog.LevelWarn:
		return color.New(color.FgYellow)
	case l >= slog.LevelInfo:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgCyan)
	}
}
