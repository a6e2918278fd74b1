// Package dispatch resolves a parsed command name to the form of
// command it names: special builtin, user function, regular builtin,
// or external program found on PATH, in exactly that priority order.
// It also gates external dispatch through the restricted-mode/
// dangerous-command validator in internal/safety.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/safety"
	"github.com/den-shell/den/internal/state"
)

// ErrNotFound is returned when a command name resolves to nothing
// runnable: no special builtin, no function, no regular builtin, and
// no executable on PATH.
var ErrNotFound = errors.New("command not found")

// ErrBlocked is returned when restricted mode's allow-list rejects a
// command outright (Allowed == false in the safety.ValidationResult).
var ErrBlocked = errors.New("command not allowed")

// BuiltinSet reports whether a name is a registered regular builtin.
// internal/builtin implements this (as a plain func value or a small
// wrapper) to avoid dispatch importing builtin directly, since builtin
// itself calls back into dispatch/exec for `command`/`builtin`.
type BuiltinSet interface {
	IsBuiltin(name string) bool
}

// BuiltinSetFunc adapts a plain function to BuiltinSet.
type BuiltinSetFunc func(name string) bool

func (f BuiltinSetFunc) IsBuiltin(name string) bool { return f(name) }

// Resolution is the outcome of resolving one command name.
type Resolution struct {
	Kind ast.CommandKind
	// Path is the absolute external-program path, set only when Kind
	// is KindExternal.
	Path string
	// Validation carries the safety verdict for external commands; the
	// caller (internal/exec) must honor NeedsConfirm before running.
	Validation safety.ValidationResult
}

// Resolver performs the special-builtin -> function -> builtin ->
// external resolution order described by the dispatcher's contract.
type Resolver struct {
	Store     *state.Store
	Builtins  BuiltinSet
	Validator safety.Validator
	// Lookup finds (and caches) the absolute path for an external
	// command name; defaults to LookPath using the Store's PATH cache.
	Lookup func(store *state.Store, name string) (string, error)
}

// NewResolver builds a Resolver with the default PATH-cache-backed
// Lookup function.
func NewResolver(store *state.Store, builtins BuiltinSet, validator safety.Validator) *Resolver {
	return &Resolver{Store: store, Builtins: builtins, Validator: validator, Lookup: LookPath}
}

// Resolve decides how cmd.Name should run. commandLine is the
// reconstructed (post-expansion) source text used for safety
// validation of external commands; callers that already have it handy
// (e.g. the executor, which expanded the word list) should pass it
// rather than have Resolve re-join the arguments.
func (r *Resolver) Resolve(name string, commandLine string) (Resolution, error) {
	if IsSpecialBuiltin(name) {
		return Resolution{Kind: ast.KindBuiltin}, nil
	}
	if _, ok := r.Store.Function(name); ok {
		return Resolution{Kind: ast.KindFunction}, nil
	}
	if r.Builtins != nil && r.Builtins.IsBuiltin(name) {
		return Resolution{Kind: ast.KindBuiltin}, nil
	}

	lookup := r.Lookup
	if lookup == nil {
		lookup = LookPath
	}
	path, err := lookup(r.Store, name)
	if errors.Is(err, ErrNotExecutable) {
		return Resolution{}, fmt.Errorf("%s: %w", name, ErrNotExecutable)
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	result := Resolution{Kind: ast.KindExternal, Path: path}
	if r.Validator != nil {
		result.Validation = r.Validator.Validate(commandLine)
		if !result.Validation.Allowed {
			reason := result.Validation.Reason
			if reason == "" {
				reason = "restricted"
			}
			return result, fmt.Errorf("%s: %s: %w", name, reason, ErrBlocked)
		}
	} else {
		result.Validation = safety.ValidationResult{Allowed: true}
	}
	return result, nil
}

// ResolveNonFunction is Resolve with the function-lookup step skipped,
// implementing the `command`/`builtin` builtins' contract that a
// user-defined function of the same name must not shadow the real
// builtin or external program.
func (r *Resolver) ResolveNonFunction(name string, commandLine string) (Resolution, error) {
	if IsSpecialBuiltin(name) {
		return Resolution{Kind: ast.KindBuiltin}, nil
	}
	if r.Builtins != nil && r.Builtins.IsBuiltin(name) {
		return Resolution{Kind: ast.KindBuiltin}, nil
	}

	lookup := r.Lookup
	if lookup == nil {
		lookup = LookPath
	}
	path, err := lookup(r.Store, name)
	if errors.Is(err, ErrNotExecutable) {
		return Resolution{}, fmt.Errorf("%s: %w", name, ErrNotExecutable)
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	result := Resolution{Kind: ast.KindExternal, Path: path}
	if r.Validator != nil {
		result.Validation = r.Validator.Validate(commandLine)
		if !result.Validation.Allowed {
			reason := result.Validation.Reason
			if reason == "" {
				reason = "restricted"
			}
			return result, fmt.Errorf("%s: %s: %w", name, reason, ErrBlocked)
		}
	} else {
		result.Validation = safety.ValidationResult{Allowed: true}
	}
	return result, nil
}
