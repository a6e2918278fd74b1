package safety

// ValidationResult is the outcome of validating a command line before
// the dispatcher hands it to the executor.
type ValidationResult struct {
	// Allowed reports whether the command may run at all (subject to
	// confirmation if NeedsConfirm is set).
	Allowed bool

	// IsDangerous reports whether a dangerous-command pattern matched.
	IsDangerous bool

	// Reason explains why the command was blocked or flagged.
	Reason string

	// NeedsConfirm reports whether the caller must prompt the user
	// before running the command.
	NeedsConfirm bool
}

// Validator decides whether a command line may run, combining
// restricted-mode allow-listing with dangerous-command detection.
type Validator interface {
	Validate(command string) ValidationResult
}

// CommandValidator is the standard Validator: blacklist mode flags
// dangerous commands for confirmation; whitelist mode (restricted
// mode) blocks anything not on the allow-list outright.
type CommandValidator struct {
	mode      ValidationMode
	whitelist CommandAllowChecker
}

// NewCommandValidator builds a CommandValidator. Restricted mode
// (ModeWhitelist) requires a non-nil whitelist.
func NewCommandValidator(mode ValidationMode, whitelist CommandAllowChecker) (*CommandValidator, error) {
	if mode == ModeWhitelist && whitelist == nil {
		return nil, ErrWhitelistRequired
	}
	return &CommandValidator{mode: mode, whitelist: whitelist}, nil
}

// Validate implements Validator.
func (v *CommandValidator) Validate(command string) ValidationResult {
	if v.mode == ModeWhitelist && v.whitelist != nil {
		return v.validateWhitelistMode(command)
	}
	return v.validateBlacklistMode(command)
}

func (v *CommandValidator) validateWhitelistMode(command string) ValidationResult {
	if allowed, _ := v.whitelist.IsAllowedWithPipes(command); allowed {
		return ValidationResult{Allowed: true}
	}
	return ValidationResult{Allowed: false, Reason: "not on restricted-mode allow-list"}
}

func (v *CommandValidator) validateBlacklistMode(command string) ValidationResult {
	isDangerous, reason := IsDangerousCommand(command)
	if isDangerous {
		return ValidationResult{Allowed: true, IsDangerous: true, Reason: reason, NeedsConfirm: true}
	}
	return ValidationResult{Allowed: true}
}

// Mode returns the validator's configured mode.
func (v *CommandValidator) Mode() ValidationMode {
	return v.mode
}
