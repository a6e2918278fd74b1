package safety

import "testing"

func TestIsDangerousCommand(t *testing.T) {
	cases := []struct {
		cmd  string
		want bool
	}{
		{"rm -rf /", true},
		{"sudo apt update", true},
		{"ls -la", false},
		{"echo hello", false},
		{"dd if=/dev/zero of=/dev/sda", true},
	}
	for _, c := range cases {
		got, reason := IsDangerousCommand(c.cmd)
		if got != c.want {
			t.Errorf("IsDangerousCommand(%q) = %v (%q), want %v", c.cmd, got, reason, c.want)
		}
	}
}

func TestIsDangerousCommandAllowsDevNull(t *testing.T) {
	got, _ := IsDangerousCommand("dd if=/dev/zero of=/dev/null")
	if got {
		t.Fatalf("expected write to /dev/null to be exempt")
	}
}

func TestIsDangerousCommandLengthLimit(t *testing.T) {
	long := make([]byte, MaxCommandLength+1)
	for i := range long {
		long[i] = 'a'
	}
	got, _ := IsDangerousCommand(string(long))
	if !got {
		t.Fatalf("expected oversized command to be flagged dangerous")
	}
}

func TestCommandWhitelistIsAllowed(t *testing.T) {
	w := NewCommandWhitelist(DefaultWhitelistPatterns())
	if ok, _ := w.IsAllowed("ls -la"); !ok {
		t.Fatalf("expected ls to be whitelisted")
	}
	if ok, _ := w.IsAllowed("rm -rf /"); ok {
		t.Fatalf("expected rm to be rejected")
	}
}

func TestCommandWhitelistIsAllowedWithPipes(t *testing.T) {
	w := NewCommandWhitelist(DefaultWhitelistPatterns())
	if ok, _ := w.IsAllowedWithPipes("cat file.txt | grep foo"); !ok {
		t.Fatalf("expected piped read-only chain to be allowed")
	}
	if ok, _ := w.IsAllowedWithPipes("cat file.txt | rm -rf /"); ok {
		t.Fatalf("expected chain with dangerous segment to be rejected")
	}
}

func TestCommandWhitelistRejectsSubstitutionEscape(t *testing.T) {
	w := NewCommandWhitelist(DefaultWhitelistPatterns())
	if ok, _ := w.IsAllowedWithPipes("echo $(rm -rf /)"); ok {
		t.Fatalf("expected dangerous command substitution to be rejected")
	}
}

func TestCommandWhitelistFindExcludesExec(t *testing.T) {
	w := NewCommandWhitelist(DefaultWhitelistPatterns())
	if ok, _ := w.IsAllowed("find . -exec rm {} \\;"); ok {
		t.Fatalf("expected find -exec to be excluded from whitelist")
	}
}

func TestCommandWhitelistUnbalancedQuotesRejected(t *testing.T) {
	w := NewCommandWhitelist(DefaultWhitelistPatterns())
	if ok, _ := w.IsAllowedWithPipes(`echo "unterminated`); ok {
		t.Fatalf("expected unbalanced quotes to be rejected")
	}
}

func TestValidatorBlacklistMode(t *testing.T) {
	v, err := NewCommandValidator(ModeBlacklist, nil)
	if err != nil {
		t.Fatal(err)
	}
	res := v.Validate("rm -rf /")
	if !res.Allowed || !res.IsDangerous || !res.NeedsConfirm {
		t.Fatalf("got %+v", res)
	}
	res = v.Validate("ls -la")
	if !res.Allowed || res.IsDangerous || res.NeedsConfirm {
		t.Fatalf("got %+v", res)
	}
}

func TestValidatorWhitelistMode(t *testing.T) {
	w := NewCommandWhitelist(DefaultWhitelistPatterns())
	v, err := NewCommandValidator(ModeWhitelist, w)
	if err != nil {
		t.Fatal(err)
	}
	if res := v.Validate("ls -la"); !res.Allowed {
		t.Fatalf("expected ls allowed in restricted mode, got %+v", res)
	}
	if res := v.Validate("vim /etc/passwd"); res.Allowed {
		t.Fatalf("expected vim blocked in restricted mode, got %+v", res)
	}
}

func TestNewCommandValidatorRequiresWhitelist(t *testing.T) {
	if _, err := NewCommandValidator(ModeWhitelist, nil); err == nil {
		t.Fatalf("expected error when restricted mode has no whitelist")
	}
}

func TestValidateMode(t *testing.T) {
	if m, err := ValidateMode("whitelist"); err != nil || m != ModeWhitelist {
		t.Fatalf("got %v, %v", m, err)
	}
	if m, err := ValidateMode(""); err != nil || m != ModeBlacklist {
		t.Fatalf("got %v, %v", m, err)
	}
	if _, err := ValidateMode("bogus"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func TestExtractDollarParenCommandsNested(t *testing.T) {
	got := ExtractDollarParenCommands("echo $(cat $(find . -name x))")
	if len(got) != 2 {
		t.Fatalf("expected 2 nested commands, got %v", got)
	}
}

func TestExtractBacktickCommands(t *testing.T) {
	got := ExtractBacktickCommands("echo `whoami`")
	if len(got) != 1 || got[0] != "whoami" {
		t.Fatalf("got %v", got)
	}
}
