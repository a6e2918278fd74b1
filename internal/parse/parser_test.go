package parse

import (
	"testing"

	"github.com/den-shell/den/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.CommandChain {
	t.Helper()
	chain, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return chain
}

func TestParseSimpleCommand(t *testing.T) {
	chain := mustParse(t, "echo hello world\n")
	if len(chain.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(chain.Elements))
	}
	cmd := chain.Elements[0].Command
	if cmd.Name.Raw != "echo" {
		t.Errorf("got name %q", cmd.Name.Raw)
	}
	if len(cmd.Args) != 2 || cmd.Args[0].Raw != "hello" || cmd.Args[1].Raw != "world" {
		t.Errorf("got args %+v", cmd.Args)
	}
}

func TestParsePipeline(t *testing.T) {
	chain := mustParse(t, "a | b | c\n")
	pipelines := chain.Pipelines()
	if len(pipelines) != 1 {
		t.Fatalf("expected 1 pipeline, got %d", len(pipelines))
	}
	if len(pipelines[0].Commands) != 3 {
		t.Fatalf("expected 3 commands in pipeline, got %d", len(pipelines[0].Commands))
	}
}

func TestParseAndOrOperators(t *testing.T) {
	chain := mustParse(t, "a && b || c\n")
	pipelines := chain.Pipelines()
	if len(pipelines) != 3 {
		t.Fatalf("expected 3 pipelines, got %d", len(pipelines))
	}
	if pipelines[0].FollowedBy != ast.OpAndIf {
		t.Errorf("expected OpAndIf after first pipeline, got %v", pipelines[0].FollowedBy)
	}
	if pipelines[1].FollowedBy != ast.OpOrIf {
		t.Errorf("expected OpOrIf after second pipeline, got %v", pipelines[1].FollowedBy)
	}
}

func TestParseRedirection(t *testing.T) {
	chain := mustParse(t, "cmd > out.txt 2>> err.txt < in.txt\n")
	cmd := chain.Elements[0].Command
	if len(cmd.Redirs) != 3 {
		t.Fatalf("expected 3 redirections, got %d: %+v", len(cmd.Redirs), cmd.Redirs)
	}
	if cmd.Redirs[0].Kind != ast.RedirOutFile || cmd.Redirs[0].Fd != 1 {
		t.Errorf("redir 0 = %+v", cmd.Redirs[0])
	}
	if cmd.Redirs[1].Kind != ast.RedirAppendFile || cmd.Redirs[1].Fd != 2 {
		t.Errorf("redir 1 = %+v", cmd.Redirs[1])
	}
	if cmd.Redirs[2].Kind != ast.RedirInFile || cmd.Redirs[2].Fd != 0 {
		t.Errorf("redir 2 = %+v", cmd.Redirs[2])
	}
}

func TestParseIfElse(t *testing.T) {
	chain := mustParse(t, "if true; then echo yes; else echo no; fi\n")
	cmd := chain.Elements[0].Command
	if cmd.Kind != ast.KindCompound {
		t.Fatalf("expected compound command, got %v", cmd.Kind)
	}
	clause, ok := cmd.Compound.(*ast.IfClause)
	if !ok {
		t.Fatalf("expected IfClause, got %T", cmd.Compound)
	}
	if len(clause.Conditions) != 1 || len(clause.Thens) != 1 {
		t.Fatalf("unexpected clause shape: %+v", clause)
	}
	if clause.Else == nil {
		t.Fatalf("expected an else branch")
	}
}

func TestParseWhile(t *testing.T) {
	chain := mustParse(t, "while true; do echo loop; done\n")
	clause, ok := chain.Elements[0].Command.Compound.(*ast.WhileClause)
	if !ok {
		t.Fatalf("expected WhileClause, got %T", chain.Elements[0].Command.Compound)
	}
	if clause.Until {
		t.Errorf("expected Until=false for a while loop")
	}
}

func TestParseForIn(t *testing.T) {
	chain := mustParse(t, "for x in a b c; do echo $x; done\n")
	clause, ok := chain.Elements[0].Command.Compound.(*ast.ForClause)
	if !ok {
		t.Fatalf("expected ForClause, got %T", chain.Elements[0].Command.Compound)
	}
	if clause.Var != "x" || len(clause.Items) != 3 {
		t.Fatalf("unexpected for clause: %+v", clause)
	}
}

func TestParseCStyleFor(t *testing.T) {
	chain := mustParse(t, "for ((i=0; i<10; i=i+1)); do echo $i; done\n")
	clause, ok := chain.Elements[0].Command.Compound.(*ast.CStyleFor)
	if !ok {
		t.Fatalf("expected CStyleFor, got %T", chain.Elements[0].Command.Compound)
	}
	if clause.Init == "" || clause.Cond == "" || clause.Update == "" {
		t.Fatalf("unexpected C-style for clause: %+v", clause)
	}
}

func TestParseCase(t *testing.T) {
	chain := mustParse(t, "case $x in a|b) echo ab ;; *) echo other ;; esac\n")
	clause, ok := chain.Elements[0].Command.Compound.(*ast.CaseClause)
	if !ok {
		t.Fatalf("expected CaseClause, got %T", chain.Elements[0].Command.Compound)
	}
	if len(clause.Items) != 2 {
		t.Fatalf("expected 2 case items, got %d", len(clause.Items))
	}
	if len(clause.Items[0].Patterns) != 2 {
		t.Errorf("expected 2 patterns in first item, got %d", len(clause.Items[0].Patterns))
	}
}

func TestParseFunctionDefParens(t *testing.T) {
	chain := mustParse(t, "greet() { echo hi; }\n")
	def, ok := chain.Elements[0].Command.Compound.(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected FunctionDef, got %T", chain.Elements[0].Command.Compound)
	}
	if def.Name != "greet" {
		t.Errorf("got name %q", def.Name)
	}
}

func TestParseFunctionDefKeyword(t *testing.T) {
	chain := mustParse(t, "function greet { echo hi; }\n")
	def, ok := chain.Elements[0].Command.Compound.(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected FunctionDef, got %T", chain.Elements[0].Command.Compound)
	}
	if def.Name != "greet" {
		t.Errorf("got name %q", def.Name)
	}
}

func TestParseDefFunctionTyped(t *testing.T) {
	chain := mustParse(t, "def add x:int y:int -> int { echo $x; }\n")
	def, ok := chain.Elements[0].Command.Compound.(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected FunctionDef, got %T", chain.Elements[0].Command.Compound)
	}
	if def.ReturnType != "int" || len(def.Params) != 2 {
		t.Fatalf("unexpected def: %+v", def)
	}
	if def.Params[0].Name != "x" || def.Params[0].Type != "int" {
		t.Errorf("param 0 = %+v", def.Params[0])
	}
}

func TestParseSubshell(t *testing.T) {
	chain := mustParse(t, "(cd /tmp && ls)\n")
	_, ok := chain.Elements[0].Command.Compound.(*ast.Subshell)
	if !ok {
		t.Fatalf("expected Subshell, got %T", chain.Elements[0].Command.Compound)
	}
}

func TestParseBackground(t *testing.T) {
	chain := mustParse(t, "sleep 5 &\n")
	if !chain.Elements[0].Command.Background {
		t.Errorf("expected command to be marked Background")
	}
}

func TestParseNegatedPipeline(t *testing.T) {
	chain := mustParse(t, "! grep foo file\n")
	if !chain.Elements[0].Command.Negated {
		t.Errorf("expected command to be marked Negated")
	}
}

func TestParseDoubleBracket(t *testing.T) {
	chain := mustParse(t, `[[ 1 -eq 1 && 2 -eq 2 ]]` + "\n")
	cmd := chain.Elements[0].Command
	if cmd.Name.Raw != "[[" {
		t.Fatalf("got name %q, want %q", cmd.Name.Raw, "[[")
	}
	want := []string{"1", "-eq", "1", "&&", "2", "-eq", "2", "]]"}
	if len(cmd.Args) != len(want) {
		t.Fatalf("got %d args %+v, want %d", len(cmd.Args), cmd.Args, len(want))
	}
	for i, w := range want {
		if cmd.Args[i].Raw != w {
			t.Errorf("arg %d = %q, want %q", i, cmd.Args[i].Raw, w)
		}
	}
}

func TestParseDoubleBracketRedirectionLikeOperators(t *testing.T) {
	chain := mustParse(t, `[[ a < b ]]` + "\n")
	cmd := chain.Elements[0].Command
	if len(cmd.Redirs) != 0 {
		t.Fatalf("expected no redirections inside [[ ]], got %+v", cmd.Redirs)
	}
	want := []string{"a", "<", "b", "]]"}
	if len(cmd.Args) != len(want) {
		t.Fatalf("got %d args %+v, want %d", len(cmd.Args), cmd.Args, len(want))
	}
	for i, w := range want {
		if cmd.Args[i].Raw != w {
			t.Errorf("arg %d = %q, want %q", i, cmd.Args[i].Raw, w)
		}
	}
}

func TestParseIncompleteIfReportsIncomplete(t *testing.T) {
	_, err := Parse([]byte("if true; then echo hi"))
	if err == nil {
		t.Fatal("expected an incomplete-parse error")
	}
	perr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Unwrap() != ErrIncomplete {
		t.Errorf("expected wrapped ErrIncomplete, got %v", perr.Unwrap())
	}
}
