package expand

import (
	"reflect"
	"testing"

	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/state"
)

func newEngine() (*Engine, *state.Store) {
	s := state.New(nil)
	return New(s, nil), s
}

func TestExpandPlainWord(t *testing.T) {
	e, _ := newEngine()
	got, err := e.ExpandWord(ast.NewWord("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"hello"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandBareVariable(t *testing.T) {
	e, s := newEngine()
	s.Set("NAME", "world")
	got, err := e.ExpandWord(ast.NewWord("$NAME"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"world"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandDefaultValueOperator(t *testing.T) {
	e, _ := newEngine()
	got, err := e.ExpandWord(ast.NewWord("${MISSING:-fallback}"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"fallback"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandAssignDefaultOperator(t *testing.T) {
	e, s := newEngine()
	got, err := e.ExpandWord(ast.NewWord("${X:=set}"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"set"}) {
		t.Fatalf("got %v", got)
	}
	if v, _ := s.Get("X"); v != "set" {
		t.Fatalf("expected X to be assigned, got %q", v)
	}
}

func TestExpandLength(t *testing.T) {
	e, s := newEngine()
	s.Set("FOO", "hello")
	got, err := e.ExpandWord(ast.NewWord("${#FOO}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "5" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandPrefixSuffixTrim(t *testing.T) {
	e, s := newEngine()
	s.Set("PATH_", "/usr/local/bin")
	got, err := e.ExpandWord(ast.NewWord("${PATH_%/*}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "/usr/local" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandSubstringOperator(t *testing.T) {
	e, s := newEngine()
	s.Set("S", "abcdefgh")
	got, err := e.ExpandWord(ast.NewWord("${S:2:3}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "cde" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandCaseConvertUpperAll(t *testing.T) {
	e, s := newEngine()
	s.Set("X", "hello")
	got, err := e.ExpandWord(ast.NewWord("${X^^}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "HELLO" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandCaseConvertUpperFirst(t *testing.T) {
	e, s := newEngine()
	s.Set("X", "hello")
	got, err := e.ExpandWord(ast.NewWord("${X^}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "Hello" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandCaseConvertLowerAll(t *testing.T) {
	e, s := newEngine()
	s.Set("X", "HELLO")
	got, err := e.ExpandWord(ast.NewWord("${X,,}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "hello" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandCaseConvertLowerFirst(t *testing.T) {
	e, s := newEngine()
	s.Set("X", "HELLO")
	got, err := e.ExpandWord(ast.NewWord("${X,}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "hELLO" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandCaseConvertWithPattern(t *testing.T) {
	e, s := newEngine()
	s.Set("X", "helloworld")
	got, err := e.ExpandWord(ast.NewWord("${X^^[lo]}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "heLLOwOrLd" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandPatternReplace(t *testing.T) {
	e, s := newEngine()
	s.Set("S", "foo.bar.baz")
	got, err := e.ExpandWord(ast.NewWord("${S//./_}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "foo_bar_baz" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandArithmeticSubstitution(t *testing.T) {
	e, s := newEngine()
	s.SetInt("n", 4)
	got, err := e.ExpandWord(ast.NewWord("$((n * 2 + 1))"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "9" {
		t.Fatalf("got %v", got)
	}
}

type fakeRunner struct {
	stdout string
	code   int
}

func (f fakeRunner) RunCaptured(src string) (string, int, error) {
	return f.stdout, f.code, nil
}

func TestExpandCommandSubstitution(t *testing.T) {
	s := state.New(nil)
	e := New(s, fakeRunner{stdout: "hi\n", code: 0})
	got, err := e.ExpandWord(ast.NewWord("$(echo hi)"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "hi" {
		t.Fatalf("got %v", got)
	}
}

func TestExpandWordSplitting(t *testing.T) {
	e, s := newEngine()
	s.Set("LIST", "a  b   c")
	got, err := e.ExpandWord(ast.NewWord("$LIST"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandDoubleQuotedNoSplit(t *testing.T) {
	e, s := newEngine()
	s.Set("LIST", "a b c")
	w := ast.Word{
		Raw:      `"$LIST"`,
		Segments: []ast.Segment{{Kind: ast.SegDoubleQuoted, Text: "$LIST"}},
	}
	got, err := e.ExpandWord(w)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"a b c"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandSingleQuotedLiteral(t *testing.T) {
	e, _ := newEngine()
	w := ast.Word{
		Raw:      `'$HOME'`,
		Segments: []ast.Segment{{Kind: ast.SegSingleQuoted, Text: "$HOME"}},
	}
	got, err := e.ExpandWord(w)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"$HOME"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandEmptyUnquotedVanishes(t *testing.T) {
	e, _ := newEngine()
	got, err := e.ExpandWord(ast.NewWord("$UNSET"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected zero fields, got %v", got)
	}
}

func TestBraceExpansionList(t *testing.T) {
	got := BraceExpand("file.{a,b,c}")
	want := []string{"file.a", "file.b", "file.c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestBraceExpansionRange(t *testing.T) {
	got := BraceExpand("{1..3}")
	want := []string{"1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestBraceExpansionNoCommaLeftLiteral(t *testing.T) {
	got := BraceExpand("{solo}")
	want := []string{"{solo}"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandArrayAt(t *testing.T) {
	e, s := newEngine()
	s.SetArrayElem("arr", 0, "x")
	s.SetArrayElem("arr", 1, "y")
	got, err := e.ExpandWord(ast.NewWord("${arr[@]}"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandIndirect(t *testing.T) {
	e, s := newEngine()
	s.Set("ref", "target")
	s.Set("target", "value")
	got, err := e.ExpandWord(ast.NewWord("${!ref}"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "value" {
		t.Fatalf("got %v", got)
	}
}
