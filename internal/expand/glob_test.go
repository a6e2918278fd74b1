package expand

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/den-shell/den/internal/ast"
)

func mustWriteFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGlobPatternHidesDotfilesByDefault(t *testing.T) {
	dir := t.TempDir()
	mustWriteFiles(t, dir, "a.txt", ".hidden.txt")

	got, err := globPattern(filepath.Join(dir, "*.txt"), globOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.txt")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGlobPatternDotglobIncludesDotfiles(t *testing.T) {
	dir := t.TempDir()
	mustWriteFiles(t, dir, "a.txt", ".hidden.txt")

	got, err := globPattern(filepath.Join(dir, "*.txt"), globOptions{dotglob: true})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, ".hidden.txt"), filepath.Join(dir, "a.txt")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGlobPatternNocaseglob(t *testing.T) {
	dir := t.TempDir()
	mustWriteFiles(t, dir, "README.md")

	got, err := globPattern(filepath.Join(dir, "readme.*"), globOptions{nocaseglob: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "README.md")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGlobPatternGlobstarRecursesSubdirs(t *testing.T) {
	dir := t.TempDir()
	mustWriteFiles(t, dir, "top.go", "sub/nested.go", "sub/deeper/more.go")

	got, err := globPattern(filepath.Join(dir, "**/*.go"), globOptions{globstar: true})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := []string{
		filepath.Join(dir, "sub/deeper/more.go"),
		filepath.Join(dir, "sub/nested.go"),
		filepath.Join(dir, "top.go"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGlobPatternExtglob(t *testing.T) {
	dir := t.TempDir()
	mustWriteFiles(t, dir, "foo.txt", "bar.txt", "baz.md")

	got, err := globPattern(filepath.Join(dir, "@(foo|bar).txt"), globOptions{extglob: true})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, "bar.txt"), filepath.Join(dir, "foo.txt")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpandFailglobErrorsOnNoMatch(t *testing.T) {
	e, s := newEngine()
	s.SetOption("failglob", true)
	_, err := e.ExpandWord(ast.NewWord("/no/such/dir/*.nope"))
	if err == nil {
		t.Fatal("expected an error from failglob on no match")
	}
}

func TestExpandNullglobDropsNoMatch(t *testing.T) {
	e, s := newEngine()
	s.SetOption("nullglob", true)
	got, err := e.ExpandWord(ast.NewWord("/no/such/dir/*.nope"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want no fields", got)
	}
}

func TestExpandDefaultGlobKeepsLiteralOnNoMatch(t *testing.T) {
	e, _ := newEngine()
	got, err := e.ExpandWord(ast.NewWord("/no/such/dir/*.nope"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/no/such/dir/*.nope"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
