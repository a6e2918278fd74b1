package token

import "testing"

func TestTokenizeSimpleCommand(t *testing.T) {
	toks, err := Tokenize([]byte("echo hello world\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKinds := []Kind{Word, Word, Word, Newline, EOF}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(wantKinds), toks)
	}
	for i, k := range wantKinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: got kind %s, want %s", i, toks[i].Kind, k)
		}
	}
	if toks[0].Raw != "echo" || toks[1].Raw != "hello" || toks[2].Raw != "world" {
		t.Errorf("unexpected raw text: %+v", toks[:3])
	}
}

func TestTokenizeQuoting(t *testing.T) {
	toks, err := Tokenize([]byte(`echo "a b"'c'\d`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[1].Kind != Word {
		t.Fatalf("expected word token, got %+v", toks[1])
	}
	segs := toks[1].Segments
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Kind != SegDoubleQuoted || segs[0].Text != "a b" {
		t.Errorf("segment 0 = %+v", segs[0])
	}
	if segs[1].Kind != SegSingleQuoted || segs[1].Text != "c" {
		t.Errorf("segment 1 = %+v", segs[1])
	}
	if segs[2].Kind != SegEscaped || segs[2].Text != "d" {
		t.Errorf("segment 2 = %+v", segs[2])
	}
}

func TestTokenizeOperators(t *testing.T) {
	toks, err := Tokenize([]byte("a && b || c | d ; e &"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ops []string
	for _, tok := range toks {
		if tok.Kind == Operator {
			ops = append(ops, tok.Raw)
		}
	}
	want := []string{"&&", "||", "|", ";", "&"}
	if len(ops) != len(want) {
		t.Fatalf("got operators %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("operator %d: got %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestTokenizeRedirection(t *testing.T) {
	toks, err := Tokenize([]byte("cmd > out.txt 2>> err.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var redirs []string
	for _, tok := range toks {
		if tok.Kind == Redirection {
			redirs = append(redirs, tok.Raw)
		}
	}
	if len(redirs) != 2 || redirs[0] != ">" || redirs[1] != ">>" {
		t.Fatalf("unexpected redirection tokens: %v", redirs)
	}
}

func TestTokenizeKeywordOnlyAtCommandStart(t *testing.T) {
	toks, err := Tokenize([]byte("if true; then echo if; fi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != Keyword || toks[0].Raw != "if" {
		t.Errorf("expected leading if to be Keyword, got %+v", toks[0])
	}
	// The "if" that appears as echo's argument must NOT be a keyword.
	found := false
	for _, tok := range toks {
		if tok.Raw == "if" && tok.Kind == Word {
			found = true
		}
	}
	if !found {
		t.Errorf("expected argument 'if' to stay a Word token: %+v", toks)
	}
}

func TestTokenizeHeredoc(t *testing.T) {
	src := "cat <<EOF\nhello\nworld\nEOF\n"
	toks, err := Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var heredoc *Token
	for i := range toks {
		if toks[i].Kind == Redirection && toks[i].Raw == "<<" {
			heredoc = &toks[i]
		}
	}
	if heredoc == nil {
		t.Fatalf("expected a << redirection token: %+v", toks)
	}
	if heredoc.HereDelim != "EOF" {
		t.Errorf("got delim %q, want EOF", heredoc.HereDelim)
	}
	if heredoc.HereBody != "hello\nworld\n" {
		t.Errorf("got body %q", heredoc.HereBody)
	}
}

func TestTokenizeHeredocStripTabs(t *testing.T) {
	src := "cat <<-EOF\n\tindented\n\tEOF\n"
	toks, err := Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var heredoc *Token
	for i := range toks {
		if toks[i].Kind == Redirection && toks[i].Raw == "<<-" {
			heredoc = &toks[i]
		}
	}
	if heredoc == nil {
		t.Fatalf("expected a <<- redirection token: %+v", toks)
	}
	if heredoc.HereBody != "indented\n" {
		t.Errorf("got body %q, want tab-stripped body", heredoc.HereBody)
	}
}

func TestTokenizeUnterminatedQuoteErrors(t *testing.T) {
	_, err := Tokenize([]byte(`echo "unterminated`))
	if err == nil {
		t.Fatal("expected an error for unterminated double quote")
	}
}

func TestTokenizeUnterminatedHeredocErrors(t *testing.T) {
	_, err := Tokenize([]byte("cat <<EOF\nmissing terminator\n"))
	if err == nil {
		t.Fatal("expected an error for unterminated here-doc")
	}
}

func TestTokenizeComment(t *testing.T) {
	toks, err := Tokenize([]byte("echo hi # a comment\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var comment *Token
	for i := range toks {
		if toks[i].Kind == Comment {
			comment = &toks[i]
		}
	}
	if comment == nil {
		t.Fatalf("expected a comment token: %+v", toks)
	}
	if comment.Raw != "# a comment" {
		t.Errorf("got comment raw %q", comment.Raw)
	}
}
