package parse

import (
	"strconv"

	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/token"
)

// Parser consumes a flat token.Token slice (as produced by
// internal/token) and builds an ast.CommandChain by recursive descent.
// A Parser is single-use: construct one per top-level parse.
type Parser struct {
	toks []token.Token
	pos  int
}

// New creates a Parser over a token stream already produced by the
// tokenizer (including its trailing EOF token).
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse tokenizes src and parses it into a CommandChain in one step.
func Parse(src []byte) (*ast.CommandChain, error) {
	toks, err := token.Tokenize(src)
	if err != nil {
		return nil, &Error{Msg: err.Error()}
	}
	return New(toks).ParseChain()
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atKeyword(words ...string) bool {
	// "in" follows the variable/word of for, case and select, which is
	// never command-start position, so the lexer hands it over as a Word.
	isIn := p.cur().Kind == token.Word && p.cur().Raw == "in"
	if p.cur().Kind != token.Keyword && !isIn {
		return false
	}
	for _, w := range words {
		if p.cur().Raw == w {
			return true
		}
	}
	return false
}

func (p *Parser) atOperator(ops ...string) bool {
	if p.cur().Kind != token.Operator && p.cur().Kind != token.Redirection {
		return false
	}
	for _, op := range ops {
		if p.cur().Raw == op {
			return true
		}
	}
	return false
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// skipSeparators consumes newlines and stray comments between statements.
func (p *Parser) skipSeparators() {
	for p.at(token.Newline) || p.at(token.Comment) {
		p.advance()
	}
}

func (p *Parser) skipComments() {
	for p.at(token.Comment) {
		p.advance()
	}
}

// ParseChain parses a full top-level CommandChain: zero or more
// ';'/newline/'&'-separated and-or lists, terminated by EOF.
func (p *Parser) ParseChain() (*ast.CommandChain, error) {
	chain := &ast.CommandChain{}
	p.skipSeparators()
	for !p.at(token.EOF) {
		connector := ast.OpNone
		if len(chain.Elements) > 0 {
			connector = ast.OpSemicolon
		}
		if err := p.parseAndOrInto(chain, connector); err != nil {
			return nil, err
		}
		p.skipSeparators()
	}
	return chain, nil
}

// parseAndOrInto parses "pipeline (('&&'|'||') pipeline)*" optionally
// followed by a trailing ';' or '&', appending every command onto
// chain. firstOp links the first pipeline's first command to whatever
// preceded it in chain (OpNone at the very start of a chain).
func (p *Parser) parseAndOrInto(chain *ast.CommandChain, firstOp ast.Operator) error {
	op := firstOp
	for {
		if err := p.parsePipelineInto(chain, op); err != nil {
			return err
		}
		p.skipComments()
		switch {
		case p.atOperator("&&"):
			p.advance()
			p.skipSeparators()
			op = ast.OpAndIf
			continue
		case p.atOperator("||"):
			p.advance()
			p.skipSeparators()
			op = ast.OpOrIf
			continue
		}
		break
	}

	switch {
	case p.atOperator(";"):
		p.advance()
	case p.atOperator("&"):
		p.advance()
		if n := len(chain.Elements); n > 0 {
			chain.Elements[n-1].Command.Background = true
		}
	}
	return nil
}

// parsePipelineInto parses "['!'] command ('|' command)*", appending
// the resulting elements to chain. op links the pipeline's first
// command to the previous element in chain; every following '|'
// segment is always linked with OpPipe.
func (p *Parser) parsePipelineInto(chain *ast.CommandChain, op ast.Operator) error {
	negated := false
	if p.atKeyword("!") {
		p.advance()
		negated = true
	}
	first, err := p.parseCommand()
	if err != nil {
		return err
	}
	first.Negated = negated
	chain.Elements = append(chain.Elements, ast.Element{Op: op, Command: first})

	for p.atOperator("|") {
		p.advance()
		p.skipSeparators()
		next, err := p.parseCommand()
		if err != nil {
			return err
		}
		chain.Elements = append(chain.Elements, ast.Element{Op: ast.OpPipe, Command: next})
	}
	return nil
}

// wordFromToken converts a lexed Word token into an ast.Word, mapping
// token.SegKind to ast.SegmentKind one-for-one.
func wordFromToken(t token.Token) ast.Word {
	w := ast.Word{Raw: t.Raw}
	for _, s := range t.Segments {
		w.Segments = append(w.Segments, ast.Segment{Kind: ast.SegmentKind(s.Kind), Text: s.Text})
	}
	if len(w.Segments) == 0 && t.Raw != "" {
		w.Segments = []ast.Segment{{Kind: ast.SegUnquoted, Text: t.Raw}}
	}
	return w
}

// fdFromWord checks whether a word token immediately preceding a
// redirection operator (no intervening whitespace) is a bare digit
// sequence, meaning it names the redirection's file descriptor rather
// than being a separate argument.
func fdFromWord(w token.Token, redir token.Token) (int, bool) {
	if w.Kind != token.Word || len(w.Segments) != 1 || w.Segments[0].Kind != token.SegUnquoted {
		return -1, false
	}
	if w.Pos+len(w.Raw) != redir.Pos {
		return -1, false
	}
	n, err := strconv.Atoi(w.Raw)
	if err != nil || n < 0 {
		return -1, false
	}
	return n, true
}
