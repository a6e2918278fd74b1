package parse

import (
	"strings"

	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/token"
)

func (p *Parser) expectKeyword(word string) error {
	if p.at(token.EOF) {
		return p.incomplete("expected %q", word)
	}
	if !p.atKeyword(word) {
		return p.errf("expected %q, got %q", word, p.cur().Raw)
	}
	p.advance()
	return nil
}

func (p *Parser) expectOperator(op string) error {
	if p.at(token.EOF) {
		return p.incomplete("expected %q", op)
	}
	if !p.atOperator(op) {
		return p.errf("expected %q, got %q", op, p.cur().Raw)
	}
	p.advance()
	return nil
}

func (p *Parser) expectWord() (token.Token, error) {
	if p.at(token.EOF) {
		return token.Token{}, p.incomplete("expected a word")
	}
	if !p.at(token.Word) {
		return token.Token{}, p.errf("expected a word, got %q", p.cur().Raw)
	}
	return p.advance(), nil
}

// parseBodyUntil parses statements until the current token is one of
// the given keywords, returning ErrIncomplete if EOF arrives first.
func (p *Parser) parseBodyUntil(terms ...string) (*ast.CommandChain, error) {
	chain := &ast.CommandChain{}
	p.skipSeparators()
	for {
		if p.at(token.EOF) {
			return nil, p.incomplete("expected one of %v", terms)
		}
		if p.atKeyword(terms...) {
			return chain, nil
		}
		connector := ast.OpNone
		if len(chain.Elements) > 0 {
			connector = ast.OpSemicolon
		}
		if err := p.parseAndOrInto(chain, connector); err != nil {
			return nil, err
		}
		p.skipSeparators()
	}
}

// parseBodyUntilOp is parseBodyUntil but the terminator is an operator
// lexeme (used for subshell "(" ... ")").
func (p *Parser) parseBodyUntilOp(op string) (*ast.CommandChain, error) {
	chain := &ast.CommandChain{}
	p.skipSeparators()
	for {
		if p.at(token.EOF) {
			return nil, p.incomplete("expected %q", op)
		}
		if p.atOperator(op) {
			return chain, nil
		}
		connector := ast.OpNone
		if len(chain.Elements) > 0 {
			connector = ast.OpSemicolon
		}
		if err := p.parseAndOrInto(chain, connector); err != nil {
			return nil, err
		}
		p.skipSeparators()
	}
}

func (p *Parser) parseSubshell() (*ast.ParsedCommand, error) {
	p.advance() // "("
	body, err := p.parseBodyUntilOp(")")
	if err != nil {
		return nil, err
	}
	if err := p.expectOperator(")"); err != nil {
		return nil, err
	}
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: &ast.Subshell{Body: body}}, nil
}

func (p *Parser) parseGroup() (*ast.ParsedCommand, error) {
	p.advance() // "{"
	body, err := p.parseBodyUntil("}")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("}"); err != nil {
		return nil, err
	}
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: &ast.Group{Body: body}}, nil
}

func (p *Parser) parseIf() (*ast.ParsedCommand, error) {
	p.advance() // "if"
	clause := &ast.IfClause{}
	for {
		cond, err := p.parseBodyUntil("then")
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("then"); err != nil {
			return nil, err
		}
		then, err := p.parseBodyUntil("elif", "else", "fi")
		if err != nil {
			return nil, err
		}
		clause.Conditions = append(clause.Conditions, cond)
		clause.Thens = append(clause.Thens, then)
		if p.atKeyword("elif") {
			p.advance()
			continue
		}
		break
	}
	if p.atKeyword("else") {
		p.advance()
		elseBody, err := p.parseBodyUntil("fi")
		if err != nil {
			return nil, err
		}
		clause.Else = elseBody
	}
	if err := p.expectKeyword("fi"); err != nil {
		return nil, err
	}
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: clause}, nil
}

func (p *Parser) parseWhileUntil(until bool) (*ast.ParsedCommand, error) {
	p.advance() // "while" or "until"
	cond, err := p.parseBodyUntil("do")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, err := p.parseBodyUntil("done")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("done"); err != nil {
		return nil, err
	}
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: &ast.WhileClause{Cond: cond, Body: body, Until: until}}, nil
}

func (p *Parser) parseFor() (*ast.ParsedCommand, error) {
	p.advance() // "for"
	if p.atOperator("(") && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.Operator && p.toks[p.pos+1].Raw == "(" {
		p.advance()
		p.advance()
		init, cond, update, err := p.parseCStyleHeader()
		if err != nil {
			return nil, err
		}
		if p.atOperator(";") {
			p.advance()
		}
		p.skipSeparators()
		if err := p.expectKeyword("do"); err != nil {
			return nil, err
		}
		body, err := p.parseBodyUntil("done")
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("done"); err != nil {
			return nil, err
		}
		return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: &ast.CStyleFor{Init: init, Cond: cond, Update: update, Body: body}}, nil
	}

	varTok, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	var items []ast.Word
	hasIn := false
	if p.atKeyword("in") {
		p.advance()
		hasIn = true
		for p.at(token.Word) {
			items = append(items, wordFromToken(p.advance()))
		}
	}
	if p.atOperator(";") {
		p.advance()
	}
	p.skipSeparators()
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, err := p.parseBodyUntil("done")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("done"); err != nil {
		return nil, err
	}
	if !hasIn {
		items = []ast.Word{ast.NewWord("$@")}
	}
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: &ast.ForClause{Var: varTok.Raw, Items: items, Body: body}}, nil
}

// parseCStyleHeader reads raw tokens between "((" and "))", splitting
// the three ';'-separated arithmetic clauses. It reconstructs source
// text by joining token lexemes with spaces since the tokenizer does
// not have a distinct arithmetic-mode scanner; internal/arith
// re-lexes this text on its own terms.
func (p *Parser) parseCStyleHeader() (init, cond, update string, err error) {
	var parts [3]strings.Builder
	idx := 0
	for {
		if p.at(token.EOF) {
			return "", "", "", p.incomplete("expected '))'")
		}
		if p.atOperator(")") && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.Operator && p.toks[p.pos+1].Raw == ")" {
			p.advance()
			p.advance()
			break
		}
		if p.atOperator(";") {
			p.advance()
			idx++
			if idx > 2 {
				return "", "", "", p.errf("too many ';' in C-style for header")
			}
			continue
		}
		t := p.advance()
		if parts[idx].Len() > 0 {
			parts[idx].WriteByte(' ')
		}
		parts[idx].WriteString(t.Raw)
	}
	return parts[0].String(), parts[1].String(), parts[2].String(), nil
}

func (p *Parser) parseCase() (*ast.ParsedCommand, error) {
	p.advance() // "case"
	wordTok, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	p.skipSeparators()
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	p.skipSeparators()

	clause := &ast.CaseClause{Word: wordFromToken(wordTok)}
	for !p.atKeyword("esac") {
		if p.at(token.EOF) {
			return nil, p.incomplete("expected 'esac'")
		}
		if p.atOperator("(") {
			p.advance()
		}
		var patterns []ast.Word
		for {
			wt, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, wordFromToken(wt))
			if p.atOperator("|") {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectOperator(")"); err != nil {
			return nil, err
		}
		body, term, err := p.parseCaseBody()
		if err != nil {
			return nil, err
		}
		clause.Items = append(clause.Items, ast.CaseItem{Patterns: patterns, Body: body, Term: term})
		p.skipSeparators()
	}
	if err := p.expectKeyword("esac"); err != nil {
		return nil, err
	}
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: clause}, nil
}

func (p *Parser) parseCaseBody() (*ast.CommandChain, ast.CaseTerminator, error) {
	chain := &ast.CommandChain{}
	p.skipSeparators()
	for {
		if p.at(token.EOF) {
			return nil, 0, p.incomplete("expected ';;', ';&', ';;&' or 'esac'")
		}
		switch {
		case p.atOperator(";;"):
			p.advance()
			return chain, ast.CaseBreak, nil
		case p.atOperator(";&"):
			p.advance()
			return chain, ast.CaseFallthrough, nil
		case p.atOperator(";;&"):
			p.advance()
			return chain, ast.CaseTestNext, nil
		case p.atKeyword("esac"):
			return chain, ast.CaseBreak, nil
		}
		connector := ast.OpNone
		if len(chain.Elements) > 0 {
			connector = ast.OpSemicolon
		}
		if err := p.parseAndOrInto(chain, connector); err != nil {
			return nil, 0, err
		}
		p.skipSeparators()
	}
}

func (p *Parser) parseSelect() (*ast.ParsedCommand, error) {
	p.advance() // "select"
	varTok, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	var items []ast.Word
	if p.atKeyword("in") {
		p.advance()
		for p.at(token.Word) {
			items = append(items, wordFromToken(p.advance()))
		}
	}
	if p.atOperator(";") {
		p.advance()
	}
	p.skipSeparators()
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, err := p.parseBodyUntil("done")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("done"); err != nil {
		return nil, err
	}
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: &ast.SelectClause{Var: varTok.Raw, Items: items, Body: body}}, nil
}

func (p *Parser) parseFunctionKeyword() (*ast.ParsedCommand, error) {
	p.advance() // "function"
	nameTok, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	if p.atOperator("(") {
		p.advance()
		if err := p.expectOperator(")"); err != nil {
			return nil, err
		}
	}
	p.skipSeparators()
	groupCmd, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	body := groupCmd.Compound.(*ast.Group).Body
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: &ast.FunctionDef{Name: nameTok.Raw, Body: body}}, nil
}

func (p *Parser) parseFuncParensDef() (*ast.ParsedCommand, error) {
	nameTok := p.advance() // Word
	p.advance()            // "("
	p.advance()            // ")"
	p.skipSeparators()
	groupCmd, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	body := groupCmd.Compound.(*ast.Group).Body
	return &ast.ParsedCommand{Kind: ast.KindCompound, Compound: &ast.FunctionDef{Name: nameTok.Raw, Body: body}}, nil
}

// parseDefFunction parses den's typed function-declaration sugar:
// "def name [param[:type] ...] [-> type] { body }".
func (p *Parser) parseDefFunction() (*ast.ParsedCommand, error) {
	p.advance() // "def"
	nameTok, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	var params []ast.TypedParam
	for p.at(token.Word) && !p.atArrow() {
		t := p.advance()
		params = append(params, typedParamFromRaw(t.Raw))
	}
	returnType := ""
	if p.atArrow() {
		p.advance() // "-"
		p.advance() // ">"
		t, err := p.expectWord()
		if err != nil {
			return nil, err
		}
		returnType = t.Raw
	}
	p.skipSeparators()
	groupCmd, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	body := groupCmd.Compound.(*ast.Group).Body
	return &ast.ParsedCommand{
		Kind: ast.KindCompound,
		Compound: &ast.FunctionDef{
			Name: nameTok.Raw, Params: params, ReturnType: returnType, Body: body,
		},
	}, nil
}

// atArrow reports whether the parser sits on the two adjacent tokens
// Word("-") + Redirection(">") that spell "->" in den's typed function
// syntax. The tokenizer has no notion of "->" as a single lexeme since
// '>' always starts a redirection operator; def's grammar recognizes
// the pair itself instead.
func (p *Parser) atArrow() bool {
	if p.cur().Kind != token.Word || p.cur().Raw != "-" {
		return false
	}
	if p.pos+1 >= len(p.toks) {
		return false
	}
	next := p.toks[p.pos+1]
	return next.Kind == token.Redirection && next.Raw == ">" && p.cur().Pos+1 == next.Pos
}

func typedParamFromRaw(s string) ast.TypedParam {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return ast.TypedParam{Name: s[:i], Type: s[i+1:]}
	}
	return ast.TypedParam{Name: s}
}
