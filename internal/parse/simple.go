package parse

import (
	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/token"
)

// parseCommand dispatches to a compound-command parser when the
// current token begins one, otherwise parses a simple command.
func (p *Parser) parseCommand() (*ast.ParsedCommand, error) {
	switch {
	case p.atOperator("("):
		return p.parseSubshell()
	case p.atKeyword("{"):
		return p.parseGroup()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("while"):
		return p.parseWhileUntil(false)
	case p.atKeyword("until"):
		return p.parseWhileUntil(true)
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("case"):
		return p.parseCase()
	case p.atKeyword("select"):
		return p.parseSelect()
	case p.atKeyword("function"):
		return p.parseFunctionKeyword()
	case p.atKeyword("def"):
		return p.parseDefFunction()
	case p.atKeyword("[["):
		return p.parseDoubleBracket()
	case p.atKeyword("time"):
		// Timing prefix: the keyword is dropped and the command parses
		// and runs as if it were absent; no elapsed time is reported.
		p.advance()
		return p.parseCommand()
	}
	if p.at(token.Word) && p.peekIsFuncParens() {
		return p.parseFuncParensDef()
	}
	if p.at(token.EOF) || p.at(token.Newline) {
		return nil, p.incomplete("expected a command")
	}
	return p.parseSimple()
}

func (p *Parser) peekIsFuncParens() bool {
	return p.pos+2 < len(p.toks) &&
		p.toks[p.pos+1].Kind == token.Operator && p.toks[p.pos+1].Raw == "(" &&
		p.toks[p.pos+2].Kind == token.Operator && p.toks[p.pos+2].Raw == ")"
}

// parseSimple parses "word* redirection*" into a ParsedCommand. The
// first non-redirection word is the command name; the rest are args.
// Assignment-looking words (NAME=value) get no special treatment here:
// a leading one becomes Name like any other word, and the executor
// rejoins Name and Args and peels leading assignments off the front
// (a list made only of assignments runs no command).
func (p *Parser) parseSimple() (*ast.ParsedCommand, error) {
	cmd := &ast.ParsedCommand{Kind: ast.KindSimple}
	haveName := false

	for {
		switch {
		case p.at(token.Word):
			wordTok := p.advance()
			if p.atOperator("<", ">", ">>", "<<", "<<-", "<<<", ">&", "<&", ">|") {
				if fd, ok := fdFromWord(wordTok, p.cur()); ok {
					r, err := p.parseRedirection(fd)
					if err != nil {
						return nil, err
					}
					cmd.Redirs = append(cmd.Redirs, r)
					continue
				}
			}
			w := wordFromToken(wordTok)
			if !haveName {
				cmd.Name = w
				haveName = true
			} else {
				cmd.Args = append(cmd.Args, w)
			}
		case p.atOperator("<", ">", ">>", "<<", "<<-", "<<<", ">&", "<&", ">|"):
			r, err := p.parseRedirection(-1)
			if err != nil {
				return nil, err
			}
			cmd.Redirs = append(cmd.Redirs, r)
		default:
			if !haveName && len(cmd.Redirs) == 0 {
				return nil, p.errf("unexpected token %q", p.cur().Raw)
			}
			return cmd, nil
		}
	}
}

// parseRedirection consumes the redirection operator at the current
// position (already known to be one) and its target word, producing
// an ast.Redirection. fd is the explicit descriptor if one preceded
// the operator with no whitespace, or -1 for the operator's default.
func (p *Parser) parseRedirection(fd int) (ast.Redirection, error) {
	op := p.advance()
	var kind ast.RedirKind
	defaultFd := 1
	switch op.Raw {
	case "<":
		kind, defaultFd = ast.RedirInFile, 0
	case ">", ">|":
		kind = ast.RedirOutFile
		if op.Raw == ">|" {
			kind = ast.RedirOutFileClobber
		}
	case ">>":
		kind = ast.RedirAppendFile
	case "<<", "<<-":
		r := ast.Redirection{
			Kind:     ast.RedirHereDoc,
			Fd:       orDefault(fd, 0),
			HereBody: op.HereBody,
			Quoted:   op.HereQuoted,
			Target:   ast.NewWord(op.HereDelim),
		}
		return r, nil
	case "<<<":
		kind, defaultFd = ast.RedirHereString, 0
	case ">&", "<&":
		kind = ast.RedirFdDup
		if op.Raw == "<&" {
			defaultFd = 0
		}
	}
	if !p.at(token.Word) {
		return ast.Redirection{}, p.incomplete("expected a redirection target after %q", op.Raw)
	}
	targetTok := p.advance()
	target := wordFromToken(targetTok)
	if kind == ast.RedirFdDup && targetTok.Raw == "-" {
		kind = ast.RedirFdClose
	}
	return ast.Redirection{Kind: kind, Fd: orDefault(fd, defaultFd), Target: target}, nil
}

func orDefault(fd, def int) int {
	if fd >= 0 {
		return fd
	}
	return def
}
