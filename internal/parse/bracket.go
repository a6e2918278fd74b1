package parse

import (
	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/token"
)

// parseDoubleBracket parses a `[[ ... ]]` conditional into a
// ParsedCommand the "[[" builtin can run directly. Everything between
// the two keywords is scanned raw rather than through parseSimple: the
// lexer classifies `<`, `>`, `&&`, `||`, `(`, `)` as Redirection/
// Operator tokens with their own structural meaning everywhere else in
// a command, but inside `[[ ]]` they're literal comparison/connective
// operands for the test evaluator, so each token (whatever its Kind)
// becomes one more Word argument until the matching `]]` is found.
func (p *Parser) parseDoubleBracket() (*ast.ParsedCommand, error) {
	open := p.advance() // "[["
	cmd := &ast.ParsedCommand{Kind: ast.KindSimple, Name: ast.NewWord(open.Raw)}

	for {
		p.skipSeparators()
		if p.at(token.EOF) {
			return nil, p.incomplete("expected matching %q", "]]")
		}
		// "]]" only lexes as a Keyword right after "[[" or an operator
		// (atCommandStart true); anywhere else in the expression it comes
		// through as an ordinary Word with that same raw text, since the
		// words in between reset atCommandStart. Matching on raw text
		// rather than token.Kind handles both shapes alike.
		if p.cur().Raw == "]]" && p.cur().Kind != token.EOF {
			close := p.advance()
			cmd.Args = append(cmd.Args, ast.NewWord(close.Raw))
			return cmd, nil
		}
		tok := p.advance()
		if tok.Kind == token.Word {
			cmd.Args = append(cmd.Args, wordFromToken(tok))
		} else {
			cmd.Args = append(cmd.Args, ast.NewWord(tok.Raw))
		}
	}
}
