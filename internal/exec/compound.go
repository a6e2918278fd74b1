package exec

import (
	"bufio"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/den-shell/den/internal/arith"
	"github.com/den-shell/den/internal/ast"
)

// runCompound dispatches on the concrete Compound type the parser
// attached to a KindCompound ParsedCommand (spec §4.H step 5). Group
// and the condition/body parts of If/While/For all run directly
// against ex.Store — only Subshell isolates its mutations.
func (ex *Executor) runCompound(c ast.Compound, io IOSet) (int, error) {
	switch v := c.(type) {
	case *ast.IfClause:
		return ex.runIf(v, io)
	case *ast.WhileClause:
		return ex.runWhile(v, io)
	case *ast.ForClause:
		return ex.runFor(v, io)
	case *ast.CStyleFor:
		return ex.runCStyleFor(v, io)
	case *ast.CaseClause:
		return ex.runCase(v, io)
	case *ast.SelectClause:
		return ex.runSelect(v, io)
	case *ast.FunctionDef:
		return ex.runFunctionDef(v, io)
	case *ast.Subshell:
		return ex.runSubshell(v, io)
	case *ast.Group:
		return ex.Run(v.Body, io)
	default:
		return 0, fmt.Errorf("den: unsupported compound command %T", c)
	}
}

func (ex *Executor) runIf(v *ast.IfClause, io IOSet) (int, error) {
	for i, cond := range v.Conditions {
		code, err := ex.Run(cond, io)
		if err != nil {
			return code, err
		}
		if code == 0 {
			return ex.Run(v.Thens[i], io)
		}
	}
	if v.Else != nil {
		return ex.Run(v.Else, io)
	}
	return 0, nil
}

// runWhile implements both "while" and "until" (Until just inverts the
// condition test), handling break/continue by unwinding the signal's
// counter and re-raising if it targets an outer loop (spec §4.H step 6).
func (ex *Executor) runWhile(v *ast.WhileClause, io IOSet) (int, error) {
	ex.loopDepth++
	defer func() { ex.loopDepth-- }()

	last := 0
	for {
		condCode, err := ex.Run(v.Cond, io)
		if err != nil {
			return condCode, err
		}
		truthy := condCode == 0
		if v.Until {
			truthy = !truthy
		}
		if !truthy {
			return last, nil
		}

		code, err := ex.Run(v.Body, io)
		last = code
		if err == nil {
			continue
		}
		switch {
		case isBreak(err):
			return last, unwindBreak(err)
		case isContinue(err):
			if cont := unwindContinue(err); cont != nil {
				return last, cont
			}
			continue
		default:
			return code, err
		}
	}
}

func (ex *Executor) runFor(v *ast.ForClause, io IOSet) (int, error) {
	ex.loopDepth++
	defer func() { ex.loopDepth-- }()

	items, err := ex.Expand.ExpandWords(v.Items)
	if err != nil {
		return 1, nil
	}

	last := 0
	for _, item := range items {
		if err := ex.Store.Set(v.Var, item); err != nil {
			fmt.Fprintf(io.Stderr, "den: %v\n", err)
			return 1, nil
		}
		code, err := ex.Run(v.Body, io)
		last = code
		if err == nil {
			continue
		}
		switch {
		case isBreak(err):
			return last, unwindBreak(err)
		case isContinue(err):
			if cont := unwindContinue(err); cont != nil {
				return last, cont
			}
			continue
		default:
			return code, err
		}
	}
	return last, nil
}

// runCStyleFor evaluates Init/Cond/Update through the arithmetic
// evaluator against the Store directly (Store implements arith.Vars).
func (ex *Executor) runCStyleFor(v *ast.CStyleFor, io IOSet) (int, error) {
	ex.loopDepth++
	defer func() { ex.loopDepth-- }()

	if v.Init != "" {
		if _, err := arith.Eval(v.Init, ex.Store); err != nil {
			fmt.Fprintf(io.Stderr, "den: %v\n", err)
			return 1, nil
		}
	}

	last := 0
	for {
		if v.Cond != "" {
			n, err := arith.Eval(v.Cond, ex.Store)
			if err != nil {
				fmt.Fprintf(io.Stderr, "den: %v\n", err)
				return 1, nil
			}
			if n == 0 {
				return last, nil
			}
		}

		code, err := ex.Run(v.Body, io)
		last = code
		if err != nil {
			switch {
			case isBreak(err):
				return last, unwindBreak(err)
			case isContinue(err):
				if cont := unwindContinue(err); cont != nil {
					return last, cont
				}
			default:
				return code, err
			}
		}

		if v.Update != "" {
			if _, err := arith.Eval(v.Update, ex.Store); err != nil {
				fmt.Fprintf(io.Stderr, "den: %v\n", err)
				return 1, nil
			}
		}
	}
}

// runCase matches Word against each item's patterns in turn using
// shell glob syntax (the same path.Match-backed matching
// internal/expand's parameter-expansion operators use for pattern
// removal), honoring ;;/;&/;;& terminators.
func (ex *Executor) runCase(v *ast.CaseClause, io IOSet) (int, error) {
	word, err := ex.Expand.ExpandWordNoSplit(v.Word)
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: %v\n", err)
		return 1, nil
	}

	last := 0
	for i := 0; i < len(v.Items); i++ {
		item := v.Items[i]
		if !ex.caseItemMatches(item, word) {
			continue
		}
		for {
			code, err := ex.Run(item.Body, io)
			if err != nil {
				return code, err
			}
			last = code
			switch item.Term {
			case ast.CaseFallthrough:
				// ;& unconditionally runs the next clause's body too,
				// cascading further if that one also falls through.
				if i+1 >= len(v.Items) {
					return last, nil
				}
				i++
				item = v.Items[i]
				continue
			case ast.CaseTestNext:
				// ;;& resumes pattern testing from the next clause (the
				// enclosing for loop's own i++ advances us there).
				goto resumeMatching
			default: // ast.CaseBreak
				return last, nil
			}
		}
	resumeMatching:
		continue
	}
	return last, nil
}

func (ex *Executor) caseItemMatches(item ast.CaseItem, word string) bool {
	for _, pat := range item.Patterns {
		p, err := ex.Expand.ExpandWordNoSplit(pat)
		if err != nil {
			continue
		}
		if ok, _ := path.Match(p, word); ok {
			return true
		}
	}
	return false
}

// runSelect implements bash's `select`: prints a numbered menu of
// Items to stderr, prompts with $PS3 (default "#? "), reads a line of
// input, sets Var to the chosen item (or empty if invalid/EOF) and the
// special REPLY-like loop variable, then runs Body once per selection
// until break, EOF, or an unexpandable list.
func (ex *Executor) runSelect(v *ast.SelectClause, io IOSet) (int, error) {
	ex.loopDepth++
	defer func() { ex.loopDepth-- }()

	items, err := ex.Expand.ExpandWords(v.Items)
	if err != nil || len(items) == 0 {
		return 1, nil
	}

	ps3, ok := ex.Store.Get("PS3")
	if !ok || ps3 == "" {
		ps3 = "#? "
	}

	scanner := bufio.NewScanner(io.Stdin)
	last := 0
	for {
		ex.printSelectMenu(io, items)
		fmt.Fprint(io.Stderr, ps3)
		if !scanner.Scan() {
			return last, nil
		}
		reply := scanner.Text()
		ex.Store.Set("REPLY", reply)

		choice := ""
		var n int
		if _, scanErr := fmt.Sscanf(reply, "%d", &n); scanErr == nil && n >= 1 && n <= len(items) {
			choice = items[n-1]
		}
		if err := ex.Store.Set(v.Var, choice); err != nil {
			fmt.Fprintf(io.Stderr, "den: %v\n", err)
			return 1, nil
		}

		code, err := ex.Run(v.Body, io)
		last = code
		if err == nil {
			continue
		}
		switch {
		case isBreak(err):
			return last, unwindBreak(err)
		case isContinue(err):
			if cont := unwindContinue(err); cont != nil {
				return last, cont
			}
			continue
		default:
			return code, err
		}
	}
}

// printSelectMenu renders items as bash's `select` does: numbered,
// column-major, packed into as many columns as fit within $COLUMNS.
// go-runewidth measures each entry so wide (e.g. CJK) characters don't
// throw off column alignment the way a plain len() would.
func (ex *Executor) printSelectMenu(io IOSet, items []string) {
	width := ex.terminalWidth()
	numWidth := len(strconv.Itoa(len(items)))
	maxItem := 0
	for _, it := range items {
		if w := runewidth.StringWidth(it); w > maxItem {
			maxItem = w
		}
	}
	colWidth := numWidth + len(") ") + maxItem + 2
	cols := width / colWidth
	if cols < 1 {
		cols = 1
	}
	rows := (len(items) + cols - 1) / cols

	for r := 0; r < rows; r++ {
		var line strings.Builder
		for c := 0; c < cols; c++ {
			idx := c*rows + r
			if idx >= len(items) {
				continue
			}
			entry := fmt.Sprintf("%*d) %s", numWidth, idx+1, items[idx])
			line.WriteString(entry)
			if pad := colWidth - runewidth.StringWidth(entry); pad > 0 {
				line.WriteString(strings.Repeat(" ", pad))
			}
		}
		fmt.Fprintln(io.Stderr, strings.TrimRight(line.String(), " "))
	}
}

// terminalWidth reads $COLUMNS the way the rest of den's expansion
// layer does, defaulting to 80 when unset or not a positive integer.
func (ex *Executor) terminalWidth() int {
	if v, ok := ex.Store.Get("COLUMNS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 80
}

// runFunctionDef registers a function; defining one is itself a
// successful no-op statement, matching bash (the body only runs when
// the function is later called by name through the dispatcher).
func (ex *Executor) runFunctionDef(v *ast.FunctionDef, io IOSet) (int, error) {
	ex.Store.DefineFunction(v.Name, v.Body)
	return 0, nil
}

// runSubshell runs Body against the live Store (so any external
// commands it spawns are real child processes) but snapshots the Store
// first and restores it unconditionally afterward, so variable,
// option, directory, and function mutations never escape the
// subshell — den has no real fork(); see DESIGN.md (Open Question
// decision 4) for the rationale.
func (ex *Executor) runSubshell(v *ast.Subshell, io IOSet) (int, error) {
	snap := ex.Store.Snapshot()
	defer ex.Store.Restore(snap)
	return ex.Run(v.Body, io)
}

func isBreak(err error) bool {
	var b *breakSignal
	return errors.As(err, &b)
}

func isContinue(err error) bool {
	var c *continueSignal
	return errors.As(err, &c)
}

// unwindBreak decrements a break count for the loop it just exited; a
// count greater than 1 must keep propagating outward so "break 2" skips
// the enclosing loop too.
func unwindBreak(err error) error {
	var b *breakSignal
	errors.As(err, &b)
	if b.n <= 1 {
		return nil
	}
	return &breakSignal{n: b.n - 1}
}

// unwindContinue decrements a continue count; returns nil to mean
// "continue this loop", or a propagating error if the continue targets
// an outer loop.
func unwindContinue(err error) error {
	var c *continueSignal
	errors.As(err, &c)
	if c.n <= 1 {
		return nil
	}
	return &continueSignal{n: c.n - 1}
}
