package arith

import "testing"

func evalOK(t *testing.T, expr string, vars MapVars) int64 {
	t.Helper()
	if vars == nil {
		vars = MapVars{}
	}
	v, err := Eval(expr, vars)
	if err != nil {
		t.Fatalf("Eval(%q) error: %v", expr, err)
	}
	return v
}

func TestEvalBasicArithmetic(t *testing.T) {
	cases := map[string]int64{
		"1+2*3":     7,
		"(1+2)*3":   9,
		"10/3":      3,
		"10%3":      1,
		"2**10":     1024,
		"-5+3":      -2,
		"1 << 4":    16,
		"256 >> 4":  16,
		"5 & 3":     1,
		"5 | 2":     7,
		"5 ^ 1":     4,
		"~0":        -1,
		"!0":        1,
		"!5":        0,
		"1 && 0":    0,
		"1 || 0":    1,
		"3 > 2":     1,
		"3 == 3":    1,
		"3 != 4":    1,
		"1 ? 2 : 3": 2,
		"0 ? 2 : 3": 3,
	}
	for expr, want := range cases {
		if got := evalOK(t, expr, nil); got != want {
			t.Errorf("Eval(%q) = %d, want %d", expr, got, want)
		}
	}
}

func TestEvalLiteralBases(t *testing.T) {
	cases := map[string]int64{
		"0x1F":  31,
		"017":   15,
		"2#101": 5,
		"16#ff": 255,
	}
	for expr, want := range cases {
		if got := evalOK(t, expr, nil); got != want {
			t.Errorf("Eval(%q) = %d, want %d", expr, got, want)
		}
	}
}

func TestEvalVariableAssignment(t *testing.T) {
	vars := MapVars{}
	v := evalOK(t, "x = 5", vars)
	if v != 5 || vars["x"] != 5 {
		t.Fatalf("got v=%d vars[x]=%d", v, vars["x"])
	}
	v = evalOK(t, "x += 3", vars)
	if v != 8 || vars["x"] != 8 {
		t.Fatalf("got v=%d vars[x]=%d", v, vars["x"])
	}
}

func TestEvalPrePostIncrement(t *testing.T) {
	vars := MapVars{"x": 5}
	if v := evalOK(t, "x++", vars); v != 5 {
		t.Errorf("postfix x++ returned %d, want 5", v)
	}
	if vars["x"] != 6 {
		t.Errorf("after x++, x = %d, want 6", vars["x"])
	}
	if v := evalOK(t, "++x", vars); v != 7 {
		t.Errorf("prefix ++x returned %d, want 7", v)
	}
}

func TestEvalShortCircuitSkipsAssignment(t *testing.T) {
	vars := MapVars{}
	evalOK(t, "0 && (y = 9)", vars)
	if _, ok := vars["y"]; ok {
		t.Errorf("expected y to remain unset after short-circuited &&, got %v", vars["y"])
	}
	evalOK(t, "1 || (y = 9)", vars)
	if _, ok := vars["y"]; ok {
		t.Errorf("expected y to remain unset after short-circuited ||, got %v", vars["y"])
	}
}

func TestEvalDivisionByZeroErrors(t *testing.T) {
	_, err := Eval("1/0", MapVars{})
	if err == nil {
		t.Fatal("expected division by zero error")
	}
}

func TestEvalTernaryRightAssociative(t *testing.T) {
	if got := evalOK(t, "1 ? 2 : 0 ? 3 : 4", nil); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestEvalCommaYieldsLast(t *testing.T) {
	if got := evalOK(t, "1, 2, 3", nil); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}
