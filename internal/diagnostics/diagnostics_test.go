package diagnostics

import (
	"strings"
	"testing"

	"github.com/rowan-lang/rowan/internal/token"
)

func TestIsFatal(t *testing.T) {
	for _, c := range []Code{ErrL001, ErrL002} {
		if !IsFatal(c) {
			t.Errorf("IsFatal(%s) = false, want true", c)
		}
	}
	for _, c := range []Code{ErrU001, ErrU004, ErrT001, ErrT003, ErrT004} {
		if IsFatal(c) {
			t.Errorf("IsFatal(%s) = true, want false", c)
		}
	}
}

func TestErrorRendering(t *testing.T) {
	e := NewError(ErrT001, token.Token{Lexeme: "x", Line: 3, Column: 7}, "unbound variable: %s", "x")
	if got := e.Error(); got != "[T001] 3:7: unbound variable: x" {
		t.Errorf("Error() = %q", got)
	}

	zero := NewError(ErrU002, token.Token{}, "kind mismatch")
	if got := zero.Error(); strings.Contains(got, "0:0") {
		t.Errorf("zero token must not render a position: %q", got)
	}
}
