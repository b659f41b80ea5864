package token

// Token is a source-location tag produced by the external frontend.
// The middle-end carries it opaquely for diagnostics; it never inspects
// the lexeme beyond error reporting.
type Token struct {
	Lexeme string
	Line   int
	Column int
}

func (t Token) IsZero() bool {
	return t.Lexeme == "" && t.Line == 0 && t.Column == 0
}
