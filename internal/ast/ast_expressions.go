package ast

import (
	"github.com/rowan-lang/rowan/internal/token"
)

// IntegerLiteral represents an integer literal.
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }

// BooleanLiteral represents true/false.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()       {}
func (bl *BooleanLiteral) TokenLiteral() string  { return bl.Token.Lexeme }
func (bl *BooleanLiteral) GetToken() token.Token { return bl.Token }

// StringLiteral represents a string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

// UnitLiteral represents the unit value ().
type UnitLiteral struct {
	Token token.Token
}

func (ul *UnitLiteral) expressionNode()       {}
func (ul *UnitLiteral) TokenLiteral() string  { return ul.Token.Lexeme }
func (ul *UnitLiteral) GetToken() token.Token { return ul.Token }

// Identifier is a name-resolved variable reference.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token { return i.Token }

// FunctionLiteral is an anonymous function.
type FunctionLiteral struct {
	Token  token.Token
	Params []*Identifier
	Body   Expression
}

func (fl *FunctionLiteral) expressionNode()       {}
func (fl *FunctionLiteral) TokenLiteral() string  { return fl.Token.Lexeme }
func (fl *FunctionLiteral) GetToken() token.Token { return fl.Token }

// CallExpression applies a function to arguments, left to right.
type CallExpression struct {
	Token    token.Token
	Function Expression
	Args     []Expression
}

func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }

// LetExpression binds a value in a body. Immutable bindings are generalized;
// mutable bindings stay monomorphic and may be assigned to.
type LetExpression struct {
	Token   token.Token
	Name    *Identifier
	Mutable bool
	Value   Expression
	Body    Expression
}

func (le *LetExpression) expressionNode()       {}
func (le *LetExpression) TokenLiteral() string  { return le.Token.Lexeme }
func (le *LetExpression) GetToken() token.Token { return le.Token }

// AssignExpression updates a mutable binding (x := e) and yields unit.
type AssignExpression struct {
	Token token.Token
	Name  *Identifier
	Value Expression
}

func (ae *AssignExpression) expressionNode()       {}
func (ae *AssignExpression) TokenLiteral() string  { return ae.Token.Lexeme }
func (ae *AssignExpression) GetToken() token.Token { return ae.Token }

// IfExpression selects between two branches.
type IfExpression struct {
	Token       token.Token
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (ie *IfExpression) expressionNode()       {}
func (ie *IfExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IfExpression) GetToken() token.Token { return ie.Token }

// BlockExpression sequences expressions; its value is the last one's.
type BlockExpression struct {
	Token token.Token
	Exprs []Expression
}

func (be *BlockExpression) expressionNode()       {}
func (be *BlockExpression) TokenLiteral() string  { return be.Token.Lexeme }
func (be *BlockExpression) GetToken() token.Token { return be.Token }

// HandleExpression installs a handler for one effect label around Body.
// Inside each operation clause the identifier "resume" is bound to the
// clause's resumption.
type HandleExpression struct {
	Token      token.Token
	Effect     string
	Operations []*OperationClause
	Return     *ReturnClause
	Body       Expression

	// Modes is filled in by the handler classifier, one entry per operation.
	Modes map[string]ResumeMode
}

func (he *HandleExpression) expressionNode()       {}
func (he *HandleExpression) TokenLiteral() string  { return he.Token.Lexeme }
func (he *HandleExpression) GetToken() token.Token { return he.Token }

// OperationClause is one operation implementation inside a handle.
type OperationClause struct {
	Token  token.Token
	Name   string
	Params []*Identifier
	Body   Expression
}

func (oc *OperationClause) TokenLiteral() string  { return oc.Token.Lexeme }
func (oc *OperationClause) GetToken() token.Token { return oc.Token }

// ReturnClause transforms the handled body's result value.
type ReturnClause struct {
	Token token.Token
	Param *Identifier
	Body  Expression
}

func (rc *ReturnClause) TokenLiteral() string  { return rc.Token.Lexeme }
func (rc *ReturnClause) GetToken() token.Token { return rc.Token }

// PerformExpression calls an effect operation.
type PerformExpression struct {
	Token  token.Token
	Effect string
	Op     string
	Args   []Expression
}

func (pe *PerformExpression) expressionNode()       {}
func (pe *PerformExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PerformExpression) GetToken() token.Token { return pe.Token }

// MaskExpression skips the innermost handler for Effect inside Body, so
// operation calls forward to the next enclosing handler for that label.
type MaskExpression struct {
	Token  token.Token
	Effect string
	Body   Expression
}

func (me *MaskExpression) expressionNode()       {}
func (me *MaskExpression) TokenLiteral() string  { return me.Token.Lexeme }
func (me *MaskExpression) GetToken() token.Token { return me.Token }
