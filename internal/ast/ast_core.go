package ast

import (
	"github.com/rowan-lang/rowan/internal/token"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// The middle-end consumes a fully name-resolved AST produced by the external
// frontend. Effect interfaces arrive already elaborated: their operation
// signatures carry typesystem types directly.

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of a compilation unit.
type Program struct {
	File    string
	Effects []*EffectDeclaration
	Decls   []*FunctionDeclaration
	Main    Expression
}

func (p *Program) TokenLiteral() string {
	if p.Main != nil {
		return p.Main.TokenLiteral()
	}
	return ""
}

func (p *Program) GetToken() token.Token {
	if p.Main != nil {
		return p.Main.GetToken()
	}
	return token.Token{}
}

// EffectDeclaration declares an effect interface: a label, its operations,
// and whether resumptions of this effect are restricted to a single use.
type EffectDeclaration struct {
	Token      token.Token
	Name       string
	SingleShot bool
	Operations []*OperationSignature
}

func (ed *EffectDeclaration) TokenLiteral() string  { return ed.Token.Lexeme }
func (ed *EffectDeclaration) GetToken() token.Token { return ed.Token }

// OperationSignature is one operation of an effect interface.
// Control is the author's eligibility hint: a control operation is never
// classified tail-resumptive regardless of what its handler bodies look like.
type OperationSignature struct {
	Name    string
	Params  []typesystem.Type
	Return  typesystem.Type
	Control bool
}

// FunctionDeclaration is a top-level, generalizable function binding.
type FunctionDeclaration struct {
	Token  token.Token
	Name   *Identifier
	Params []*Identifier
	Body   Expression
}

func (fd *FunctionDeclaration) TokenLiteral() string  { return fd.Token.Lexeme }
func (fd *FunctionDeclaration) GetToken() token.Token { return fd.Token }
