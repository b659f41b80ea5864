package ast

import (
	"encoding/json"
	"fmt"

	"github.com/rowan-lang/rowan/internal/token"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// DecodeUnit parses a frontend-emitted compilation unit (*.unit.json) into
// the middle-end AST. The frontend has already resolved names and elaborated
// effect interface signatures into types, so decoding is purely structural.
func DecodeUnit(data []byte) (*Program, error) {
	var u jsonUnit
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("unit: %w", err)
	}

	prog := &Program{File: u.File}
	for _, eff := range u.Effects {
		decl := &EffectDeclaration{
			Token:      tok("effect", eff.Line, eff.Col),
			Name:       eff.Name,
			SingleShot: eff.SingleShot,
		}
		for _, op := range eff.Ops {
			sig := &OperationSignature{Name: op.Name, Control: op.Control}
			for i, p := range op.Params {
				t, err := decodeType(p)
				if err != nil {
					return nil, fmt.Errorf("effect %s, operation %s, parameter %d: %w", eff.Name, op.Name, i, err)
				}
				sig.Params = append(sig.Params, t)
			}
			if len(op.Return) > 0 {
				t, err := decodeType(op.Return)
				if err != nil {
					return nil, fmt.Errorf("effect %s, operation %s, return: %w", eff.Name, op.Name, err)
				}
				sig.Return = t
			}
			decl.Operations = append(decl.Operations, sig)
		}
		prog.Effects = append(prog.Effects, decl)
	}

	for _, d := range u.Decls {
		body, err := decodeExpr(d.Body)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", d.Name, err)
		}
		fn := &FunctionDeclaration{
			Token: tok(d.Name, d.Line, d.Col),
			Name:  &Identifier{Token: tok(d.Name, d.Line, d.Col), Value: d.Name},
			Body:  body,
		}
		for _, p := range d.Params {
			fn.Params = append(fn.Params, &Identifier{Token: tok(p, d.Line, d.Col), Value: p})
		}
		prog.Decls = append(prog.Decls, fn)
	}

	if len(u.Main) > 0 {
		main, err := decodeExpr(u.Main)
		if err != nil {
			return nil, fmt.Errorf("main: %w", err)
		}
		prog.Main = main
	}
	return prog, nil
}

type jsonUnit struct {
	File    string          `json:"file"`
	Effects []jsonEffect    `json:"effects"`
	Decls   []jsonDecl      `json:"decls"`
	Main    json.RawMessage `json:"main"`
}

type jsonEffect struct {
	Name       string   `json:"name"`
	SingleShot bool     `json:"singleShot"`
	Ops        []jsonOp `json:"ops"`
	Line       int      `json:"line"`
	Col        int      `json:"col"`
}

type jsonOp struct {
	Name    string            `json:"name"`
	Params  []json.RawMessage `json:"params"`
	Return  json.RawMessage   `json:"return"`
	Control bool              `json:"control"`
}

type jsonDecl struct {
	Name   string          `json:"name"`
	Params []string        `json:"params"`
	Body   json.RawMessage `json:"body"`
	Line   int             `json:"line"`
	Col    int             `json:"col"`
}

type jsonExpr struct {
	Kind string `json:"kind"`
	Line int    `json:"line"`
	Col  int    `json:"col"`

	Int     int64             `json:"int"`
	Bool    bool              `json:"bool"`
	Str     string            `json:"str"`
	Name    string            `json:"name"`
	Params  []string          `json:"params"`
	Mutable bool              `json:"mutable"`
	Fn      json.RawMessage   `json:"fn"`
	Args    []json.RawMessage `json:"args"`
	Value   json.RawMessage   `json:"value"`
	Body    json.RawMessage   `json:"body"`
	Cond    json.RawMessage   `json:"cond"`
	Then    json.RawMessage   `json:"then"`
	Else    json.RawMessage   `json:"else"`
	Exprs   []json.RawMessage `json:"exprs"`
	Effect  string            `json:"effect"`
	Op      string            `json:"op"`
	Ops     []jsonClause      `json:"ops"`
	Return  *jsonReturn       `json:"return"`
}

type jsonClause struct {
	Name   string          `json:"name"`
	Params []string        `json:"params"`
	Body   json.RawMessage `json:"body"`
	Line   int             `json:"line"`
	Col    int             `json:"col"`
}

type jsonReturn struct {
	Param string          `json:"param"`
	Body  json.RawMessage `json:"body"`
	Line  int             `json:"line"`
	Col   int             `json:"col"`
}

func tok(lexeme string, line, col int) token.Token {
	return token.Token{Lexeme: lexeme, Line: line, Column: col}
}

func decodeExpr(raw json.RawMessage) (Expression, error) {
	var e jsonExpr
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	t := tok(e.Kind, e.Line, e.Col)

	switch e.Kind {
	case "int":
		return &IntegerLiteral{Token: t, Value: e.Int}, nil
	case "bool":
		return &BooleanLiteral{Token: t, Value: e.Bool}, nil
	case "string":
		return &StringLiteral{Token: t, Value: e.Str}, nil
	case "unit":
		return &UnitLiteral{Token: t}, nil
	case "var":
		return &Identifier{Token: t, Value: e.Name}, nil

	case "fn":
		body, err := decodeExpr(e.Body)
		if err != nil {
			return nil, err
		}
		fl := &FunctionLiteral{Token: t, Body: body}
		for _, p := range e.Params {
			fl.Params = append(fl.Params, &Identifier{Token: tok(p, e.Line, e.Col), Value: p})
		}
		return fl, nil

	case "call":
		fn, err := decodeExpr(e.Fn)
		if err != nil {
			return nil, err
		}
		call := &CallExpression{Token: t, Function: fn}
		for _, a := range e.Args {
			arg, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil

	case "let":
		value, err := decodeExpr(e.Value)
		if err != nil {
			return nil, err
		}
		body, err := decodeExpr(e.Body)
		if err != nil {
			return nil, err
		}
		return &LetExpression{
			Token:   t,
			Name:    &Identifier{Token: tok(e.Name, e.Line, e.Col), Value: e.Name},
			Mutable: e.Mutable,
			Value:   value,
			Body:    body,
		}, nil

	case "assign":
		value, err := decodeExpr(e.Value)
		if err != nil {
			return nil, err
		}
		return &AssignExpression{
			Token: t,
			Name:  &Identifier{Token: tok(e.Name, e.Line, e.Col), Value: e.Name},
			Value: value,
		}, nil

	case "if":
		cond, err := decodeExpr(e.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeExpr(e.Then)
		if err != nil {
			return nil, err
		}
		out := &IfExpression{Token: t, Condition: cond, Consequence: then}
		if len(e.Else) > 0 {
			els, err := decodeExpr(e.Else)
			if err != nil {
				return nil, err
			}
			out.Alternative = els
		}
		return out, nil

	case "block":
		block := &BlockExpression{Token: t}
		for _, sub := range e.Exprs {
			x, err := decodeExpr(sub)
			if err != nil {
				return nil, err
			}
			block.Exprs = append(block.Exprs, x)
		}
		return block, nil

	case "handle":
		body, err := decodeExpr(e.Body)
		if err != nil {
			return nil, err
		}
		h := &HandleExpression{Token: t, Effect: e.Effect, Body: body}
		for _, c := range e.Ops {
			cb, err := decodeExpr(c.Body)
			if err != nil {
				return nil, err
			}
			clause := &OperationClause{Token: tok(c.Name, c.Line, c.Col), Name: c.Name, Body: cb}
			for _, p := range c.Params {
				clause.Params = append(clause.Params, &Identifier{Token: tok(p, c.Line, c.Col), Value: p})
			}
			h.Operations = append(h.Operations, clause)
		}
		if e.Return != nil {
			rb, err := decodeExpr(e.Return.Body)
			if err != nil {
				return nil, err
			}
			h.Return = &ReturnClause{
				Token: tok("return", e.Return.Line, e.Return.Col),
				Param: &Identifier{Token: tok(e.Return.Param, e.Return.Line, e.Return.Col), Value: e.Return.Param},
				Body:  rb,
			}
		}
		return h, nil

	case "perform":
		p := &PerformExpression{Token: t, Effect: e.Effect, Op: e.Op}
		for _, a := range e.Args {
			arg, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			p.Args = append(p.Args, arg)
		}
		return p, nil

	case "mask":
		body, err := decodeExpr(e.Body)
		if err != nil {
			return nil, err
		}
		return &MaskExpression{Token: t, Effect: e.Effect, Body: body}, nil

	default:
		return nil, fmt.Errorf("unknown expression kind %q at %d:%d", e.Kind, e.Line, e.Col)
	}
}

type jsonType struct {
	Con string   `json:"con"`
	Var string   `json:"var"`
	K   string   `json:"k"`
	Fun *jsonFun `json:"fun"`
	Row *jsonRow `json:"row"`
	App *jsonApp `json:"app"`
}

type jsonFun struct {
	Params  []json.RawMessage `json:"params"`
	Effects *jsonRow          `json:"effects"`
	Return  json.RawMessage   `json:"return"`
}

type jsonRow struct {
	Labels []string        `json:"labels"`
	Tail   json.RawMessage `json:"tail"`
}

type jsonApp struct {
	Con  json.RawMessage   `json:"con"`
	Args []json.RawMessage `json:"args"`
}

func decodeType(raw json.RawMessage) (typesystem.Type, error) {
	var jt jsonType
	if err := json.Unmarshal(raw, &jt); err != nil {
		return nil, err
	}

	switch {
	case jt.Con != "":
		return typesystem.TCon{Name: jt.Con, KindVal: typesystem.Star}, nil

	case jt.Var != "":
		kind := typesystem.Star
		if jt.K == "row" {
			kind = typesystem.Eff
		}
		return typesystem.TVar{Name: jt.Var, KindVal: kind}, nil

	case jt.Fun != nil:
		fn := typesystem.TFunc{}
		for i, p := range jt.Fun.Params {
			t, err := decodeType(p)
			if err != nil {
				return nil, fmt.Errorf("parameter %d: %w", i, err)
			}
			fn.Params = append(fn.Params, t)
		}
		if jt.Fun.Effects != nil {
			row, err := decodeRow(jt.Fun.Effects)
			if err != nil {
				return nil, err
			}
			fn.Effects = row
		}
		ret, err := decodeType(jt.Fun.Return)
		if err != nil {
			return nil, fmt.Errorf("return: %w", err)
		}
		fn.ReturnType = ret
		return fn, nil

	case jt.Row != nil:
		return decodeRow(jt.Row)

	case jt.App != nil:
		con, err := decodeType(jt.App.Con)
		if err != nil {
			return nil, err
		}
		app := typesystem.TApp{Constructor: con}
		for i, a := range jt.App.Args {
			t, err := decodeType(a)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			app.Args = append(app.Args, t)
		}
		return app, nil

	default:
		return nil, fmt.Errorf("unknown type form %s", string(raw))
	}
}

func decodeRow(jr *jsonRow) (typesystem.Row, error) {
	row := typesystem.Row{Labels: append([]string{}, jr.Labels...)}
	if len(jr.Tail) > 0 {
		tail, err := decodeType(jr.Tail)
		if err != nil {
			return typesystem.Row{}, fmt.Errorf("row tail: %w", err)
		}
		row.Tail = tail
	}
	return row, nil
}
