package ast

import (
	"strings"
	"testing"

	"github.com/rowan-lang/rowan/internal/typesystem"
)

func TestDecodeUnit(t *testing.T) {
	data := []byte(`{
	  "file": "counter.unit.json",
	  "effects": [{
	    "name": "State",
	    "singleShot": false,
	    "ops": [
	      {"name": "get", "return": {"con": "Int"}},
	      {"name": "put", "params": [{"con": "Int"}], "return": {"con": "Unit"}},
	      {"name": "abort", "control": true}
	    ]
	  }],
	  "decls": [{
	    "name": "inc",
	    "params": ["x"],
	    "body": {"kind": "call", "fn": {"kind": "var", "name": "add"},
	             "args": [{"kind": "var", "name": "x"}, {"kind": "int", "int": 1}]}
	  }],
	  "main": {
	    "kind": "handle", "effect": "State", "line": 3, "col": 1,
	    "ops": [
	      {"name": "get", "body": {"kind": "call", "fn": {"kind": "var", "name": "resume"},
	                               "args": [{"kind": "int", "int": 0}]}},
	      {"name": "put", "params": ["v"],
	       "body": {"kind": "call", "fn": {"kind": "var", "name": "resume"},
	                "args": [{"kind": "unit"}]}},
	      {"name": "abort", "body": {"kind": "int", "int": -1}}
	    ],
	    "return": {"param": "x", "body": {"kind": "var", "name": "x"}},
	    "body": {"kind": "perform", "effect": "State", "op": "get"}
	  }
	}`)

	prog, err := DecodeUnit(data)
	if err != nil {
		t.Fatalf("DecodeUnit() = %v", err)
	}

	if prog.File != "counter.unit.json" {
		t.Errorf("file = %q", prog.File)
	}
	if len(prog.Effects) != 1 || prog.Effects[0].Name != "State" {
		t.Fatalf("effects = %v", prog.Effects)
	}
	ops := prog.Effects[0].Operations
	if len(ops) != 3 {
		t.Fatalf("got %d operations, want 3", len(ops))
	}
	if ops[0].Return.String() != "Int" {
		t.Errorf("get return = %s, want Int", ops[0].Return)
	}
	if len(ops[1].Params) != 1 || ops[1].Params[0].String() != "Int" {
		t.Errorf("put params = %v", ops[1].Params)
	}
	if !ops[2].Control {
		t.Error("abort must carry the control hint")
	}
	if ops[2].Return != nil {
		t.Errorf("abort return should be left nil for the analyzer to default, got %v", ops[2].Return)
	}

	if len(prog.Decls) != 1 || prog.Decls[0].Name.Value != "inc" {
		t.Fatalf("decls = %v", prog.Decls)
	}
	if _, ok := prog.Decls[0].Body.(*CallExpression); !ok {
		t.Errorf("inc body = %T, want *CallExpression", prog.Decls[0].Body)
	}

	h, ok := prog.Main.(*HandleExpression)
	if !ok {
		t.Fatalf("main = %T, want *HandleExpression", prog.Main)
	}
	if h.Effect != "State" || len(h.Operations) != 3 {
		t.Errorf("handle = %s with %d clauses", h.Effect, len(h.Operations))
	}
	if h.Token.Line != 3 || h.Token.Column != 1 {
		t.Errorf("handle position = %d:%d, want 3:1", h.Token.Line, h.Token.Column)
	}
	if h.Return == nil || h.Return.Param.Value != "x" {
		t.Errorf("return clause = %v", h.Return)
	}
	if len(h.Operations[1].Params) != 1 || h.Operations[1].Params[0].Value != "v" {
		t.Errorf("put clause params = %v", h.Operations[1].Params)
	}
	if _, ok := h.Body.(*PerformExpression); !ok {
		t.Errorf("handle body = %T, want *PerformExpression", h.Body)
	}
}

func TestDecodeTypes(t *testing.T) {
	// (Int) -> <State|e> Int
	data := []byte(`{
	  "fun": {
	    "params": [{"con": "Int"}],
	    "effects": {"labels": ["State"], "tail": {"var": "e", "k": "row"}},
	    "return": {"con": "Int"}
	  }
	}`)
	typ, err := decodeType(data)
	if err != nil {
		t.Fatalf("decodeType() = %v", err)
	}
	fn, ok := typ.(typesystem.TFunc)
	if !ok {
		t.Fatalf("type = %T, want TFunc", typ)
	}
	if !fn.Effects.ContainsLabel("State") {
		t.Errorf("effects = %s, want State", fn.Effects)
	}
	tail, ok := fn.Effects.Tail.(typesystem.TVar)
	if !ok || !tail.Kind().Equal(typesystem.Eff) {
		t.Errorf("tail = %v, want a row-kinded variable", fn.Effects.Tail)
	}
	if fn.String() != "(Int) -> <State|e> Int" {
		t.Errorf("type = %s", fn)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := DecodeUnit([]byte(`{"main": {"kind": "goto", "line": 7, "col": 2}}`))
	if err == nil {
		t.Fatal("expected an error for an unknown expression kind")
	}
	if !strings.Contains(err.Error(), "goto") {
		t.Errorf("error = %v, want the unknown kind named", err)
	}
}

func TestDecodeMaskAndLet(t *testing.T) {
	data := []byte(`{
	  "main": {
	    "kind": "let", "name": "x", "mutable": true,
	    "value": {"kind": "int", "int": 1},
	    "body": {"kind": "mask", "effect": "State",
	             "body": {"kind": "assign", "name": "x", "value": {"kind": "int", "int": 2}}}
	  }
	}`)
	prog, err := DecodeUnit(data)
	if err != nil {
		t.Fatalf("DecodeUnit() = %v", err)
	}
	l, ok := prog.Main.(*LetExpression)
	if !ok || !l.Mutable {
		t.Fatalf("main = %T (mutable=%v), want mutable let", prog.Main, ok)
	}
	m, ok := l.Body.(*MaskExpression)
	if !ok || m.Effect != "State" {
		t.Fatalf("let body = %T, want mask of State", l.Body)
	}
	if _, ok := m.Body.(*AssignExpression); !ok {
		t.Errorf("mask body = %T, want assignment", m.Body)
	}
}
