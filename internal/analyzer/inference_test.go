package analyzer

import (
	"strings"
	"testing"

	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/diagnostics"
	"github.com/rowan-lang/rowan/internal/symbols"
	"github.com/rowan-lang/rowan/internal/token"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// AST builders. The middle-end consumes frontend-decoded trees; tests build
// the same trees directly.

func tk(lex string) token.Token { return token.Token{Lexeme: lex, Line: 1, Column: 1} }

func ref(name string) *ast.Identifier {
	return &ast.Identifier{Token: tk(name), Value: name}
}

func num(v int64) *ast.IntegerLiteral {
	return &ast.IntegerLiteral{Token: tk("int"), Value: v}
}

func truth(v bool) *ast.BooleanLiteral {
	return &ast.BooleanLiteral{Token: tk("bool"), Value: v}
}

func unit() *ast.UnitLiteral {
	return &ast.UnitLiteral{Token: tk("unit")}
}

func lam(params []string, body ast.Expression) *ast.FunctionLiteral {
	fl := &ast.FunctionLiteral{Token: tk("fn"), Body: body}
	for _, p := range params {
		fl.Params = append(fl.Params, ref(p))
	}
	return fl
}

func call(fn ast.Expression, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Token: tk("call"), Function: fn, Args: args}
}

func let(name string, value, body ast.Expression) *ast.LetExpression {
	return &ast.LetExpression{Token: tk("let"), Name: ref(name), Value: value, Body: body}
}

func letMut(name string, value, body ast.Expression) *ast.LetExpression {
	e := let(name, value, body)
	e.Mutable = true
	return e
}

func assign(name string, value ast.Expression) *ast.AssignExpression {
	return &ast.AssignExpression{Token: tk("assign"), Name: ref(name), Value: value}
}

func cond(c, then, els ast.Expression) *ast.IfExpression {
	return &ast.IfExpression{Token: tk("if"), Condition: c, Consequence: then, Alternative: els}
}

func block(exprs ...ast.Expression) *ast.BlockExpression {
	return &ast.BlockExpression{Token: tk("block"), Exprs: exprs}
}

func performOp(effect, op string, args ...ast.Expression) *ast.PerformExpression {
	return &ast.PerformExpression{Token: tk("perform"), Effect: effect, Op: op, Args: args}
}

func clause(name string, params []string, body ast.Expression) *ast.OperationClause {
	c := &ast.OperationClause{Token: tk(name), Name: name, Body: body}
	for _, p := range params {
		c.Params = append(c.Params, ref(p))
	}
	return c
}

func handle(effect string, body ast.Expression, clauses ...*ast.OperationClause) *ast.HandleExpression {
	return &ast.HandleExpression{Token: tk("handle"), Effect: effect, Body: body, Operations: clauses}
}

func mask(effect string, body ast.Expression) *ast.MaskExpression {
	return &ast.MaskExpression{Token: tk("mask"), Effect: effect, Body: body}
}

// stateEffect is the State interface used across the inference tests:
// get(): Int, put(Int): Unit.
func stateEffect() *ast.EffectDeclaration {
	return &ast.EffectDeclaration{
		Token: tk("effect"),
		Name:  "State",
		Operations: []*ast.OperationSignature{
			{Name: "get", Return: IntType},
			{Name: "put", Params: []typesystem.Type{IntType}, Return: UnitType},
		},
	}
}

func analyzeMain(t *testing.T, prog *ast.Program, strict bool) (*Analyzer, *diagnostics.DiagnosticError) {
	t.Helper()
	table := symbols.NewSymbolTable()
	DefineBuiltins(table)
	a := New(table, NewInferenceContext(nil))
	a.StrictEffects = strict
	return a, a.Analyze(prog)
}

func mustAnalyze(t *testing.T, prog *ast.Program) *Analyzer {
	t.Helper()
	a, err := analyzeMain(t, prog, false)
	if err != nil {
		t.Fatalf("Analyze() = %v", err)
	}
	return a
}

func wantCode(t *testing.T, err *diagnostics.DiagnosticError, code diagnostics.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got none", code)
	}
	if err.Code != code {
		t.Fatalf("error code = %s, want %s (%s)", err.Code, code, err.Message)
	}
}

func TestInferLiteralMain(t *testing.T) {
	a := mustAnalyze(t, &ast.Program{Main: num(42)})

	if a.MainType.String() != "Int" {
		t.Errorf("main type = %s, want Int", a.MainType)
	}
	if !a.MainEffects.IsEmpty() {
		t.Errorf("main effects = %s, want empty row", a.MainEffects)
	}
}

func TestLetPolymorphism(t *testing.T) {
	// let id = fn(x) x in if id(true) { id(1) } else { id(2) }
	main := let("id", lam([]string{"x"}, ref("x")),
		cond(call(ref("id"), truth(true)),
			call(ref("id"), num(1)),
			call(ref("id"), num(2))))

	a := mustAnalyze(t, &ast.Program{Main: main})
	if a.MainType.String() != "Int" {
		t.Errorf("main type = %s, want Int", a.MainType)
	}
}

func TestMutableLetIsMonomorphic(t *testing.T) {
	// let mut id = fn(x) x in if id(true) { id(1) } else { 0 }
	// The second use at Int must clash with the Bool instantiation.
	main := letMut("id", lam([]string{"x"}, ref("x")),
		cond(call(ref("id"), truth(true)),
			call(ref("id"), num(1)),
			num(0)))

	_, err := analyzeMain(t, &ast.Program{Main: main}, false)
	wantCode(t, err, diagnostics.ErrU001)
}

func TestAssignment(t *testing.T) {
	// let mut x = 1 in { x := 2; x }
	main := letMut("x", num(1), block(assign("x", num(2)), ref("x")))
	a := mustAnalyze(t, &ast.Program{Main: main})
	if a.MainType.String() != "Int" {
		t.Errorf("main type = %s, want Int", a.MainType)
	}

	// Assigning a Bool to an Int binding is a type error.
	bad := letMut("x", num(1), block(assign("x", truth(true)), ref("x")))
	_, err := analyzeMain(t, &ast.Program{Main: bad}, false)
	wantCode(t, err, diagnostics.ErrU001)
}

func TestUnboundVariable(t *testing.T) {
	_, err := analyzeMain(t, &ast.Program{Main: ref("ghost")}, false)
	wantCode(t, err, diagnostics.ErrT001)
}

func TestConditionMustBeBool(t *testing.T) {
	_, err := analyzeMain(t, &ast.Program{Main: cond(num(1), num(2), num(3))}, false)
	wantCode(t, err, diagnostics.ErrU001)
}

func TestBranchesMustAgree(t *testing.T) {
	_, err := analyzeMain(t, &ast.Program{Main: cond(truth(true), num(1), truth(false))}, false)
	wantCode(t, err, diagnostics.ErrU001)
}

func TestDeclarationGeneralizes(t *testing.T) {
	decl := &ast.FunctionDeclaration{
		Token:  tk("id"),
		Name:   ref("id"),
		Params: []*ast.Identifier{ref("x")},
		Body:   ref("x"),
	}
	prog := &ast.Program{
		Decls: []*ast.FunctionDeclaration{decl},
		Main:  call(ref("id"), num(7)),
	}

	a := mustAnalyze(t, prog)
	if a.MainType.String() != "Int" {
		t.Errorf("main type = %s, want Int", a.MainType)
	}
	scheme, ok := a.Context().TypeMap[decl]
	if !ok {
		t.Fatal("declaration not annotated in the type map")
	}
	if _, ok := scheme.(typesystem.TForall); !ok {
		t.Errorf("declaration scheme = %s, want a quantified type", scheme)
	}
}

func TestRecursiveDeclaration(t *testing.T) {
	// fn countdown(n) = if eq(n, 0) { 0 } else { countdown(sub(n, 1)) }
	decl := &ast.FunctionDeclaration{
		Token:  tk("countdown"),
		Name:   ref("countdown"),
		Params: []*ast.Identifier{ref("n")},
		Body: cond(call(ref("eq"), ref("n"), num(0)),
			num(0),
			call(ref("countdown"), call(ref("sub"), ref("n"), num(1)))),
	}
	prog := &ast.Program{
		Decls: []*ast.FunctionDeclaration{decl},
		Main:  call(ref("countdown"), num(3)),
	}

	a := mustAnalyze(t, prog)
	if a.MainType.String() != "Int" {
		t.Errorf("main type = %s, want Int", a.MainType)
	}
}

func TestCallRowUnionIsLeftToRight(t *testing.T) {
	// Both the callee's latent row and the arguments' rows flow into the
	// call's row: add(perform State.get(), 1) performs State.
	prog := &ast.Program{
		Effects: []*ast.EffectDeclaration{stateEffect()},
		Main:    call(ref("add"), performOp("State", "get"), num(1)),
	}
	a := mustAnalyze(t, prog)
	if !a.MainEffects.ContainsLabel("State") {
		t.Errorf("main effects = %s, want State present", a.MainEffects)
	}
	if a.MainType.String() != "Int" {
		t.Errorf("main type = %s, want Int", a.MainType)
	}
}

func TestAmbiguousTopLevelRow(t *testing.T) {
	// (fn(g) { g(0); g })(fn(x) x) evaluates to a function whose latent row
	// is the same variable as main's own row: defaulting it to the empty row
	// would change the program's type, so this is ambiguous.
	main := call(
		lam([]string{"g"}, block(call(ref("g"), num(0)), ref("g"))),
		lam([]string{"x"}, ref("x")))

	_, err := analyzeMain(t, &ast.Program{Main: main}, false)
	wantCode(t, err, diagnostics.ErrT003)
	if !strings.Contains(err.Message, "top level") {
		t.Errorf("message = %q, want mention of the top level", err.Message)
	}
}

func TestPrincipalTypeAcrossSupplies(t *testing.T) {
	// Inference must not depend on fresh-variable naming: two runs over the
	// same unit, one with a supply burned well past the other, have to
	// produce alpha-equivalent schemes. Unification of quantified types
	// decides alpha-equivalence.
	inferScheme := func(supply *typesystem.VarSupply) typesystem.Type {
		t.Helper()
		// fn compose(f, g, x) = f(g(x))
		decl := &ast.FunctionDeclaration{
			Token:  tk("compose"),
			Name:   ref("compose"),
			Params: []*ast.Identifier{ref("f"), ref("g"), ref("x")},
			Body:   call(ref("f"), call(ref("g"), ref("x"))),
		}
		prog := &ast.Program{
			Decls: []*ast.FunctionDeclaration{decl},
			Main:  unit(),
		}
		table := symbols.NewSymbolTable()
		DefineBuiltins(table)
		a := New(table, NewInferenceContext(supply))
		if err := a.Analyze(prog); err != nil {
			t.Fatalf("Analyze() = %v", err)
		}
		scheme, ok := a.Context().TypeMap[decl]
		if !ok {
			t.Fatal("declaration not annotated in the type map")
		}
		return scheme
	}

	first := typesystem.NewVarSupply()
	burned := typesystem.NewVarSupply()
	for i := 0; i < 37; i++ {
		burned.FreshType()
	}
	if first.Counter() == burned.Counter() {
		t.Fatal("supplies must start at different counters")
	}

	s1 := inferScheme(first)
	s2 := inferScheme(burned)
	if _, ok := s1.(typesystem.TForall); !ok {
		t.Fatalf("scheme = %s, want a quantified type", s1)
	}
	if _, err := typesystem.Unify(s1, s2, typesystem.NewVarSupply()); err != nil {
		t.Errorf("schemes must be alpha-equivalent:\n  %s\n  %s\n  %v", s1, s2, err)
	}
	if _, err := typesystem.Unify(s2, s1, typesystem.NewVarSupply()); err != nil {
		t.Errorf("alpha-equivalence must not depend on order: %v", err)
	}
}
