package evaluator

import (
	"testing"

	"github.com/rowan-lang/rowan/internal/analyzer"
	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/diagnostics"
	"github.com/rowan-lang/rowan/internal/effects"
	"github.com/rowan-lang/rowan/internal/lowering"
	"github.com/rowan-lang/rowan/internal/pipeline"
	"github.com/rowan-lang/rowan/internal/project"
	"github.com/rowan-lang/rowan/internal/token"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

func tk(lex string) token.Token { return token.Token{Lexeme: lex, Line: 1, Column: 1} }

func ref(name string) *ast.Identifier {
	return &ast.Identifier{Token: tk(name), Value: name}
}

func num(v int64) *ast.IntegerLiteral {
	return &ast.IntegerLiteral{Token: tk("int"), Value: v}
}

func str(s string) *ast.StringLiteral {
	return &ast.StringLiteral{Token: tk("string"), Value: s}
}

func unitLit() *ast.UnitLiteral { return &ast.UnitLiteral{Token: tk("unit")} }

func call(fn ast.Expression, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Token: tk("call"), Function: fn, Args: args}
}

func letMut(name string, value, body ast.Expression) *ast.LetExpression {
	return &ast.LetExpression{Token: tk("let"), Name: ref(name), Mutable: true, Value: value, Body: body}
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

func maskE(effect string, body ast.Expression) *ast.MaskExpression {
	return &ast.MaskExpression{Token: tk("mask"), Effect: effect, Body: body}
}

func resume(args ...ast.Expression) *ast.CallExpression {
	return call(ref("resume"), args...)
}

var (
	intT  = typesystem.TCon{Name: "Int", KindVal: typesystem.Star}
	boolT = typesystem.TCon{Name: "Bool", KindVal: typesystem.Star}
	unitT = typesystem.TCon{Name: "Unit", KindVal: typesystem.Star}
)

func effectDecl(name string, singleShot bool, ops ...*ast.OperationSignature) *ast.EffectDeclaration {
	return &ast.EffectDeclaration{Token: tk("effect"), Name: name, SingleShot: singleShot, Operations: ops}
}

// compile runs the full middle-end over a unit and fails the test on any
// diagnostic.
func compile(t *testing.T, prog *ast.Program, cfg *project.Config, force bool) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewContext(prog, cfg)
	pl := pipeline.New(
		analyzer.NewProcessor(),
		effects.NewProcessor(),
		&lowering.Processor{Opts: lowering.Options{ForceGeneral: force}},
	)
	ctx = pl.Run(ctx)
	if ctx.Failed() {
		t.Fatalf("compilation failed: %v", ctx.Errors[0])
	}
	return ctx
}

func run(t *testing.T, prog *ast.Program, cfg *project.Config, force bool) (Value, *RuntimeError) {
	t.Helper()
	ctx := compile(t, prog, cfg, force)
	return NewMachine(nil).Run(ctx.IR)
}

func wantInt(t *testing.T, v Value, err *RuntimeError, want int64) {
	t.Helper()
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	n, ok := v.(*Integer)
	if !ok {
		t.Fatalf("result = %s (%T), want Int %d", v, v, want)
	}
	if n.Value != want {
		t.Errorf("result = %d, want %d", n.Value, want)
	}
}

func wantRuntimeCode(t *testing.T, err *RuntimeError, code diagnostics.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s runtime error, got none", code)
	}
	if err.Code != code {
		t.Fatalf("runtime error = %v, want code %s", err, code)
	}
}

// stateProgram is the canonical example: a mutable-cell State handler whose
// operations are both tail-resumptive.
//
//	let mut s = 0 in
//	handle State { get() -> resume(s), put(v) -> { s := v; resume(()) } }
//	  { perform State.put(1); perform State.get() }
func stateProgram() *ast.Program {
	h := handle("State",
		block(performOp("State", "put", num(1)), performOp("State", "get")),
		clause("get", nil, resume(ref("s"))),
		clause("put", []string{"v"}, block(assign("s", ref("v")), resume(unitLit()))))

	return &ast.Program{
		Effects: []*ast.EffectDeclaration{effectDecl("State", false,
			&ast.OperationSignature{Name: "get", Return: intT},
			&ast.OperationSignature{Name: "put", Params: []typesystem.Type{intT}, Return: unitT})},
		Main: letMut("s", num(0), h),
	}
}

func TestStateHandler(t *testing.T) {
	ctx := compile(t, stateProgram(), nil, false)

	if ctx.MainType.String() != "Int" {
		t.Errorf("main type = %s, want Int", ctx.MainType)
	}
	if !ctx.MainEffects.IsEmpty() {
		t.Errorf("main effects = %s, want empty row", ctx.MainEffects)
	}

	v, err := NewMachine(nil).Run(ctx.IR)
	wantInt(t, v, err, 1)
}

func TestTailAndGeneralDispatchAgree(t *testing.T) {
	// Classification is an optimization: forcing every operation through
	// continuation capture must not change the observable result.
	tailV, tailErr := run(t, stateProgram(), nil, false)
	genV, genErr := run(t, stateProgram(), nil, true)

	wantInt(t, tailV, tailErr, 1)
	wantInt(t, genV, genErr, 1)
}

func choiceProgram(singleShot bool) *ast.Program {
	// handle Choice { flip() -> add(resume(true), resume(false)) }
	//   if perform Choice.flip() { 1 } else { 2 }
	h := handle("Choice",
		cond(performOp("Choice", "flip"), num(1), num(2)),
		clause("flip", nil, call(ref("add"), resume(&ast.BooleanLiteral{Token: tk("bool"), Value: true}),
			resume(&ast.BooleanLiteral{Token: tk("bool"), Value: false}))))

	return &ast.Program{
		Effects: []*ast.EffectDeclaration{effectDecl("Choice", singleShot,
			&ast.OperationSignature{Name: "flip", Return: boolT})},
		Main: h,
	}
}

func TestMultiShotResume(t *testing.T) {
	v, err := run(t, choiceProgram(false), nil, false)
	wantInt(t, v, err, 3)
}

func TestSingleShotDeclarationRejectsSecondResume(t *testing.T) {
	_, err := run(t, choiceProgram(true), nil, false)
	wantRuntimeCode(t, err, diagnostics.ErrL002)
}

func TestSingleShotFromConfigRejectsSecondResume(t *testing.T) {
	cfg := project.Default()
	cfg.SingleShot = []string{"Choice"}
	_, err := run(t, choiceProgram(false), cfg, false)
	wantRuntimeCode(t, err, diagnostics.ErrL002)
}

func TestUnhandledEffectAtRuntime(t *testing.T) {
	prog := &ast.Program{
		Effects: []*ast.EffectDeclaration{effectDecl("State", false,
			&ast.OperationSignature{Name: "get", Return: intT})},
		Main: performOp("State", "get"),
	}
	_, err := run(t, prog, nil, false)
	wantRuntimeCode(t, err, diagnostics.ErrL001)
}

func askProgram(body ast.Expression) *ast.Program {
	return &ast.Program{
		Effects: []*ast.EffectDeclaration{effectDecl("Ask", false,
			&ast.OperationSignature{Name: "ask", Return: intT})},
		Main: body,
	}
}

func askHandler(answer int64, body ast.Expression) *ast.HandleExpression {
	return handle("Ask", body, clause("ask", nil, resume(num(answer))))
}

func TestInnermostHandlerWins(t *testing.T) {
	prog := askProgram(askHandler(1, askHandler(2, performOp("Ask", "ask"))))
	v, err := run(t, prog, nil, false)
	wantInt(t, v, err, 2)
}

func TestMaskForwardsToOuterHandler(t *testing.T) {
	prog := askProgram(askHandler(1, askHandler(2, maskE("Ask", performOp("Ask", "ask")))))
	v, err := run(t, prog, nil, false)
	wantInt(t, v, err, 1)

	// The mask is scoped: after its body returns, the inner handler is
	// visible again.
	both := askProgram(askHandler(1, askHandler(2,
		call(ref("add"),
			maskE("Ask", performOp("Ask", "ask")),
			performOp("Ask", "ask")))))
	v, err = run(t, both, nil, false)
	wantInt(t, v, err, 3)
}

func TestReturnClauseTransformsResult(t *testing.T) {
	h := askHandler(5, performOp("Ask", "ask"))
	h.Return = &ast.ReturnClause{
		Token: tk("return"),
		Param: ref("x"),
		Body:  call(ref("add"), ref("x"), num(10)),
	}
	v, err := run(t, askProgram(h), nil, false)
	wantInt(t, v, err, 15)
}

func TestReturnClauseRunsPerCompletion(t *testing.T) {
	// Deep handler semantics: with a multi-shot resumption, every completion
	// of the handled body passes through the return clause.
	prog := choiceProgram(false)
	h := prog.Main.(*ast.HandleExpression)
	h.Return = &ast.ReturnClause{
		Token: tk("return"),
		Param: ref("x"),
		Body:  call(ref("mul"), ref("x"), num(10)),
	}
	v, err := run(t, prog, nil, false)
	wantInt(t, v, err, 30)
}

func TestZeroResumeAborts(t *testing.T) {
	// A clause that never resumes discards the rest of the handled body.
	prog := &ast.Program{
		Effects: []*ast.EffectDeclaration{effectDecl("Exn", false,
			&ast.OperationSignature{Name: "raise", Return: intT})},
		Main: handle("Exn",
			call(ref("add"), performOp("Exn", "raise"), num(1)),
			clause("raise", nil, num(42))),
	}
	v, err := run(t, prog, nil, false)
	wantInt(t, v, err, 42)
}

func TestHandlerStateVisibleAcrossCapture(t *testing.T) {
	// Under forced general dispatch the put clause runs from a captured
	// continuation; its write to the mutable cell must still be observed.
	v, err := run(t, stateProgram(), nil, true)
	wantInt(t, v, err, 1)
}

func TestStringPrimitives(t *testing.T) {
	prog := &ast.Program{Main: call(ref("concat"), call(ref("show"), num(7)), str("!"))}
	v, err := run(t, prog, nil, false)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	s, ok := v.(*Str)
	if !ok || s.Value != "7!" {
		t.Errorf("result = %s, want \"7!\"", v)
	}
}
