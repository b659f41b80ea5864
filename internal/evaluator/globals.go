package evaluator

import (
	"errors"
	"strconv"
)

// DefaultGlobals builds the built-in environment. The names and signatures
// mirror the bindings the analyzer registers (analyzer.DefineBuiltins); the
// two lists must stay in sync.
func DefaultGlobals() *Environment {
	env := NewEnvironment()

	intBin := func(name string, fn func(a, b int64) int64) {
		env.Define(name, &Native{Name: name, Arity: 2, Fn: func(args []Value) (Value, error) {
			a, b, err := twoInts(args)
			if err != nil {
				return nil, err
			}
			return &Integer{Value: fn(a, b)}, nil
		}})
	}
	intCmp := func(name string, fn func(a, b int64) bool) {
		env.Define(name, &Native{Name: name, Arity: 2, Fn: func(args []Value) (Value, error) {
			a, b, err := twoInts(args)
			if err != nil {
				return nil, err
			}
			return &Boolean{Value: fn(a, b)}, nil
		}})
	}

	intBin("add", func(a, b int64) int64 { return a + b })
	intBin("sub", func(a, b int64) int64 { return a - b })
	intBin("mul", func(a, b int64) int64 { return a * b })
	intCmp("eq", func(a, b int64) bool { return a == b })
	intCmp("lt", func(a, b int64) bool { return a < b })

	env.Define("not", &Native{Name: "not", Arity: 1, Fn: func(args []Value) (Value, error) {
		b, ok := args[0].(*Boolean)
		if !ok {
			return nil, errors.New("argument is not a Bool")
		}
		return &Boolean{Value: !b.Value}, nil
	}})

	env.Define("concat", &Native{Name: "concat", Arity: 2, Fn: func(args []Value) (Value, error) {
		a, aok := args[0].(*Str)
		b, bok := args[1].(*Str)
		if !aok || !bok {
			return nil, errors.New("arguments are not Strings")
		}
		return &Str{Value: a.Value + b.Value}, nil
	}})

	env.Define("show", &Native{Name: "show", Arity: 1, Fn: func(args []Value) (Value, error) {
		n, ok := args[0].(*Integer)
		if !ok {
			return nil, errors.New("argument is not an Int")
		}
		return &Str{Value: strconv.FormatInt(n.Value, 10)}, nil
	}})

	return env
}

func twoInts(args []Value) (int64, int64, error) {
	a, aok := args[0].(*Integer)
	b, bok := args[1].(*Integer)
	if !aok || !bok {
		return 0, 0, errors.New("arguments are not Ints")
	}
	return a.Value, b.Value, nil
}
