package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/rowan-lang/rowan/internal/analyzer"
	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/config"
	"github.com/rowan-lang/rowan/internal/diagnostics"
	"github.com/rowan-lang/rowan/internal/effects"
	"github.com/rowan-lang/rowan/internal/evaluator"
	"github.com/rowan-lang/rowan/internal/lowering"
	"github.com/rowan-lang/rowan/internal/pipeline"
	"github.com/rowan-lang/rowan/internal/project"
)

const usage = `Usage: rowan <command> [flags] <file%s>

Commands:
  check    type-check a unit and print its main type and effect row
  build    compile a unit and print the emit target (ir or types)
  run      compile and evaluate a unit

Flags:
  -config <path>   project configuration (default: rowan.yaml next to the unit)
  -strict          treat unhandled top-level effects as errors
  -trace           trace handler installs, dispatches and resumes (run only)
`

func main() {
	if os.Getenv("ROWAN_TEST_MODE") == "1" {
		config.IsTestMode = true
	}

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, config.UnitFileExt)
		os.Exit(2)
	}
	cmd := os.Args[1]
	switch cmd {
	case "check", "build", "run":
	case "help", "-help", "--help":
		fmt.Printf(usage, config.UnitFileExt)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprintf(os.Stderr, usage, config.UnitFileExt)
		os.Exit(2)
	}

	var (
		configPath string
		strict     bool
		trace      bool
		unitPath   string
	)
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "-config" || arg == "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "-config needs a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		case arg == "-strict" || arg == "--strict":
			strict = true
		case arg == "-trace" || arg == "--trace":
			trace = true
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "unknown flag %q\n", arg)
			os.Exit(2)
		default:
			if unitPath != "" {
				fmt.Fprintln(os.Stderr, "exactly one unit file expected")
				os.Exit(2)
			}
			unitPath = arg
		}
	}
	if unitPath == "" {
		fmt.Fprintf(os.Stderr, usage, config.UnitFileExt)
		os.Exit(2)
	}

	cfg := loadConfig(configPath, unitPath)
	if strict {
		cfg.StrictEffects = true
	}
	if trace {
		cfg.Trace = true
	}

	data, err := os.ReadFile(unitPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading unit: %s\n", err)
		os.Exit(1)
	}
	prog, err := ast.DecodeUnit(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %s\n", unitPath, err)
		os.Exit(1)
	}
	if prog.File == "" {
		prog.File = unitPath
	}

	ctx := pipeline.NewContext(prog, cfg)
	ctx.FilePath = unitPath
	pl := pipeline.New(
		analyzer.NewProcessor(),
		effects.NewProcessor(),
		lowering.NewProcessor(),
	)
	ctx = pl.Run(ctx)

	if ctx.Failed() {
		reportErrors(ctx.Errors)
		os.Exit(1)
	}

	switch cmd {
	case "check":
		printTypes(ctx)
	case "build":
		if cfg.Emit == "types" {
			printTypes(ctx)
		} else {
			fmt.Print(ctx.IR.String())
		}
	case "run":
		machine := evaluator.NewMachine(nil)
		if cfg.Trace {
			machine.Trace = os.Stderr
		}
		v, rerr := machine.Run(ctx.IR)
		if rerr != nil {
			label := "Runtime error"
			if diagnostics.IsFatal(rerr.Code) {
				label = "Effect contract violation"
			}
			fmt.Fprintf(os.Stderr, "%s\n", colorize(os.Stderr, label+": "+rerr.Error()))
			os.Exit(1)
		}
		fmt.Println(v.String())
	}
}

func printTypes(ctx *pipeline.PipelineContext) {
	if ctx.MainType == nil {
		fmt.Println("no main expression")
		return
	}
	fmt.Printf("main : %s %s\n", ctx.MainEffects.String(), ctx.MainType.String())
}

// loadConfig prefers an explicit -config path; otherwise it looks for
// rowan.yaml next to the unit and falls back to defaults.
func loadConfig(explicit, unitPath string) *project.Config {
	path := explicit
	if path == "" {
		candidate := filepath.Join(filepath.Dir(unitPath), config.ProjectFileName)
		if _, err := os.Stat(candidate); err != nil {
			return project.Default()
		}
		path = candidate
	}
	cfg, err := project.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

func reportErrors(errs []*diagnostics.DiagnosticError) {
	for _, e := range errs {
		line := e.Error()
		if e.File != "" {
			line = e.File + ": " + line
		}
		fmt.Fprintf(os.Stderr, "- %s\n", colorize(os.Stderr, line))
	}
}

// colorize wraps the message in red when the writer is a terminal.
func colorize(f *os.File, msg string) string {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return "\x1b[31m" + msg + "\x1b[0m"
	}
	return msg
}
