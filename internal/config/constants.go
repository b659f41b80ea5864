package config

// UnitFileExt is the extension of frontend-emitted compilation units.
const UnitFileExt = ".unit.json"

// ProjectFileName is the default project configuration file.
const ProjectFileName = "rowan.yaml"

// IsTestMode indicates if the program is running in test mode.
// When set, auto-generated type/row variable names (t1, e7, ...) are
// normalized in printed types so test output stays deterministic.
var IsTestMode = false

// Reserved identifiers inside handler operation clauses.
const (
	ResumeName = "resume"
)

// Built-in type constructor names registered by the analyzer.
const (
	IntTypeName    = "Int"
	BoolTypeName   = "Bool"
	StringTypeName = "String"
	UnitTypeName   = "Unit"
)

// Fresh-variable name prefixes. Type variables and row variables draw from
// the same counter so a trace of an inference run stays readable.
const (
	TypeVarPrefix = "t"
	RowVarPrefix  = "e"
	GenVarPrefix  = "gen_t"
)
