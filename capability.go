package pseudo

// FunctionName names a pseudonymization function known to the pseudo
// service. Use these constants in rule expressions: `daead(keyId=...)`.
type FunctionName string

const (
	// FuncDaead is deterministic authenticated encryption.
	FuncDaead FunctionName = "daead"

	// FuncFF31 is format-preserving encryption.
	FuncFF31 FunctionName = "ff31"

	// FuncMapSID maps national identifiers to stable IDs before FF31.
	FuncMapSID FunctionName = "map-sid-ff31"

	// FuncRedact replaces values with a placeholder. Applied locally.
	FuncRedact FunctionName = "redact"
)

// Keys the pseudo service knows by name.
const (
	KeySSBCommon1   = "ssb-common-key-1"
	KeySSBCommon2   = "ssb-common-key-2"
	KeyPapisCommon1 = "papis-common-key-1"
)

// UnknownCharacterStrategy tells FF31 what to do with characters outside
// its alphabet.
type UnknownCharacterStrategy string

const (
	StrategyFail   UnknownCharacterStrategy = "fail"
	StrategySkip   UnknownCharacterStrategy = "skip"
	StrategyDelete UnknownCharacterStrategy = "delete"
	StrategyRedact UnknownCharacterStrategy = "redact"
)

// validFunctions contains all known function names for rule validation.
var validFunctions = map[FunctionName]bool{
	FuncDaead:  true,
	FuncFF31:   true,
	FuncMapSID: true,
	FuncRedact: true,
}

// validStrategies contains all known FF31 strategies.
var validStrategies = map[UnknownCharacterStrategy]bool{
	StrategyFail:   true,
	StrategySkip:   true,
	StrategyDelete: true,
	StrategyRedact: true,
}

// IsKnownFunction returns true if name is a function the pseudo service knows.
func IsKnownFunction(name FunctionName) bool {
	return validFunctions[name]
}

// IsValidStrategy returns true if s is a known FF31 strategy.
func IsValidStrategy(s UnknownCharacterStrategy) bool {
	return validStrategies[s]
}

// CheckFunction parses expr and verifies that it names a known function
// with a valid strategy, if one is given.
func CheckFunction(expr string) (Function, error) {
	fn, err := ParseFunction(expr)
	if err != nil {
		return Function{}, err
	}
	if !IsKnownFunction(FunctionName(fn.Name)) {
		return Function{}, newFunctionError(expr, "unknown function "+fn.Name)
	}
	if s, ok := fn.Get("strategy"); ok && !IsValidStrategy(UnknownCharacterStrategy(s)) {
		return Function{}, newFunctionError(expr, "unknown strategy "+s)
	}
	return fn, nil
}
