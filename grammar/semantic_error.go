package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	ErrRuleNotFound = newSemanticError("rule not found")

	semErrNoGrammar            = newSemanticError("no grammar")
	semErrNoRule               = newSemanticError("a grammar needs at least one rule")
	semErrDuplicateRule        = newSemanticError("duplicate rule")
	semErrDuplicateGrammar     = newSemanticError("duplicate grammar")
	semErrGrammarNotFound      = newSemanticError("grammar not found")
	semErrCyclicExtends        = newSemanticError("a grammar cannot extend itself")
	semErrInvalidMultiplicity  = newSemanticError("invalid multiplicity")
	semErrInvalidPattern       = newSemanticError("invalid pattern")
	semErrEmptyLiteral         = newSemanticError("a literal must not be empty")
	semErrReservedName         = newSemanticError("a rule name must not start with '§'")
	semErrMissingSeparatedList = newSemanticError("a separated list needs an item and a separator")
)
