package spec

type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return e.message
}

var (
	// lexical errors
	synErrInvalidEscSeq = newSyntaxError("invalid escape sequence")
	synErrEmptyPattern  = newSyntaxError("a pattern must include at least one character")
	synErrEmptyLiteral  = newSyntaxError("a literal must include at least one character")
	synErrBoundTooLarge = newSyntaxError("a bound of a multiplicity is too large")

	// syntax errors
	synErrInvalidToken        = newSyntaxError("invalid token")
	synErrNoGrammar           = newSyntaxError("a source must have at least one grammar")
	synErrNoNamespaceName     = newSyntaxError("a namespace name is missing")
	synErrNoGrammarName       = newSyntaxError("a grammar name is missing")
	synErrNoExtendsName       = newSyntaxError("a grammar name is missing after extends")
	synErrNoGrammarOpen       = newSyntaxError("a grammar body must start with {")
	synErrUnclosedGrammar     = newSyntaxError("a grammar body must be closed by }")
	synErrNoRuleName          = newSyntaxError("a rule name is missing")
	synErrNoEqual             = newSyntaxError("the = must precede the right-hand side")
	synErrNoSemicolon         = newSyntaxError("the semicolon is missing at the last of a rule")
	synErrMixedChoice         = newSyntaxError("| and < cannot be mixed in one choice")
	synErrUnclosedGroup       = newSyntaxError("a group must be closed by )")
	synErrUnclosedList        = newSyntaxError("a separated list must be closed by ]")
	synErrNoListItem          = newSyntaxError("a separated list needs an item")
	synErrNoListSeparator     = newSyntaxError("a separated list needs a / followed by a separator")
	synErrNoListMultiplicity  = newSyntaxError("a separated list must be followed by a multiplicity")
	synErrInvalidMultiplicity = newSyntaxError("a multiplicity must be *, +, ?, {n}, {n,}, or {n,m}")
	synErrUnclosedBound       = newSyntaxError("a bounded multiplicity must be closed by }")
	synErrInvalidBounds       = newSyntaxError("the upper bound of a multiplicity must not be less than the lower bound")
	synErrStackedMultiplicity = newSyntaxError("a multiplicity cannot follow another multiplicity; use a group")
)
