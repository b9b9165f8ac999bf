package lexer

// quoteKind is one entry of the Context's quote stack.
type quoteKind int

const (
	single quoteKind = iota
	double
	ansiC
)

// Context carries the state needed to disambiguate tokens that read the
// same bytes differently depending on where they appear (spec.md §4.1).
// It is exported so callers (and tests) can inspect lexer state directly;
// the fields mirror the LexerContext of the data model in spec.md §3.
type Context struct {
	ParenDepth      int
	BracketDepth    int
	BraceDepth      int
	ArithmeticDepth int
	CommandPosition bool
	CaseDepth       int
	CaseExpectingIn bool
	InCasePattern   bool
	QuoteStack      []quoteKind
}

func newContext() *Context {
	return &Context{CommandPosition: true}
}

func (c *Context) pushQuote(q quoteKind) { c.QuoteStack = append(c.QuoteStack, q) }

func (c *Context) popQuote() {
	if len(c.QuoteStack) > 0 {
		c.QuoteStack = c.QuoteStack[:len(c.QuoteStack)-1]
	}
}

func (c *Context) inQuote() bool { return len(c.QuoteStack) > 0 }

func (c *Context) currentQuote() (quoteKind, bool) {
	if len(c.QuoteStack) == 0 {
		return 0, false
	}
	return c.QuoteStack[len(c.QuoteStack)-1], true
}

// afterCommandTerminator puts the lexer back at command position, the state
// that holds (spec.md §4.1) at start of input, after NEWLINE/;/&/|/||/&&/(/{,
// and after each control keyword.
func (c *Context) afterCommandTerminator() { c.CommandPosition = true }

func (c *Context) consumedWord() { c.CommandPosition = false }
