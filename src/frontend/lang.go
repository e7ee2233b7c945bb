package frontend

// itemType enumerates every token kind this lexer emits. Unlike the
// teacher's VSL lexer, which lets unrecognized single characters flow
// through to goyacc under their own rune value (so the grammar file
// could match '+' as itself), this frontend has no goyacc grammar
// behind it: every punctuation and operator gets its own named
// constant and the parser (parser.go) switches on it directly.
const (
	itemEOF itemType = iota
	itemError

	NEWLINE
	INDENT
	DEDENT

	IDENTIFIER
	NUMBER
	FLOAT
	STRING

	// Keywords.
	DEF
	IF
	ELIF
	ELSE
	WHILE
	RETURN
	PASS
	PRINT
	IMPORT
	CLASS
	NOT
	TRUE
	FALSE
	NONE

	// Operators and punctuation.
	ASSIGN // =
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ // ==
	NE // !=
	LT
	LE
	GT
	GE
	LPAREN
	RPAREN
	LBRACK
	RBRACK
	LBRACE
	RBRACE
	COMMA
	COLON
	DOT
	ARROW // ->
)

// itemTypeNames gives every token type a readable name, used by item's
// String method and test failure output.
var itemTypeNames = map[itemType]string{
	itemEOF: "EOF", itemError: "ERROR",
	NEWLINE: "NEWLINE", INDENT: "INDENT", DEDENT: "DEDENT",
	IDENTIFIER: "IDENTIFIER", NUMBER: "NUMBER", FLOAT: "FLOAT", STRING: "STRING",
	DEF: "def", IF: "if", ELIF: "elif", ELSE: "else", WHILE: "while",
	RETURN: "return", PASS: "pass", PRINT: "print", IMPORT: "import",
	CLASS: "class", NOT: "not", TRUE: "True", FALSE: "False", NONE: "None",
	ASSIGN: "=", PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	EQ: "==", NE: "!=", LT: "<", LE: "<=", GT: ">", GE: ">=",
	LPAREN: "(", RPAREN: ")", LBRACK: "[", RBRACK: "]", LBRACE: "{", RBRACE: "}",
	COMMA: ",", COLON: ":", DOT: ".", ARROW: "->",
}

func (t itemType) String() string {
	if n, ok := itemTypeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

type reservedItem struct {
	val string
	typ itemType
}

// rw holds every reserved keyword of the source language, indexed by
// word length the same way the teacher's VSL keyword table is (length
// bucketing beats a full hash table for a set this small).
var rw = [...][]reservedItem{
	// One-grams
	{},
	// Two-grams
	{
		{val: "if", typ: IF},
	},
	// Three-grams
	{
		{val: "def", typ: DEF},
		{val: "not", typ: NOT},
	},
	// Four-grams
	{
		{val: "elif", typ: ELIF},
		{val: "else", typ: ELSE},
		{val: "pass", typ: PASS},
		{val: "True", typ: TRUE},
		{val: "None", typ: NONE},
	},
	// Five-grams
	{
		{val: "while", typ: WHILE},
		{val: "print", typ: PRINT},
		{val: "class", typ: CLASS},
		{val: "False", typ: FALSE},
	},
	// Six-grams
	{
		{val: "return", typ: RETURN},
		{val: "import", typ: IMPORT},
	},
}

// isKeyword reports whether s is a reserved keyword, returning its
// itemType. A non-keyword reports IDENTIFIER, matching the teacher's
// isKeyword contract.
func isKeyword(s string) (bool, itemType) {
	if len(s) == 0 {
		return false, itemError
	}
	if len(s) > len(rw) {
		return false, IDENTIFIER
	}
	for _, e1 := range rw[len(s)-1] {
		if e1.val == s {
			return true, e1.typ
		}
	}
	return false, IDENTIFIER
}
