package frontend

import "testing"

// scanAll runs src through the lexer to completion and returns every
// item emitted, EOF included. Mirrors the teacher's own lexer_test
// helper of draining the item channel from a fresh lexer/run pair.
func scanAll(src string) []item {
	l := newLexer(src, lexLineStart)
	go l.run()
	var out []item
	for {
		it := l.nextItem()
		out = append(out, it)
		if it.typ == itemEOF {
			return out
		}
	}
}

func typesOf(items []item) []itemType {
	out := make([]itemType, len(items))
	for i, it := range items {
		out[i] = it.typ
	}
	return out
}

func assertTypes(t *testing.T, src string, want []itemType) {
	t.Helper()
	got := typesOf(scanAll(src))
	if len(got) != len(want) {
		t.Fatalf("scanning %q: got %d tokens %v, want %d %v", src, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scanning %q: token %d = %s, want %s (full: %v)", src, i, got[i], want[i], got)
		}
	}
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	assertTypes(t, "x\n", []itemType{IDENTIFIER, NEWLINE, itemEOF})
	assertTypes(t, "if\n", []itemType{IF, NEWLINE, itemEOF})
	assertTypes(t, "while\n", []itemType{WHILE, NEWLINE, itemEOF})
	assertTypes(t, "return\n", []itemType{RETURN, NEWLINE, itemEOF})
	assertTypes(t, "xyz123\n", []itemType{IDENTIFIER, NEWLINE, itemEOF})
}

func TestLexerNumberAndFloat(t *testing.T) {
	assertTypes(t, "42\n", []itemType{NUMBER, NEWLINE, itemEOF})
	assertTypes(t, "3.14\n", []itemType{FLOAT, NEWLINE, itemEOF})
}

func TestLexerString(t *testing.T) {
	items := scanAll(`"hello world"` + "\n")
	if items[0].typ != STRING || items[0].val != "hello world" {
		t.Fatalf("got %v, want STRING %q", items[0], "hello world")
	}
}

func TestLexerStringSingleQuote(t *testing.T) {
	items := scanAll("'hi'\n")
	if items[0].typ != STRING || items[0].val != "hi" {
		t.Fatalf("got %v, want STRING %q", items[0], "hi")
	}
}

func TestLexerUnclosedStringIsError(t *testing.T) {
	items := scanAll(`"unterminated` + "\n")
	if items[0].typ != itemError {
		t.Fatalf("got %v, want itemError", items[0])
	}
}

func TestLexerOperators(t *testing.T) {
	assertTypes(t, "a == b\n", []itemType{IDENTIFIER, EQ, IDENTIFIER, NEWLINE, itemEOF})
	assertTypes(t, "a != b\n", []itemType{IDENTIFIER, NE, IDENTIFIER, NEWLINE, itemEOF})
	assertTypes(t, "a <= b\n", []itemType{IDENTIFIER, LE, IDENTIFIER, NEWLINE, itemEOF})
	assertTypes(t, "a -> b\n", []itemType{IDENTIFIER, ARROW, IDENTIFIER, NEWLINE, itemEOF})
	assertTypes(t, "a + b * c\n", []itemType{IDENTIFIER, PLUS, IDENTIFIER, STAR, IDENTIFIER, NEWLINE, itemEOF})
}

func TestLexerComment(t *testing.T) {
	assertTypes(t, "x = 1 # a comment\n", []itemType{IDENTIFIER, ASSIGN, NUMBER, NEWLINE, itemEOF})
}

func TestLexerIndentDedent(t *testing.T) {
	src := "if x:\n    y = 1\n    z = 2\nw = 3\n"
	want := []itemType{
		IF, IDENTIFIER, COLON, NEWLINE,
		INDENT,
		IDENTIFIER, ASSIGN, NUMBER, NEWLINE,
		IDENTIFIER, ASSIGN, NUMBER, NEWLINE,
		DEDENT,
		IDENTIFIER, ASSIGN, NUMBER, NEWLINE,
		itemEOF,
	}
	assertTypes(t, src, want)
}

func TestLexerNestedIndent(t *testing.T) {
	src := "if a:\n    if b:\n        x = 1\n    y = 2\n"
	want := []itemType{
		IF, IDENTIFIER, COLON, NEWLINE,
		INDENT,
		IF, IDENTIFIER, COLON, NEWLINE,
		INDENT,
		IDENTIFIER, ASSIGN, NUMBER, NEWLINE,
		DEDENT,
		IDENTIFIER, ASSIGN, NUMBER, NEWLINE,
		DEDENT,
		itemEOF,
	}
	assertTypes(t, src, want)
}

func TestLexerBlankAndCommentLinesDoNotAffectIndent(t *testing.T) {
	src := "if a:\n\n    # a comment\n    x = 1\n"
	want := []itemType{
		IF, IDENTIFIER, COLON, NEWLINE,
		INDENT,
		IDENTIFIER, ASSIGN, NUMBER, NEWLINE,
		DEDENT,
		itemEOF,
	}
	assertTypes(t, src, want)
}

func TestLexerBracketSuppressesNewline(t *testing.T) {
	src := "x = [1,\n2,\n3]\n"
	want := []itemType{
		IDENTIFIER, ASSIGN, LBRACK, NUMBER, COMMA, NUMBER, COMMA, NUMBER, RBRACK, NEWLINE,
		itemEOF,
	}
	assertTypes(t, src, want)
}

func TestLexerNoTrailingNewlineStillClosesIndent(t *testing.T) {
	src := "if a:\n    x = 1"
	want := []itemType{
		IF, IDENTIFIER, COLON, NEWLINE,
		INDENT,
		IDENTIFIER, ASSIGN, NUMBER, NEWLINE,
		DEDENT,
		itemEOF,
	}
	assertTypes(t, src, want)
}
