package lexer

import (
	"testing"

	"github.com/octofhir/fhirpath-go/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `Patient.name.where(use = 'official').family`

	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.IDENT, "Patient"},
		{token.DOT, "."},
		{token.IDENT, "name"},
		{token.DOT, "."},
		{token.IDENT, "where"},
		{token.LPAREN, "("},
		{token.IDENT, "use"},
		{token.EQ, "="},
		{token.STRING, "'official'"},
		{token.RPAREN, ")"},
		{token.DOT, "."},
		{token.IDENT, "family"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d]: unexpected error: %v", i, err)
		}
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s (literal=%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywordsAreCaseSensitive(t *testing.T) {
	// FHIRPath keywords are lowercase only; "And" is a plain identifier.
	tok, err := New("And").NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.IDENT {
		t.Fatalf("expected IDENT for %q, got %s", "And", tok.Type)
	}

	tok, err = New("and").NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.AND {
		t.Fatalf("expected AND, got %s", tok.Type)
	}
}

func TestMultiCharOperators(t *testing.T) {
	tests := []struct {
		input string
		typ   token.Type
	}{
		{"=", token.EQ},
		{"!=", token.NEQ},
		{"<=", token.LTE},
		{">=", token.GTE},
		{"~", token.EQUIV},
		{"!~", token.NEQUIV},
		{"=>", token.FATARROW},
		{"<", token.LT},
		{">", token.GT},
	}
	for _, tt := range tests {
		tok, err := New(tt.input).NextToken()
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", tt.input, err)
		}
		if tok.Type != tt.typ {
			t.Errorf("input %q: expected %s, got %s", tt.input, tt.typ, tok.Type)
		}
	}
}

func TestSpecialVariables(t *testing.T) {
	tests := []struct {
		input string
		typ   token.Type
	}{
		{"$this", token.THIS},
		{"$index", token.INDEX},
		{"$total", token.TOTAL},
		{"$other", token.DOLLAR}, // falls back to bare '$', then IDENT "other"
	}
	for _, tt := range tests {
		tok, err := New(tt.input).NextToken()
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", tt.input, err)
		}
		if tok.Type != tt.typ {
			t.Errorf("input %q: expected %s, got %s", tt.input, tt.typ, tok.Type)
		}
	}
}

func TestDollarThisNotConfusedWithLongerIdent(t *testing.T) {
	// "$thisx" must not lex as THIS followed by "x".
	l := New("$thisx")
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.DOLLAR {
		t.Fatalf("expected DOLLAR, got %s (literal %q)", tok.Type, tok.Literal)
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input   string
		typ     token.Type
		literal string
	}{
		{"42", token.INT, "42"},
		{"3.14", token.DECIMAL, "3.14"},
		{"1.where(true)", token.INT, "1"}, // "." not followed by digit: dot is member access
	}
	for _, tt := range tests {
		tok, err := New(tt.input).NextToken()
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", tt.input, err)
		}
		if tok.Type != tt.typ {
			t.Errorf("input %q: expected %s, got %s", tt.input, tt.typ, tok.Type)
		}
		if tok.Literal != tt.literal {
			t.Errorf("input %q: expected literal %q, got %q", tt.input, tt.literal, tok.Literal)
		}
	}
}

func TestDotAfterIntegerIsMemberAccess(t *testing.T) {
	l := New("1.where(true)")
	first, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Type != token.INT || first.Literal != "1" {
		t.Fatalf("expected INT(1), got %s(%q)", first.Type, first.Literal)
	}
	second, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Type != token.DOT {
		t.Fatalf("expected DOT, got %s", second.Type)
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	tok, err := New(`'it\'s'`).NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.STRING {
		t.Fatalf("expected STRING, got %s", tok.Type)
	}
	if tok.Literal != `'it\'s'` {
		t.Fatalf("expected raw literal to include escape, got %q", tok.Literal)
	}
}

func TestUnclosedStringIsError(t *testing.T) {
	_, err := New(`'unterminated`).NextToken()
	if err == nil {
		t.Fatal("expected an error for an unclosed string literal")
	}
}

func TestUnclosedBlockCommentIsError(t *testing.T) {
	_, err := New(`/* never closes`).NextToken()
	if err == nil {
		t.Fatal("expected an error for an unclosed block comment")
	}
}

func TestLineCommentSkipped(t *testing.T) {
	l := New("1 // trailing comment\n+ 2")
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.INT {
		t.Fatalf("expected INT, got %s", tok.Type)
	}
	tok, err = l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.PLUS {
		t.Fatalf("expected PLUS after comment, got %s", tok.Type)
	}
}

func TestTemporalLiterals(t *testing.T) {
	tests := []struct {
		input string
		typ   token.Type
	}{
		{"@2023", token.DATE},
		{"@2023-01", token.DATE},
		{"@2023-01-15", token.DATE},
		{"@2023-01-15T10:00:00", token.DATETIME},
		{"@2023-01-15T10:00:00Z", token.DATETIME},
		{"@T10:00", token.TIME},
	}
	for _, tt := range tests {
		tok, err := New(tt.input).NextToken()
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", tt.input, err)
		}
		if tok.Type != tt.typ {
			t.Errorf("input %q: expected %s, got %s (literal %q)", tt.input, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.input {
			t.Errorf("input %q: expected literal to be the full input, got %q", tt.input, tok.Literal)
		}
	}
}

func TestMalformedTemporalLiteralIsError(t *testing.T) {
	_, err := New("@23").NextToken() // year must be exactly 4 digits
	if err == nil {
		t.Fatal("expected an error for a malformed date literal")
	}
}

func TestBacktickQuotedIdentifier(t *testing.T) {
	tok, err := New("`div`").NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.IDENT {
		t.Fatalf("expected IDENT, got %s", tok.Type)
	}
	if tok.Literal != "div" {
		t.Fatalf("expected literal %q, got %q", "div", tok.Literal)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("1 + 2")
	first, err := l.Peek(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Type != token.INT {
		t.Fatalf("expected INT, got %s", first.Type)
	}
	// Peek again: should return the same token, not advance.
	again, err := l.Peek(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Literal != first.Literal {
		t.Fatalf("Peek is not idempotent: got %q then %q", first.Literal, again.Literal)
	}
	next, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Literal != "1" {
		t.Fatalf("expected NextToken to still return the peeked token, got %q", next.Literal)
	}
}

func TestSpansCoverInputWithoutGapOrOverlap(t *testing.T) {
	// Testable property #1 (spec.md §8): tokens' spans cover the source
	// without gap or overlap on non-whitespace bytes.
	input := "Patient.name.where(use='official').family"
	toks, err := TokenizeAll(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lastEnd := 0
	for _, tok := range toks {
		if tok.Type == token.EOF {
			continue
		}
		if tok.Span.Start.Offset < lastEnd {
			t.Fatalf("token %v starts before the previous token ended (overlap)", tok)
		}
		lastEnd = tok.Span.End.Offset
	}
	if lastEnd != len(input) {
		t.Fatalf("final token end %d does not reach end of input %d", lastEnd, len(input))
	}
}

func TestDeterminism(t *testing.T) {
	input := "Patient.name.where(use = 'official' and $this.active).family + 1"
	a, err := TokenizeAll(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := TokenizeAll(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("tokenizing the same input twice produced different lengths: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tokens[%d] differ between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
