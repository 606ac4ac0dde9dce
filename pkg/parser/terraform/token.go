package terraform

import (
	"strconv"
	"strings"

	"github.com/terracomply/terracomply/pkg/types"
)

// EventKind discriminates lexical events produced by the tokenizer.
type EventKind int

const (
	// EventBlockStart opens a block: a type identifier, optional quoted
	// labels, and an opening brace.
	EventBlockStart EventKind = iota
	// EventBlockEnd closes the innermost open block.
	EventBlockEnd
	// EventAttribute is a key = value assignment.
	EventAttribute
)

// Event is one lexical event. BlockType and Labels are set for
// EventBlockStart; Key and Value for EventAttribute.
type Event struct {
	Kind      EventKind
	BlockType string
	Labels    []string
	Key       string
	Value     types.Value
	Line      int
}

// Tokenizer splits configuration text into block boundaries, attribute
// assignments, and literal values, skipping comments and blank lines.
// It makes a single forward pass; create a new Tokenizer to restart.
//
// The tokenizer recognizes literals only: quoted strings, bare
// true/false, integer/decimal numbers, lists, and inline objects. Any
// other unquoted token becomes an opaque Reference. Expressions are
// never evaluated.
type Tokenizer struct {
	file  string
	src   string
	pos   int
	line  int
	depth int
}

// NewTokenizer returns a tokenizer over src. file is used for error
// locations only.
func NewTokenizer(file, src string) *Tokenizer {
	return &Tokenizer{file: file, src: src, line: 1}
}

// Next returns the next event, or (nil, nil) at end of input. Malformed
// structure yields a *ParseError and poisons the rest of the pass.
func (t *Tokenizer) Next() (*Event, error) {
	if err := t.skipBlank(); err != nil {
		return nil, err
	}
	if t.eof() {
		if t.depth > 0 {
			return nil, errParse(t.file, t.line, "unbalanced braces: %d unclosed block(s)", t.depth)
		}
		return nil, nil
	}

	startLine := t.line
	switch c := t.src[t.pos]; {
	case c == '}':
		if t.depth == 0 {
			return nil, errParse(t.file, t.line, "unexpected closing brace")
		}
		t.pos++
		t.depth--
		return &Event{Kind: EventBlockEnd, Line: startLine}, nil

	case c == '"':
		return nil, errParse(t.file, t.line, "unexpected string literal; expected identifier")

	case isIdentStart(c):
		ident := t.scanIdent()
		t.skipInline()

		var labels []string
		for !t.eof() && t.src[t.pos] == '"' {
			label, err := t.scanString()
			if err != nil {
				return nil, err
			}
			labels = append(labels, label)
			t.skipInline()
		}

		if err := t.skipBlank(); err != nil {
			return nil, err
		}
		if t.eof() {
			return nil, errParse(t.file, startLine, "unexpected end of file after %q", ident)
		}

		switch t.src[t.pos] {
		case '{':
			t.pos++
			t.depth++
			return &Event{Kind: EventBlockStart, BlockType: ident, Labels: labels, Line: startLine}, nil
		case '=':
			if len(labels) > 0 {
				return nil, errParse(t.file, startLine, "expected '{' after block labels for %q", ident)
			}
			t.pos++
			val, err := t.scanValue(valueCtxAttribute)
			if err != nil {
				return nil, err
			}
			return &Event{Kind: EventAttribute, Key: ident, Value: val, Line: startLine}, nil
		default:
			return nil, errParse(t.file, t.line, "expected '=' or '{' after %q", ident)
		}

	default:
		return nil, errParse(t.file, t.line, "unexpected character %q", string(c))
	}
}

// valueCtx tells scanValue which delimiters terminate a bare token.
type valueCtx int

const (
	valueCtxAttribute valueCtx = iota // terminated by newline
	valueCtxList                      // terminated by ',' or ']'
	valueCtxMap                       // terminated by ',', newline, or '}'
)

func (t *Tokenizer) scanValue(ctx valueCtx) (types.Value, error) {
	t.skipInline()
	if t.eof() {
		return types.Value{}, errParse(t.file, t.line, "expected value")
	}

	switch c := t.src[t.pos]; {
	case c == '"':
		s, err := t.scanString()
		if err != nil {
			return types.Value{}, err
		}
		return types.String(s), nil
	case c == '[':
		return t.scanList()
	case c == '{':
		return t.scanObject()
	case c == '\n':
		return types.Value{}, errParse(t.file, t.line, "expected value before end of line")
	default:
		return t.scanBareToken(ctx)
	}
}

// scanString consumes a quoted string with escape handling. The opening
// quote must be the current character.
func (t *Tokenizer) scanString() (string, error) {
	start := t.line
	t.pos++ // opening quote
	var sb strings.Builder
	for !t.eof() {
		c := t.src[t.pos]
		switch c {
		case '"':
			t.pos++
			return sb.String(), nil
		case '\\':
			t.pos++
			if t.eof() {
				return "", errParse(t.file, start, "unterminated string literal")
			}
			switch t.src[t.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(t.src[t.pos])
			}
			t.pos++
		case '\n':
			return "", errParse(t.file, start, "unterminated string literal")
		default:
			sb.WriteByte(c)
			t.pos++
		}
	}
	return "", errParse(t.file, start, "unterminated string literal")
}

func (t *Tokenizer) scanList() (types.Value, error) {
	t.pos++ // '['
	var items []types.Value
	for {
		if err := t.skipBlank(); err != nil {
			return types.Value{}, err
		}
		if t.eof() {
			return types.Value{}, errParse(t.file, t.line, "unterminated list")
		}
		if t.src[t.pos] == ']' {
			t.pos++
			return types.ListOf(items...), nil
		}
		item, err := t.scanValue(valueCtxList)
		if err != nil {
			return types.Value{}, err
		}
		items = append(items, item)
		if err := t.skipBlank(); err != nil {
			return types.Value{}, err
		}
		if t.eof() {
			return types.Value{}, errParse(t.file, t.line, "unterminated list")
		}
		switch t.src[t.pos] {
		case ',':
			t.pos++
		case ']':
			// closed on next iteration
		default:
			return types.Value{}, errParse(t.file, t.line, "expected ',' or ']' in list")
		}
	}
}

// scanObject consumes an inline { key = value, ... } object literal.
// Both '=' and ':' are accepted as key separators.
func (t *Tokenizer) scanObject() (types.Value, error) {
	t.pos++ // '{'
	entries := make(map[string]types.Value)
	for {
		if err := t.skipBlank(); err != nil {
			return types.Value{}, err
		}
		if t.eof() {
			return types.Value{}, errParse(t.file, t.line, "unterminated object literal")
		}
		if t.src[t.pos] == '}' {
			t.pos++
			return types.MapOf(entries), nil
		}

		var key string
		if t.src[t.pos] == '"' {
			k, err := t.scanString()
			if err != nil {
				return types.Value{}, err
			}
			key = k
		} else if isIdentStart(t.src[t.pos]) {
			key = t.scanIdent()
		} else {
			return types.Value{}, errParse(t.file, t.line, "expected key in object literal")
		}

		t.skipInline()
		if t.eof() || (t.src[t.pos] != '=' && t.src[t.pos] != ':') {
			return types.Value{}, errParse(t.file, t.line, "expected '=' after object key %q", key)
		}
		t.pos++

		val, err := t.scanValue(valueCtxMap)
		if err != nil {
			return types.Value{}, err
		}
		entries[key] = val

		t.skipInline()
		if !t.eof() && t.src[t.pos] == ',' {
			t.pos++
		}
	}
}

// scanBareToken consumes an unquoted token and classifies it: true and
// false form Bools, numeric syntax forms Numbers, everything else is an
// opaque Reference. Bracket pairs inside the token (function calls,
// index expressions) are balanced so the token ends at the right
// delimiter.
func (t *Tokenizer) scanBareToken(ctx valueCtx) (types.Value, error) {
	start := t.pos
	nest := 0
	for !t.eof() {
		c := t.src[t.pos]
		if c == '\n' {
			if nest == 0 {
				break
			}
			// Newlines inside a balanced bracket pair stay part of the
			// token but still advance the line counter.
			t.line++
			t.pos++
			continue
		}
		if nest == 0 {
			if c == '#' || (c == '/' && t.pos+1 < len(t.src) && (t.src[t.pos+1] == '/' || t.src[t.pos+1] == '*')) {
				break
			}
			switch ctx {
			case valueCtxList:
				if c == ',' || c == ']' {
					goto done
				}
			case valueCtxMap:
				if c == ',' || c == '}' {
					goto done
				}
			}
		}
		switch c {
		case '(', '[', '{':
			nest++
		case ')', ']', '}':
			if nest == 0 {
				goto done
			}
			nest--
		case '"':
			if _, err := t.scanString(); err != nil {
				return types.Value{}, err
			}
			continue
		}
		t.pos++
	}
done:
	tok := strings.TrimSpace(t.src[start:t.pos])
	if tok == "" {
		return types.Value{}, errParse(t.file, t.line, "expected value")
	}
	switch tok {
	case "true":
		return types.Boolean(true), nil
	case "false":
		return types.Boolean(false), nil
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		return types.Number(n), nil
	}
	return types.Reference(tok), nil
}

// skipBlank skips whitespace (including newlines) and comments.
func (t *Tokenizer) skipBlank() error {
	for !t.eof() {
		switch c := t.src[t.pos]; {
		case c == '\n':
			t.line++
			t.pos++
		case c == ' ' || c == '\t' || c == '\r':
			t.pos++
		case c == '#':
			t.skipLineComment()
		case c == '/' && t.pos+1 < len(t.src) && t.src[t.pos+1] == '/':
			t.skipLineComment()
		case c == '/' && t.pos+1 < len(t.src) && t.src[t.pos+1] == '*':
			if err := t.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// skipInline skips spaces and tabs without crossing a newline.
func (t *Tokenizer) skipInline() {
	for !t.eof() {
		c := t.src[t.pos]
		if c != ' ' && c != '\t' && c != '\r' {
			return
		}
		t.pos++
	}
}

func (t *Tokenizer) skipLineComment() {
	for !t.eof() && t.src[t.pos] != '\n' {
		t.pos++
	}
}

func (t *Tokenizer) skipBlockComment() error {
	start := t.line
	t.pos += 2 // "/*"
	for t.pos+1 < len(t.src) {
		if t.src[t.pos] == '\n' {
			t.line++
		}
		if t.src[t.pos] == '*' && t.src[t.pos+1] == '/' {
			t.pos += 2
			return nil
		}
		t.pos++
	}
	return errParse(t.file, start, "unterminated block comment")
}

func (t *Tokenizer) scanIdent() string {
	start := t.pos
	for !t.eof() && isIdentPart(t.src[t.pos]) {
		t.pos++
	}
	return t.src[start:t.pos]
}

func (t *Tokenizer) eof() bool { return t.pos >= len(t.src) }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}
