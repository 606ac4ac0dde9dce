package terraform

import (
	"errors"
	"strings"
	"testing"

	"github.com/terracomply/terracomply/pkg/types"
)

func collectEvents(t *testing.T, src string) []Event {
	t.Helper()
	tz := NewTokenizer("test.tf", src)
	var events []Event
	for {
		ev, err := tz.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev == nil {
			return events
		}
		events = append(events, *ev)
	}
}

func TestTokenizer_Events(t *testing.T) {
	src := `
resource "aws_s3_bucket" "data" {
  bucket = "my-bucket"
  versioning_enabled = true
  max_size = 100
}
`
	events := collectEvents(t, src)

	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	start := events[0]
	if start.Kind != EventBlockStart || start.BlockType != "resource" {
		t.Errorf("event 0 = %+v, want resource block start", start)
	}
	if len(start.Labels) != 2 || start.Labels[0] != "aws_s3_bucket" || start.Labels[1] != "data" {
		t.Errorf("labels = %v, want [aws_s3_bucket data]", start.Labels)
	}
	if start.Line != 2 {
		t.Errorf("block start line = %d, want 2", start.Line)
	}

	wantAttrs := []struct {
		key   string
		value types.Value
	}{
		{"bucket", types.String("my-bucket")},
		{"versioning_enabled", types.Boolean(true)},
		{"max_size", types.Number(100)},
	}
	for i, want := range wantAttrs {
		ev := events[i+1]
		if ev.Kind != EventAttribute || ev.Key != want.key {
			t.Errorf("event %d = %+v, want attribute %q", i+1, ev, want.key)
			continue
		}
		if !ev.Value.Equal(want.value) {
			t.Errorf("attribute %q = %s, want %s", want.key, ev.Value.Literal(), want.value.Literal())
		}
	}

	if events[4].Kind != EventBlockEnd {
		t.Errorf("event 4 = %+v, want block end", events[4])
	}
}

func TestTokenizer_ValueClassification(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want types.Value
	}{
		{"string", `a = "hello"`, types.String("hello")},
		{"string with escapes", `a = "line1\nline2\t\"q\""`, types.String("line1\nline2\t\"q\"")},
		{"bool true", `a = true`, types.Boolean(true)},
		{"bool false", `a = false`, types.Boolean(false)},
		{"integer", `a = 42`, types.Number(42)},
		{"decimal", `a = 3.5`, types.Number(3.5)},
		{"negative", `a = -7`, types.Number(-7)},
		{"reference", `a = var.bucket_name`, types.Reference("var.bucket_name")},
		{"function call", `a = max(1, 2)`, types.Reference("max(1, 2)")},
		{"interpolation", `a = aws_kms_key.main.arn`, types.Reference("aws_kms_key.main.arn")},
		{"empty list", `a = []`, types.ListOf()},
		{"string list", `a = ["x", "y"]`, types.ListOf(types.String("x"), types.String("y"))},
		{"mixed list", `a = [1, "two", true]`, types.ListOf(types.Number(1), types.String("two"), types.Boolean(true))},
		{"nested list", `a = [["x"]]`, types.ListOf(types.ListOf(types.String("x")))},
		{
			"object literal",
			`a = { Name = "x", Count = 2 }`,
			types.MapOf(map[string]types.Value{"Name": types.String("x"), "Count": types.Number(2)}),
		},
		{
			"object with colon separators",
			`a = { "Name" : "x" }`,
			types.MapOf(map[string]types.Value{"Name": types.String("x")}),
		},
		{
			"multiline object",
			"a = {\n  Name = \"x\"\n  Env = \"test\"\n}",
			types.MapOf(map[string]types.Value{"Name": types.String("x"), "Env": types.String("test")}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := collectEvents(t, tt.src)
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if !events[0].Value.Equal(tt.want) && events[0].Value.Literal() != tt.want.Literal() {
				t.Errorf("value = %s (kind %d), want %s", events[0].Value.Literal(), events[0].Value.Kind, tt.want.Literal())
			}
		})
	}
}

func TestTokenizer_Comments(t *testing.T) {
	src := `
# leading comment
resource "aws_instance" "web" { // trailing comment
  /* block
     comment */
  ami = "ami-123" # inline
}
`
	events := collectEvents(t, src)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[1].Key != "ami" || !events[1].Value.Equal(types.String("ami-123")) {
		t.Errorf("attribute = %+v, want ami = \"ami-123\"", events[1])
	}
}

func TestTokenizer_Restartable(t *testing.T) {
	src := `resource "a" "b" {
  x = 1
}`
	first := collectEvents(t, src)
	second := collectEvents(t, src)
	if len(first) != len(second) {
		t.Fatalf("passes differ: %d vs %d events", len(first), len(second))
	}
}

func TestTokenizer_MultilineExpressionLines(t *testing.T) {
	src := `resource "aws_instance" "web" {
  security_groups = concat(
    var.a,
    var.b
  )
  ami = "ami-123"
}
`
	events := collectEvents(t, src)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[1].Key != "security_groups" || events[1].Line != 2 {
		t.Errorf("event 1 = %+v, want security_groups on line 2", events[1])
	}
	if events[1].Value.Kind != types.ReferenceKind {
		t.Errorf("value kind = %d, want reference", events[1].Value.Kind)
	}
	// The call expression spans lines 2-5, so the next attribute sits
	// on line 6.
	if events[2].Key != "ami" || events[2].Line != 6 {
		t.Errorf("event 2 = %+v, want ami on line 6", events[2])
	}
}

func TestTokenizer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
		wantMsg  string
	}{
		{"unbalanced open", "resource \"a\" \"b\" {\n  x = 1\n", 3, "unbalanced braces"},
		{"stray close", "}\n", 1, "unexpected closing brace"},
		{"string at ident position", `"what" = 1`, 1, "expected identifier"},
		{"unterminated string", "x = \"abc\n", 1, "unterminated string"},
		{"unterminated block comment", "/* never closed\nx = 1", 1, "unterminated block comment"},
		{"unterminated list", "x = [1, 2\n", 2, "unterminated list"},
		{"labels without block", "resource \"a\" \"b\" = 1\n", 1, "expected '{'"},
		{"error after multiline call", "x = max(\n  1,\n  2\n)\ny = \"oops\n", 5, "unterminated string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tz := NewTokenizer("bad.tf", tt.src)
			var err error
			for err == nil {
				var ev *Event
				ev, err = tz.Next()
				if ev == nil && err == nil {
					t.Fatalf("reached EOF without error")
				}
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if perr.File != "bad.tf" {
				t.Errorf("File = %q, want bad.tf", perr.File)
			}
			if perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (err: %v)", perr.Line, tt.wantLine, perr)
			}
			if !strings.Contains(perr.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want substring %q", perr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseError_Format(t *testing.T) {
	err := &ParseError{File: "main.tf", Line: 7, Msg: "unexpected closing brace"}
	want := "main.tf:7: unexpected closing brace"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
