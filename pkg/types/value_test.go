package types

import (
	"testing"
)

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal strings", String("x"), String("x"), true},
		{"different strings", String("x"), String("y"), false},
		{"equal bools", Boolean(true), Boolean(true), true},
		{"different bools", Boolean(true), Boolean(false), false},
		{"equal numbers", Number(3.5), Number(3.5), true},
		{"string true vs bool true", String("true"), Boolean(true), false},
		{"string number vs number", String("80"), Number(80), false},
		{"equal lists", ListOf(String("a"), Number(1)), ListOf(String("a"), Number(1)), true},
		{"lists differ in order", ListOf(String("a"), String("b")), ListOf(String("b"), String("a")), false},
		{"lists differ in length", ListOf(String("a")), ListOf(String("a"), String("a")), false},
		{
			"equal maps",
			MapOf(map[string]Value{"k": Number(1)}),
			MapOf(map[string]Value{"k": Number(1)}),
			true,
		},
		{
			"maps differ in value",
			MapOf(map[string]Value{"k": Number(1)}),
			MapOf(map[string]Value{"k": Number(2)}),
			false,
		},
		{
			"maps differ in keys",
			MapOf(map[string]Value{"k": Number(1)}),
			MapOf(map[string]Value{"j": Number(1)}),
			false,
		},
		{"reference vs same reference", Reference("var.x"), Reference("var.x"), false},
		{"reference vs string", Reference("var.x"), String("var.x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a.Literal(), tt.b.Literal(), got, tt.want)
			}
		})
	}
}

func TestValue_Literal(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"string", String("hi"), `"hi"`},
		{"bool", Boolean(false), "false"},
		{"integer renders without decimals", Number(42), "42"},
		{"decimal", Number(3.5), "3.5"},
		{"list", ListOf(String("a"), Number(1)), `["a", 1]`},
		{"map keys sorted", MapOf(map[string]Value{"b": Number(2), "a": Number(1)}), "{a = 1, b = 2}"},
		{"reference renders raw", Reference("var.name"), "var.name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Literal(); got != tt.want {
				t.Errorf("Literal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_Strings(t *testing.T) {
	list := ListOf(String("a"), Number(1), String("b"))
	got := list.Strings()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Strings() = %v, want [a b]", got)
	}

	if got := String("solo").Strings(); len(got) != 1 || got[0] != "solo" {
		t.Errorf("scalar Strings() = %v, want [solo]", got)
	}

	if got := Number(1).Strings(); got != nil {
		t.Errorf("number Strings() = %v, want nil", got)
	}
}

func TestValue_Interface(t *testing.T) {
	v := MapOf(map[string]Value{
		"name":  String("x"),
		"count": Number(2),
		"on":    Boolean(true),
		"items": ListOf(String("a")),
		"ref":   Reference("var.y"),
	})

	got, ok := v.Interface().(map[string]interface{})
	if !ok {
		t.Fatalf("Interface() type = %T, want map", v.Interface())
	}
	if got["name"] != "x" || got["count"] != 2.0 || got["on"] != true {
		t.Errorf("scalars = %v", got)
	}
	items, ok := got["items"].([]interface{})
	if !ok || len(items) != 1 || items[0] != "a" {
		t.Errorf("items = %v", got["items"])
	}
	if got["ref"] != "var.y" {
		t.Errorf("ref = %v, want raw expression text", got["ref"])
	}
}

func TestResource_Address(t *testing.T) {
	r := Resource{Type: "aws_s3_bucket", Name: "data"}
	if got := r.Address(); got != "aws_s3_bucket.data" {
		t.Errorf("Address() = %q", got)
	}
}
