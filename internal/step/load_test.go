package step

import (
	"testing"
)

func TestLoadStructured(t *testing.T) {
	lines := []string{`[{"id":1712345,"type":"navigate","url":"/login"},{"id":"b","type":"click","selector":"#submit"}]`}

	loaded := Load(lines)
	s, ok := loaded.(Structured)
	if !ok {
		t.Fatalf("Load() = %T, want Structured", loaded)
	}
	if len(s.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(s.Steps))
	}
	if s.Steps[0].ID != "1712345" {
		t.Errorf("numeric id decoded as %q", s.Steps[0].ID)
	}
	if s.Steps[1].Selector != "#submit" {
		t.Errorf("selector = %q", s.Steps[1].Selector)
	}
}

func TestLoadOpaque(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{name: "plain text", lines: []string{"Open the login page", "Type the password"}},
		{name: "broken json", lines: []string{"[{not json", "Click submit"}},
		{name: "empty", lines: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loaded := Load(tt.lines)
			o, ok := loaded.(Opaque)
			if !ok {
				t.Fatalf("Load() = %T, want Opaque", loaded)
			}
			if len(o.Lines) != len(tt.lines) {
				t.Errorf("got %d lines, want %d", len(o.Lines), len(tt.lines))
			}
		})
	}
}

func TestEncodeLoadRoundTrip(t *testing.T) {
	seq := Sequence{
		{ID: "1", Type: TypeFill, Selector: "#email", Value: "a@b.com"},
		{ID: "2", Type: TypeAPICall, Method: "POST", URL: "/api/users", Body: `{"a":1}`, ExpectedStatus: 201},
	}
	lines, err := Encode(seq)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := Load(lines).(Structured)
	if !ok {
		t.Fatal("encoded sequence did not load as Structured")
	}
	if s.Steps[1].ExpectedStatus != 201 || s.Steps[0].Value != "a@b.com" {
		t.Errorf("round trip lost fields: %+v", s.Steps)
	}
}
