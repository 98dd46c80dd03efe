package chainerr

import (
	"errors"
	"testing"
)

func TestWrappersPreserveKindAndCause(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		name string
		err  error
		kind Kind
	}{
		{"parse", Parse(cause), KindParse},
		{"protocol", Protocol(cause), KindProtocol},
		{"storage", Storage(cause), KindStorage},
		{"state", State(cause), KindState},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var e *Error
			if !errors.As(c.err, &e) {
				t.Fatalf("%v should be a *Error", c.err)
			}
			if e.Kind != c.kind {
				t.Fatalf("Kind = %s, want %s", e.Kind, c.kind)
			}
			if !errors.Is(c.err, cause) {
				t.Fatal("wrapped error should unwrap to the cause")
			}
		})
	}
}

func TestNilPassesThrough(t *testing.T) {
	if Parse(nil) != nil {
		t.Fatal("wrapping nil should return nil")
	}
}
