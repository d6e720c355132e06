package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorfIncrementsCounter(t *testing.T) {
	c := NewContext()
	c.Errorf("test", "something went wrong: %d", 1)
	if c.Errors != 1 {
		t.Errorf("Errors = %d, want 1", c.Errors)
	}
	if len(c.Diagnostics()) != 1 {
		t.Errorf("len(Diagnostics()) = %d, want 1", len(c.Diagnostics()))
	}
}

func TestWarnfDoesNotIncrementErrorCount(t *testing.T) {
	c := NewContext()
	c.Warnf("test", "heads up")
	if c.Errors != 0 {
		t.Errorf("Errors = %d, want 0 after a warning", c.Errors)
	}
}

func TestContextDefaults(t *testing.T) {
	c := NewContext()
	if c.Target != TargetIRDot {
		t.Errorf("default target = %v, want TargetIRDot", c.Target)
	}
	if c.Standard != StdC89 {
		t.Errorf("default standard = %v, want StdC89", c.Standard)
	}
}

func TestFatalWrapsComponentAndCause(t *testing.T) {
	c := NewContext()
	cause := fatalCause("size overflow")
	err := c.Fatal("types", cause)
	if _, ok := err.(*FatalError); !ok {
		t.Fatalf("got %T, want *FatalError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("FatalError should wrap the original cause")
	}
	if !strings.HasPrefix(err.Error(), "types: ") {
		t.Errorf("error = %q, want it prefixed with the component name", err.Error())
	}
	if c.Errors != 1 {
		t.Errorf("Fatal should still count toward the error total")
	}
}

type fatalCause string

func (f fatalCause) Error() string { return string(f) }
