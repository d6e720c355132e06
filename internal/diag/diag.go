// Package diag carries one translation unit's compilation context:
// accumulated diagnostics, verbosity, warning suppression, and the
// selected target and C standard.
package diag

import (
	"fmt"
	"os"

	"golang.org/x/xerrors"
)

// Target is the selected output target.
type Target int

const (
	TargetNone Target = iota
	TargetIRDot
	TargetX64Asm
	TargetX64ELF
)

// Std is the accepted C dialect.
type Std int

const (
	StdC89 Std = iota
	StdC99
	StdC11
)

func (s Std) String() string {
	switch s {
	case StdC89:
		return "c89"
	case StdC99:
		return "c99"
	case StdC11:
		return "c11"
	}
	return "?"
}

// Diagnostic is one recorded error or warning.
type Diagnostic struct {
	Warning bool
	Message string
}

// FatalError wraps a fatal construction error: a condition that makes it
// unsafe to keep compiling the current definition at all (size overflow,
// duplicate member, bit-field wider than its type, and similar
// repository-construction invariants).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Context is the compilation context for one translation unit: the error
// counter, verbosity, warning suppression, position-independent-code
// flag, target, and standard.
type Context struct {
	Errors           int
	Verbose          int
	SuppressWarnings bool
	PIC              bool
	Target           Target
	Standard         Std

	diagnostics []Diagnostic
}

// NewContext returns a context defaulting to the IR-dot target and C89.
func NewContext() *Context {
	return &Context{Target: TargetIRDot, Standard: StdC89}
}

// Errorf records a semantic error against a component name, increments
// the error counter, and prints the message to stderr. The message is
// formatted with xerrors.Errorf; only its text is recorded and printed.
func (c *Context) Errorf(component string, format string, args ...interface{}) {
	err := xerrors.Errorf(component+": "+format, args...)
	c.Errors++
	c.diagnostics = append(c.diagnostics, Diagnostic{Message: err.Error()})
	fmt.Fprintln(os.Stderr, err.Error())
}

// Warnf records a warning, printed unless suppressed by -w. Warnings
// never increment the error counter.
func (c *Context) Warnf(component string, format string, args ...interface{}) {
	msg := fmt.Sprintf(component+": "+format, args...)
	c.diagnostics = append(c.diagnostics, Diagnostic{Warning: true, Message: msg})
	if !c.SuppressWarnings {
		fmt.Fprintln(os.Stderr, "warning: "+msg)
	}
}

// Verbosef prints a diagnostic message only when the requested verbosity
// level is at or below the context's current -v count.
func (c *Context) Verbosef(level int, format string, args ...interface{}) {
	if c.Verbose >= level {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// Fatal wraps err as a *FatalError for a caller (typically cmd/occ's
// per-definition compile loop) to catch and abort the current
// translation unit on the first fatal construction error.
func (c *Context) Fatal(component string, err error) error {
	c.Errors++
	return &FatalError{Err: xerrors.Errorf("%s: %w", component, err)}
}

// Diagnostics returns every diagnostic recorded so far, in order.
func (c *Context) Diagnostics() []Diagnostic { return c.diagnostics }
