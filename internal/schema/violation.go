package schema

import (
	"fmt"
	"strings"
)

// Check names the kind of contract a column failed.
type Check string

const (
	CheckMissing    Check = "missing"
	CheckDType      Check = "dtype"
	CheckNullable   Check = "nullable"
	CheckIsIn       Check = "isin"
	CheckUnexpected Check = "unexpected"
)

// Failure is one failed check on one column.
type Failure struct {
	Column   string
	Check    Check
	Expected string
	Actual   string
}

func (f Failure) String() string {
	return fmt.Sprintf("column %q failed %s check: expected %s, got %s", f.Column, f.Check, f.Expected, f.Actual)
}

// Violation is the SchemaViolation error: a frame did not satisfy its schema.
type Violation struct {
	Schema   string
	Failures []Failure
}

func (v *Violation) Error() string {
	parts := make([]string, len(v.Failures))
	for i, f := range v.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("schema violation (%s): %s", v.Schema, strings.Join(parts, "; "))
}

// Column returns the first offending column.
func (v *Violation) Column() string {
	if len(v.Failures) == 0 {
		return ""
	}
	return v.Failures[0].Column
}

// Has reports whether column failed check.
func (v *Violation) Has(column string, check Check) bool {
	for _, f := range v.Failures {
		if f.Column == column && f.Check == check {
			return true
		}
	}
	return false
}
