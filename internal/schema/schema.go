// Package schema declares column contracts for a frame and checks them.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"aggsnap/internal/frame"
	"aggsnap/internal/model"
)

// Field is one declared column.
type Field struct {
	Name     string
	DType    frame.DType
	Nullable bool
	IsIn     []string // allowed values; only meaningful for String columns
}

// Schema is an ordered list of fields. A strict schema rejects undeclared columns.
type Schema struct {
	Name   string
	Fields []Field
	Strict bool
}

// Bars is the contract for a transformed bar collection.
var Bars = Schema{
	Name:   "bars",
	Strict: true,
	Fields: []Field{
		{Name: model.ColOpen, DType: frame.Float64},
		{Name: model.ColHigh, DType: frame.Float64},
		{Name: model.ColLow, DType: frame.Float64},
		{Name: model.ColClose, DType: frame.Float64},
		{Name: model.ColVolume, DType: frame.Float64},
		{Name: model.ColVWAP, DType: frame.Float64},
		{Name: model.ColTimestamp, DType: frame.Datetime("ms", "UTC")},
		{Name: model.ColTransactions, DType: frame.Int64},
		{Name: model.ColOTC, DType: frame.Boolean, Nullable: true},
		{Name: model.ColMarketPhase, DType: frame.String, IsIn: model.Phases()},
	},
}

// RawBars is the shape a provider collection must have before transformation.
// Nulls are tolerated here; Bars rejects them after tagging.
var RawBars = Schema{
	Name: "raw bars",
	Fields: []Field{
		{Name: model.ColOpen, DType: frame.Float64, Nullable: true},
		{Name: model.ColHigh, DType: frame.Float64, Nullable: true},
		{Name: model.ColLow, DType: frame.Float64, Nullable: true},
		{Name: model.ColClose, DType: frame.Float64, Nullable: true},
		{Name: model.ColVolume, DType: frame.Float64, Nullable: true},
		{Name: model.ColVWAP, DType: frame.Float64, Nullable: true},
		{Name: model.ColTimestamp, DType: frame.Int64, Nullable: true},
		{Name: model.ColTransactions, DType: frame.Int64, Nullable: true},
		{Name: model.ColOTC, DType: frame.Boolean, Nullable: true},
	},
}

// Validate checks f against the schema and returns it unchanged on success.
// On failure the error is a *Violation listing every failed check.
func (s Schema) Validate(f *frame.Frame) (*frame.Frame, error) {
	var failures []Failure
	declared := make(map[string]bool, len(s.Fields))

	for _, field := range s.Fields {
		declared[field.Name] = true
		col, ok := f.Column(field.Name)
		if !ok {
			failures = append(failures, Failure{
				Column:   field.Name,
				Check:    CheckMissing,
				Expected: field.DType.String(),
				Actual:   "absent",
			})
			continue
		}
		if col.DType() != field.DType {
			failures = append(failures, Failure{
				Column:   field.Name,
				Check:    CheckDType,
				Expected: field.DType.String(),
				Actual:   col.DType().String(),
			})
			continue
		}
		if !field.Nullable {
			if n := frame.NullCount(col); n > 0 {
				failures = append(failures, Failure{
					Column:   field.Name,
					Check:    CheckNullable,
					Expected: "no nulls",
					Actual:   fmt.Sprintf("%d null value(s)", n),
				})
			}
		}
		if len(field.IsIn) > 0 {
			if bad := outsideSet(col, field.IsIn); len(bad) > 0 {
				failures = append(failures, Failure{
					Column:   field.Name,
					Check:    CheckIsIn,
					Expected: "one of [" + strings.Join(field.IsIn, ", ") + "]",
					Actual:   "[" + strings.Join(bad, ", ") + "]",
				})
			}
		}
	}

	if s.Strict {
		for _, name := range f.Columns() {
			if !declared[name] {
				failures = append(failures, Failure{
					Column:   name,
					Check:    CheckUnexpected,
					Expected: "column not in schema",
					Actual:   "present",
				})
			}
		}
	}

	if len(failures) > 0 {
		return nil, &Violation{Schema: s.Name, Failures: failures}
	}
	return f, nil
}

// outsideSet returns the distinct non-null values of col that are not allowed, sorted.
func outsideSet(col frame.Series, allowed []string) []string {
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	seen := make(map[string]bool)
	var bad []string
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if v == nil {
			continue
		}
		s := fmt.Sprint(v)
		if ok[s] || seen[s] {
			continue
		}
		seen[s] = true
		bad = append(bad, s)
	}
	sort.Strings(bad)
	return bad
}
