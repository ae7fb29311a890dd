package frame

import (
	"time"

	"github.com/guregu/null/v6"
)

// Series is one named column.
type Series interface {
	Name() string
	DType() DType
	Len() int
	IsNull(i int) bool
	// Value returns the i-th value, or nil when it is null.
	Value(i int) any
}

// NullCount returns the number of null values in s.
func NullCount(s Series) int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			n++
		}
	}
	return n
}

// Float64Series holds nullable float64 values.
type Float64Series struct {
	name string
	vals []null.Float
}

func NewFloat64(name string, vals []null.Float) *Float64Series {
	return &Float64Series{name: name, vals: vals}
}

func (s *Float64Series) Name() string        { return s.name }
func (s *Float64Series) DType() DType        { return Float64 }
func (s *Float64Series) Len() int            { return len(s.vals) }
func (s *Float64Series) IsNull(i int) bool   { return !s.vals[i].Valid }
func (s *Float64Series) At(i int) null.Float { return s.vals[i] }

func (s *Float64Series) Value(i int) any {
	if !s.vals[i].Valid {
		return nil
	}
	return s.vals[i].Float64
}

// Alias returns the same values under another name.
func (s *Float64Series) Alias(name string) *Float64Series {
	return &Float64Series{name: name, vals: s.vals}
}

// Shift moves values down by n rows (up when n is negative). Vacated rows are null.
func (s *Float64Series) Shift(n int) *Float64Series {
	out := make([]null.Float, len(s.vals))
	for i := range out {
		j := i - n
		if j >= 0 && j < len(s.vals) {
			out[i] = s.vals[j]
		}
	}
	return &Float64Series{name: s.name, vals: out}
}

// Int64Series holds nullable int64 values.
type Int64Series struct {
	name string
	vals []null.Int
}

func NewInt64(name string, vals []null.Int) *Int64Series {
	return &Int64Series{name: name, vals: vals}
}

func (s *Int64Series) Name() string      { return s.name }
func (s *Int64Series) DType() DType      { return Int64 }
func (s *Int64Series) Len() int          { return len(s.vals) }
func (s *Int64Series) IsNull(i int) bool { return !s.vals[i].Valid }
func (s *Int64Series) At(i int) null.Int { return s.vals[i] }

func (s *Int64Series) Value(i int) any {
	if !s.vals[i].Valid {
		return nil
	}
	return s.vals[i].Int64
}

// BoolSeries holds nullable booleans.
type BoolSeries struct {
	name string
	vals []null.Bool
}

func NewBool(name string, vals []null.Bool) *BoolSeries {
	return &BoolSeries{name: name, vals: vals}
}

func (s *BoolSeries) Name() string       { return s.name }
func (s *BoolSeries) DType() DType       { return Boolean }
func (s *BoolSeries) Len() int           { return len(s.vals) }
func (s *BoolSeries) IsNull(i int) bool  { return !s.vals[i].Valid }
func (s *BoolSeries) At(i int) null.Bool { return s.vals[i] }

func (s *BoolSeries) Value(i int) any {
	if !s.vals[i].Valid {
		return nil
	}
	return s.vals[i].Bool
}

// StringSeries holds nullable strings.
type StringSeries struct {
	name string
	vals []null.String
}

func NewString(name string, vals []null.String) *StringSeries {
	return &StringSeries{name: name, vals: vals}
}

func (s *StringSeries) Name() string         { return s.name }
func (s *StringSeries) DType() DType         { return String }
func (s *StringSeries) Len() int             { return len(s.vals) }
func (s *StringSeries) IsNull(i int) bool    { return !s.vals[i].Valid }
func (s *StringSeries) At(i int) null.String { return s.vals[i] }

func (s *StringSeries) Value(i int) any {
	if !s.vals[i].Valid {
		return nil
	}
	return s.vals[i].String
}

// DatetimeSeries holds nullable instants. Every value is expressed in the
// series location; the unit only affects the dtype and serialization.
type DatetimeSeries struct {
	name string
	unit string
	loc  *time.Location
	vals []null.Time
}

// NewDatetime builds a datetime series. Values are converted into loc.
func NewDatetime(name, unit string, loc *time.Location, vals []null.Time) *DatetimeSeries {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]null.Time, len(vals))
	for i, v := range vals {
		if v.Valid {
			out[i] = null.TimeFrom(v.Time.In(loc))
		}
	}
	return &DatetimeSeries{name: name, unit: unit, loc: loc, vals: out}
}

func (s *DatetimeSeries) Name() string            { return s.name }
func (s *DatetimeSeries) DType() DType            { return Datetime(s.unit, s.loc.String()) }
func (s *DatetimeSeries) Len() int                { return len(s.vals) }
func (s *DatetimeSeries) IsNull(i int) bool       { return !s.vals[i].Valid }
func (s *DatetimeSeries) At(i int) null.Time      { return s.vals[i] }
func (s *DatetimeSeries) Location() *time.Location { return s.loc }

func (s *DatetimeSeries) Value(i int) any {
	if !s.vals[i].Valid {
		return nil
	}
	return s.vals[i].Time
}

// ConvertTimeZone returns the same instants expressed in loc.
func (s *DatetimeSeries) ConvertTimeZone(loc *time.Location) *DatetimeSeries {
	return NewDatetime(s.name, s.unit, loc, s.vals)
}
