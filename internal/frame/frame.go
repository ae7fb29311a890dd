package frame

import (
	"errors"
	"fmt"
)

// ErrColumnNotFound is returned by the typed column getters when the name is absent.
var ErrColumnNotFound = errors.New("column not found")

// Frame is an immutable set of named series of equal length. Methods that change
// the shape return a new Frame and leave the receiver untouched.
type Frame struct {
	cols   []Series
	index  map[string]int
	height int
}

// New builds a frame from cols. Names must be unique and lengths equal.
func New(cols ...Series) (*Frame, error) {
	f := &Frame{
		cols:  make([]Series, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("frame: column %d is nil", i)
		}
		if _, dup := f.index[c.Name()]; dup {
			return nil, fmt.Errorf("frame: duplicate column %q", c.Name())
		}
		if i == 0 {
			f.height = c.Len()
		} else if c.Len() != f.height {
			return nil, fmt.Errorf("frame: column %q has length %d, want %d", c.Name(), c.Len(), f.height)
		}
		f.index[c.Name()] = len(f.cols)
		f.cols = append(f.cols, c)
	}
	return f, nil
}

func (f *Frame) Height() int { return f.height }
func (f *Frame) Width() int  { return len(f.cols) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name()
	}
	return names
}

// Column looks up a series by name.
func (f *Frame) Column(name string) (Series, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// WithColumns replaces columns that share a name with one of cols, in place, and
// appends the rest.
func (f *Frame) WithColumns(cols ...Series) (*Frame, error) {
	next := make([]Series, len(f.cols))
	copy(next, f.cols)
	for _, c := range cols {
		if c == nil {
			return nil, errors.New("frame: nil column")
		}
		if i, ok := f.index[c.Name()]; ok {
			next[i] = c
			continue
		}
		next = append(next, c)
	}
	return New(next...)
}

// Drop returns the frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := &Frame{index: make(map[string]int, len(f.cols)), height: f.height}
	for _, c := range f.cols {
		if skip[c.Name()] {
			continue
		}
		out.index[c.Name()] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out
}

func (f *Frame) Float64Column(name string) (*Float64Series, error) {
	return typed[*Float64Series](f, name, Float64)
}

func (f *Frame) Int64Column(name string) (*Int64Series, error) {
	return typed[*Int64Series](f, name, Int64)
}

func (f *Frame) BoolColumn(name string) (*BoolSeries, error) {
	return typed[*BoolSeries](f, name, Boolean)
}

func (f *Frame) StringColumn(name string) (*StringSeries, error) {
	return typed[*StringSeries](f, name, String)
}

func (f *Frame) DatetimeColumn(name string) (*DatetimeSeries, error) {
	s, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, ErrColumnNotFound)
	}
	dt, ok := s.(*DatetimeSeries)
	if !ok {
		return nil, fmt.Errorf("column %q: expected Datetime, got %s", name, s.DType())
	}
	return dt, nil
}

func typed[T Series](f *Frame, name string, want DType) (T, error) {
	var zero T
	s, ok := f.Column(name)
	if !ok {
		return zero, fmt.Errorf("column %q: %w", name, ErrColumnNotFound)
	}
	t, ok := s.(T)
	if !ok {
		return zero, fmt.Errorf("column %q: expected %s, got %s", name, want, s.DType())
	}
	return t, nil
}
