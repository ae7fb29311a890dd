// Package frame is a small columnar table: ordered, equally long, typed series with
// nullable values. It covers what the bar pipeline needs from a dataframe library
// (with-columns, shift, drop, row-oriented JSON) and nothing more.
package frame

import "fmt"

// Kind is the physical type of a series.
type Kind int

const (
	KindFloat64 Kind = iota + 1
	KindInt64
	KindBoolean
	KindString
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindFloat64:
		return "Float64"
	case KindInt64:
		return "Int64"
	case KindBoolean:
		return "Boolean"
	case KindString:
		return "String"
	case KindDatetime:
		return "Datetime"
	default:
		return "Unknown"
	}
}

// DType is a series data type. Unit and Zone are only set for datetimes.
type DType struct {
	Kind Kind
	Unit string
	Zone string
}

var (
	Float64 = DType{Kind: KindFloat64}
	Int64   = DType{Kind: KindInt64}
	Boolean = DType{Kind: KindBoolean}
	String  = DType{Kind: KindString}
)

// Datetime returns a datetime dtype with the given time unit and zone name.
func Datetime(unit, zone string) DType {
	return DType{Kind: KindDatetime, Unit: unit, Zone: zone}
}

func (d DType) String() string {
	if d.Kind != KindDatetime {
		return d.Kind.String()
	}
	if d.Zone == "" {
		return fmt.Sprintf("Datetime(time_unit='%s', time_zone=None)", d.Unit)
	}
	return fmt.Sprintf("Datetime(time_unit='%s', time_zone='%s')", d.Unit, d.Zone)
}
