package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is how datetime values are written: RFC 3339 with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// MarshalJSON writes the frame as an array of row objects. Keys keep column order
// and null values are written as JSON null.
func (f *Frame) MarshalJSON() ([]byte, error) {
	keys := make([][]byte, len(f.cols))
	for i, c := range f.cols {
		k, err := json.Marshal(c.Name())
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for r := 0; r < f.height; r++ {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for c, s := range f.cols {
			if c > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[c])
			buf.WriteByte(':')
			v, err := encodeValue(s, r)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r, s.Name(), err)
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func encodeValue(s Series, i int) ([]byte, error) {
	v := s.Value(i)
	if v == nil {
		return []byte("null"), nil
	}
	if t, ok := v.(time.Time); ok {
		return json.Marshal(t.Format(TimeLayout))
	}
	return json.Marshal(v)
}
