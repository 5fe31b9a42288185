package codec

import (
	"bytes"
	"fmt"
	"math"
	"time"
)

// Value is a typed attribute or element-text value.  The zero Value is
// invalid (Kind() == KindInvalid) and stands for "no value".
//
// Values decoded from text remember their lexical form for the kinds where
// consumers depend on exact text (Double, DateTime); Encode returns that form
// unchanged.
type Value struct {
	kind Kind
	s    string // String, Enum, RelID
	i    int64  // signed integers
	u    uint64 // unsigned integers
	f    float64
	b    bool
	t    time.Time
	bin  []byte
	lex  string // original lexical form (Double, DateTime)
}

// NewString returns a string value.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewInt returns a signed integer value of kind k (KindInt8, KindInt16 or
// KindInt32).  The range is checked by Encode, not here.
func NewInt(k Kind, v int64) Value { return Value{kind: k, i: v} }

// NewUint returns an unsigned integer value of kind k (KindUint8,
// KindUint16 or KindUint32).
func NewUint(k Kind, v uint64) Value { return Value{kind: k, u: v} }

// NewInteger returns an integer value of kind k, signed or unsigned.  It
// returns the invalid Value when k is not an integer kind.
func NewInteger(k Kind, v int64) Value {
	switch {
	case k.signed():
		return NewInt(k, v)
	case k.unsigned():
		return NewUint(k, uint64(v))
	}
	return Value{}
}

// NewDouble returns a double value.
func NewDouble(f float64) Value { return Value{kind: KindDouble, f: f} }

// NewDateTime returns a date-time value.
func NewDateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// NewHex returns a hex-binary value.
func NewHex(b []byte) Value {
	return Value{kind: KindHexBinary, bin: append([]byte(nil), b...)}
}

// NewEnum returns an enumeration value.  Membership is checked by Encode.
func NewEnum(s string) Value { return Value{kind: KindEnum, s: s} }

// NewRelID returns a relationship-ID value.
func NewRelID(id string) Value { return Value{kind: KindRelID, s: id} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Lexical returns the text the value was decoded from, or "" when it was
// constructed in code or its kind does not keep text.
func (v Value) Lexical() string { return v.lex }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Int returns the payload as a signed integer.  Unsigned payloads are
// converted; doubles are truncated.
func (v Value) Int() int64 {
	switch {
	case v.kind.signed():
		return v.i
	case v.kind.unsigned():
		return int64(v.u)
	case v.kind == KindDouble:
		return int64(v.f)
	}
	return 0
}

// Uint returns the payload as an unsigned integer.  Negative signed payloads
// return 0.
func (v Value) Uint() uint64 {
	switch {
	case v.kind.unsigned():
		return v.u
	case v.kind.signed():
		if v.i < 0 {
			return 0
		}
		return uint64(v.i)
	case v.kind == KindDouble && v.f > 0:
		return uint64(v.f)
	}
	return 0
}

// Float returns the payload as a float64.  Integer payloads are converted.
func (v Value) Float() float64 {
	switch {
	case v.kind == KindDouble:
		return v.f
	case v.kind.signed():
		return float64(v.i)
	case v.kind.unsigned():
		return float64(v.u)
	}
	return 0
}

// Time returns the date-time payload.
func (v Value) Time() time.Time { return v.t }

// Bytes returns a copy of the hex-binary payload.
func (v Value) Bytes() []byte { return append([]byte(nil), v.bin...) }

// Str returns the payload of String, Enum and RelID values.
func (v Value) Str() string { return v.s }

// String implements fmt.Stringer for diagnostics.  It is not the wire form;
// use Encode for that.
func (v Value) String() string {
	switch {
	case v.kind == KindInvalid:
		return "<none>"
	case v.kind == KindBool:
		return fmt.Sprint(v.b)
	case v.kind.signed():
		return fmt.Sprint(v.i)
	case v.kind.unsigned():
		return fmt.Sprint(v.u)
	case v.kind == KindDouble:
		if v.lex != "" {
			return v.lex
		}
		return formatDouble(v.f)
	case v.kind == KindDateTime:
		if v.lex != "" {
			return v.lex
		}
		return formatDateTime(v.t)
	case v.kind == KindHexBinary:
		return fmt.Sprintf("%X", v.bin)
	}
	return v.s
}

// Equal reports semantic equality: same kind and same payload.  Doubles
// compare numerically (NaN equals NaN); lexical text is not compared.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch {
	case v.kind == KindInvalid:
		return true
	case v.kind == KindBool:
		return v.b == o.b
	case v.kind.signed():
		return v.i == o.i
	case v.kind.unsigned():
		return v.u == o.u
	case v.kind == KindDouble:
		if math.IsNaN(v.f) && math.IsNaN(o.f) {
			return true
		}
		return v.f == o.f
	case v.kind == KindDateTime:
		return v.t.Equal(o.t)
	case v.kind == KindHexBinary:
		return bytes.Equal(v.bin, o.bin)
	}
	return v.s == o.s
}
