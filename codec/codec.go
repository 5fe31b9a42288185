// Package codec converts between XML attribute text and typed values.
//
// Every conversion is a pure function of a [Type] and its input.  Decoding
// fails closed: text outside the lexical space of the type is a
// [xlsxerrors.Decode] error carrying the offending text and the expected
// type, never a silent default.
package codec

import (
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
)

// Kind is the primitive representation of a schema simple type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindBool
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindDouble
	KindDateTime
	KindHexBinary
	KindEnum
	// KindRelID is a string that must name a relationship of the owning
	// part.  The codec treats it as a string; the part reader resolves it.
	KindRelID
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindString:    "string",
	KindBool:      "bool",
	KindInt8:      "int8",
	KindUint8:     "uint8",
	KindInt16:     "int16",
	KindUint16:    "uint16",
	KindInt32:     "int32",
	KindUint32:    "uint32",
	KindDouble:    "double",
	KindDateTime:  "dateTime",
	KindHexBinary: "hexBinary",
	KindEnum:      "enum",
	KindRelID:     "relationshipId",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) signed() bool { return k == KindInt8 || k == KindInt16 || k == KindInt32 }

func (k Kind) unsigned() bool { return k == KindUint8 || k == KindUint16 || k == KindUint32 }

func (k Kind) bits() int {
	switch k {
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	}
	return 32
}

// Type is a schema simple type: a kind plus, for enumerations, the closed set
// of accepted values.
type Type struct {
	// Name is the schema name used in error messages, e.g. "xsd:unsignedInt".
	Name   string
	Kind   Kind
	Values []string
}

// Predeclared simple types used by the SpreadsheetML descriptors.
var (
	String         = Type{Name: "xsd:string", Kind: KindString}
	Xstring        = Type{Name: "ST_Xstring", Kind: KindString}
	Ref            = Type{Name: "ST_Ref", Kind: KindString}
	Boolean        = Type{Name: "xsd:boolean", Kind: KindBool}
	Byte           = Type{Name: "xsd:byte", Kind: KindInt8}
	UnsignedByte   = Type{Name: "xsd:unsignedByte", Kind: KindUint8}
	Short          = Type{Name: "xsd:short", Kind: KindInt16}
	UnsignedShort  = Type{Name: "xsd:unsignedShort", Kind: KindUint16}
	Int            = Type{Name: "xsd:int", Kind: KindInt32}
	UnsignedInt    = Type{Name: "xsd:unsignedInt", Kind: KindUint32}
	Double         = Type{Name: "xsd:double", Kind: KindDouble}
	DateTime       = Type{Name: "xsd:dateTime", Kind: KindDateTime}
	HexBinary      = Type{Name: "xsd:hexBinary", Kind: KindHexBinary}
	RelationshipID = Type{Name: "ST_RelationshipId", Kind: KindRelID}
)

// Enum returns a closed enumeration type.
func Enum(name string, values ...string) Type {
	return Type{Name: name, Kind: KindEnum, Values: values}
}

// Allows reports whether s is a member of an enumeration type.  It is always
// true for non-enumeration types.
func (t Type) Allows(s string) bool {
	if t.Kind != KindEnum {
		return true
	}
	return slices.Contains(t.Values, s)
}

func (t Type) expected() string {
	if t.Kind == KindEnum {
		return fmt.Sprintf("%s, one of [%s]", t.Name, strings.Join(t.Values, " "))
	}
	return t.Name
}

// xsd:double lexical space, excluding the INF/-INF/NaN literals handled
// separately.  strconv.ParseFloat alone accepts "inf", "0x1p-2" and "1_0".
var doubleRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func decodeError(t Type, text string, cause error) *xlsxerrors.Error {
	e := xlsxerrors.New(xlsxerrors.Decode, "invalid %s value", t.Kind)
	e.Text = text
	e.Expected = t.expected()
	e.Err = cause
	return e
}

// Decode parses text as a value of type t.  On failure it returns a
// *xlsxerrors.Error with Code Decode, Text and Expected set; callers add the
// element path and attribute name.
func Decode(t Type, text string) (Value, error) {
	switch t.Kind {
	case KindString:
		return NewString(text), nil
	case KindRelID:
		return NewRelID(text), nil
	}

	// Every non-string XSD primitive collapses whitespace.
	s := strings.TrimSpace(text)
	switch k := t.Kind; {
	case k == KindBool:
		switch s {
		case "1", "true":
			return NewBool(true), nil
		case "0", "false":
			return NewBool(false), nil
		}
		return Value{}, decodeError(t, text, nil)

	case k.signed():
		n, err := strconv.ParseInt(s, 10, k.bits())
		if err != nil {
			return Value{}, decodeError(t, text, unwrapNum(err))
		}
		return NewInt(k, n), nil

	case k.unsigned():
		// XSD allows a leading '+'; ParseUint does not.
		n, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, k.bits())
		if err != nil {
			return Value{}, decodeError(t, text, unwrapNum(err))
		}
		return NewUint(k, n), nil

	case k == KindDouble:
		var f float64
		switch s {
		case "INF":
			f = math.Inf(1)
		case "-INF":
			f = math.Inf(-1)
		case "NaN":
			f = math.NaN()
		default:
			if !doubleRe.MatchString(s) {
				return Value{}, decodeError(t, text, nil)
			}
			var err error
			f, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return Value{}, decodeError(t, text, unwrapNum(err))
			}
		}
		v := NewDouble(f)
		v.lex = s
		return v, nil

	case k == KindDateTime:
		for _, layout := range dateTimeLayouts {
			if tm, err := time.Parse(layout, s); err == nil {
				v := NewDateTime(tm)
				v.lex = s
				return v, nil
			}
		}
		return Value{}, decodeError(t, text, nil)

	case k == KindHexBinary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return Value{}, decodeError(t, text, err)
		}
		return NewHex(b), nil

	case k == KindEnum:
		if !t.Allows(s) {
			return Value{}, decodeError(t, text, nil)
		}
		return NewEnum(s), nil
	}
	return Value{}, fmt.Errorf("codec: decode: unsupported kind %s", t.Kind)
}

// unwrapNum strips the *strconv.NumError wrapper, whose message repeats the
// input text already carried by the decode error.
func unwrapNum(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

// Encode returns the canonical lexical form of v for type t.  Booleans encode
// as "1"/"0"; doubles and date-times decoded from text encode as that text.
func Encode(t Type, v Value) (string, error) {
	if !compatible(t.Kind, v.kind) {
		return "", fmt.Errorf("codec: encode %s: value has kind %s", t.Name, v.kind)
	}
	switch k := t.Kind; {
	case k == KindString || k == KindRelID:
		return v.s, nil
	case k == KindBool:
		if v.b {
			return "1", nil
		}
		return "0", nil
	case k.signed():
		lo, hi := int64(-1)<<(k.bits()-1), int64(1)<<(k.bits()-1)-1
		if v.i < lo || v.i > hi {
			return "", fmt.Errorf("codec: encode %s: %d out of range", t.Name, v.i)
		}
		return strconv.FormatInt(v.i, 10), nil
	case k.unsigned():
		if v.u > uint64(1)<<k.bits()-1 {
			return "", fmt.Errorf("codec: encode %s: %d out of range", t.Name, v.u)
		}
		return strconv.FormatUint(v.u, 10), nil
	case k == KindDouble:
		if v.lex != "" {
			return v.lex, nil
		}
		return formatDouble(v.f), nil
	case k == KindDateTime:
		if v.lex != "" {
			return v.lex, nil
		}
		return formatDateTime(v.t), nil
	case k == KindHexBinary:
		return strings.ToUpper(hex.EncodeToString(v.bin)), nil
	case k == KindEnum:
		if !t.Allows(v.s) {
			return "", fmt.Errorf("codec: encode %s: %q is not one of [%s]", t.Name, v.s, strings.Join(t.Values, " "))
		}
		return v.s, nil
	}
	return "", fmt.Errorf("codec: encode: unsupported kind %s", t.Kind)
}

// Check reports whether v can be encoded as type t.
func Check(t Type, v Value) error {
	_, err := Encode(t, v)
	return err
}

func compatible(typ, val Kind) bool {
	if typ == val {
		return true
	}
	// Plain strings may be assigned to enumerations and relationship IDs;
	// Encode still checks enumeration membership.
	return val == KindString && (typ == KindEnum || typ == KindRelID)
}

// formatDouble returns the shortest decimal text that parses back to f,
// using exponent notation outside [1e-6, 1e21) the way Excel does.
func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NaN"
	}
	if a := math.Abs(f); a != 0 && (a < 1e-6 || a >= 1e21) {
		return strings.ToUpper(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDateTime(t time.Time) string {
	if t.Location() == time.UTC {
		return t.Format("2006-01-02T15:04:05.999999999")
	}
	return t.Format("2006-01-02T15:04:05.999999999Z07:00")
}
