package patch

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindDecimal
	KindDate
	KindTimestamp
	KindTime
	KindUUID
	KindBytes
	KindJSON
)

var kindNames = map[Kind]string{
	KindNull:      "null",
	KindString:    "string",
	KindInt:       "int",
	KindFloat:     "float",
	KindBool:      "bool",
	KindDecimal:   "decimal",
	KindDate:      "date",
	KindTimestamp: "timestamp",
	KindTime:      "time",
	KindUUID:      "uuid",
	KindBytes:     "bytes",
	KindJSON:      "json",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable typed scalar written into one column of a patch tuple.
// The zero Value is NULL.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	b    bool
	dec  decimal.Decimal
	tm   time.Time
	id   uuid.UUID
	raw  []byte
}

func Null() Value {
	return Value{kind: KindNull}
}

func String(s string) Value {
	return Value{kind: KindString, str: s}
}

func Int(i int64) Value {
	return Value{kind: KindInt, num: i}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, flt: f}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func Decimal(d decimal.Decimal) Value {
	return Value{kind: KindDecimal, dec: d}
}

// Date keeps only the calendar date of t, as seen in t's location.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, tm: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf builds a date value from its parts.
func DateOf(year int, month time.Month, day int) Value {
	return Value{kind: KindDate, tm: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Timestamp stores t normalized to UTC with microsecond precision.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, tm: t.UTC().Truncate(time.Microsecond)}
}

// TimeOfDay keeps only the wall clock part of t.
func TimeOfDay(t time.Time) Value {
	return Value{kind: KindTime, tm: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).Truncate(time.Microsecond)}
}

func UUID(u uuid.UUID) Value {
	return Value{kind: KindUUID, id: u}
}

func Bytes(b []byte) Value {
	return Value{kind: KindBytes, raw: bytes.Clone(b)}
}

// JSON holds a JSON document as text. The text is not re-encoded.
func JSON(doc string) Value {
	return Value{kind: KindJSON, str: doc}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Text returns the payload of a string or JSON value.
func (v Value) Text() string {
	return v.str
}

func (v Value) Int() int64 {
	return v.num
}

func (v Value) Float() float64 {
	return v.flt
}

func (v Value) Bool() bool {
	return v.b
}

func (v Value) Decimal() decimal.Decimal {
	return v.dec
}

// Time returns the payload of a date, timestamp or time-of-day value.
func (v Value) Time() time.Time {
	return v.tm
}

func (v Value) UUID() uuid.UUID {
	return v.id
}

func (v Value) Bytes() []byte {
	return bytes.Clone(v.raw)
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindString, KindJSON:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt || (math.IsNaN(v.flt) && math.IsNaN(o.flt))
	case KindBool:
		return v.b == o.b
	case KindDecimal:
		return v.dec.Equal(o.dec)
	case KindDate, KindTimestamp, KindTime:
		return v.tm.Equal(o.tm)
	case KindUUID:
		return v.id == o.id
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	}

	return false
}

// Any returns the Go value a database driver would accept for the column.
func (v Value) Any() any {
	switch v.kind {
	case KindString, KindJSON:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.b
	case KindDecimal:
		return v.dec
	case KindDate, KindTimestamp, KindTime:
		return v.tm
	case KindUUID:
		return v.id
	case KindBytes:
		return bytes.Clone(v.raw)
	default:
		return nil
	}
}

// String renders the value for logs and error messages. It is not a SQL literal.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindString, KindJSON:
		return strconv.Quote(v.str)
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDecimal:
		return v.dec.String()
	case KindDate:
		return v.tm.Format(DateLayout)
	case KindTimestamp:
		return v.tm.Format(TimestampLayout)
	case KindTime:
		return v.tm.Format(TimeLayout)
	case KindUUID:
		return v.id.String()
	case KindBytes:
		return "0x" + hex.EncodeToString(v.raw)
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// Layouts used when values are rendered as SQL text.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05.999999"
	TimeLayout      = "15:04:05.999999"
)
