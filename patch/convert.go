package patch

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shibukawa/batchupdate"
	"github.com/shopspring/decimal"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	DateLayout,
}

var timeLayouts = []string{
	"15:04:05.999999999",
	"15:04",
}

// FromAny converts a Go value into a Value based on its dynamic type.
// Pointers are dereferenced, nil becomes NULL and driver.Valuer implementations are unwrapped.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return fromUint(v)
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case decimal.Decimal:
		return Decimal(v), nil
	case decimal.NullDecimal:
		if !v.Valid {
			return Null(), nil
		}

		return Decimal(v.Decimal), nil
	case uuid.UUID:
		return UUID(v), nil
	case uuid.NullUUID:
		if !v.Valid {
			return Null(), nil
		}

		return UUID(v.UUID), nil
	case time.Time:
		return Timestamp(v), nil
	case json.RawMessage:
		return JSON(string(v)), nil
	case driver.Valuer:
		inner, err := v.Value()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", batchupdate.ErrUnsupportedValue, err)
		}

		return FromAny(inner)
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Null(), nil
		}

		return FromAny(rv.Elem().Interface())
	}

	// Named scalar types such as `type Status string`.
	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fromUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	}

	return Value{}, fmt.Errorf("%w: %T", batchupdate.ErrUnsupportedValue, raw)
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", batchupdate.ErrUnsupportedValue, u)
	}

	return Int(int64(u)), nil
}

// Coerce converts a loosely typed input (YAML, JSON, CLI flags) into a Value of
// the normalized column type kind (batchupdate.TypeString, batchupdate.TypeInt, ...).
func Coerce(raw any, kind string) (Value, error) {
	if raw == nil {
		return Null(), nil
	}

	if v, ok := raw.(Value); ok {
		return v, nil
	}

	switch kind {
	case batchupdate.TypeInt:
		return coerceInt(raw)
	case batchupdate.TypeFloat:
		return coerceFloat(raw)
	case batchupdate.TypeDecimal:
		return coerceDecimal(raw)
	case batchupdate.TypeBool:
		return coerceBool(raw)
	case batchupdate.TypeDate:
		t, err := coerceTime(raw, timestampLayouts)
		if err != nil {
			return Value{}, err
		}

		return Date(t), nil
	case batchupdate.TypeDateTime:
		t, err := coerceTime(raw, timestampLayouts)
		if err != nil {
			return Value{}, err
		}

		return Timestamp(t), nil
	case batchupdate.TypeTime:
		t, err := coerceTime(raw, timeLayouts)
		if err != nil {
			return Value{}, err
		}

		return TimeOfDay(t), nil
	case batchupdate.TypeUUID:
		return coerceUUID(raw)
	case batchupdate.TypeJSON:
		return coerceJSON(raw)
	case batchupdate.TypeBinary:
		switch v := raw.(type) {
		case []byte:
			return Bytes(v), nil
		case string:
			return Bytes([]byte(v)), nil
		}
	case batchupdate.TypeArray:
		return Value{}, fmt.Errorf("%w: array columns are not supported", batchupdate.ErrUnsupportedValue)
	default:
		switch v := raw.(type) {
		case string:
			return String(v), nil
		case fmt.Stringer:
			return String(v.String()), nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
			return String(fmt.Sprint(v)), nil
		}
	}

	return FromAny(raw)
}

func coerceInt(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", batchupdate.ErrUnsupportedValue, v)
		}

		return Int(i), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return Value{}, fmt.Errorf("%w: %v is not an integer", batchupdate.ErrUnsupportedValue, v)
		}

		return Int(int64(v)), nil
	case bool:
		if v {
			return Int(1), nil
		}

		return Int(0), nil
	}

	return FromAny(raw)
}

func coerceFloat(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a number", batchupdate.ErrUnsupportedValue, v)
		}

		return Float(f), nil
	case int:
		return Float(float64(v)), nil
	case int64:
		return Float(float64(v)), nil
	case uint64:
		return Float(float64(v)), nil
	}

	return FromAny(raw)
}

func coerceDecimal(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a decimal", batchupdate.ErrUnsupportedValue, v)
		}

		return Decimal(d), nil
	case float64:
		return Decimal(decimal.NewFromFloat(v)), nil
	case float32:
		return Decimal(decimal.NewFromFloat32(v)), nil
	case int:
		return Decimal(decimal.NewFromInt(int64(v))), nil
	case int64:
		return Decimal(decimal.NewFromInt(v)), nil
	}

	return FromAny(raw)
}

func coerceBool(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a boolean", batchupdate.ErrUnsupportedValue, v)
		}

		return Bool(b), nil
	case int:
		return Bool(v != 0), nil
	case int64:
		return Bool(v != 0), nil
	case uint64:
		return Bool(v != 0), nil
	}

	return FromAny(raw)
}

func coerceTime(raw any, layouts []string) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}

		return time.Time{}, fmt.Errorf("%w: %q is not a recognized date/time", batchupdate.ErrUnsupportedValue, v)
	}

	return time.Time{}, fmt.Errorf("%w: %T cannot be used as a date/time", batchupdate.ErrUnsupportedValue, raw)
}

func coerceUUID(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a UUID", batchupdate.ErrUnsupportedValue, v)
		}

		return UUID(u), nil
	case [16]byte:
		return UUID(uuid.UUID(v)), nil
	case []byte:
		u, err := uuid.FromBytes(v)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", batchupdate.ErrUnsupportedValue, err)
		}

		return UUID(u), nil
	}

	return FromAny(raw)
}

func coerceJSON(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		return JSON(v), nil
	case json.RawMessage:
		return JSON(string(v)), nil
	case []byte:
		return JSON(string(v)), nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", batchupdate.ErrUnsupportedValue, err)
	}

	return JSON(string(data)), nil
}
