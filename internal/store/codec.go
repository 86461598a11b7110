package store

import (
	"database/sql"
	"encoding"
	"fmt"
	"reflect"
	"time"

	"github.com/goccy/go-json"
)

var scannerType = reflect.TypeFor[sql.Scanner]()

// timeLayouts are tried in order when a driver returns time as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// encode turns an attribute value into a driver argument.
func encode(v any, t reflect.Type) (any, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, nil
	}

	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}

		rv = rv.Elem()
	}

	switch storage(t) {
	case storeTime:
		return rv.Interface().(time.Time), nil
	case storeText:
		if m, ok := rv.Interface().(encoding.TextMarshaler); ok {
			text, err := m.MarshalText()
			if err != nil {
				return nil, err
			}

			return string(text), nil
		}

		return rv.String(), nil
	case storeBool:
		return rv.Bool(), nil
	case storeInt:
		return rv.Int(), nil
	case storeUint:
		return int64(rv.Uint()), nil
	case storeFloat:
		return rv.Float(), nil
	case storeBytes:
		return rv.Bytes(), nil
	case storeJSON:
		if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
			return nil, nil
		}

		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, err
		}

		return string(raw), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// decode turns a scanned driver value into a value of type t.
func decode(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}

	if t.Kind() == reflect.Pointer {
		elem, err := decode(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}

		out := reflect.New(t.Elem())
		out.Elem().Set(elem)

		return out, nil
	}

	out := reflect.New(t).Elem()

	switch storage(t) {
	case storeTime:
		tm, err := decodeTime(raw)
		if err != nil {
			return reflect.Value{}, err
		}

		out.Set(reflect.ValueOf(tm))
	case storeText:
		s, err := text(raw)
		if err != nil {
			return reflect.Value{}, err
		}

		if u, ok := out.Addr().Interface().(encoding.TextUnmarshaler); ok {
			if err := u.UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, err
			}

			break
		}

		out.SetString(s)
	case storeBool:
		switch x := raw.(type) {
		case bool:
			out.SetBool(x)
		case int64:
			out.SetBool(x != 0)
		default:
			return reflect.Value{}, mismatch(raw, t)
		}
	case storeInt:
		n, ok := raw.(int64)
		if !ok || out.OverflowInt(n) {
			return reflect.Value{}, mismatch(raw, t)
		}

		out.SetInt(n)
	case storeUint:
		n, ok := raw.(int64)
		if !ok || n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, mismatch(raw, t)
		}

		out.SetUint(uint64(n))
	case storeFloat:
		switch x := raw.(type) {
		case float64:
			out.SetFloat(x)
		case int64:
			out.SetFloat(float64(x))
		default:
			return reflect.Value{}, mismatch(raw, t)
		}
	case storeBytes:
		b, ok := raw.([]byte)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}

		out.SetBytes(append([]byte(nil), b...))
	case storeJSON:
		s, err := text(raw)
		if err != nil {
			return reflect.Value{}, err
		}

		if err := json.Unmarshal([]byte(s), out.Addr().Interface()); err != nil {
			return reflect.Value{}, err
		}
	default:
		if reflect.PointerTo(t).Implements(scannerType) {
			if err := out.Addr().Interface().(sql.Scanner).Scan(raw); err != nil {
				return reflect.Value{}, err
			}

			break
		}

		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	return out, nil
}

func decodeTime(raw any) (time.Time, error) {
	switch x := raw.(type) {
	case time.Time:
		return x, nil
	case string, []byte:
		s, _ := text(x)

		for _, layout := range timeLayouts {
			if tm, err := time.Parse(layout, s); err == nil {
				return tm, nil
			}
		}

		return time.Time{}, fmt.Errorf("%w: %q is not a time", ErrScan, s)
	default:
		return time.Time{}, mismatch(raw, timeType)
	}
}

func text(raw any) (string, error) {
	switch x := raw.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	default:
		return "", fmt.Errorf("%w: %T is not text", ErrScan, raw)
	}
}

func mismatch(raw any, t reflect.Type) error {
	return fmt.Errorf("%w: %T does not fit %s", ErrScan, raw, t)
}
