package primitive

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"crucible/options"
	"crucible/utils"
)

var (
	ErrUnsupported = errors.New("unsupported primitive conversion")
	ErrOutOfRange  = errors.New("value out of range")
	ErrInvalidText = errors.New("invalid textual value")
)

var stringerType = reflect.TypeFor[fmt.Stringer]()

// Func converts src to a value of type dst.
type Func func(src reflect.Value, dst reflect.Type) (reflect.Value, error)

var categoryFuncs = map[options.CategoryEnum]Func{
	options.CategorySafeNumber:   convertSafeNumber,
	options.CategoryUnsafeNumber: convertUnsafeNumber,
	options.CategoryTextNumber:   convertTextNumber,
	options.CategoryNumericBool:  convertNumericBool,
	options.CategoryTextualBool:  convertTextualBool,
	options.CategoryDatetime:     convertDatetime,
	options.CategoryTimestamp:    convertTimestamp,
	options.CategoryDuration:     convertDuration,
	options.CategoryNanoseconds:  convertNanoseconds,
	options.CategorySeconds:      convertSeconds,
	options.CategoryEnumString:   convertEnumString,
}

// Lookup returns the runtime coercion for a (src, dst) type pair if one of
// the enabled categories allows it.
func Lookup(enabled options.CategoryEnum, src, dst reflect.Type) (Func, options.CategoryEnum, bool) {
	pair := ConversionPair{FromReflectType(src), FromReflectType(dst)}
	if pair.From == 0 || pair.To == 0 {
		return nil, options.CategoryNone, false
	}

	cat, ok := CategoryOf(enabled, pair)
	if !ok {
		return nil, options.CategoryNone, false
	}

	if cat == options.CategoryEnumString && !enumSupported(pair, src, dst) {
		return nil, options.CategoryNone, false
	}

	fn, ok := categoryFuncs[cat]

	return fn, cat, ok
}

func convertSafeNumber(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	return src.Convert(dst), nil
}

func convertUnsafeNumber(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if err := checkRange(src, FromReflectType(dst)); err != nil {
		return reflect.Value{}, err
	}

	return src.Convert(dst), nil
}

func convertTextNumber(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	to := FromReflectType(dst)

	switch {
	case src.CanInt() && to == KindString:
		return reflect.ValueOf(strconv.FormatInt(src.Int(), 10)), nil
	case src.CanUint() && to == KindString:
		return reflect.ValueOf(strconv.FormatUint(src.Uint(), 10)), nil
	case src.CanFloat() && to == KindString:
		return reflect.ValueOf(strconv.FormatFloat(src.Float(), 'f', -1, FromReflectType(src.Type()).Bits())), nil
	case to.IsSigned():
		n, err := strconv.ParseInt(strings.TrimSpace(src.String()), 10, to.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
		}

		return reflect.ValueOf(n).Convert(dst), nil
	case to.IsUnsigned():
		n, err := strconv.ParseUint(strings.TrimSpace(src.String()), 10, to.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
		}

		return reflect.ValueOf(n).Convert(dst), nil
	case to.IsFloat():
		f, err := strconv.ParseFloat(strings.TrimSpace(src.String()), to.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
		}

		return reflect.ValueOf(f).Convert(dst), nil
	default:
		return reflect.Value{}, unsupported(src.Type(), dst)
	}
}

func convertNumericBool(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if src.Kind() == reflect.Bool {
		n := 0
		if src.Bool() {
			n = 1
		}

		return reflect.ValueOf(n).Convert(dst), nil
	}

	var n uint64

	switch {
	case src.CanInt() && src.Int() >= 0:
		n = uint64(src.Int())
	case src.CanUint():
		n = src.Uint()
	default:
		return reflect.Value{}, fmt.Errorf("%w: %v is not 0 or 1", ErrOutOfRange, src)
	}

	if n > 1 {
		return reflect.Value{}, fmt.Errorf("%w: %d is not 0 or 1", ErrOutOfRange, n)
	}

	return reflect.ValueOf(n == 1), nil
}

func convertTextualBool(src reflect.Value, _ reflect.Type) (reflect.Value, error) {
	if src.Kind() == reflect.Bool {
		return reflect.ValueOf(strconv.FormatBool(src.Bool())), nil
	}

	switch strings.ToLower(strings.TrimSpace(src.String())) {
	case "true", "yes", "y", "on", "1":
		return reflect.ValueOf(true), nil
	case "false", "no", "n", "off", "0":
		return reflect.ValueOf(false), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: %q is not a boolean", ErrInvalidText, src.String())
	}
}

func convertDatetime(src reflect.Value, _ reflect.Type) (reflect.Value, error) {
	if t, ok := src.Interface().(time.Time); ok {
		return reflect.ValueOf(t.Format(time.RFC3339Nano)), nil
	}

	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(src.String()))
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
	}

	return reflect.ValueOf(t), nil
}

func convertTimestamp(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if t, ok := src.Interface().(time.Time); ok {
		unix := reflect.ValueOf(t.Unix())
		if err := checkRange(unix, FromReflectType(dst)); err != nil {
			return reflect.Value{}, err
		}

		return unix.Convert(dst), nil
	}

	secs, err := asInt64(src)
	if err != nil {
		return reflect.Value{}, err
	}

	return reflect.ValueOf(time.Unix(secs, 0).UTC()), nil
}

func convertDuration(src reflect.Value, _ reflect.Type) (reflect.Value, error) {
	if d, ok := src.Interface().(time.Duration); ok {
		return reflect.ValueOf(d.String()), nil
	}

	d, err := time.ParseDuration(strings.TrimSpace(src.String()))
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
	}

	return reflect.ValueOf(d), nil
}

func convertNanoseconds(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if d, ok := src.Interface().(time.Duration); ok {
		ns := reflect.ValueOf(int64(d))
		if err := checkRange(ns, FromReflectType(dst)); err != nil {
			return reflect.Value{}, err
		}

		return ns.Convert(dst), nil
	}

	ns, err := asInt64(src)
	if err != nil {
		return reflect.Value{}, err
	}

	return reflect.ValueOf(time.Duration(ns)), nil
}

func convertSeconds(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if d, ok := src.Interface().(time.Duration); ok {
		return reflect.ValueOf(d.Seconds()).Convert(dst), nil
	}

	ns := src.Float() * float64(time.Second)
	if err := checkRange(reflect.ValueOf(ns), KindInt64); err != nil {
		return reflect.Value{}, err
	}

	return reflect.ValueOf(time.Duration(ns)), nil
}

func convertEnumString(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if src.Kind() == reflect.String && dst.Kind() == reflect.String &&
		!reflect.PointerTo(dst).Implements(textUnmarshalerType) {
		return src.Convert(dst), nil
	}

	if src.Type().ConvertibleTo(dst) && isIntegerKind(src.Kind()) && isIntegerKind(dst.Kind()) {
		return src.Convert(dst), nil
	}

	text, err := asText(src)
	if err != nil {
		return reflect.Value{}, err
	}

	if dst.Kind() == reflect.String && !reflect.PointerTo(dst).Implements(textUnmarshalerType) {
		return reflect.ValueOf(text).Convert(dst), nil
	}

	ptr := reflect.New(dst)
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %w", ErrInvalidText, err)
	}

	return ptr.Elem(), nil
}

func asText(src reflect.Value) (string, error) {
	switch {
	case src.Type().Implements(textMarshalerType):
		b, err := src.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidText, err)
		}

		return string(b), nil
	case src.Type().Implements(stringerType):
		return src.Interface().(fmt.Stringer).String(), nil
	case src.Kind() == reflect.String:
		return src.String(), nil
	default:
		return "", unsupported(src.Type(), reflect.TypeFor[string]())
	}
}

// enumSupported narrows the enum category to pairs that have a textual path.
func enumSupported(pair ConversionPair, src, dst reflect.Type) bool {
	readable := func(t reflect.Type) bool {
		return t.Kind() == reflect.String || t.Implements(textMarshalerType) || t.Implements(stringerType)
	}
	writable := func(t reflect.Type) bool {
		return t.Kind() == reflect.String || reflect.PointerTo(t).Implements(textUnmarshalerType)
	}

	if pair.From == KindPrimitiveEnum && pair.To == KindPrimitiveEnum &&
		isIntegerKind(src.Kind()) && isIntegerKind(dst.Kind()) {
		return true
	}

	return readable(src) && writable(dst)
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func asInt64(src reflect.Value) (int64, error) {
	if src.CanInt() {
		return src.Int(), nil
	}

	if src.CanUint() && src.Uint() <= math.MaxInt64 {
		return int64(src.Uint()), nil
	}

	return 0, fmt.Errorf("%w: %v does not fit int64", ErrOutOfRange, src)
}

// checkRange verifies that the numeric src fits into the number kind to.
func checkRange(src reflect.Value, to KindEnum) error {
	ok := true

	switch {
	case src.CanInt():
		ok = intFits(src.Int(), to)
	case src.CanUint():
		ok = uintFits(src.Uint(), to)
	case src.CanFloat():
		ok = floatFits(src.Float(), to)
	}

	if !ok {
		return fmt.Errorf("%w: %v does not fit %s", ErrOutOfRange, src, to)
	}

	return nil
}

func intFits(n int64, to KindEnum) bool {
	switch {
	case to.IsSigned():
		hi := int64(math.MaxInt64 >> (64 - to.Bits()))
		return utils.IsInRange(-hi-1, n, hi)
	case to.IsUnsigned():
		return n >= 0 && uint64(n) <= uint64(math.MaxUint64)>>(64-to.Bits())
	default:
		return true
	}
}

func uintFits(n uint64, to KindEnum) bool {
	switch {
	case to.IsSigned():
		return n <= uint64(math.MaxInt64>>(64-to.Bits()))
	case to.IsUnsigned():
		return n <= uint64(math.MaxUint64)>>(64-to.Bits())
	default:
		return true
	}
}

func floatFits(f float64, to KindEnum) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}

	switch {
	case to.IsSigned():
		limit := math.Ldexp(1, to.Bits()-1)
		return f >= -limit && f < limit
	case to.IsUnsigned():
		return f >= 0 && f < math.Ldexp(1, to.Bits())
	case to == KindFloat32:
		return utils.IsInRange(-math.MaxFloat32, f, math.MaxFloat32)
	default:
		return true
	}
}

func unsupported(src, dst reflect.Type) error {
	return fmt.Errorf("%w: %s to %s", ErrUnsupported, src, dst)
}
