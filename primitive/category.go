package primitive

import (
	"crucible/options"
)

// ConversionPair is an ordered (source, destination) kind pair.
type ConversionPair struct {
	From, To KindEnum
}

type pairSet map[ConversionPair]struct{}

var conversionPairs = map[options.CategoryEnum]pairSet{
	options.CategorySafeNumber:   numberPairs(lossless),
	options.CategoryUnsafeNumber: numberPairs(func(from, to KindEnum) bool { return !lossless(from, to) }),
	options.CategoryTextNumber:   both(KindString, KindEnum.IsNumber),
	options.CategoryNumericBool:  both(KindBool, KindEnum.IsInteger),
	options.CategoryTextualBool:  both(KindBool, is(KindString)),
	options.CategoryDatetime:     both(KindTime, is(KindString)),
	options.CategoryTimestamp:    both(KindTime, KindEnum.IsInteger),
	options.CategoryDuration:     both(KindDuration, is(KindString)),
	options.CategoryNanoseconds: both(KindDuration, func(k KindEnum) bool {
		return k.IsInteger() && k != KindUint64
	}),
	options.CategorySeconds: both(KindDuration, KindEnum.IsFloat),
	options.CategoryEnumString: {
		{KindString, KindPrimitiveEnum}:        {},
		{KindPrimitiveEnum, KindString}:        {},
		{KindPrimitiveEnum, KindPrimitiveEnum}: {},
		{KindString, KindText}:                 {},
		{KindText, KindString}:                 {},
	},
}

func is(want KindEnum) func(KindEnum) bool {
	return func(k KindEnum) bool { return k == want }
}

// both pairs kind with every kind matching other, in both directions.
func both(kind KindEnum, other func(KindEnum) bool) pairSet {
	out := pairSet{}

	for k := KindEnum(1); int(k) < KindTotal; k++ {
		if other(k) {
			out[ConversionPair{kind, k}] = struct{}{}
			out[ConversionPair{k, kind}] = struct{}{}
		}
	}

	return out
}

func numberPairs(keep func(from, to KindEnum) bool) pairSet {
	out := pairSet{}

	for from := range numbers {
		for to := range numbers {
			if keep(from, to) {
				out[ConversionPair{from, to}] = struct{}{}
			}
		}
	}

	return out
}

// sizeRange is the smallest and largest size of a number kind over all
// platforms.
func sizeRange(k KindEnum) (lo, hi int) {
	if k == KindInt || k == KindUint {
		return 32, 64
	}

	return k.Bits(), k.Bits()
}

// lossless reports whether every value of from is representable in to on
// every platform.
func lossless(from, to KindEnum) bool {
	if from == to {
		return true
	}

	_, fromHi := sizeRange(from)
	toLo, _ := sizeRange(to)

	switch {
	case from.IsFloat():
		return to.IsFloat() && fromHi <= toLo
	case to.IsFloat():
		mantissa := 24
		if to == KindFloat64 {
			mantissa = 53
		}

		return fromHi <= mantissa
	case from.IsSigned():
		return to.IsSigned() && fromHi <= toLo
	case to.IsSigned():
		return fromHi < toLo
	default:
		return fromHi <= toLo
	}
}

// CategoryOf returns the first enabled category that allows the pair.
func CategoryOf(enabled options.CategoryEnum, pair ConversionPair) (options.CategoryEnum, bool) {
	found := options.CategoryNone

	enabled.Each(func(cat options.CategoryEnum) {
		if found != options.CategoryNone {
			return
		}

		if _, ok := conversionPairs[cat][pair]; ok {
			found = cat
		}
	})

	return found, found != options.CategoryNone
}

// Pairs lists every kind pair allowed by the enabled categories.
func Pairs(enabled options.CategoryEnum) map[ConversionPair]options.CategoryEnum {
	result := make(map[ConversionPair]options.CategoryEnum)

	enabled.Each(func(cat options.CategoryEnum) {
		for pair := range conversionPairs[cat] {
			if _, ok := result[pair]; !ok {
				result[pair] = cat
			}
		}
	})

	return result
}
