package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crucible/options"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name    string
		enabled options.CategoryEnum
		pair    ConversionPair
		want    options.CategoryEnum
		ok      bool
	}{
		{"safe widening", options.CategoryAll, ConversionPair{KindInt8, KindInt64}, options.CategorySafeNumber, true},
		{"narrowing is unsafe", options.CategoryAll, ConversionPair{KindInt64, KindInt8}, options.CategoryUnsafeNumber, true},
		{"narrowing disabled", options.CategorySafeNumber, ConversionPair{KindInt64, KindInt8}, options.CategoryNone, false},
		{"seconds", options.CategorySeconds, ConversionPair{KindFloat64, KindDuration}, options.CategorySeconds, true},
		{"uint64 nanoseconds excluded", options.CategoryNanoseconds, ConversionPair{KindUint64, KindDuration}, options.CategoryNone, false},
		{"text to string", options.CategoryEnumString, ConversionPair{KindText, KindString}, options.CategoryEnumString, true},
		{"nothing enabled", options.CategoryNone, ConversionPair{KindInt, KindString}, options.CategoryNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CategoryOf(tt.enabled, tt.pair)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPairs(t *testing.T) {
	pairs := Pairs(options.CategoryDatetime | options.CategoryDuration)
	assert.Len(t, pairs, 4)
	assert.Equal(t, options.CategoryDuration, pairs[ConversionPair{KindDuration, KindString}])
	assert.Empty(t, Pairs(options.CategoryNone))
}
