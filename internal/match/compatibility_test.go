package match

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type myInt int

func TestScoreTypeCompatibility(t *testing.T) {
	var (
		intT    = reflect.TypeFor[int]()
		int64T  = reflect.TypeFor[int64]()
		myIntT  = reflect.TypeFor[myInt]()
		strT    = reflect.TypeFor[string]()
		anyT    = reflect.TypeFor[any]()
		timeT   = reflect.TypeFor[time.Time]()
		ptrIntT = reflect.TypeFor[*int]()
	)

	tests := []struct {
		name     string
		src, dst reflect.Type
		want     TypeCompatibility
	}{
		{"identical", intT, intT, TypeIdentical},
		{"assignable to interface", intT, anyT, TypeAssignable},
		{"convertible numeric", intT, int64T, TypeConvertible},
		{"named conversion", myIntT, intT, TypeConvertible},
		{"pointer deref", ptrIntT, intT, TypeNeedsTransform},
		{"pointer wrap", intT, ptrIntT, TypeNeedsTransform},
		{"slices", reflect.TypeFor[[]int](), reflect.TypeFor[[]string](), TypeNeedsTransform},
		{"map to struct", reflect.TypeFor[map[string]any](), timeT, TypeNeedsTransform},
		{"incompatible", strT, timeT, TypeIncompatible},
		{"nil", nil, intT, TypeIncompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreTypeCompatibility(tt.src, tt.dst))
		})
	}
}

func TestTypeCompatibility_String(t *testing.T) {
	assert.Equal(t, VerdictIdentical, TypeIdentical.String())
	assert.Equal(t, VerdictIncompatible, TypeIncompatible.String())
	assert.Equal(t, "unknown", TypeCompatibility(99).String())
}

func TestIsNumericType(t *testing.T) {
	assert.True(t, IsNumericType(reflect.TypeFor[float32]()))
	assert.True(t, IsNumericType(reflect.TypeFor[myInt]()))
	assert.False(t, IsNumericType(reflect.TypeFor[string]()))
	assert.False(t, IsNumericType(nil))
}
