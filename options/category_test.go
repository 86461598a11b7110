package options

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  CategoryEnum
	}{
		{"empty", nil, CategoryNone},
		{"none", []string{"none"}, CategoryNone},
		{"all", []string{"ALL"}, CategoryAll},
		{"pair", []string{"seconds", " duration "}, CategorySeconds | CategoryDuration},
		{"blank skipped", []string{"", "safe_number"}, CategorySafeNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategories(tt.input...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseCategories("seconds", "bogus")
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategoryEnum_Bounds(t *testing.T) {
	assert.IsType(t, CategoryEnum(0), CategoryAll)
	assert.IsType(t, CategoryEnum(0), CategoryNone)

	CategoryAll.Each(func(c CategoryEnum) {
		assert.True(t, CategoryAll.Has(c), c.String())
	})
}

func TestCategoryEnum_Has(t *testing.T) {
	set := CategorySafeNumber | CategoryTextNumber

	assert.True(t, set.Has(CategorySafeNumber))
	assert.True(t, set.Has(CategorySafeNumber|CategoryTextNumber))
	assert.False(t, set.Has(CategorySeconds))
	assert.False(t, set.Has(CategoryNone))
}

func TestCategoryEnum_Each(t *testing.T) {
	var seen []CategoryEnum
	(CategorySeconds | CategorySafeNumber).Each(func(c CategoryEnum) { seen = append(seen, c) })
	assert.Equal(t, []CategoryEnum{CategorySafeNumber, CategorySeconds}, seen)
}

func ExampleCategoryEnum_String() {
	fmt.Println(CategoryNone)
	fmt.Println(CategoryAll)
	fmt.Println(CategoryTextNumber | CategoryDatetime)
	// Output:
	// none
	// all
	// text_number,datetime
}
