package match

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankCandidates(t *testing.T) {
	fields := []Field{
		{Name: "CustomerName", Type: reflect.TypeFor[string]()},
		{Name: "customer_id", Type: reflect.TypeFor[int]()},
		{Name: "CustomerID", Type: reflect.TypeFor[int64]()},
	}

	got := RankCandidates("CustomerID", reflect.TypeFor[int64](), fields)
	require.Len(t, got, 3)

	best := got.Best()
	require.NotNil(t, best)
	assert.Equal(t, "CustomerID", best.Field.Name)
	assert.Equal(t, TypeIdentical, best.TypeCompat)
	assert.Equal(t, "customer_id", got[1].Field.Name)
	assert.Equal(t, TypeConvertible, got[1].TypeCompat)
}

func TestCandidateList_Helpers(t *testing.T) {
	var empty CandidateList
	assert.Nil(t, empty.Best())
	assert.Empty(t, empty.Top(3))

	list := RankCandidates("abc", nil, []Field{{Name: "abc"}, {Name: "abd"}, {Name: "xyz"}})
	assert.Len(t, list.Top(2), 2)
	assert.Len(t, list.AboveThreshold(0.5), 2)
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"Name"}, Suggest("Nmae", []string{"Age", "Name", "Owner"}))
	assert.Empty(t, Suggest("Zzz", []string{"Age", "Name"}))
	assert.Empty(t, Suggest("Name", []string{"Name"}))
}

func ExampleSuggest() {
	fmt.Println(Suggest("ownr_id", []string{"OwnerID", "Title", "Tracks"}))
	// Output: [OwnerID]
}
