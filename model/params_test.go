package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeParams(t *testing.T) {
	shared := NewMetadata()

	parent := Params{
		TableName:           "animal",
		Schema:              "zoo",
		Metadata:            shared,
		PolymorphicOn:       "type",
		MapperArgs:          map[string]any{"eager_defaults": true, "batch": 10},
		Abstract:            true,
		PolymorphicIdentity: "animal",
		Constraints:         []Constraint{{Kind: ConstraintUnique, Columns: []string{"name"}}},
	}
	own := Params{
		MapperArgs:          map[string]any{"batch": 50},
		Options:             map[string]any{"comment": "dogs"},
		PolymorphicIdentity: "dog",
	}

	merged, err := MergeParams(parent, own)
	require.NoError(t, err)

	assert.Equal(t, "animal", merged.TableName)
	assert.Equal(t, "zoo", merged.Schema)
	assert.Same(t, shared, merged.Metadata)
	assert.Equal(t, "type", merged.PolymorphicOn)
	assert.Equal(t, map[string]any{"eager_defaults": true, "batch": 50}, merged.MapperArgs)
	assert.Equal(t, map[string]any{"comment": "dogs"}, merged.Options)

	assert.False(t, merged.Abstract, "abstract is not inherited")
	assert.Equal(t, "dog", merged.PolymorphicIdentity)
	assert.Empty(t, merged.Constraints, "constraints are not inherited")

	assert.Equal(t, map[string]any{"eager_defaults": true, "batch": 10}, parent.MapperArgs,
		"parent params are left untouched")
}

func TestMergeParams_OwnOverrides(t *testing.T) {
	other := NewMetadata()

	merged, err := MergeParams(
		Params{TableName: "employees", Metadata: NewMetadata(), PolymorphicIdentity: "employee"},
		Params{TableName: "engineers", Metadata: other, Concrete: true},
	)
	require.NoError(t, err)

	assert.Equal(t, "engineers", merged.TableName)
	assert.Same(t, other, merged.Metadata)
	assert.True(t, merged.Concrete)
	assert.Nil(t, merged.PolymorphicIdentity)
}

func TestTopoSort(t *testing.T) {
	order, err := topoSort(3, func(i int) []int {
		switch i {
		case 0:
			return []int{2}
		case 1:
			return nil
		default:
			return []int{1}
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, order)

	_, err = topoSort(2, func(i int) []int { return []int{1 - i} })
	assert.ErrorIs(t, err, ErrDependencyCycle)

	_, err = topoSort(1, func(int) []int { return []int{5} })
	assert.Error(t, err)

	order, err = topoSort(0, nil)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestMetadata(t *testing.T) {
	m := NewMetadata()

	tracks := &Table{Name: "tracks", Columns: []*Column{
		{Name: "id", PrimaryKey: true},
		{Name: "album_id", ForeignKey: "albums.id"},
		{Name: "artist_id", ForeignKey: "music.artists.id"},
		{Name: "label_id", ForeignKey: "labels.id"},
	}}
	albums := &Table{Name: "albums", Columns: []*Column{
		{Name: "id", PrimaryKey: true},
		{Name: "artist_id", ForeignKey: "artists.id"},
		{Name: "previous_id", ForeignKey: "albums.id"},
	}}
	artists := &Table{Name: "artists", Columns: []*Column{{Name: "id", PrimaryKey: true}}}

	for _, tbl := range []*Table{tracks, albums, artists} {
		require.NoError(t, m.Add(tbl))
	}

	require.NoError(t, m.Add(tracks), "same table twice")
	require.ErrorIs(t, m.Add(&Table{Name: "tracks"}), ErrDuplicateTable)

	assert.Equal(t, []string{"albums", "artists", "labels"}, tracks.References())
	assert.Equal(t, []string{"artists"}, albums.References(), "self references are ignored")

	sorted, err := m.Sorted()
	require.NoError(t, err)
	assert.Equal(t, []*Table{artists, albums, tracks}, sorted)

	got, ok := m.Table("albums")
	require.True(t, ok)
	assert.Same(t, albums, got)
}

func TestMetadata_Cycle(t *testing.T) {
	m := NewMetadata()
	require.NoError(t, m.Add(&Table{Name: "a", Columns: []*Column{{Name: "b_id", ForeignKey: "b.id"}}}))
	require.NoError(t, m.Add(&Table{Name: "b", Columns: []*Column{{Name: "a_id", ForeignKey: "a.id"}}}))

	_, err := m.Sorted()
	assert.ErrorIs(t, err, ErrDependencyCycle)
}

func TestSplitForeignKey(t *testing.T) {
	tests := []struct {
		ref, table, column string
		ok                 bool
	}{
		{"albums.id", "albums", "id", true},
		{"music.albums.id", "albums", "id", true},
		{"albums", "", "", false},
		{".id", "", "", false},
		{"albums.", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			table, column, ok := SplitForeignKey(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.table, table)
			assert.Equal(t, tt.column, column)
		})
	}
}

func TestDealer(t *testing.T) {
	var d dealer

	target := NewSource(Definition{Name: "Target"})
	first, second := &Attribute{}, &Attribute{}

	assert.True(t, d.Needs(target, first))
	assert.True(t, d.Needs(target, second))
	assert.Equal(t, 2, d.Pending())

	cls := newClass("Target", target)
	d.Done(target, cls)

	assert.Same(t, cls, first.Target)
	assert.Same(t, cls, second.Target)
	assert.Zero(t, d.Pending())

	late := &Attribute{}
	assert.False(t, d.Needs(target, late), "done targets link right away")
	assert.Same(t, cls, late.Target)
}
