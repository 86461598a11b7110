package entity_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crucible/convert"
	"crucible/entity"
	"crucible/model"
	"crucible/options"
)

func TestRoundTrip(t *testing.T) {
	reg, _ := people(t)

	in := &Person{
		ID:    uuid.MustParse("0b7e3f5c-8a51-4b8e-9d0e-5f3a2c1d4e6f"),
		Name:  "Ursula",
		Email: ptr("ursula@example.org"),
		Tags:  []string{"author", "poet"},
		Age:   88,
	}

	rec, err := reg.ToPersistence(in)
	require.NoError(t, err)

	assert.Equal(t, "Person", rec.Class().Name)
	assert.Equal(t, in.ID, get(t, rec, "id"))
	assert.Equal(t, "Ursula", get(t, rec, "name"))

	out, err := entity.Load[*Person](reg, rec)
	require.NoError(t, err)

	assert.Equal(t, in, out, spew.Sdump(rec.Values()))
	assert.NotSame(t, in, out)
	assert.NotSame(t, in.Email, out.Email)

	t.Run("value entity", func(t *testing.T) {
		rec, err := reg.ToPersistence(*in)
		require.NoError(t, err)

		out, err := entity.Load[Person](reg, rec)
		require.NoError(t, err)
		assert.Equal(t, *in, out)
	})

	t.Run("untyped load", func(t *testing.T) {
		out, err := reg.FromPersistence(rec, nil)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestDefaultRegistry(t *testing.T) {
	require.NotNil(t, entity.DefaultRegistry())
	assert.Same(t, entity.DefaultRegistry(), entity.DefaultRegistry())
}

func TestDuplication(t *testing.T) {
	reg, _ := people(t)

	in := &Person{ID: uuid.New(), Name: "Ursula", Tags: []string{"author", "poet"}}

	rec, err := reg.ToPersistence(in)
	require.NoError(t, err)

	stored := get(t, rec, "tags").([]string)
	stored[0] = "changed"
	assert.Equal(t, "author", in.Tags[0], "record side changes do not reach the entity")

	out, err := entity.Load[*Person](reg, rec)
	require.NoError(t, err)

	out.Tags[1] = "changed"
	assert.Equal(t, "poet", stored[1], "entity side changes do not reach the record")
}

func TestErrors(t *testing.T) {
	reg, person := people(t)

	t.Run("nil entity", func(t *testing.T) {
		_, err := reg.ToPersistence((*Person)(nil))
		assert.ErrorIs(t, err, entity.ErrNilEntity)
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := reg.ToPersistence(&Track{})
		assert.ErrorIs(t, err, entity.ErrUnknownEntity)

		_, err = entity.Load[*Track](reg, &model.Record{})
		assert.ErrorIs(t, err, entity.ErrUnknownEntity)
	})

	t.Run("nil record", func(t *testing.T) {
		_, err := reg.FromPersistence(nil, person)
		assert.ErrorIs(t, err, entity.ErrNilRecord)
	})

	t.Run("missing value", func(t *testing.T) {
		cls, err := reg.Class(person)
		require.NoError(t, err)

		rec := cls.New()
		require.NoError(t, rec.Set("id", uuid.New()))

		_, err = entity.Load[*Person](reg, rec)
		require.ErrorIs(t, err, convert.ErrMissingValue)

		var ce *convert.ConversionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "Name", ce.Path)
	})

	t.Run("validation hook", func(t *testing.T) {
		rec, err := reg.ToPersistence(&Person{ID: uuid.New(), Name: "x", Age: -1})
		require.NoError(t, err, "the hook runs on reverse conversion only")

		_, err = entity.Load[*Person](reg, rec)
		assert.ErrorIs(t, err, convert.ErrRejected)
	})
}

func TestIdentityPreservation(t *testing.T) {
	reg := entity.NewRegistry()
	left := entity.MustDefine[Left](reg, key())
	right := entity.MustDefine[Right](reg, key())

	lc, err := reg.Class(left)
	require.NoError(t, err)

	rc, err := reg.Class(right)
	require.NoError(t, err)

	a, b := lc.New(), rc.New()
	require.NoError(t, a.Set("id", 1))
	require.NoError(t, b.Set("id", 2))
	require.NoError(t, a.Link("right", b))
	require.NoError(t, b.Link("left", a))

	out, err := entity.Load[*Left](reg, a)
	require.NoError(t, err)
	require.NotNil(t, out.Right)

	assert.Same(t, out, out.Right.Left)
	assert.Equal(t, 2, out.Right.ID)

	t.Run("call independence", func(t *testing.T) {
		again, err := entity.Load[*Left](reg, a)
		require.NoError(t, err)

		assert.NotSame(t, out, again)
		assert.NotSame(t, out.Right, again.Right)
		assert.Equal(t, out.ID, again.ID)
		assert.Equal(t, out.Right.ID, again.Right.ID)
	})

	t.Run("forward cycle", func(t *testing.T) {
		l := &Left{ID: 1}
		l.Right = &Right{ID: 2, Left: l}

		rec, err := reg.ToPersistence(l)
		require.NoError(t, err)

		r := get(t, rec, "right").(*model.Record)
		assert.Same(t, rec, get(t, r, "left"))
	})
}

func TestPolymorphicDispatch(t *testing.T) {
	reg, animal, dog, cat := zoo(t)

	rec, err := reg.ToPersistence(&Dog{Animal: Animal{ID: 1, Name: "Rex"}, Breed: "collie"})
	require.NoError(t, err)

	dogCls, err := reg.Class(dog)
	require.NoError(t, err)
	assert.Same(t, dogCls, rec.Class())
	assert.Equal(t, "dog", get(t, rec, "type"), "identity fills the discriminator")

	t.Run("base entity yields the subtype", func(t *testing.T) {
		out, err := reg.FromPersistence(rec, animal)
		require.NoError(t, err)

		got, ok := out.(*Dog)
		require.True(t, ok, "got %T", out)
		assert.Equal(t, "collie", got.Breed)
		assert.Equal(t, "Rex", got.Name)
		assert.Equal(t, "dog", got.Type)
	})

	t.Run("bound interface", func(t *testing.T) {
		out, err := entity.Load[Named](reg, rec)
		require.NoError(t, err)
		assert.IsType(t, &Dog{}, out)
		assert.Equal(t, "dog:Rex", out.Label())
	})

	t.Run("pointer type is exact", func(t *testing.T) {
		out, err := entity.Load[*Animal](reg, rec)
		require.NoError(t, err)
		assert.Equal(t, &Animal{ID: 1, Name: "Rex", Type: "dog"}, out)
	})

	t.Run("discriminator of a base record", func(t *testing.T) {
		animalCls, err := reg.Class(animal)
		require.NoError(t, err)

		base := animalCls.New()
		require.NoError(t, base.Set("id", 3))
		require.NoError(t, base.Set("name", "Tom"))
		require.NoError(t, base.Set("type", "cat"))

		out, err := reg.FromPersistence(base, animal)
		require.NoError(t, err)
		assert.Equal(t, &Cat{Animal: Animal{ID: 3, Name: "Tom", Type: "cat"}, Indoor: true}, out)
	})

	t.Run("unrelated class", func(t *testing.T) {
		catRec, err := reg.ToPersistence(&Cat{Animal: Animal{ID: 4, Name: "Kit"}})
		require.NoError(t, err)

		_, err = entity.Load[*Dog](reg, catRec)
		assert.ErrorIs(t, err, entity.ErrClassMismatch)

		out, err := reg.FromPersistence(catRec, cat)
		require.NoError(t, err)
		assert.IsType(t, &Cat{}, out)
	})
}

func TestExclusion(t *testing.T) {
	type Draft struct {
		ID     int
		Body   string
		Secret string
	}

	t.Run("without default", func(t *testing.T) {
		reg := entity.NewRegistry()
		e := entity.MustDefine[Draft](reg, key(), entity.Field("Secret", entity.Exclude()))

		_, err := reg.Class(e)
		require.ErrorIs(t, err, model.ErrConfiguration)

		_, err = reg.ToPersistence(&Draft{ID: 1})
		assert.ErrorIs(t, err, model.ErrConfiguration)
	})

	t.Run("with default", func(t *testing.T) {
		reg := entity.NewRegistry()
		e := entity.MustDefine[Draft](reg, key(), entity.Field("Secret", entity.Exclude(), entity.Default("redacted")))

		cls, err := reg.Class(e)
		require.NoError(t, err)

		_, ok := cls.Attribute("secret")
		assert.False(t, ok)

		rec, err := reg.ToPersistence(&Draft{ID: 1, Body: "text", Secret: "s3cr3t"})
		require.NoError(t, err)
		assert.NotContains(t, rec.Values(), "secret")

		out, err := entity.Load[*Draft](reg, rec)
		require.NoError(t, err)
		assert.Equal(t, &Draft{ID: 1, Body: "text", Secret: "redacted"}, out)
	})
}

func TestUnprovableConversion(t *testing.T) {
	reg := entity.NewRegistry()

	_, ok := reg.Converters().Resolve(reflect.TypeFor[map[string]any](), reflect.TypeFor[Settings]())
	assert.False(t, ok)

	entity.MustDefine[Profile](reg, key(), entity.Field("Extra", entity.TargetType(reflect.TypeFor[Settings]())))

	_, err := reg.ToPersistence(&Profile{ID: 1, Extra: map[string]any{"theme": "dark"}})
	require.ErrorIs(t, err, convert.ErrNoConverter)

	var ce *convert.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Extra", ce.Path)
}

func TestDurationConverters(t *testing.T) {
	t.Run("integer seconds", func(t *testing.T) {
		reg := entity.NewRegistry()
		entity.MustDefine[Track](reg, key(), entity.Field("Length", entity.ConvertWith(
			func(d time.Duration) int64 { return int64(d / time.Second) },
			func(s int64) time.Duration { return time.Duration(s) * time.Second },
		)))

		rec, err := reg.ToPersistence(&Track{ID: 1, Title: "Intro", Length: 90 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, int64(90), get(t, rec, "length"))

		out, err := entity.Load[*Track](reg, rec)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, out.Length)
	})

	t.Run("seconds coercion", func(t *testing.T) {
		reg := entity.NewRegistry(entity.WithCoercions(options.CategorySeconds))
		entity.MustDefine[Track](reg, key(), entity.Field("Length", entity.TargetType(reflect.TypeFor[float64]())))

		rec, err := reg.ToPersistence(&Track{ID: 1, Length: 90 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, float64(90), get(t, rec, "length"))

		out, err := entity.Load[*Track](reg, rec)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, out.Length)
	})
}

func TestAsJSON(t *testing.T) {
	reg := entity.NewRegistry()
	entity.MustDefine[Profile](reg, key(), entity.Field("Settings", entity.AsJSON()))

	in := &Profile{ID: 7, Settings: Settings{Theme: "dark", Font: 12}, Extra: map[string]any{"beta": true}}

	rec, err := reg.ToPersistence(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark","font":12}`, get(t, rec, "settings").(string))

	out, err := entity.Load[*Profile](reg, rec)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestExistingClass(t *testing.T) {
	type User struct {
		ID   int
		Name string
	}

	legacy, err := model.NewGenerator().GetOrBuild(model.NewSource(model.Definition{
		Name:   "LegacyUser",
		Params: model.Params{TableName: "legacy_users"},
		Attributes: []model.AttributeSpec{
			{Name: "id", Type: reflect.TypeFor[int](), Column: model.ColumnSpec{PrimaryKey: true}},
			{Name: "name", Type: reflect.TypeFor[string]()},
		},
	}))
	require.NoError(t, err)

	reg := entity.NewRegistry()
	e := entity.MustDefine[User](reg, entity.Existing(legacy))

	cls, err := reg.Class(e)
	require.NoError(t, err)
	assert.Same(t, legacy, cls)

	rec, err := reg.ToPersistence(&User{ID: 1, Name: "root"})
	require.NoError(t, err)
	assert.Same(t, legacy, rec.Class())

	out, err := entity.Load[*User](reg, rec)
	require.NoError(t, err)
	assert.Equal(t, &User{ID: 1, Name: "root"}, out)
}
