package entity_test

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crucible/entity"
	"crucible/model"
)

func TestReadonly(t *testing.T) {
	reg, _, _ := library(t)

	arec, err := reg.ToPersistence(&Author{ID: 1, Name: "Le Guin"})
	require.NoError(t, err)
	assert.False(t, arec.Has("books"), "readonly fields are never written")

	brec, err := reg.ToPersistence(&Book{ID: 10, Title: "The Dispossessed"})
	require.NoError(t, err)
	require.NoError(t, brec.Link("author", arec))

	assert.Equal(t, ptr(1), get(t, brec, "author_id"))
	assert.Equal(t, []*model.Record{brec}, get(t, arec, "books"))

	got, err := entity.Load[*Author](reg, arec)
	require.NoError(t, err)

	assert.True(t, got.Books.Backed())
	assert.False(t, got.Books.Loaded(), "loaded on first access only")

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":1,"Name":"Le Guin","Books":null}`, string(raw))

	books, err := got.Books.Get()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.True(t, got.Books.Loaded())

	again := got.Books.MustGet()
	assert.Same(t, books[0], again[0], "repeated access returns the cached value")

	assert.Equal(t, "The Dispossessed", books[0].Title)
	assert.Equal(t, ptr(1), books[0].AuthorID)
	assert.Same(t, got, books[0].Author.MustGet(), "back reference resolves within the same call")

	t.Run("not backed", func(t *testing.T) {
		var a Author

		_, err := a.Books.Get()
		assert.ErrorIs(t, err, entity.ErrNotBacked)
		assert.Panics(t, func() { a.Books.MustGet() })
	})

	t.Run("separate calls", func(t *testing.T) {
		other, err := entity.Load[*Author](reg, arec)
		require.NoError(t, err)

		assert.NotSame(t, books[0], other.Books.MustGet()[0])
	})
}

func TestThreeWayCycle(t *testing.T) {
	orders := [][]string{
		{"CycleA", "CycleB", "CycleC"},
		{"CycleB", "CycleC", "CycleA"},
		{"CycleC", "CycleA", "CycleB"},
	}

	for _, order := range orders {
		t.Run(order[0]+" first", func(t *testing.T) {
			reg := entity.NewRegistry()
			byName := map[string]*entity.Entity{
				"CycleA": entity.MustDefine[CycleA](reg, key()),
				"CycleB": entity.MustDefine[CycleB](reg, key()),
				"CycleC": entity.MustDefine[CycleC](reg, key()),
			}

			classes := make(map[string]*model.Class)

			for _, name := range order {
				cls, err := reg.Class(byName[name])
				require.NoError(t, err)

				classes[name] = cls
			}

			for from, to := range map[string][2]string{
				"CycleA": {"b", "CycleB"},
				"CycleB": {"c", "CycleC"},
				"CycleC": {"a", "CycleA"},
			} {
				attr, ok := classes[from].Attribute(to[0])
				require.True(t, ok)
				assert.Same(t, classes[to[1]], attr.Target, "%s.%s", from, to[0])
			}

			a := &CycleA{ID: 1, B: &CycleB{ID: 2, C: &CycleC{ID: 3}}}
			a.B.C.A = a

			rec, err := reg.ToPersistence(a)
			require.NoError(t, err)

			out, err := entity.Load[*CycleA](reg, rec)
			require.NoError(t, err)

			assert.Equal(t, 3, out.B.C.ID)
			assert.Same(t, out, out.B.C.A)
		})
	}
}

func TestFactoryComputed(t *testing.T) {
	reg, member := members(t)

	cls, err := reg.Class(member)
	require.NoError(t, err)

	attr, ok := cls.Attribute("full_name")
	require.True(t, ok)
	assert.Equal(t, model.KindComputed, attr.Kind)

	rec, err := reg.ToPersistence(&Member{ID: 1, First: "Ada", Last: "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", get(t, rec, "full_name"))

	out, err := entity.Load[*Member](reg, rec)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", out.FullName.MustGet())
}

func TestComputedOption(t *testing.T) {
	type Shout struct {
		ID   int
		Word string
		Loud entity.Readonly[int]
	}

	reg := entity.NewRegistry()
	entity.MustDefine[Shout](reg, key(), entity.Field("Loud", entity.Computed(func(rec *model.Record) (any, error) {
		w, err := rec.Get("word")
		if err != nil {
			return nil, err
		}

		return len(w.(string)), nil
	})))

	rec, err := reg.ToPersistence(&Shout{ID: 1, Word: "hey"})
	require.NoError(t, err)

	out, err := entity.Load[*Shout](reg, rec)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Loud.MustGet())
}

func TestHybridOption(t *testing.T) {
	type Contact struct {
		ID       int
		FullName string
	}

	reg := entity.NewRegistry()
	entity.MustDefine[Contact](reg, key(),
		entity.ExtraAttributes(
			model.AttributeSpec{Name: "first", Kind: model.KindColumn, Type: reflect.TypeFor[string]()},
			model.AttributeSpec{Name: "last", Kind: model.KindColumn, Type: reflect.TypeFor[string]()},
		),
		entity.Field("FullName", entity.Hybrid(
			func(rec *model.Record) (any, error) {
				first, _ := rec.Get("first")
				last, _ := rec.Get("last")

				return fmt.Sprintf("%v %v", first, last), nil
			},
			func(rec *model.Record, v any) error {
				first, last, ok := strings.Cut(v.(string), " ")
				if !ok {
					return fmt.Errorf("%q has no last name", v)
				}

				return errors.Join(rec.Set("first", first), rec.Set("last", last))
			},
		)),
	)

	rec, err := reg.ToPersistence(&Contact{ID: 1, FullName: "Grace Hopper"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", get(t, rec, "first"))
	assert.Equal(t, "Hopper", get(t, rec, "last"))

	require.NoError(t, rec.Set("last", "Brewster Hopper"))

	out, err := entity.Load[*Contact](reg, rec)
	require.NoError(t, err)
	assert.Equal(t, Contact{ID: 1, FullName: "Grace Brewster Hopper"}, *out)

	_, err = reg.ToPersistence(&Contact{ID: 2, FullName: "Cher"})
	require.ErrorContains(t, err, "has no last name")
}

func TestSingleTableExcludedDiscriminator(t *testing.T) {
	type Pet struct {
		ID   int
		Kind string
		Name string
	}

	type Puppy struct {
		Pet
		Kind string
		Toy  string
	}

	reg := entity.NewRegistry()
	pet := entity.MustDefine[Pet](reg, key(), entity.PolymorphicOn("kind"), entity.Identity("pet"))
	puppy := entity.MustDefine[Puppy](reg, entity.Identity("puppy"),
		entity.Field("Kind", entity.Exclude(), entity.Default("puppy")),
	)

	petCls, err := reg.Class(pet)
	require.NoError(t, err)

	puppyCls, err := reg.Class(puppy)
	require.NoError(t, err)

	assert.Equal(t, model.ModeSingleTable, puppyCls.Mode)
	assert.Same(t, petCls.Table, puppyCls.Table)

	toy, ok := puppyCls.Table.Column("toy")
	require.True(t, ok)
	assert.True(t, toy.Nullable)

	rec, err := reg.ToPersistence(&Puppy{Pet: Pet{ID: 1, Name: "Bo"}, Toy: "ball"})
	require.NoError(t, err)
	assert.Equal(t, "puppy", get(t, rec, "kind"))

	out, err := reg.FromPersistence(rec, pet)
	require.NoError(t, err)
	assert.Equal(t, &Puppy{Pet: Pet{ID: 1, Name: "Bo"}, Kind: "puppy", Toy: "ball"}, out)
}

func TestJoinedAndConcrete(t *testing.T) {
	type Employee struct {
		ID   int
		Name string
		Type string
	}

	type Engineer struct {
		Employee
		Language string
	}

	type Contractor struct {
		Employee
		Agency string
	}

	reg := entity.NewRegistry()
	employee := entity.MustDefine[Employee](reg, key(), entity.Table("employees"),
		entity.PolymorphicOn("type"), entity.Identity("employee"))
	engineer := entity.MustDefine[Engineer](reg, entity.Table("engineers"), entity.Identity("engineer"))
	contractor := entity.MustDefine[Contractor](reg, entity.Table("contractors"), entity.Concrete(),
		entity.Identity("contractor"))

	require.NoError(t, reg.BuildAll())

	engCls, err := reg.Class(engineer)
	require.NoError(t, err)
	assert.Equal(t, model.ModeJoined, engCls.Mode)

	fk, ok := engCls.Table.Column("id")
	require.True(t, ok)
	assert.Equal(t, "employees.id", fk.ForeignKey)

	conCls, err := reg.Class(contractor)
	require.NoError(t, err)
	assert.Equal(t, model.ModeConcrete, conCls.Mode)

	_, ok = conCls.Table.Column("name")
	assert.True(t, ok, "concrete tables repeat inherited columns")

	for _, in := range []any{
		&Engineer{Employee: Employee{ID: 1, Name: "Grace"}, Language: "COBOL"},
		&Contractor{Employee: Employee{ID: 2, Name: "Alan"}, Agency: "Bletchley"},
	} {
		rec, err := reg.ToPersistence(in)
		require.NoError(t, err)

		out, err := reg.FromPersistence(rec, employee)
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf(in), reflect.TypeOf(out))
	}
}
