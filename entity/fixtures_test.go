package entity_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"crucible/entity"
	"crucible/model"
)

type Person struct {
	ID    uuid.UUID
	Name  string
	Email *string
	Tags  []string
	Age   int
}

func (p *Person) Validate() error {
	if p.Age < 0 {
		return errors.New("age must not be negative")
	}

	return nil
}

// Left and Right refer to each other.
type Left struct {
	ID    int
	Right *Right
}

type Right struct {
	ID   int
	Left *Left
}

type Animal struct {
	ID   int
	Name string
	Type string
}

func (a *Animal) Label() string { return a.Type + ":" + a.Name }

type Named interface{ Label() string }

type Dog struct {
	Animal
	Breed string
}

type Cat struct {
	Animal
	Indoor bool
}

type Author struct {
	ID    int
	Name  string
	Books entity.Readonly[[]*Book]
}

type Book struct {
	ID       int
	Title    string
	AuthorID *int
	Author   entity.Readonly[*Author]
}

type Track struct {
	ID     int
	Title  string
	Length time.Duration
}

type CycleA struct {
	ID int
	B  *CycleB
}

type CycleB struct {
	ID int
	C  *CycleC
}

type CycleC struct {
	ID int
	A  *CycleA
}

type Member struct {
	ID       int
	First    string
	Last     string
	FullName entity.Readonly[string]
}

type Settings struct {
	Theme string `json:"theme"`
	Font  int    `json:"font"`
}

type Profile struct {
	ID       int
	Settings Settings
	Extra    map[string]any
}

func key() entity.Option { return entity.Field("ID", entity.PrimaryKey()) }

func people(t *testing.T, opts ...entity.RegistryOption) (*entity.Registry, *entity.Entity) {
	t.Helper()

	reg := entity.NewRegistry(opts...)

	e, err := entity.Define[Person](reg, entity.Field("ID", entity.PrimaryKey()))
	require.NoError(t, err)

	return reg, e
}

// zoo defines Animal, Dog and Cat in one single-table tree on "type".
func zoo(t *testing.T) (reg *entity.Registry, animal, dog, cat *entity.Entity) {
	t.Helper()

	reg = entity.NewRegistry()
	animal = entity.MustDefine[Animal](reg, key(), entity.PolymorphicOn("type"), entity.Identity("animal"))
	dog = entity.MustDefine[Dog](reg, entity.Identity("dog"))
	cat = entity.MustDefine[Cat](reg, entity.Identity("cat"), entity.Field("Indoor", entity.Default(true)))

	require.NoError(t, entity.DefineInterface[Named](reg, animal))
	require.NoError(t, reg.BuildAll())

	return reg, animal, dog, cat
}

// library defines Author <-> Book through readonly relationships.
func library(t *testing.T) (reg *entity.Registry, author, book *entity.Entity) {
	t.Helper()

	reg = entity.NewRegistry()
	author = entity.MustDefine[Author](reg, key(),
		entity.Field("Books", entity.BackPopulates("author")),
	)
	book = entity.MustDefine[Book](reg, key(),
		entity.Field("AuthorID", entity.ForeignKey("author.id")),
		entity.Field("Author", entity.BackPopulates("books"), entity.RelationKey("author_id")),
	)

	require.NoError(t, reg.BuildAll())

	return reg, author, book
}

func members(t *testing.T) (*entity.Registry, *entity.Entity) {
	t.Helper()

	reg := entity.NewRegistry()
	e := entity.MustDefine[Member](reg, key(), entity.Factory(func(base *model.Class) (*model.Class, error) {
		err := base.AddComputed("full_name", reflect.TypeFor[string](), func(rec *model.Record) (any, error) {
			first, err := rec.Get("first")
			if err != nil {
				return nil, err
			}

			last, err := rec.Get("last")
			if err != nil {
				return nil, err
			}

			return fmt.Sprintf("%v %v", first, last), nil
		})

		return base, err
	}))

	return reg, e
}

func get(t *testing.T, rec *model.Record, name string) any {
	t.Helper()

	v, err := rec.Get(name)
	require.NoError(t, err)

	return v
}

func ptr[T any](v T) *T { return &v }
