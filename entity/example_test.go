package entity_test

import (
	"fmt"

	"crucible/entity"
)

func Example() {
	reg := entity.NewRegistry()

	entity.MustDefine[Animal](reg,
		entity.Field("ID", entity.PrimaryKey()),
		entity.PolymorphicOn("type"),
		entity.Identity("animal"),
	)
	entity.MustDefine[Dog](reg, entity.Identity("dog"))

	rec, err := reg.ToPersistence(&Dog{Animal: Animal{ID: 1, Name: "Rex"}, Breed: "collie"})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(rec)

	animal, _ := entity.Lookup[Animal](reg)

	out, err := reg.FromPersistence(rec, animal)
	if err != nil {
		fmt.Println(err)
		return
	}

	dog := out.(*Dog)
	fmt.Println(dog.Name, dog.Breed)

	// Output:
	// Dog{id=1, name=Rex, type=dog, breed=collie}
	// Rex collie
}

func ExampleReadonly() {
	reg := entity.NewRegistry()

	entity.MustDefine[Author](reg, entity.Field("ID", entity.PrimaryKey()),
		entity.Field("Books", entity.BackPopulates("author")))
	entity.MustDefine[Book](reg, entity.Field("ID", entity.PrimaryKey()),
		entity.Field("Author", entity.BackPopulates("books"), entity.RelationKey("author_id")))

	author, _ := reg.ToPersistence(&Author{ID: 1, Name: "Le Guin"})
	book, _ := reg.ToPersistence(&Book{ID: 2, Title: "The Lathe of Heaven"})
	_ = book.Link("author", author)

	loaded, _ := entity.Load[*Author](reg, author)
	fmt.Println(loaded.Books.Loaded())

	books, _ := loaded.Books.Get()
	fmt.Println(len(books), books[0].Title)

	// Output:
	// false
	// 1 The Lathe of Heaven
}
