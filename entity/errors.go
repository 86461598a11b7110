package entity

import "errors"

var (
	ErrNotStruct      = errors.New("entity type must be a struct")
	ErrAlreadyDefined = errors.New("entity already defined")
	ErrUnknownEntity  = errors.New("type is not a defined entity")
	ErrNotImplemented = errors.New("entity does not implement the interface")
	ErrNilEntity      = errors.New("nil entity")
	ErrNilRecord      = errors.New("nil record")
	ErrClassMismatch  = errors.New("record class does not match the entity")
	ErrNoAttribute    = errors.New("class has no attribute for field")
	ErrNotBacked      = errors.New("readonly field has no backing record")
	ErrInvalidOption  = errors.New("invalid field option")
)
