package model

//go:generate go tool stringer -type=InheritanceMode -trimprefix=Mode -output=mode_string.go

// InheritanceMode tells how a class stores the columns it inherits.
type InheritanceMode int

const (
	_ InheritanceMode = iota

	// ModeAbstract classes carry configuration only and have no table.
	ModeAbstract
	// ModeRoot classes have no mapped parent.
	ModeRoot
	// ModeSingleTable classes add nullable columns to the parent table.
	ModeSingleTable
	// ModeJoined classes have their own table keyed by the parent primary key.
	ModeJoined
	// ModeConcrete classes have an independent table redeclaring every column.
	ModeConcrete
)
