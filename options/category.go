// Package options holds the opt-in coercion categories accepted by the
// converter registry.
package options

import (
	"errors"
	"fmt"
	"strings"
)

type CategoryEnum int

const (
	CategorySafeNumber   CategoryEnum = 1 << iota // int, uint, float without precision loss
	CategoryUnsafeNumber                          // int, uint, float with precision loss, range checked
	CategoryTextNumber                            // int, uint, float <-> string: textual number representation
	CategoryNumericBool                           // int <-> bool: 0, 1 representation of boolean values
	CategoryTextualBool                           // string <-> bool: yes, no, on, off, true, false representation of boolean values
	CategoryDatetime                              // string(RFC3339Nano) <-> time.Time: textual date and time representation
	CategoryTimestamp                             // int(Unix seconds) <-> time.Time: Unix timestamp representation
	CategoryDuration                              // string(2h45m) <-> time.Duration: textual duration representation
	CategoryNanoseconds                           // int(nanoseconds) <-> time.Duration: numerical (integer) duration representation
	CategorySeconds                               // float(seconds) <-> time.Duration: numerical (floating-point) duration representation
	CategoryEnumString                            // string <-> enum or text type: uses MarshalText/UnmarshalText/String methods
	CategoryUnsafeArray                           // slice <-> array: lengths may differ, slices are cut, arrays are left with zero values

	CategoryAll  CategoryEnum = (1 << iota) - 1 // all categories combined
	CategoryNone CategoryEnum = 0               // no categories selected
)

var ErrUnknownCategory = errors.New("unknown coercion category")

var categoryNames = []struct {
	name string
	cat  CategoryEnum
}{
	{"safe_number", CategorySafeNumber},
	{"unsafe_number", CategoryUnsafeNumber},
	{"text_number", CategoryTextNumber},
	{"numeric_bool", CategoryNumericBool},
	{"textual_bool", CategoryTextualBool},
	{"datetime", CategoryDatetime},
	{"timestamp", CategoryTimestamp},
	{"duration", CategoryDuration},
	{"nanoseconds", CategoryNanoseconds},
	{"seconds", CategorySeconds},
	{"enum_string", CategoryEnumString},
	{"unsafe_array", CategoryUnsafeArray},
}

// Has reports whether every bit of other is set in c.
func (c CategoryEnum) Has(other CategoryEnum) bool {
	return other != CategoryNone && c&other == other
}

// Each calls fn for every single category set in c, lowest bit first.
func (c CategoryEnum) Each(fn func(CategoryEnum)) {
	for _, n := range categoryNames {
		if c&n.cat != 0 {
			fn(n.cat)
		}
	}
}

// String renders the set as a comma separated list of names.
func (c CategoryEnum) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryAll:
		return "all"
	}

	var names []string

	for _, n := range categoryNames {
		if c&n.cat != 0 {
			names = append(names, n.name)
		}
	}

	return strings.Join(names, ",")
}

// ParseCategories parses names as produced by String, "all" or "none".
func ParseCategories(names ...string) (CategoryEnum, error) {
	result := CategoryNone

next:
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))

		switch name {
		case "":
			continue
		case "all":
			result |= CategoryAll

			continue
		case "none":
			continue
		}

		for _, n := range categoryNames {
			if n.name == name {
				result |= n.cat

				continue next
			}
		}

		return CategoryNone, fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}

	return result, nil
}
