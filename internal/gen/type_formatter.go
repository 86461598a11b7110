package gen

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"crucible/internal/match"
)

// importSpec represents an import statement.
type importSpec struct {
	Alias string
	Path  string
}

// imports collects the packages a file refers to.
type imports map[string]importSpec

// typeExpr spells t as Go source, adding the packages it needs to imps.
func typeExpr(t reflect.Type, imps imports) (string, error) {
	if t.Name() != "" {
		return namedType(t, imps)
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := typeExpr(t.Elem(), imps)

		return "*" + elem, err
	case reflect.Slice:
		elem, err := typeExpr(t.Elem(), imps)

		return "[]" + elem, err
	case reflect.Array:
		elem, err := typeExpr(t.Elem(), imps)

		return "[" + strconv.Itoa(t.Len()) + "]" + elem, err
	case reflect.Map:
		key, err := typeExpr(t.Key(), imps)
		if err != nil {
			return "", err
		}

		elem, err := typeExpr(t.Elem(), imps)

		return "map[" + key + "]" + elem, err
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any", nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func namedType(t reflect.Type, imps imports) (string, error) {
	if t.PkgPath() == "" {
		return t.Name(), nil
	}

	if strings.ContainsAny(t.Name(), "[") {
		return "", fmt.Errorf("%w: generic type %s", ErrUnsupportedType, t)
	}

	if t.PkgPath() == "main" || strings.HasSuffix(t.PkgPath(), "_test") {
		return "", fmt.Errorf("%w: %s cannot be imported", ErrUnsupportedType, t)
	}

	// reflect spells the package name, which may differ from the path base
	expr := t.String()
	name, _, _ := strings.Cut(expr, ".")

	imps[t.PkgPath()] = importSpec{Path: t.PkgPath()}
	if alias := t.PkgPath()[strings.LastIndexByte(t.PkgPath(), '/')+1:]; alias != name {
		imps[t.PkgPath()] = importSpec{Alias: name, Path: t.PkgPath()}
	}

	return expr, nil
}

// commonInitialisms are kept upper case in exported names.
var commonInitialisms = map[string]bool{
	"api": true, "db": true, "html": true, "http": true, "id": true, "ids": true,
	"ip": true, "json": true, "sql": true, "ulid": true, "uri": true, "url": true,
	"uuid": true, "xml": true,
}

// exportedName turns an attribute or class name into an exported Go
// identifier: "author_id" becomes "AuthorID".
func exportedName(s string) string {
	var b strings.Builder

	for _, tok := range match.TokenizeIdent(s) {
		if commonInitialisms[tok] {
			if tok == "ids" {
				b.WriteString("IDs")
			} else {
				b.WriteString(strings.ToUpper(tok))
			}

			continue
		}

		for i, r := range tok {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				continue
			}

			if i == 0 {
				r = unicode.ToUpper(r)
			}

			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "X" + out
	}

	return out
}
