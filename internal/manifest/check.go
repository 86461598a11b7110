package manifest

import (
	"crucible/internal/diagnostic"
)

// Check compares the current schema against the locked one. Every
// difference is an error diagnostic with code manifest_drift.
func Check(locked, current *Manifest) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}

	for _, cls := range current.Classes {
		old, ok := locked.Class(cls.Name)
		if !ok {
			res.AddError(diagnostic.CodeManifestDrift, cls.Name, "", "class is not in the manifest")

			continue
		}

		checkClass(res, old, &cls)
	}

	for _, cls := range locked.Classes {
		if _, ok := current.Class(cls.Name); !ok {
			res.AddError(diagnostic.CodeManifestDrift, cls.Name, "", "class was removed")
		}
	}

	return res
}

func checkClass(res *diagnostic.Diagnostics, old, cur *Class) {
	changed := func(field, what, was, is string) {
		if was != is {
			res.Errorf(diagnostic.CodeManifestDrift, cur.Name, field, "%s changed from %q to %q", what, was, is)
		}
	}

	changed("", "mode", old.Mode, cur.Mode)
	changed("", "table", old.Table, cur.Table)
	changed("", "parent", old.Parent, cur.Parent)
	changed("", "discriminator", old.Discriminator, cur.Discriminator)
	changed("", "identity", old.Identity, cur.Identity)

	for _, attr := range cur.Attributes {
		was, ok := old.Attribute(attr.Name)
		if !ok {
			res.AddError(diagnostic.CodeManifestDrift, cur.Name, attr.Name, "attribute is not in the manifest")

			continue
		}

		if *was != attr {
			changed(attr.Name, "kind", was.Kind, attr.Kind)
			changed(attr.Name, "type", was.Type, attr.Type)
			changed(attr.Name, "column", was.Column, attr.Column)
			changed(attr.Name, "foreign key", was.ForeignKey, attr.ForeignKey)
			changed(attr.Name, "target", was.Target, attr.Target)
			changed(attr.Name, "back reference", was.BackPopulates, attr.BackPopulates)

			if was.PrimaryKey != attr.PrimaryKey || was.Nullable != attr.Nullable {
				res.AddError(diagnostic.CodeManifestDrift, cur.Name, attr.Name, "column constraints changed")
			}
		}
	}

	for _, attr := range old.Attributes {
		if _, ok := cur.Attribute(attr.Name); !ok {
			res.AddError(diagnostic.CodeManifestDrift, cur.Name, attr.Name, "attribute was removed")
		}
	}
}
