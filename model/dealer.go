package model

// dealer tracks relationships waiting for their target class to finish
// building.
type dealer struct {
	needs map[Source][]*Attribute
	done  map[Source]*Class
}

// Needs parks attr until target is done. It reports false when target is
// already done and attr was linked right away.
func (d *dealer) Needs(target Source, attr *Attribute) bool {
	if cls, ok := d.done[target]; ok {
		attr.Target = cls

		return false
	}

	if d.needs == nil {
		d.needs = make(map[Source][]*Attribute)
	}

	d.needs[target] = append(d.needs[target], attr)

	return true
}

// Done links every attribute parked on target to cls.
func (d *dealer) Done(target Source, cls *Class) {
	if d.done == nil {
		d.done = make(map[Source]*Class)
	}

	d.done[target] = cls

	for _, attr := range d.needs[target] {
		attr.Target = cls
	}

	delete(d.needs, target)
}

// Pending reports the number of attributes still waiting.
func (d *dealer) Pending() int {
	n := 0
	for _, attrs := range d.needs {
		n += len(attrs)
	}

	return n
}
