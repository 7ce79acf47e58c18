package sv

// Callset holds the records of one input file grouped by canonical type.
// Records keep file order within each type.
type Callset struct {
	Name    string
	records map[Type][]*Record
	order   []Type
}

// NewCallset creates an empty callset.
func NewCallset(name string) *Callset {
	return &Callset{
		Name:    name,
		records: make(map[Type][]*Record),
	}
}

// Add appends a record to the slice of its type.
func (c *Callset) Add(r *Record) {
	if _, ok := c.records[r.Type]; !ok {
		c.order = append(c.order, r.Type)
	}
	c.records[r.Type] = append(c.records[r.Type], r)
}

// Records returns the records of type t in file order.
func (c *Callset) Records(t Type) []*Record {
	return c.records[t]
}

// Types returns the types present in the order they were first seen.
func (c *Callset) Types() []Type {
	return c.order
}

// Has reports whether at least one record of type t was added.
func (c *Callset) Has(t Type) bool {
	_, ok := c.records[t]
	return ok
}

// Len returns the total number of records.
func (c *Callset) Len() int {
	n := 0
	for _, rs := range c.records {
		n += len(rs)
	}
	return n
}

// All returns every record, grouped by type in first-seen order.
func (c *Callset) All() []*Record {
	all := make([]*Record, 0, c.Len())
	for _, t := range c.order {
		all = append(all, c.records[t]...)
	}
	return all
}

// Reset clears all Matched flags so the callset can be evaluated again.
func (c *Callset) Reset() {
	for _, rs := range c.records {
		for _, r := range rs {
			r.Matched = false
		}
	}
}
