package aggregates

// Contract names the rows one aggregate may write and the rules it enforces
// while holding its transaction.
type Contract struct {
	Name string
	// Tables lists every table the aggregate mutates. Writes to anything else
	// belong to a table repo outside the aggregate.
	Tables     []string
	Invariants []string
}

// Aggregate is implemented by every write boundary.
type Aggregate interface {
	Contract() Contract
}

// Owns reports whether table is written by the aggregate.
func (c Contract) Owns(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}
