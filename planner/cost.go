package planner

import "fmt"

// Cost is the estimated cost of executing a node. Only relative order matters: the
// search compares costs with Less and nothing else.
type Cost struct {
	Rows float64 // estimated number of output rows
	CPU  float64 // per-row processing work
	IO   float64 // external reads
}

// TinyCost is the minimal fixed cost reported by literal row generators.
var TinyCost = Cost{Rows: 1, CPU: 1}

// Add combines two costs.
func (c Cost) Add(other Cost) Cost {
	return Cost{
		Rows: c.Rows + other.Rows,
		CPU:  c.CPU + other.CPU,
		IO:   c.IO + other.IO,
	}
}

// Total collapses the cost into a single comparable number.
func (c Cost) Total() float64 {
	return c.CPU + c.IO
}

// Less returns true if c is cheaper than other.
func (c Cost) Less(other Cost) bool {
	if c.Total() != other.Total() {
		return c.Total() < other.Total()
	}
	return c.Rows < other.Rows
}

func (c Cost) String() string {
	return fmt.Sprintf("{rows=%g cpu=%g io=%g}", c.Rows, c.CPU, c.IO)
}
