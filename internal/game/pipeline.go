// internal/game/pipeline.go
package game

// LeadTime is the number of rounds between placing an order or shipment and its arrival.
const LeadTime = 2

// Pipeline is a fixed-length FIFO of goods or orders in transit. Its length is always
// LeadTime: every Shift removes the head and appends a new tail in one step.
type Pipeline struct {
	slots [LeadTime]int
	head  int
}

// NewPipeline returns a pipeline with every slot set to fill.
func NewPipeline(fill int) Pipeline {
	var p Pipeline
	for i := range p.slots {
		p.slots[i] = fill
	}
	return p
}

// Head returns the value that arrives on the next Shift.
func (p Pipeline) Head() int {
	return p.slots[p.head]
}

// Shift pops the head and pushes in as the new tail, returning the popped value.
func (p *Pipeline) Shift(in int) int {
	out := p.slots[p.head]
	p.slots[p.head] = in
	p.head = (p.head + 1) % LeadTime
	return out
}

// Slots returns the in-transit values ordered from head to tail.
func (p Pipeline) Slots() []int {
	out := make([]int, LeadTime)
	for i := range out {
		out[i] = p.slots[(p.head+i)%LeadTime]
	}
	return out
}

// Sum returns the total quantity in transit.
func (p Pipeline) Sum() int {
	total := 0
	for _, v := range p.slots {
		total += v
	}
	return total
}
