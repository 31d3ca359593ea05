package station

import (
	"fmt"
	"sort"
)

// PortIdentity maps a UI-facing port number to its hardware address.
type PortIdentity struct {
	Number     int
	DeviceID   string
	DevicePort int
	Label      string
}

// Table is the static port identity mapping, built once from configuration
// and never mutated afterwards.
type Table struct {
	byNumber map[int]PortIdentity
	numbers  []int
}

// NewTable validates identities and builds the lookup table.
func NewTable(identities []PortIdentity) (*Table, error) {
	if len(identities) == 0 {
		return nil, fmt.Errorf("station: port table is empty")
	}

	byNumber := make(map[int]PortIdentity, len(identities))
	numbers := make([]int, 0, len(identities))
	for _, id := range identities {
		if id.DeviceID == "" {
			return nil, fmt.Errorf("station: port %d has no device id", id.Number)
		}
		if _, exists := byNumber[id.Number]; exists {
			return nil, fmt.Errorf("station: duplicate port number %d", id.Number)
		}
		if id.Label == "" {
			id.Label = fmt.Sprintf("Port %d", id.Number)
		}
		byNumber[id.Number] = id
		numbers = append(numbers, id.Number)
	}
	sort.Ints(numbers)

	return &Table{byNumber: byNumber, numbers: numbers}, nil
}

// Lookup returns the identity for a UI port number.
func (t *Table) Lookup(number int) (PortIdentity, bool) {
	id, ok := t.byNumber[number]
	return id, ok
}

// Numbers returns all known port numbers in ascending order.
func (t *Table) Numbers() []int {
	out := make([]int, len(t.numbers))
	copy(out, t.numbers)
	return out
}

// Key returns the hardware map key for an identity.
func (p PortIdentity) Key() PortKey {
	return PortKey{DeviceID: p.DeviceID, Port: p.DevicePort}
}
