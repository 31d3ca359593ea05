package station

// Board combines the identity table with the cache to answer read queries
// from the view layer. Views are derived on every call, never stored.
type Board struct {
	table *Table
	cache *Cache
}

// NewBoard returns a board over the given table and cache.
func NewBoard(table *Table, cache *Cache) *Board {
	return &Board{table: table, cache: cache}
}

// Views resolves every known port against the current snapshot.
func (b *Board) Views() []PortView {
	snap := b.cache.Snapshot()
	numbers := b.table.Numbers()
	views := make([]PortView, 0, len(numbers))
	for _, n := range numbers {
		id, _ := b.table.Lookup(n)
		views = append(views, Resolve(id, snap))
	}
	return views
}

// View resolves a single port.
func (b *Board) View(number int) (PortView, bool) {
	id, ok := b.table.Lookup(number)
	if !ok {
		return PortView{}, false
	}
	return Resolve(id, b.cache.Snapshot()), true
}
