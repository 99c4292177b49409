package player

// Registry maps connection ids to connections. It is not safe for concurrent use;
// the hub goroutine is its only user.
type Registry struct {
	conns map[string]*Connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register inserts c, replacing any entry with the same id.
func (r *Registry) Register(c *Connection) {
	r.conns[c.ID] = c
}

// Unregister removes id. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	delete(r.conns, id)
}

// Lookup returns the connection registered under id.
func (r *Registry) Lookup(id string) (*Connection, bool) {
	c, ok := r.conns[id]
	return c, ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.conns)
}

// Each calls fn for every registered connection in unspecified order.
func (r *Registry) Each(fn func(c *Connection)) {
	for _, c := range r.conns {
		fn(c)
	}
}
