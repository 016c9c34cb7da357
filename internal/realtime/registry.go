package realtime

import "sync"

// Registry is the in-memory map of live connections partitioned by
// organization, with a secondary index by user. State is intentionally lost
// on restart; reconnecting clients re-admit.
type Registry struct {
	mu     sync.RWMutex
	byOrg  map[string]map[string]*Connection
	byUser map[string]map[string]*Connection
	byID   map[string]*Connection
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byOrg:  make(map[string]map[string]*Connection),
		byUser: make(map[string]map[string]*Connection),
		byID:   make(map[string]*Connection),
	}
}

// Admit registers the connection under its organization partition.
func (r *Registry) Admit(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orgSet := r.byOrg[conn.OrganizationID]
	if orgSet == nil {
		orgSet = make(map[string]*Connection)
		r.byOrg[conn.OrganizationID] = orgSet
	}
	orgSet[conn.ID] = conn

	userSet := r.byUser[conn.UserID]
	if userSet == nil {
		userSet = make(map[string]*Connection)
		r.byUser[conn.UserID] = userSet
	}
	userSet[conn.ID] = conn
	r.byID[conn.ID] = conn
}

// Remove deregisters the connection and reports whether it was present.
// Idempotent: removing an absent connection is a no-op. Empty partitions are
// deleted so the maps never accumulate dead tenants.
func (r *Registry) Remove(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.byID[conn.ID]; !present {
		return false
	}

	if orgSet, ok := r.byOrg[conn.OrganizationID]; ok {
		delete(orgSet, conn.ID)
		if len(orgSet) == 0 {
			delete(r.byOrg, conn.OrganizationID)
		}
	}
	if userSet, ok := r.byUser[conn.UserID]; ok {
		delete(userSet, conn.ID)
		if len(userSet) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
	delete(r.byID, conn.ID)
	return true
}

// Get resolves a connection by id.
func (r *Registry) Get(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byID[connID]
	return conn, ok
}

// LiveConnections returns a snapshot of the organization's partition.
// Iterating the snapshot never races with Admit/Remove; a connection removed
// mid-broadcast may simply miss that one event.
func (r *Registry) LiveConnections(orgID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orgSet := r.byOrg[orgID]
	snapshot := make([]*Connection, 0, len(orgSet))
	for _, conn := range orgSet {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

// ConnectionsForUser returns a snapshot of all connections owned by userID.
// A user may hold several simultaneous connections.
func (r *Registry) ConnectionsForUser(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userSet := r.byUser[userID]
	snapshot := make([]*Connection, 0, len(userSet))
	for _, conn := range userSet {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

// CountInTenant returns the live connection count for presence display.
func (r *Registry) CountInTenant(orgID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOrg[orgID])
}
