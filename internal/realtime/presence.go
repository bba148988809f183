package realtime

import "sync"

// ConnectionHandle is an opaque reference to one live connection. A user may
// hold several at once (tabs, devices).
type ConnectionHandle string

// PresenceRegistry tracks which users currently have at least one live
// connection. State is process-local and non-durable: it starts empty and is
// never persisted. It never fails, it only reflects state.
type PresenceRegistry struct {
	mu     sync.RWMutex
	online map[uint]map[ConnectionHandle]struct{}
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{online: make(map[uint]map[ConnectionHandle]struct{})}
}

// Register adds a handle under userID, making the user visible as online.
func (p *PresenceRegistry) Register(userID uint, handle ConnectionHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles, ok := p.online[userID]
	if !ok {
		handles = make(map[ConnectionHandle]struct{})
		p.online[userID] = handles
	}
	handles[handle] = struct{}{}
}

// Unregister removes exactly that handle; removing the last one takes the
// user offline. Unregistering an absent handle is a no-op, since disconnect
// notifications can race with explicit logout.
func (p *PresenceRegistry) Unregister(userID uint, handle ConnectionHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles, ok := p.online[userID]
	if !ok {
		return
	}
	delete(handles, handle)
	if len(handles) == 0 {
		// Removed under the same lock so an empty handle set is never
		// observable as online.
		delete(p.online, userID)
	}
}

// IsOnline reports whether the user has at least one live connection.
func (p *PresenceRegistry) IsOnline(userID uint) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.online[userID]) > 0
}

// Snapshot returns a point-in-time copy of who is online. Callers must not
// assume it stays current.
func (p *PresenceRegistry) Snapshot() map[uint]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make(map[uint]bool, len(p.online))
	for userID := range p.online {
		snapshot[userID] = true
	}
	return snapshot
}
