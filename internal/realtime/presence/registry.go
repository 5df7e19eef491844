// Package presence tracks which live connection belongs to which audience.
// It answers "who should hear this event" for the fan-out router.
package presence

import (
	"sync"
	"time"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

// Connection is one live event stream.
type Connection struct {
	ID        string
	Role      domain.Role
	AccountID string
	JoinedAt  time.Time
}

// Counts is the O(roles) online snapshot.
type Counts struct {
	Total   int                 `json:"total"`
	PerRole map[domain.Role]int `json:"per_role"`
}

// Registry is the explicit, lifecycle-injected replacement for the global
// connection maps: init at process start, Clear at shutdown. For a
// multi-instance deployment this would move to a shared store keyed by
// connection id.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*Connection
	rooms     map[domain.Role]map[string]struct{}
	byAccount map[string]string
	counts    map[domain.Role]int
	now       func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[string]*Connection),
		rooms:     make(map[domain.Role]map[string]struct{}),
		byAccount: make(map[string]string),
		counts:    make(map[domain.Role]int),
		now:       time.Now,
	}
}

// Join subscribes a connection into exactly one role room. A second join
// for the same account supersedes the prior mapping (last writer wins, no
// queuing).
func (r *Registry) Join(connID string, role domain.Role, accountID string) error {
	if !domain.ValidRole(role) {
		return domain.Validationf("unknown role %q", role)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; ok {
		return domain.Conflictf("connection %q already joined", connID)
	}
	r.conns[connID] = &Connection{
		ID:        connID,
		Role:      role,
		AccountID: accountID,
		JoinedAt:  r.now(),
	}
	if r.rooms[role] == nil {
		r.rooms[role] = make(map[string]struct{})
	}
	r.rooms[role][connID] = struct{}{}
	r.counts[role]++
	if accountID != "" {
		r.byAccount[accountID] = connID
	}
	return nil
}

// Leave is idempotent; it also clears the account mapping if this
// connection still owns it.
func (r *Registry) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	delete(r.rooms[c.Role], connID)
	r.counts[c.Role]--
	if c.AccountID != "" && r.byAccount[c.AccountID] == connID {
		delete(r.byAccount, c.AccountID)
	}
}

// MembersOf lists the connections in a role room.
func (r *Registry) MembersOf(role domain.Role) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rooms[role]))
	for id := range r.rooms[role] {
		out = append(out, id)
	}
	return out
}

// ConnectionFor resolves an account's single active connection.
func (r *Registry) ConnectionFor(accountID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byAccount[accountID]
	return id, ok
}

// All lists every live connection.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// OnlineCounts reads the running counters; it never walks the connections.
func (r *Registry) OnlineCounts() Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	per := make(map[domain.Role]int, len(r.counts))
	total := 0
	for role, n := range r.counts {
		if n > 0 {
			per[role] = n
		}
		total += n
	}
	return Counts{Total: total, PerRole: per}
}

// Clear drops all state at shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = make(map[string]*Connection)
	r.rooms = make(map[domain.Role]map[string]struct{})
	r.byAccount = make(map[string]string)
	r.counts = make(map[domain.Role]int)
}
