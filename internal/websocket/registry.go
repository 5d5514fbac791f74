package websocket

import "sort"

// Registry maps a user id to the transport currently serving it. At most one
// transport per user; the latest registration wins. It is not safe for
// concurrent use and is owned by the hub loop.
type Registry struct {
	entries map[string]string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]string)}
}

func (r *Registry) Register(userID, transportID string) {
	if userID == "" {
		return
	}
	r.entries[userID] = transportID
}

func (r *Registry) Unregister(userID string) bool {
	if _, ok := r.entries[userID]; !ok {
		return false
	}
	delete(r.entries, userID)
	return true
}

// UnregisterTransport removes the entry only while it still points at
// transportID.
func (r *Registry) UnregisterTransport(userID, transportID string) bool {
	current, ok := r.entries[userID]
	if !ok || current != transportID {
		return false
	}
	delete(r.entries, userID)
	return true
}

func (r *Registry) Lookup(userID string) (string, bool) {
	transportID, ok := r.entries[userID]
	return transportID, ok
}

// OnlineUsers returns the registered user ids in ascending order.
func (r *Registry) OnlineUsers() []string {
	users := make([]string, 0, len(r.entries))
	for userID := range r.entries {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (r *Registry) Len() int {
	return len(r.entries)
}
