// Package uploads holds CSV payloads for the duration of an extraction
// session.
//
// Bindings are scoped per session so concurrent users never see each
// other's uploads, and they live only in process memory: a restart discards
// every binding. The registry stores opaque bytes; CSV validity is checked
// by the extraction engine, and size/content-type gating is the HTTP
// layer's job.
package uploads

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Payload is one uploaded CSV associated with a data source.
type Payload struct {
	SourceID   int64
	Filename   string
	Data       []byte
	ReceivedAt time.Time
}

// Registry associates (session, data source) pairs with uploaded payloads.
// Safe for concurrent use.
//
// Create instances with [NewRegistry].
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[int64]Payload
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]map[int64]Payload),
	}
}

// Bind associates a payload with a data source for one session, replacing
// any prior binding for the same source.
func (r *Registry) Bind(session uuid.UUID, p Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bindings, ok := r.sessions[session]
	if !ok {
		bindings = make(map[int64]Payload)
		r.sessions[session] = bindings
	}

	bindings[p.SourceID] = p
}

// Get returns the payload bound to a data source in one session, if any.
func (r *Registry) Get(session uuid.UUID, sourceID int64) (Payload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.sessions[session][sourceID]

	return p, ok
}

// Sources lists the data source IDs with payloads bound in one session,
// in ascending order.
func (r *Registry) Sources(session uuid.UUID) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.sessions[session]))
	for id := range r.sessions[session] {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Clear drops every binding of one session.
func (r *Registry) Clear(session uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, session)
}

// Session returns a read-only view of one session's bindings, suitable for
// handing to the extraction engine.
func (r *Registry) Session(session uuid.UUID) SessionView {
	return SessionView{registry: r, session: session}
}

// SessionView exposes one session's payloads through the single-method
// lookup the extraction engine consumes.
type SessionView struct {
	registry *Registry
	session  uuid.UUID
}

// Payload returns the payload bound to the given data source, if any.
func (v SessionView) Payload(sourceID int64) (Payload, bool) {
	return v.registry.Get(v.session, sourceID)
}
