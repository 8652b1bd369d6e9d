// Package registry maps user-chosen symbolic ids to remote-assigned ids.
//
// The registry is scoped to a single injection run. Within an entity kind,
// symbolic ids are unique across the whole document; the registry enforces
// that by rejecting a second registration of the same (kind, id) pair.
package registry

import (
	"fmt"
	"strings"
	"sync"
)

// Kind identifies an entity kind. Each kind has its own symbolic-id
// namespace.
type Kind string

const (
	Group     Kind = "group"
	Project   Kind = "project"
	Label     Kind = "label"
	Epic      Kind = "epic"
	Iteration Kind = "iteration"
	Milestone Kind = "milestone"
	Issue     Kind = "issue"
	Member    Kind = "member"
	User      Kind = "user"
)

// Kinds lists every entity kind in traversal order, for stable reporting.
var Kinds = []Kind{User, Group, Label, Epic, Iteration, Milestone, Member, Project, Issue}

// Title returns the kind name in title case, as used in warning messages.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// DuplicateIDError reports a second registration of an already-mapped
// symbolic id. RemoteID is the remote id the first registration produced.
type DuplicateIDError struct {
	Kind     Kind
	ID       string
	RemoteID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s id='%s' is already mapped to '%s'", e.Kind.Title(), e.ID, e.RemoteID)
}

// UnresolvedReferenceError reports a reference to a symbolic id that has not
// been registered. Forward references produce this error: only entities
// created earlier in traversal order are resolvable.
type UnresolvedReferenceError struct {
	Kind Kind
	ID   string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s id='%s' not found in %s map", e.Kind.Title(), e.ID, e.Kind)
}

// Registry is the run-scoped (kind, symbolic id) -> remote id mapping.
// It is append-only: entries are never updated or removed. Writes are
// serialized so an implementation may read from parallel branches.
type Registry struct {
	mu  sync.Mutex
	ids map[Kind]map[string]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{ids: make(map[Kind]map[string]string)}
}

// Register records the remote id assigned to a symbolic id. It returns a
// *DuplicateIDError if the (kind, id) pair is already registered; the
// existing mapping is kept.
func (r *Registry) Register(kind Kind, id, remoteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.ids[kind]
	if !ok {
		byID = make(map[string]string)
		r.ids[kind] = byID
	}
	if existing, ok := byID[id]; ok {
		return &DuplicateIDError{Kind: kind, ID: id, RemoteID: existing}
	}
	byID[id] = remoteID
	return nil
}

// Resolve returns the remote id registered for a symbolic id, or a
// *UnresolvedReferenceError if the pair is absent.
func (r *Registry) Resolve(kind Kind, id string) (string, error) {
	remoteID, ok := r.Lookup(kind, id)
	if !ok {
		return "", &UnresolvedReferenceError{Kind: kind, ID: id}
	}
	return remoteID, nil
}

// Lookup is Resolve without the error classification.
func (r *Registry) Lookup(kind Kind, id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	remoteID, ok := r.ids[kind][id]
	return remoteID, ok
}
