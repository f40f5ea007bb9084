package tree

import (
	"slices"
	"sync"
)

// Store is the arena holding every node of a tree. All methods are safe for
// concurrent use. Writes replace whole nodes, so a reader never observes a
// partially updated node.
type Store struct {
	mu    sync.RWMutex
	nodes []Node
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nodes: make([]Node, 0, 256)}
}

// Allocate appends n and returns its handle. The node's ID is set to the handle.
func (s *Store) Allocate(n Node) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := NodeID(len(s.nodes))
	n.ID = id
	s.nodes = append(s.nodes, n)
	return id
}

// Get returns a snapshot of the node at id.
func (s *Store) Get(id NodeID) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.valid(id) {
		return Node{}, false
	}
	n := s.nodes[id]
	n.Children = slices.Clone(n.Children)
	return n, true
}

// Update replaces the node at id. It reports false if id is unknown.
func (s *Store) Update(id NodeID, n Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid(id) {
		return false
	}
	n.ID = id
	s.nodes[id] = n
	return true
}

// Children returns the child handles of id in stored order.
func (s *Store) Children(id NodeID) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.valid(id) {
		return nil
	}
	return slices.Clone(s.nodes[id].Children)
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Files returns the handles of all file nodes in handle order.
func (s *Store) Files() []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []NodeID
	for i := range s.nodes {
		if s.nodes[i].Kind == File {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

func (s *Store) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(s.nodes)
}
