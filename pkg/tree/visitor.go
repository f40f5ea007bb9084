package tree

import (
	deierrors "github.com/panbanda/dei/pkg/errors"
)

// Visitor hooks into Walk. Embed BaseVisitor and override only the hooks
// you need.
type Visitor interface {
	// VisitPre runs before the kind-specific hook for every node.
	VisitPre(s *Store, n Node) error
	VisitFile(s *Store, n Node) error
	VisitDirectory(s *Store, n Node) error
	// VisitPost runs after all descendants of n have been visited.
	VisitPost(s *Store, n Node) error
}

// BaseVisitor implements every hook as a no-op.
type BaseVisitor struct{}

func (BaseVisitor) VisitPre(*Store, Node) error       { return nil }
func (BaseVisitor) VisitFile(*Store, Node) error      { return nil }
func (BaseVisitor) VisitDirectory(*Store, Node) error { return nil }
func (BaseVisitor) VisitPost(*Store, Node) error      { return nil }

// Walk visits the subtree at id depth-first: VisitPre, then VisitFile or
// VisitDirectory, then each child in stored order, then VisitPost. The first
// error aborts the walk and is returned.
func Walk(s *Store, id NodeID, v Visitor) error {
	n, ok := s.Get(id)
	if !ok {
		return deierrors.Analysis("node %d not found", id)
	}

	if err := v.VisitPre(s, n); err != nil {
		return err
	}
	switch n.Kind {
	case File:
		if err := v.VisitFile(s, n); err != nil {
			return err
		}
	case Directory:
		if err := v.VisitDirectory(s, n); err != nil {
			return err
		}
	}

	for _, child := range n.Children {
		if err := Walk(s, child, v); err != nil {
			return err
		}
	}

	return v.VisitPost(s, n)
}

// CollectVisitor records the handle of every visited node in pre-order.
type CollectVisitor struct {
	BaseVisitor
	IDs []NodeID
}

func (c *CollectVisitor) VisitPre(_ *Store, n Node) error {
	c.IDs = append(c.IDs, n.ID)
	return nil
}

// FileVisitor calls Fn for every file node accepted by Filter, or every file
// node when Filter is nil.
type FileVisitor struct {
	BaseVisitor
	Filter func(path string) bool
	Fn     func(n Node) error
}

func (f *FileVisitor) VisitFile(_ *Store, n Node) error {
	if f.Filter != nil && !f.Filter(n.Path) {
		return nil
	}
	return f.Fn(n)
}
