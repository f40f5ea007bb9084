package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deierrors "github.com/panbanda/dei/pkg/errors"
)

// root/
//   a.go
//   sub/
//     b.go
//   c.go
func buildSample(t *testing.T) (*Store, NodeID) {
	t.Helper()
	s := NewStore()
	root := s.Allocate(Node{Kind: Directory, Name: "root", Parent: NoParent})
	a := s.Allocate(Node{Kind: File, Name: "a.go", Path: "root/a.go", Parent: root, Depth: 1})
	sub := s.Allocate(Node{Kind: Directory, Name: "sub", Parent: root, Depth: 1})
	b := s.Allocate(Node{Kind: File, Name: "b.go", Path: "root/sub/b.go", Parent: sub, Depth: 2})
	c := s.Allocate(Node{Kind: File, Name: "c.go", Path: "root/c.go", Parent: root, Depth: 1})

	subNode, _ := s.Get(sub)
	subNode.Children = []NodeID{b}
	s.Update(sub, subNode)

	rootNode, _ := s.Get(root)
	rootNode.Children = []NodeID{a, sub, c}
	s.Update(root, rootNode)
	return s, root
}

type traceVisitor struct {
	BaseVisitor
	events []string
	failOn string
}

func (v *traceVisitor) VisitFile(_ *Store, n Node) error {
	v.events = append(v.events, "file:"+n.Name)
	if n.Name == v.failOn {
		return errors.New("boom")
	}
	return nil
}

func (v *traceVisitor) VisitDirectory(_ *Store, n Node) error {
	v.events = append(v.events, "dir:"+n.Name)
	return nil
}

func (v *traceVisitor) VisitPost(_ *Store, n Node) error {
	v.events = append(v.events, "post:"+n.Name)
	return nil
}

func TestWalkOrder(t *testing.T) {
	s, root := buildSample(t)
	v := &traceVisitor{}

	require.NoError(t, Walk(s, root, v))

	assert.Equal(t, []string{
		"dir:root",
		"file:a.go", "post:a.go",
		"dir:sub",
		"file:b.go", "post:b.go",
		"post:sub",
		"file:c.go", "post:c.go",
		"post:root",
	}, v.events)
}

func TestWalkAbortsOnError(t *testing.T) {
	s, root := buildSample(t)
	v := &traceVisitor{failOn: "b.go"}

	err := Walk(s, root, v)

	require.EqualError(t, err, "boom")
	assert.NotContains(t, v.events, "file:c.go")
	assert.NotContains(t, v.events, "post:root")
}

func TestWalkMissingHandle(t *testing.T) {
	s := NewStore()
	root := s.Allocate(Node{Kind: Directory, Children: []NodeID{7}})

	err := Walk(s, root, &BaseVisitor{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, deierrors.ErrAnalysis))
}

func TestCollectVisitor(t *testing.T) {
	s, root := buildSample(t)
	c := &CollectVisitor{}

	require.NoError(t, Walk(s, root, c))
	assert.Equal(t, []NodeID{0, 1, 2, 3, 4}, c.IDs)
}

func TestFileVisitorFilter(t *testing.T) {
	s, root := buildSample(t)
	var seen []string
	v := &FileVisitor{
		Filter: func(path string) bool { return path != "root/a.go" },
		Fn: func(n Node) error {
			seen = append(seen, n.Name)
			return nil
		},
	}

	require.NoError(t, Walk(s, root, v))
	assert.Equal(t, []string{"b.go", "c.go"}, seen)
}
