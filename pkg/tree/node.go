// Package tree holds the arena-backed filesystem tree analyzed by dei.
package tree

import (
	"path/filepath"

	"github.com/panbanda/dei/pkg/models"
)

// NodeID is a handle into a Store: the node's position in the arena.
//
// Handles carry no generation counter. Nodes are never removed during a
// run, so a handle stays valid for the lifetime of the Store that issued
// it, but it is meaningless in any other Store.
type NodeID int

// NoParent is the Parent of a root node.
const NoParent NodeID = -1

// Kind distinguishes directories from files.
type Kind int

const (
	Directory Kind = iota
	File
)

func (k Kind) String() string {
	if k == File {
		return "file"
	}
	return "directory"
}

// Node is one directory or file. The builder sets the structural fields
// once; the analysis engine only ever fills Metrics, Results and GodFile.
type Node struct {
	ID       NodeID
	Kind     Kind
	Path     string
	Name     string
	Depth    int
	Parent   NodeID
	Children []NodeID

	Metrics *models.FileMetrics
	Results []models.AnalysisResult
	GodFile *models.GodFileResult
}

// IsFile reports whether the node is a file.
func (n *Node) IsFile() bool { return n.Kind == File }

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Kind == Directory }

// HasParent reports whether the node has a parent.
func (n *Node) HasParent() bool { return n.Parent != NoParent }

// Ext returns the file extension including the dot.
func (n *Node) Ext() string { return filepath.Ext(n.Path) }
