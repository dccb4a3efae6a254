// Package gametree holds the branching move/position structure of one
// game: a tree of plies addressed by index paths, with a total priority
// order matching the mainline-first, depth-first reading of the tree.
package gametree

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPath marks a path that does not address a live node, or
	// an operation that is not allowed at the addressed node.
	ErrInvalidPath = errors.New("invalid path")
	// ErrIllegalMove marks a move rejected by the rules engine.
	ErrIllegalMove = errors.New("illegal move")
)

// Mover is the slice of the rules-engine boundary the tree needs: apply
// a move (in any accepted notation) to a FEN position, yielding the
// resulting FEN and the canonical SAN of the move.
type Mover interface {
	ApplyMove(fen, move string) (newFEN, san string, err error)
}

// Node is one ply of a game. Children[0] is the mainline continuation.
// The ID is stable across structural mutation, unlike paths.
type Node struct {
	ID         uuid.UUID
	Move       string // canonical SAN; empty at the root
	FEN        string
	Comment    string
	Annotation Annotation
	Children   []*Node
}

// Tree is a game tree rooted at a starting position. It is not safe for
// concurrent use; the owning tab serializes access.
type Tree struct {
	Root  *Node
	rules Mover
}

// New creates a tree whose root holds the given starting position.
func New(startFEN string, rules Mover) *Tree {
	return &Tree{
		Root:  &Node{ID: uuid.New(), FEN: startFEN},
		rules: rules,
	}
}

// NodeAt resolves a path to its node.
func (t *Tree) NodeAt(p Path) (*Node, error) {
	n := t.Root
	for depth, idx := range p {
		if idx < 0 || idx >= len(n.Children) {
			return nil, fmt.Errorf("%w: index %d at depth %d", ErrInvalidPath, idx, depth)
		}
		n = n.Children[idx]
	}
	return n, nil
}

// AddMove applies a move at the node addressed by p. If the same move
// already exists among the node's children it is reused, otherwise a new
// last child is appended. Returns the path to the resulting node.
func (t *Tree) AddMove(p Path, move string) (Path, error) {
	n, err := t.NodeAt(p)
	if err != nil {
		return nil, err
	}
	newFEN, san, err := t.rules.ApplyMove(n.FEN, move)
	if err != nil {
		return nil, fmt.Errorf("%w: %q at %s", ErrIllegalMove, move, n.FEN)
	}
	for i, child := range n.Children {
		if child.Move == san {
			return p.Child(i), nil
		}
	}
	n.Children = append(n.Children, &Node{
		ID:   uuid.New(),
		Move: san,
		FEN:  newFEN,
	})
	return p.Child(len(n.Children) - 1), nil
}

// DeleteNode removes the subtree rooted at p and renumbers the later
// siblings down by one. Deleting the root is not allowed. On success the
// parent's path is the nearest still-valid location.
func (t *Tree) DeleteNode(p Path) (Path, error) {
	if p.IsRoot() {
		return nil, fmt.Errorf("%w: cannot delete root", ErrInvalidPath)
	}
	parent, err := t.NodeAt(p.Parent())
	if err != nil {
		return nil, err
	}
	idx := p[len(p)-1]
	if idx < 0 || idx >= len(parent.Children) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidPath, idx)
	}
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	return p.Parent(), nil
}

// PromoteVariation moves the node at p to index 0 among its siblings,
// keeping the relative order of the others. Promoting at every ancestor
// level in turn makes any variation the mainline. Returns the node's new
// path.
func (t *Tree) PromoteVariation(p Path) (Path, error) {
	if p.IsRoot() {
		return nil, fmt.Errorf("%w: root has no siblings", ErrInvalidPath)
	}
	parent, err := t.NodeAt(p.Parent())
	if err != nil {
		return nil, err
	}
	idx := p[len(p)-1]
	if idx < 0 || idx >= len(parent.Children) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidPath, idx)
	}
	promoted := parent.Children[idx]
	copy(parent.Children[1:idx+1], parent.Children[:idx])
	parent.Children[0] = promoted
	return p.Parent().Child(0), nil
}

// SetComment replaces the free-text comment at p.
func (t *Tree) SetComment(p Path, text string) error {
	n, err := t.NodeAt(p)
	if err != nil {
		return err
	}
	n.Comment = text
	return nil
}

// SetAnnotation replaces the symbolic annotation at p. A node holds at
// most one annotation; setting the same tag twice is a no-op.
func (t *Tree) SetAnnotation(p Path, tag Annotation) error {
	if !tag.Valid() {
		return fmt.Errorf("unknown annotation %q", tag)
	}
	n, err := t.NodeAt(p)
	if err != nil {
		return err
	}
	n.Annotation = tag
	return nil
}

// FindByID resolves a node's stable identity back to its current path.
func (t *Tree) FindByID(id uuid.UUID) (Path, bool) {
	var walk func(n *Node, p Path) (Path, bool)
	walk = func(n *Node, p Path) (Path, bool) {
		if n.ID == id {
			return p.Clone(), true
		}
		for i, child := range n.Children {
			if found, ok := walk(child, append(p, i)); ok {
				return found, true
			}
		}
		return nil, false
	}
	return walk(t.Root, Root)
}

// MainLine returns the SAN moves along the index-0 chain from the root.
func (t *Tree) MainLine() []string {
	var moves []string
	for n := t.Root; len(n.Children) > 0; n = n.Children[0] {
		moves = append(moves, n.Children[0].Move)
	}
	return moves
}

// LineTo returns the SAN moves from the root to the node at p.
func (t *Tree) LineTo(p Path) ([]string, error) {
	n := t.Root
	moves := make([]string, 0, len(p))
	for depth, idx := range p {
		if idx < 0 || idx >= len(n.Children) {
			return nil, fmt.Errorf("%w: index %d at depth %d", ErrInvalidPath, idx, depth)
		}
		n = n.Children[idx]
		moves = append(moves, n.Move)
	}
	return moves, nil
}
