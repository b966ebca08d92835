package layout

import "github.com/aldric/tavle/internal/models"

// Find returns the leaf with the given id, or nil.
func Find(tree Node, id string) *Leaf {
	switch n := tree.(type) {
	case *Leaf:
		if n.ID == id {
			return n
		}
	case *Split:
		if l := Find(n.First, id); l != nil {
			return l
		}
		return Find(n.Second, id)
	}
	return nil
}

// FindParent returns the split that directly contains the node with
// the given id, along with the child's position (0 for First, 1 for
// Second). For the root node, or an unknown id, it returns (nil, -1).
func FindParent(tree Node, id string) (*Split, int) {
	s, ok := tree.(*Split)
	if !ok {
		return nil, -1
	}
	if s.First.NodeID() == id {
		return s, 0
	}
	if s.Second.NodeID() == id {
		return s, 1
	}
	if p, i := FindParent(s.First, id); p != nil {
		return p, i
	}
	return FindParent(s.Second, id)
}

// Leaves returns every leaf in depth-first order, First before Second.
// This order defines the positional index used by layout persistence.
func Leaves(tree Node) []*Leaf {
	var out []*Leaf
	walk(tree, func(l *Leaf) { out = append(out, l) })
	return out
}

func walk(tree Node, fn func(*Leaf)) {
	switch n := tree.(type) {
	case *Leaf:
		fn(n)
	case *Split:
		walk(n.First, fn)
		walk(n.Second, fn)
	}
}

// Update applies fn to a shallow copy of the leaf with the given id
// and returns a tree containing the result. Only the nodes on the path
// from the root to that leaf are re-allocated; every other subtree is
// shared with the input. When the id is absent the input tree is
// returned unchanged, same reference.
func Update(tree Node, id string, fn func(Leaf) Leaf) Node {
	switch n := tree.(type) {
	case *Leaf:
		if n.ID != id {
			return n
		}
		next := fn(*n)
		next.ID = n.ID
		return &next
	case *Split:
		first := Update(n.First, id, fn)
		second := n.Second
		if first == n.First {
			second = Update(n.Second, id, fn)
		}
		if first == n.First && second == n.Second {
			return n
		}
		clone := *n
		clone.First = first
		clone.Second = second
		return &clone
	}
	return tree
}

// UpdateWhere applies fn to a copy of every leaf matching pred.
// Subtrees with no matching leaves are shared with the input; a tree
// with no matches at all is returned unchanged, same reference.
func UpdateWhere(tree Node, pred func(*Leaf) bool, fn func(Leaf) Leaf) Node {
	switch n := tree.(type) {
	case *Leaf:
		if !pred(n) {
			return n
		}
		next := fn(*n)
		next.ID = n.ID
		return &next
	case *Split:
		first := UpdateWhere(n.First, pred, fn)
		second := UpdateWhere(n.Second, pred, fn)
		if first == n.First && second == n.Second {
			return n
		}
		clone := *n
		clone.First = first
		clone.Second = second
		return &clone
	}
	return tree
}

// Replace substitutes the node with the given id by repl, rebuilding
// only the path from the root. When the id is absent the input tree is
// returned unchanged.
func Replace(tree Node, id string, repl Node) Node {
	if tree.NodeID() == id {
		return repl
	}
	s, ok := tree.(*Split)
	if !ok {
		return tree
	}
	first := Replace(s.First, id, repl)
	second := s.Second
	if first == s.First {
		second = Replace(s.Second, id, repl)
	}
	if first == s.First && second == s.Second {
		return s
	}
	clone := *s
	clone.First = first
	clone.Second = second
	return &clone
}

// SplitLeaf replaces the leaf with the given id by a split holding
// that same leaf as First and a fresh empty leaf as Second, at the
// default ratio. The existing leaf keeps all its state, including its
// id. It returns the new tree and the new empty leaf; when the id does
// not name a leaf the input tree is returned with a nil leaf.
func SplitLeaf(tree Node, id string, dir Direction) (Node, *Leaf) {
	target := Find(tree, id)
	if target == nil {
		return tree, nil
	}
	fresh := NewLeaf()
	s := &Split{
		ID:     models.NewID(),
		Dir:    dir,
		Ratio:  DefaultRatio,
		First:  target,
		Second: fresh,
	}
	return Replace(tree, id, s), fresh
}

// Close removes the leaf with the given id, promoting its sibling into
// the parent's place. Closing the last remaining pane, or an unknown
// id, is a no-op with ok=false. The removed leaf is returned so the
// caller can capture its unsaved state.
func Close(tree Node, id string) (Node, *Leaf, bool) {
	target := Find(tree, id)
	if target == nil {
		return tree, nil, false
	}
	parent, pos := FindParent(tree, id)
	if parent == nil {
		// target is the root: a tree must keep at least one pane.
		return tree, nil, false
	}
	sibling := parent.Second
	if pos == 1 {
		sibling = parent.First
	}
	return Replace(tree, parent.ID, sibling), target, true
}

// SetRatio sets the split ratio of the split with the given id,
// clamped to the allowed range. Unknown ids are a no-op.
func SetRatio(tree Node, id string, ratio int) Node {
	ratio = ClampRatio(ratio)
	switch n := tree.(type) {
	case *Leaf:
		return n
	case *Split:
		if n.ID == id {
			if n.Ratio == ratio {
				return n
			}
			clone := *n
			clone.Ratio = ratio
			return &clone
		}
		first := SetRatio(n.First, id, ratio)
		second := n.Second
		if first == n.First {
			second = SetRatio(n.Second, id, ratio)
		}
		if first == n.First && second == n.Second {
			return n
		}
		clone := *n
		clone.First = first
		clone.Second = second
		return &clone
	}
	return tree
}
