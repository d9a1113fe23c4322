// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package avl - a balanced binary search tree
//
// the ordered index behind the transaction pool's priority queue;
// nodes carry parent links so callers can walk the tree in key order
// from either end without extra state
package avl

// Item - a key must implement the Compare function
type Item interface {
	Compare(interface{}) int // for left/right ordering of items
}

// Node - an element of the tree
type Node struct {
	left    *Node
	right   *Node
	up      *Node
	key     Item
	value   interface{}
	balance int // -1, 0, +1
}

// Key - read the key from a node
func (n *Node) Key() Item {
	return n.key
}

// Value - read the value from a node
func (n *Node) Value() interface{} {
	return n.value
}

// Tree - the root of a tree
type Tree struct {
	root  *Node
	count int
}

// New - create an initially empty tree
func New() *Tree {
	return &Tree{}
}

// IsEmpty - true if the tree holds no items
func (tree *Tree) IsEmpty() bool {
	return nil == tree.root
}

// Count - number of items currently in the tree
func (tree *Tree) Count() int {
	return tree.count
}

// Search - find the node for a specific key
func (tree *Tree) Search(key Item) *Node {
	n := tree.root
	for nil != n {
		switch n.key.Compare(key) {
		case +1: // n.key > key
			n = n.left
		case -1: // n.key < key
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// Insert - add a key/value pair to the tree
//
// an existing key has its value replaced; returns true if a new node
// was created
func (tree *Tree) Insert(key Item, value interface{}) bool {
	root, added, _ := insert(tree.root, key, value)
	tree.root = root
	if added {
		tree.count += 1
	}
	return added
}

// recursive insert, returns the possibly new sub-tree root, whether
// a node was added and whether the sub-tree height increased
func insert(n *Node, key Item, value interface{}) (*Node, bool, bool) {
	if nil == n {
		return &Node{key: key, value: value}, true, true
	}

	added := false
	grew := false
	switch n.key.Compare(key) {
	case +1: // n.key > key
		n.left, added, grew = insert(n.left, key, value)
		if grew {
			n.left.up = n
			switch n.balance {
			case +1:
				n.balance = 0
				grew = false
			case 0:
				n.balance = -1
			default: // the left branch became two higher
				n = rebalanceLeftGrowth(n)
				grew = false
			}
		}

	case -1: // n.key < key
		n.right, added, grew = insert(n.right, key, value)
		if grew {
			n.right.up = n
			switch n.balance {
			case -1:
				n.balance = 0
				grew = false
			case 0:
				n.balance = +1
			default: // the right branch became two higher
				n = rebalanceRightGrowth(n)
				grew = false
			}
		}

	default:
		n.value = value
	}
	return n, added, grew
}

// restore balance after the left branch of n grew; n.balance is -1
// and the growth made the difference two
func rebalanceLeftGrowth(n *Node) *Node {
	c := n.left
	if -1 == c.balance {
		// single rotation to the right
		n.left = c.right
		c.right = n

		n.balance = 0
		c.balance = 0

		c.up = n.up
		n.up = c
		if nil != n.left {
			n.left.up = n
		}
		return c
	}

	// double rotation: left child left, n right
	g := c.right
	c.right = g.left
	g.left = c
	n.left = g.right
	g.right = n

	if -1 == g.balance {
		n.balance = +1
	} else {
		n.balance = 0
	}
	if +1 == g.balance {
		c.balance = -1
	} else {
		c.balance = 0
	}
	g.balance = 0

	if nil != n.left {
		n.left.up = n
	}
	if nil != c.right {
		c.right.up = c
	}
	g.up = n.up
	n.up = g
	c.up = g
	return g
}

// mirror image of rebalanceLeftGrowth
func rebalanceRightGrowth(n *Node) *Node {
	c := n.right
	if +1 == c.balance {
		// single rotation to the left
		n.right = c.left
		c.left = n

		n.balance = 0
		c.balance = 0

		c.up = n.up
		n.up = c
		if nil != n.right {
			n.right.up = n
		}
		return c
	}

	// double rotation: right child right, n left
	g := c.left
	c.left = g.right
	g.right = c
	n.right = g.left
	g.left = n

	if +1 == g.balance {
		n.balance = -1
	} else {
		n.balance = 0
	}
	if -1 == g.balance {
		c.balance = +1
	} else {
		c.balance = 0
	}
	g.balance = 0

	if nil != n.right {
		n.right.up = n
	}
	if nil != c.left {
		c.left.up = c
	}
	g.up = n.up
	n.up = g
	c.up = g
	return g
}

// Delete - remove the node for a specific key
//
// returns the stored value, or nil if the key was not present
func (tree *Tree) Delete(key Item) interface{} {
	value, removed, _ := remove(&tree.root, key)
	if removed {
		tree.count -= 1
	}
	return value
}

// recursive delete, reports whether the sub-tree height decreased
func remove(np **Node, key Item) (interface{}, bool, bool) {
	n := *np
	if nil == n { // key not in tree
		return nil, false, false
	}

	value := interface{}(nil)
	removed := false
	shrunk := false
	switch n.key.Compare(key) {
	case +1: // n.key > key
		value, removed, shrunk = remove(&n.left, key)
		if shrunk {
			shrunk = rebalanceLeftShrink(np)
		}

	case -1: // n.key < key
		value, removed, shrunk = remove(&n.right, key)
		if shrunk {
			shrunk = rebalanceRightShrink(np)
		}

	default: // found
		value = n.value
		removed = true
		if nil == n.right {
			if nil != n.left {
				n.left.up = n.up
			}
			*np = n.left
			shrunk = true
		} else if nil == n.left {
			n.right.up = n.up
			*np = n.right
			shrunk = true
		} else {
			// two children: splice the in-order predecessor
			// into this position
			shrunk = splicePredecessor(np, &n.left)
			(*np).left = n.left
			if shrunk {
				shrunk = rebalanceLeftShrink(np)
			}
		}
	}
	return value, removed, shrunk
}

// walk to the rightmost node of the deleted node's left branch and
// move it up into the vacated position
func splicePredecessor(np **Node, rp **Node) bool {
	r := *rp
	if nil != r.right {
		shrunk := splicePredecessor(np, &r.right)
		if shrunk {
			shrunk = rebalanceRightShrink(rp)
		}
		return shrunk
	}

	n := *np
	remainder := r.left
	if nil != remainder {
		remainder.up = r.up
	}

	if r != n.left {
		r.left = n.left
	}
	r.right = n.right
	r.up = n.up
	r.balance = n.balance

	if nil != r.right {
		r.right.up = r
	}
	if nil != r.left {
		r.left.up = r
	}

	*np = r
	*rp = remainder
	return true
}

// restore balance after the left branch of *np shrank; reports
// whether the height of the whole sub-tree decreased
func rebalanceLeftShrink(np **Node) bool {
	n := *np
	switch n.balance {
	case -1:
		n.balance = 0
		return true
	case 0:
		n.balance = +1
		return false
	}

	// the right branch is now two higher
	c := n.right
	if c.balance >= 0 {
		// single rotation to the left
		n.right = c.left
		c.left = n

		shrunk := true
		if 0 == c.balance {
			n.balance = +1
			c.balance = -1
			shrunk = false
		} else {
			n.balance = 0
			c.balance = 0
		}

		c.up = n.up
		n.up = c
		if nil != n.right {
			n.right.up = n
		}

		*np = c
		return shrunk
	}

	// double rotation: right child right, n left
	g := c.left
	c.left = g.right
	g.right = c
	n.right = g.left
	g.left = n

	if +1 == g.balance {
		n.balance = -1
	} else {
		n.balance = 0
	}
	if -1 == g.balance {
		c.balance = +1
	} else {
		c.balance = 0
	}
	g.balance = 0

	g.up = n.up
	if nil != n.right {
		n.right.up = n
	}
	if nil != c.left {
		c.left.up = c
	}
	n.up = g
	c.up = g

	*np = g
	return true
}

// mirror image of rebalanceLeftShrink
func rebalanceRightShrink(np **Node) bool {
	n := *np
	switch n.balance {
	case +1:
		n.balance = 0
		return true
	case 0:
		n.balance = -1
		return false
	}

	// the left branch is now two higher
	c := n.left
	if c.balance <= 0 {
		// single rotation to the right
		n.left = c.right
		c.right = n

		shrunk := true
		if 0 == c.balance {
			n.balance = -1
			c.balance = +1
			shrunk = false
		} else {
			n.balance = 0
			c.balance = 0
		}

		c.up = n.up
		n.up = c
		if nil != n.left {
			n.left.up = n
		}

		*np = c
		return shrunk
	}

	// double rotation: left child left, n right
	g := c.right
	c.right = g.left
	g.left = c
	n.left = g.right
	g.right = n

	if -1 == g.balance {
		n.balance = +1
	} else {
		n.balance = 0
	}
	if +1 == g.balance {
		c.balance = -1
	} else {
		c.balance = 0
	}
	g.balance = 0

	g.up = n.up
	if nil != n.left {
		n.left.up = n
	}
	if nil != c.right {
		c.right.up = c
	}
	n.up = g
	c.up = g

	*np = g
	return true
}
