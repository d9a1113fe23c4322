// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// First - the node with the lowest key, or nil for an empty tree
func (tree *Tree) First() *Node {
	return tree.root.leftmost()
}

// Last - the node with the highest key, or nil for an empty tree
func (tree *Tree) Last() *Node {
	return tree.root.rightmost()
}

// Next - the node with the next higher key, or nil at the end
func (n *Node) Next() *Node {
	if nil != n.right {
		return n.right.leftmost()
	}
	key := n.key
	for {
		n = n.up
		if nil == n {
			return nil
		}
		if 1 == n.key.Compare(key) { // n.key > key
			return n
		}
	}
}

// Prev - the node with the next lower key, or nil at the start
func (n *Node) Prev() *Node {
	if nil != n.left {
		return n.left.rightmost()
	}
	key := n.key
	for {
		n = n.up
		if nil == n {
			return nil
		}
		if -1 == n.key.Compare(key) { // n.key < key
			return n
		}
	}
}

func (n *Node) leftmost() *Node {
	if nil == n {
		return nil
	}
	for nil != n.left {
		n = n.left
	}
	return n
}

func (n *Node) rightmost() *Node {
	if nil == n {
		return nil
	}
	for nil != n.right {
		n = n.right
	}
	return n
}
