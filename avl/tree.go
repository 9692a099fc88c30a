// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package avl - a self balancing binary search tree
//
// keys are ordered by their Compare method, giving an in-order
// traversal from the lowest to the highest key
package avl

// Item - a key item must implement the Compare function
type Item interface {
	Compare(interface{}) int // for left/right ordering of items
}

// Node - a node in the tree
type Node struct {
	left    *Node       // left sub-tree
	right   *Node       // right sub-tree
	up      *Node       // points to parent node
	key     Item        // key part for ordering
	value   interface{} // value part for data storage
	balance int         // -1, 0, +1
}

// Tree - type to hold the root node of a tree
type Tree struct {
	root  *Node
	count int
}

// New - create an initially empty tree
func New() *Tree {
	return &Tree{}
}

// IsEmpty - true if tree contains no data
func (tree *Tree) IsEmpty() bool {
	return nil == tree.root
}

// Count - number of nodes currently in the tree
func (tree *Tree) Count() int {
	return tree.count
}

// Key - read the key from a node item
func (p *Node) Key() Item {
	return p.key
}

// Value - read the value from a node item
func (p *Node) Value() interface{} {
	return p.value
}

// Search - find the node for a specific key, nil if not present
func (tree *Tree) Search(key Item) *Node {
	p := tree.root
	for nil != p {
		switch p.key.Compare(key) {
		case +1: // p.key > key
			p = p.left
		case -1: // p.key < key
			p = p.right
		default:
			return p
		}
	}
	return nil
}

// First - return the node with the lowest key value
func (tree *Tree) First() *Node {
	return tree.root.first()
}

// internal: lowest node in a sub-tree
func (tree *Node) first() *Node {
	if nil == tree {
		return nil
	}
	for nil != tree.left {
		tree = tree.left
	}
	return tree
}

// Last - return the node with the highest key value
func (tree *Tree) Last() *Node {
	return tree.root.last()
}

// internal: highest node in a sub-tree
func (tree *Node) last() *Node {
	if nil == tree {
		return nil
	}
	for nil != tree.right {
		tree = tree.right
	}
	return tree
}

// Next - given a node, return the node with the next highest key
// value or nil if no more nodes
func (tree *Node) Next() *Node {
	if nil == tree.right {
		key := tree.key
		for {
			tree = tree.up
			if nil == tree {
				return nil
			}
			if 1 == tree.key.Compare(key) { // tree.key > key
				return tree
			}
		}
	}
	return tree.right.first()
}

// Prev - given a node, return the node with the next lowest key
// value or nil if no more nodes
func (tree *Node) Prev() *Node {
	if nil == tree.left {
		key := tree.key
		for {
			tree = tree.up
			if nil == tree {
				return nil
			}
			if -1 == tree.key.Compare(key) { // tree.key < key
				return tree
			}
		}
	}
	return tree.left.last()
}
