// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package avl implements an insert-only, height-balanced binary search tree.
//
// The ordering is not derived from the item type, it is supplied as an
// explicit three-way comparison function at construction. Searches take a
// probe function instead of an item, this allows point-in-interval queries
// where the probe is not of the stored type:
//
//	probe(item) < 0  descend left
//	probe(item) > 0  descend right
//	probe(item) == 0 match, stop
//
// The tree has no delete, it is built once and read many times.
// Concurrent searches are safe as long as no Insert runs concurrently.
package avl

import "iter"

// Tree is an AVL tree of items T.
type Tree[T any] struct {
	root *node[T]
	cmp  func(a, b T) int
	size int
}

type node[T any] struct {
	item   T
	left   *node[T]
	right  *node[T]
	height int8
}

// New returns an empty tree ordered by cmp.
// cmp must return a negative number when a < b, a positive number
// when a > b and zero when a == b.
func New[T any](cmp func(a, b T) int) *Tree[T] {
	if cmp == nil {
		panic("avl: nil compare func")
	}
	return &Tree[T]{cmp: cmp}
}

// Len returns the number of items in the tree.
func (t *Tree[T]) Len() int {
	return t.size
}

// Height returns the height of the tree, 0 for an empty tree.
func (t *Tree[T]) Height() int {
	return int(t.root.getHeight())
}

// Insert adds item to the tree. Items comparing equal to an
// existing item are inserted to the right of it, nothing is replaced.
func (t *Tree[T]) Insert(item T) {
	t.root = t.insert(t.root, item)
	t.size++
}

func (t *Tree[T]) insert(n *node[T], item T) *node[T] {
	if n == nil {
		return &node[T]{item: item, height: 1}
	}

	if t.cmp(item, n.item) < 0 {
		n.left = t.insert(n.left, item)
	} else {
		n.right = t.insert(n.right, item)
	}

	return n.rebalance()
}

// Search descends from the root guided by probe and returns the
// first item for which probe returns 0.
func (t *Tree[T]) Search(probe func(item T) int) (item T, ok bool) {
	n := t.root
	for n != nil {
		switch c := probe(n.item); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.item, true
		}
	}
	return item, false
}

// All returns an iterator over all items in ascending order.
func (t *Tree[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		t.root.allRec(yield)
	}
}

// allRec, in-order traversal, returns false if yield asked to stop.
func (n *node[T]) allRec(yield func(T) bool) bool {
	if n == nil {
		return true
	}
	return n.left.allRec(yield) && yield(n.item) && n.right.allRec(yield)
}

// ###################################################################

func (n *node[T]) getHeight() int8 {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *node[T]) balance() int8 {
	return n.left.getHeight() - n.right.getHeight()
}

func (n *node[T]) fixHeight() {
	n.height = max(n.left.getHeight(), n.right.getHeight()) + 1
}

//	    n            l
//	   / \          / \
//	  l   c  =>    a   n
//	 / \              / \
//	a   b            b   c
func (n *node[T]) rotateRight() *node[T] {
	l := n.left
	n.left = l.right
	l.right = n

	n.fixHeight()
	l.fixHeight()
	return l
}

//	  n                r
//	 / \              / \
//	a   r     =>     n   c
//	   / \          / \
//	  b   c        a   b
func (n *node[T]) rotateLeft() *node[T] {
	r := n.right
	n.right = r.left
	r.left = n

	n.fixHeight()
	r.fixHeight()
	return r
}

// rebalance restores the AVL invariant |balance| <= 1 at n
// and returns the new subtree root.
func (n *node[T]) rebalance() *node[T] {
	n.fixHeight()

	switch b := n.balance(); {
	case b > 1:
		// left-right case
		if n.left.balance() < 0 {
			n.left = n.left.rotateLeft()
		}
		return n.rotateRight()

	case b < -1:
		// right-left case
		if n.right.balance() > 0 {
			n.right = n.right.rotateRight()
		}
		return n.rotateLeft()
	}

	return n
}
