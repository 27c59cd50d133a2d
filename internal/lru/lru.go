// Package lru provides the intrusive recency list shared by the atlas row
// cache and the metrics memo.
package lru

import "iter"

// Node is an element of a List. Keep it to touch or remove the key in O(1).
type Node[K comparable] struct {
	key  K
	prev *Node[K]
	next *Node[K]
}

// List is a doubly-linked list of keys in access order.
// The head is the most recently used, tail is least recently used.
//
// Touching a key is an explicit MoveToFront; nothing is reordered
// implicitly by iteration.
type List[K comparable] struct {
	head *Node[K]
	tail *Node[K]
	len  int
}

// New creates an empty list.
func New[K comparable]() *List[K] {
	return &List[K]{}
}

// Len returns the number of nodes in the list.
func (l *List[K]) Len() int {
	return l.len
}

// PushFront adds key at the front (most recently used) and returns its node.
func (l *List[K]) PushFront(key K) *Node[K] {
	node := &Node[K]{key: key}
	if l.head == nil {
		l.head = node
		l.tail = node
	} else {
		node.next = l.head
		l.head.prev = node
		l.head = node
	}
	l.len++
	return node
}

// MoveToFront moves an existing node to the front.
func (l *List[K]) MoveToFront(node *Node[K]) {
	if node == nil || node == l.head {
		return
	}

	l.unlink(node)

	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

// Remove removes a node from the list.
func (l *List[K]) Remove(node *Node[K]) {
	if node == nil {
		return
	}
	l.unlink(node)
}

// RemoveOldest removes and returns the least recently used key.
func (l *List[K]) RemoveOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	node := l.tail
	l.unlink(node)
	return node.key, true
}

// All iterates keys from most to least recently used.
func (l *List[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for n := l.head; n != nil; {
			next := n.next
			if !yield(n.key) {
				return
			}
			n = next
		}
	}
}

// Backward iterates keys from least to most recently used.
// The yielded node may be removed during iteration.
func (l *List[K]) Backward() iter.Seq[K] {
	return func(yield func(K) bool) {
		for n := l.tail; n != nil; {
			prev := n.prev
			if !yield(n.key) {
				return
			}
			n = prev
		}
	}
}

// Clear removes all nodes from the list.
func (l *List[K]) Clear() {
	l.head = nil
	l.tail = nil
	l.len = 0
}

// unlink removes a node from the list and clears its pointers.
func (l *List[K]) unlink(node *Node[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	l.len--
}
