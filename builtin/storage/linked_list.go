// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/pkg/errors"

	"github.com/vechain/lsd/lsd"
)

// ListKey is a key usable in a LinkedList. The zero key marks the end of the list.
type ListKey interface {
	comparable
	Key
	IsZero() bool
}

// LinkedList is an insertion ordered set persisted in storage.
type LinkedList[K ListKey] struct {
	head  *Raw[K]
	tail  *Raw[K]
	count *Uint64
	next  *Mapping[K, K]
	prev  *Mapping[K, K]
}

// NewLinkedList creates a new linked list with persistent storage mappings.
func NewLinkedList[K ListKey](context *Context, headPos, tailPos, countPos lsd.Bytes32) *LinkedList[K] {
	return &LinkedList[K]{
		head:  NewRaw[K](context, headPos),
		tail:  NewRaw[K](context, tailPos),
		count: NewUint64(context, countPos),
		next:  NewMapping[K, K](context, headPos),
		prev:  NewMapping[K, K](context, tailPos),
	}
}

// Add appends key to the end of the list.
func (l *LinkedList[K]) Add(key K) error {
	if key.IsZero() {
		return errors.New("zero key")
	}
	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}

	if oldTail.IsZero() {
		// the list is currently empty, set this entry to head & tail
		if err := l.head.Set(key); err != nil {
			return err
		}
		if err := l.tail.Set(key); err != nil {
			return err
		}
		_, err := l.count.Add(1)
		return err
	}

	if err := l.next.Set(oldTail, key); err != nil {
		return err
	}
	if err := l.prev.Set(key, oldTail); err != nil {
		return err
	}
	if err := l.tail.Set(key); err != nil {
		return err
	}
	_, err = l.count.Add(1)
	return err
}

// Contains reports whether key is in the list.
func (l *LinkedList[K]) Contains(key K) (bool, error) {
	if key.IsZero() {
		return false, nil
	}
	prev, err := l.prev.Get(key)
	if err != nil {
		return false, err
	}
	if !prev.IsZero() {
		return true, nil
	}
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	return head == key, nil
}

// Remove unlinks key from anywhere in the list. Removing an absent key is a no-op.
func (l *LinkedList[K]) Remove(key K) error {
	ok, err := l.Contains(key)
	if err != nil || !ok {
		return err
	}

	prev, err := l.prev.Get(key)
	if err != nil {
		return err
	}
	next, err := l.next.Get(key)
	if err != nil {
		return err
	}

	if !prev.IsZero() {
		if err := l.setOrDelete(l.next, prev, next); err != nil {
			return err
		}
	} else if next.IsZero() {
		l.head.Clear()
	} else if err := l.head.Set(next); err != nil {
		return err
	}

	if !next.IsZero() {
		if err := l.setOrDelete(l.prev, next, prev); err != nil {
			return err
		}
	} else if prev.IsZero() {
		l.tail.Clear()
	} else if err := l.tail.Set(prev); err != nil {
		return err
	}

	l.next.Delete(key)
	l.prev.Delete(key)

	_, err = l.count.Sub(1)
	return err
}

func (l *LinkedList[K]) setOrDelete(m *Mapping[K, K], key, value K) error {
	if value.IsZero() {
		m.Delete(key)
		return nil
	}
	return m.Set(key, value)
}

// Head returns the oldest key, zero if the list is empty.
func (l *LinkedList[K]) Head() (K, error) {
	return l.head.Get()
}

// Next returns the successor of key, zero if key is the tail.
func (l *LinkedList[K]) Next(key K) (K, error) {
	return l.next.Get(key)
}

// Len returns the count of keys.
func (l *LinkedList[K]) Len() (uint64, error) {
	return l.count.Get()
}

// Iter traverses the list in insertion order until callback returns an error.
func (l *LinkedList[K]) Iter(callback func(K) error) error {
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}
	for !ptr.IsZero() {
		// read the successor first so callback may remove ptr
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		if err := callback(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}

// Keys returns all keys in insertion order.
func (l *LinkedList[K]) Keys() ([]K, error) {
	var keys []K
	err := l.Iter(func(k K) error {
		keys = append(keys, k)
		return nil
	})
	return keys, err
}
