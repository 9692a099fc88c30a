// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl_test

import (
	"strings"
	"testing"

	"github.com/bvault/bvaultd/avl"
)

// a key type for testing
type stringItem struct {
	s string
}

func (s stringItem) Compare(x interface{}) int {
	return strings.Compare(s.s, x.(stringItem).s)
}

func (s stringItem) String() string {
	return s.s
}

// all unique keys, deliberately out of order
var testData = []string{
	"QgdO", "3wMO", "Ba7P", "plz6", "2RJV", "6dSy", "HNN5", "Z2SH",
	"flBX", "uU1O", "f9sD", "SQgS", "KXvv", "oydd", "2Rd2", "ucwl",
	"7nDo", "B2soL", "9F2b", "PHHu",
}

func buildTree(t *testing.T, keys []string) *avl.Tree {
	tree := avl.New()
	for i, key := range keys {
		added := tree.Insert(stringItem{key}, i)
		if !added {
			t.Fatalf("duplicate key: %q", key)
		}
	}
	return tree
}

func inorderKeys(tree *avl.Tree) []string {
	keys := []string{}
	for p := tree.First(); nil != p; p = p.Next() {
		keys = append(keys, p.Key().(stringItem).s)
	}
	return keys
}

func checkSorted(t *testing.T, keys []string, expectedCount int) {
	if len(keys) != expectedCount {
		t.Fatalf("traversal returned %d keys, expected %d", len(keys), expectedCount)
	}
	for i := 1; i < len(keys); i += 1 {
		if strings.Compare(keys[i-1], keys[i]) >= 0 {
			t.Fatalf("out of order: %q before %q", keys[i-1], keys[i])
		}
	}
}

func TestInsertTraverse(t *testing.T) {
	tree := buildTree(t, testData)

	if tree.IsEmpty() {
		t.Fatal("tree is empty")
	}
	if tree.Count() != len(testData) {
		t.Fatalf("count: %d, expected: %d", tree.Count(), len(testData))
	}

	checkSorted(t, inorderKeys(tree), len(testData))

	// reverse traversal must give the same keys backwards
	reverse := []string{}
	for p := tree.Last(); nil != p; p = p.Prev() {
		reverse = append(reverse, p.Key().(stringItem).s)
	}
	forward := inorderKeys(tree)
	for i, key := range reverse {
		if forward[len(forward)-1-i] != key {
			t.Fatalf("reverse traversal mismatch at %d: %q", i, key)
		}
	}
}

func TestSearch(t *testing.T) {
	tree := buildTree(t, testData)

	for i, key := range testData {
		node := tree.Search(stringItem{key})
		if nil == node {
			t.Fatalf("missing key: %q", key)
		}
		if node.Value().(int) != i {
			t.Fatalf("key %q value: %v, expected: %d", key, node.Value(), i)
		}
	}

	if nil != tree.Search(stringItem{"no-such-key"}) {
		t.Fatal("found a key that was never inserted")
	}
}

func TestInsertReplaces(t *testing.T) {
	tree := avl.New()
	if !tree.Insert(stringItem{"key"}, "one") {
		t.Fatal("first insert did not add")
	}
	if tree.Insert(stringItem{"key"}, "two") {
		t.Fatal("duplicate insert reported as added")
	}
	if tree.Count() != 1 {
		t.Fatalf("count: %d, expected 1", tree.Count())
	}
	if "two" != tree.Search(stringItem{"key"}).Value().(string) {
		t.Fatal("duplicate insert did not replace the value")
	}
}

func TestDelete(t *testing.T) {
	tree := buildTree(t, testData)

	// remove every second key
	removed := map[string]bool{}
	for i := 0; i < len(testData); i += 2 {
		key := testData[i]
		value := tree.Delete(stringItem{key})
		if value.(int) != i {
			t.Fatalf("delete %q returned: %v, expected: %d", key, value, i)
		}
		removed[key] = true
	}

	expected := len(testData) - len(removed)
	if tree.Count() != expected {
		t.Fatalf("count: %d, expected: %d", tree.Count(), expected)
	}
	checkSorted(t, inorderKeys(tree), expected)

	for key := range removed {
		if nil != tree.Search(stringItem{key}) {
			t.Fatalf("deleted key still present: %q", key)
		}
		if nil != tree.Delete(stringItem{key}) {
			t.Fatalf("second delete of %q returned a value", key)
		}
	}

	// drain the tree completely
	for _, key := range testData {
		tree.Delete(stringItem{key})
	}
	if !tree.IsEmpty() || 0 != tree.Count() {
		t.Fatalf("tree not empty after full delete: count = %d", tree.Count())
	}
}
