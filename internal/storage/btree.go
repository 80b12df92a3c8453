// Package storage implements the disk-backed B+tree that indexes rows by a
// uint32 primary key: page layout (node.go), the row codec (row.go), and
// the tree-level algorithms that cross node boundaries (this file) plus
// the positioned cursor built on top of them (cursor.go).
package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"sqliters/internal/dberr"
	"sqliters/internal/pager"
)

// RootPage is fixed for the lifetime of the database: page 0 is always the
// root, whether it holds a leaf or an internal node.
const RootPage uint32 = 0

// Table owns the pager and exposes the tree operations that work across
// page boundaries.
type Table struct {
	Pager *pager.Pager
}

// Open opens (or creates) the database file at path.
func Open(path string) (*Table, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}
	return &Table{Pager: p}, nil
}

// Close flushes every loaded page and closes the underlying file.
func (t *Table) Close() error {
	return t.Pager.Close()
}

func (t *Table) getNode(pageNum uint32) (Node, error) {
	pg, err := t.Pager.Get(pageNum)
	if err != nil {
		return Node{}, err
	}
	return wrap(pg), nil
}

func (t *Table) peekNode(pageNum uint32) (Node, error) {
	pg, err := t.Pager.Peek(pageNum)
	if err != nil {
		return Node{}, err
	}
	return wrap(pg), nil
}

// Find descends from the root and returns the page and cell index at which
// key either lives or would be inserted, preserving leaf sort order.
func (t *Table) Find(key uint32) (pageNum uint32, cellNum uint32, err error) {
	pageNum = RootPage
	for {
		n, err := t.peekNode(pageNum)
		if err != nil {
			return 0, 0, err
		}
		if n.IsLeaf() {
			return pageNum, n.LeafFind(key), nil
		}
		idx := n.InternalFindChild(key)
		pageNum = n.InternalChild(idx)
	}
}

// LeftmostLeaf descends from pageNum following child 0 until a leaf is
// reached, and returns that leaf's page number.
func (t *Table) LeftmostLeaf(pageNum uint32) (uint32, error) {
	for {
		n, err := t.peekNode(pageNum)
		if err != nil {
			return 0, err
		}
		if n.IsLeaf() {
			return pageNum, nil
		}
		pageNum = n.InternalChild(0)
	}
}

// InsertRow looks up key's position, rejects a duplicate before any
// mutation, and otherwise inserts row at that position.
func (t *Table) InsertRow(key uint32, row Row) error {
	pageNum, cellNum, err := t.Find(key)
	if err != nil {
		return err
	}
	n, err := t.peekNode(pageNum)
	if err != nil {
		return err
	}
	if cellNum < n.NumCells() && n.LeafKey(cellNum) == key {
		return ErrDuplicateKey
	}
	return t.leafInsert(pageNum, cellNum, key, row)
}

// leafInsert inserts key/row at cellNum within the leaf at pageNum,
// splitting the leaf first if it is already full.
func (t *Table) leafInsert(pageNum, cellNum, key uint32, row Row) error {
	n, err := t.getNode(pageNum)
	if err != nil {
		return err
	}
	if n.NumCells() >= LeafMaxCells {
		return t.leafSplitAndInsert(pageNum, cellNum, key, row)
	}

	for i := n.NumCells(); i > cellNum; i-- {
		copy(n.LeafCell(i), n.LeafCell(i-1))
	}
	n.SetLeafKey(cellNum, key)
	if err := row.Serialize(n.LeafValue(cellNum)); err != nil {
		return err
	}
	n.SetNumCells(n.NumCells() + 1)
	return nil
}

// leafSplitAndInsert splits an overfull leaf in two, distributing its
// LeafMaxCells existing cells plus the new one across the old (left) and a
// freshly allocated (right) leaf, then threads the new leaf into the
// parent — creating a new root if the leaf being split was the root.
func (t *Table) leafSplitAndInsert(oldPage, cell, key uint32, row Row) error {
	old, err := t.getNode(oldPage)
	if err != nil {
		return err
	}
	oldMax := old.MaxKey()
	oldNext := old.NextLeaf()
	parentNum := old.Parent()
	wasRoot := old.IsRoot()

	newPageNum := t.Pager.Allocate()
	newPg, err := t.Pager.Get(newPageNum)
	if err != nil {
		return err
	}
	newNode := wrap(newPg)
	newNode.InitializeLeaf()
	newNode.SetParent(parentNum)
	newNode.SetNextLeaf(oldNext)

	var newCell [LeafCellSize]byte
	binary.LittleEndian.PutUint32(newCell[:LeafKeySize], key)
	if err := row.Serialize(newCell[LeafKeySize:]); err != nil {
		return err
	}

	const n = leafSplitN
	const l = LeafLeftSplitCount
	// Walk logical slots high to low so that, when the destination and
	// source both fall in the old node, the source is always read before
	// anything overwrites it (see the design notes on why "i mod L" is not
	// used here for the destination index).
	for i := n - 1; i >= 0; i-- {
		var dest Node
		var destIdx uint32
		if uint32(i) >= l {
			dest = newNode
			destIdx = uint32(i) - l
		} else {
			dest = old
			destIdx = uint32(i)
		}

		var src []byte
		switch {
		case uint32(i) == cell:
			src = newCell[:]
		case uint32(i) < cell:
			src = old.LeafCell(uint32(i))
		default:
			src = old.LeafCell(uint32(i) - 1)
		}
		copy(dest.LeafCell(destIdx), src)
	}

	old.SetNumCells(l)
	newNode.SetNumCells(LeafRightSplitCount)
	old.SetNextLeaf(newPageNum)

	if wasRoot {
		return t.createNewRoot(newPageNum)
	}

	newMax := old.MaxKey()
	if err := t.updateInternalKey(parentNum, oldMax, newMax); err != nil {
		return err
	}
	return t.internalInsert(parentNum, newPageNum)
}

// createNewRoot handles the split of a root leaf: the root's current bytes
// (already trimmed to the left half by the caller) are copied into a fresh
// left-child page, and the root page itself is reinitialized as an
// internal node pointing at that left child and at rightPageNum.
func (t *Table) createNewRoot(rightPageNum uint32) error {
	root, err := t.getNode(RootPage)
	if err != nil {
		return err
	}

	leftPageNum := t.Pager.Allocate()
	leftPg, err := t.Pager.Get(leftPageNum)
	if err != nil {
		return err
	}
	leftPg.Data = root.Page.Data
	left := wrap(leftPg)
	left.SetIsRoot(false)

	splitKey := left.MaxKey()

	root.InitializeInternal()
	root.SetIsRoot(true)
	root.SetNumKeys(1)
	if err := root.SetInternalChild(0, leftPageNum); err != nil {
		return err
	}
	root.SetInternalKey(0, splitKey)
	root.SetRightChild(rightPageNum)

	left.SetParent(RootPage)
	right, err := t.getNode(rightPageNum)
	if err != nil {
		return err
	}
	right.SetParent(RootPage)
	return nil
}

// updateInternalKey locates the separator for oldKey in the parent and
// overwrites it with newKey. If oldKey was beyond every stored key (its
// subtree is the rightmost child), there is no separator to update and the
// write is skipped rather than performed at an invalid index.
func (t *Table) updateInternalKey(parentNum, oldKey, newKey uint32) error {
	parent, err := t.getNode(parentNum)
	if err != nil {
		return err
	}
	idx := parent.InternalFindChild(oldKey)
	if idx == parent.NumKeys() {
		return nil
	}
	parent.SetInternalKey(idx, newKey)
	return nil
}

// internalInsert threads a newly split-off child into an already-existing
// parent node. Internal-node splitting is not implemented: a parent already
// at InternalMaxCells is a fatal condition, not a recoverable one.
func (t *Table) internalInsert(parentNum, childPageNum uint32) error {
	parent, err := t.getNode(parentNum)
	if err != nil {
		return err
	}
	child, err := t.getNode(childPageNum)
	if err != nil {
		return err
	}
	childMax := child.MaxKey()

	rightChildNum := parent.RightChild()
	rightChild, err := t.getNode(rightChildNum)
	if err != nil {
		return err
	}
	rightMax := rightChild.MaxKey()

	insertIdx := parent.InternalFindChild(childMax)
	oldNumKeys := parent.NumKeys()
	if oldNumKeys >= InternalMaxCells {
		return dberr.Fatalf("internal_insert: node already has %d cells, cannot exceed InternalMaxCells", oldNumKeys)
	}
	parent.IncrNumKeys(1)

	if childMax > rightMax {
		parent.SetRightChild(childPageNum)
		if err := parent.SetInternalChild(oldNumKeys, rightChildNum); err != nil {
			return err
		}
		parent.SetInternalKey(oldNumKeys, rightMax)
		return nil
	}

	for i := oldNumKeys; i > insertIdx; i-- {
		copy(parent.InternalCell(i), parent.InternalCell(i-1))
	}
	if err := parent.SetInternalChild(insertIdx, childPageNum); err != nil {
		return err
	}
	parent.SetInternalKey(insertIdx, childMax)
	return nil
}

// PrintTree renders the tree depth-first, pre-order relative to each
// internal node's children interleaved with its separator keys.
func (t *Table) PrintTree(w io.Writer) error {
	return t.printNode(w, RootPage, 0)
}

func (t *Table) printNode(w io.Writer, pageNum uint32, depth int) error {
	n, err := t.peekNode(pageNum)
	if err != nil {
		return err
	}
	indent := strings.Repeat(" ", depth)
	childIndent := strings.Repeat(" ", depth+1)

	if n.IsLeaf() {
		numCells := n.NumCells()
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, numCells)
		for i := uint32(0); i < numCells; i++ {
			fmt.Fprintf(w, "%s%d\n", childIndent, n.LeafKey(i))
		}
		return nil
	}

	numKeys := n.NumKeys()
	fmt.Fprintf(w, "%s- internal (size %d)\n", indent, numKeys)
	for i := uint32(0); i < numKeys; i++ {
		child := n.InternalChild(i)
		if err := t.printNode(w, child, depth+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s- key %d\n", childIndent, n.InternalKey(i))
	}
	return t.printNode(w, n.RightChild(), depth+1)
}
