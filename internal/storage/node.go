package storage

import (
	"encoding/binary"

	"sqliters/internal/dberr"
	"sqliters/internal/pager"
)

// Leaf cell layout: a 4-byte key followed by a serialized row.
const (
	LeafKeySize  = 4
	LeafCellSize = LeafKeySize + RowSize // 295

	LeafHeaderSize    = pager.LeafHeaderSize
	LeafSpaceForCells = pager.PageSize - LeafHeaderSize
	LeafMaxCells      = LeafSpaceForCells / LeafCellSize
)

// Leaf split counts: N is the cell count just before a split (the full
// node plus the new cell); R and L are the resulting right/left counts.
const (
	leafSplitN          = LeafMaxCells + 1
	LeafRightSplitCount = (leafSplitN + 1) / 2
	LeafLeftSplitCount  = leafSplitN - LeafRightSplitCount
)

// Internal node header layout, extending the common header.
const (
	InternalNumKeysOffset    = pager.CommonNodeHeaderSize
	InternalRightChildOffset = InternalNumKeysOffset + 4
	InternalHeaderSize       = InternalRightChildOffset + 4

	InternalChildSize = 4
	InternalKeySize   = 4
	InternalCellSize  = InternalChildSize + InternalKeySize

	// InternalMaxCells bounds the number of separator keys an internal
	// node may hold. Internal-node splitting is not implemented, so
	// reaching this limit is fatal: internalInsert returns a
	// dberr.FatalError, and Table.InsertRow passes it up unchanged.
	InternalMaxCells = 100
)

// Node is a typed view over a page buffer: it knows how to read and write
// the common header, leaf layout, and internal layout described by the
// storage format, but owns none of the bytes itself.
type Node struct {
	Page *pager.Page
}

func wrap(pg *pager.Page) Node { return Node{Page: pg} }

func (n Node) data() []byte { return n.Page.Data[:] }

// --- common header ---

func (n Node) IsLeaf() bool {
	return n.data()[pager.NodeTypeOffset] == pager.NodeTypeLeaf
}

func (n Node) IsRoot() bool {
	return n.data()[pager.IsRootOffset] == 1
}

func (n Node) SetIsRoot(v bool) {
	if v {
		n.data()[pager.IsRootOffset] = 1
	} else {
		n.data()[pager.IsRootOffset] = 0
	}
}

func (n Node) Parent() uint32 {
	return binary.LittleEndian.Uint32(n.data()[pager.ParentPointerOffset:])
}

func (n Node) SetParent(p uint32) {
	binary.LittleEndian.PutUint32(n.data()[pager.ParentPointerOffset:], p)
}

// InitializeLeaf resets this page's header to an empty, non-root leaf.
func (n Node) InitializeLeaf() {
	data := n.data()
	data[pager.NodeTypeOffset] = pager.NodeTypeLeaf
	data[pager.IsRootOffset] = 0
	binary.LittleEndian.PutUint32(data[pager.ParentPointerOffset:], 0)
	n.SetNumCells(0)
	n.SetNextLeaf(0)
}

// InitializeInternal resets this page's header to an empty, non-root
// internal node.
func (n Node) InitializeInternal() {
	data := n.data()
	data[pager.NodeTypeOffset] = pager.NodeTypeInternal
	data[pager.IsRootOffset] = 0
	n.SetNumKeys(0)
}

// MaxKey returns a leaf's last cell key, or an internal node's largest
// separator key. For an internal node this does not cover the keys under
// the right child.
func (n Node) MaxKey() uint32 {
	if n.IsLeaf() {
		return n.LeafKey(n.NumCells() - 1)
	}
	return n.InternalKey(n.NumKeys() - 1)
}

// --- leaf layout ---

func (n Node) NumCells() uint32 {
	return binary.LittleEndian.Uint32(n.data()[pager.LeafNumCellsOffset:])
}

func (n Node) SetNumCells(c uint32) {
	binary.LittleEndian.PutUint32(n.data()[pager.LeafNumCellsOffset:], c)
}

func (n Node) NextLeaf() uint32 {
	return binary.LittleEndian.Uint32(n.data()[pager.LeafNextLeafOffset:])
}

func (n Node) SetNextLeaf(p uint32) {
	binary.LittleEndian.PutUint32(n.data()[pager.LeafNextLeafOffset:], p)
}

func (n Node) leafCellOffset(i uint32) int {
	return LeafHeaderSize + int(i)*LeafCellSize
}

// LeafCell returns the raw key+value bytes for cell i.
func (n Node) LeafCell(i uint32) []byte {
	off := n.leafCellOffset(i)
	return n.data()[off : off+LeafCellSize]
}

func (n Node) LeafKey(i uint32) uint32 {
	off := n.leafCellOffset(i)
	return binary.LittleEndian.Uint32(n.data()[off:])
}

func (n Node) SetLeafKey(i uint32, key uint32) {
	off := n.leafCellOffset(i)
	binary.LittleEndian.PutUint32(n.data()[off:], key)
}

// LeafValue returns the RowSize-byte value region for cell i.
func (n Node) LeafValue(i uint32) []byte {
	off := n.leafCellOffset(i) + LeafKeySize
	return n.data()[off : off+RowSize]
}

// LeafFind returns the smallest cell index i such that key[i] >= key, or
// NumCells() if no such cell exists.
func (n Node) LeafFind(key uint32) uint32 {
	lo, hi := uint32(0), n.NumCells()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if n.LeafKey(mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// --- internal layout ---

func (n Node) NumKeys() uint32 {
	return binary.LittleEndian.Uint32(n.data()[InternalNumKeysOffset:])
}

func (n Node) SetNumKeys(c uint32) {
	binary.LittleEndian.PutUint32(n.data()[InternalNumKeysOffset:], c)
}

func (n Node) IncrNumKeys(delta uint32) {
	n.SetNumKeys(n.NumKeys() + delta)
}

func (n Node) RightChild() uint32 {
	return binary.LittleEndian.Uint32(n.data()[InternalRightChildOffset:])
}

func (n Node) SetRightChild(p uint32) {
	binary.LittleEndian.PutUint32(n.data()[InternalRightChildOffset:], p)
}

func (n Node) internalCellOffset(i uint32) int {
	return InternalHeaderSize + int(i)*InternalCellSize
}

// InternalCell returns the raw child+key bytes for cell i.
func (n Node) InternalCell(i uint32) []byte {
	off := n.internalCellOffset(i)
	return n.data()[off : off+InternalCellSize]
}

func (n Node) internalChildRaw(i uint32) uint32 {
	off := n.internalCellOffset(i)
	return binary.LittleEndian.Uint32(n.data()[off:])
}

// InternalChild returns child i. Index NumKeys() refers to the right
// child.
func (n Node) InternalChild(i uint32) uint32 {
	if i == n.NumKeys() {
		return n.RightChild()
	}
	return n.internalChildRaw(i)
}

func (n Node) InternalKey(i uint32) uint32 {
	off := n.internalCellOffset(i) + InternalChildSize
	return binary.LittleEndian.Uint32(n.data()[off:])
}

func (n Node) SetInternalKey(i uint32, key uint32) {
	off := n.internalCellOffset(i) + InternalChildSize
	binary.LittleEndian.PutUint32(n.data()[off:], key)
}

// SetInternalChild stores childPage at index i: the right child if
// i == NumKeys(), the i-th cell's child slot if i < NumKeys(). Any other
// index is a programming error — there is no valid slot to write into.
func (n Node) SetInternalChild(i uint32, childPage uint32) error {
	numKeys := n.NumKeys()
	switch {
	case i == numKeys:
		n.SetRightChild(childPage)
	case i < numKeys:
		off := n.internalCellOffset(i)
		binary.LittleEndian.PutUint32(n.data()[off:], childPage)
	default:
		return dberr.Fatalf("set_internal_child: index %d > num_keys %d", i, numKeys)
	}
	return nil
}

// InternalFindChild returns the smallest index i such that key[i] >= key,
// or NumKeys() if no such key exists (meaning the right child).
func (n Node) InternalFindChild(key uint32) uint32 {
	lo, hi := uint32(0), n.NumKeys()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if n.InternalKey(mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
