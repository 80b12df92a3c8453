package storage

import (
	"os"
	"strings"
	"testing"

	"sqliters/internal/dberr"
)

func newTempTable(t *testing.T) *Table {
	t.Helper()
	f, err := os.CreateTemp("", "btreetest-*.db")
	if err != nil {
		t.Fatal(err)
	}
	name := f.Name()
	f.Close()
	tbl, err := Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		tbl.Close()
		os.Remove(name)
	})
	return tbl
}

func insertRow(t *testing.T, tbl *Table, id uint32) {
	t.Helper()
	row := Row{ID: id, Username: "user", Email: "user@example.com"}
	if err := tbl.InsertRow(id, row); err != nil {
		t.Fatalf("InsertRow(%d): %v", id, err)
	}
}

func TestInsertAndScanInOrder(t *testing.T) {
	tbl := newTempTable(t)
	ids := []uint32{5, 1, 4, 2, 3}
	for _, id := range ids {
		insertRow(t, tbl, id)
	}

	cur, err := tbl.NewCursorAtStart()
	if err != nil {
		t.Fatalf("NewCursorAtStart: %v", err)
	}
	var got []uint32
	for !cur.EndOfTable() {
		row, err := cur.Value()
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		got = append(got, row.ID)
		if err := cur.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	want := []uint32{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("scanned %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got id %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDuplicateKeyRejected(t *testing.T) {
	tbl := newTempTable(t)
	insertRow(t, tbl, 1)

	err := tbl.InsertRow(1, Row{ID: 1, Username: "dup", Email: "dup@example.com"})
	if err != ErrDuplicateKey {
		t.Fatalf("InsertRow duplicate = %v, want ErrDuplicateKey", err)
	}

	n, err := tbl.peekNode(RootPage)
	if err != nil {
		t.Fatal(err)
	}
	if n.NumCells() != 1 {
		t.Errorf("tree mutated by rejected duplicate insert: NumCells() = %d, want 1", n.NumCells())
	}
}

func TestLeafSplitCreatesInternalRoot(t *testing.T) {
	tbl := newTempTable(t)
	for id := uint32(1); id <= LeafMaxCells+1; id++ {
		insertRow(t, tbl, id)
	}

	root, err := tbl.peekNode(RootPage)
	if err != nil {
		t.Fatal(err)
	}
	if root.IsLeaf() {
		t.Fatal("root should have split into an internal node")
	}
	if root.NumKeys() != 1 {
		t.Errorf("NumKeys() = %d, want 1", root.NumKeys())
	}

	left, err := tbl.peekNode(root.InternalChild(0))
	if err != nil {
		t.Fatal(err)
	}
	right, err := tbl.peekNode(root.RightChild())
	if err != nil {
		t.Fatal(err)
	}
	if left.Parent() != RootPage || right.Parent() != RootPage {
		t.Error("split children must point back at the root")
	}
	if left.NextLeaf() != root.RightChild() {
		t.Error("left leaf's next-leaf pointer must chain to the right leaf")
	}
	if left.NumCells()+right.NumCells() != LeafMaxCells+1 {
		t.Errorf("split lost or duplicated cells: left %d + right %d != %d",
			left.NumCells(), right.NumCells(), LeafMaxCells+1)
	}

	cur, err := tbl.NewCursorAtStart()
	if err != nil {
		t.Fatal(err)
	}
	prev := uint32(0)
	count := 0
	for !cur.EndOfTable() {
		row, err := cur.Value()
		if err != nil {
			t.Fatal(err)
		}
		if row.ID <= prev && count > 0 {
			t.Fatalf("scan out of order: %d after %d", row.ID, prev)
		}
		prev = row.ID
		count++
		if err := cur.Advance(); err != nil {
			t.Fatal(err)
		}
	}
	if count != LeafMaxCells+1 {
		t.Errorf("scanned %d rows, want %d", count, LeafMaxCells+1)
	}
}

func TestManyInsertsStaySorted(t *testing.T) {
	tbl := newTempTable(t)
	n := uint32(3 * LeafMaxCells)
	for id := n; id >= 1; id-- {
		insertRow(t, tbl, id)
	}

	cur, err := tbl.NewCursorAtStart()
	if err != nil {
		t.Fatal(err)
	}
	var prev uint32
	count := uint32(0)
	for !cur.EndOfTable() {
		row, err := cur.Value()
		if err != nil {
			t.Fatal(err)
		}
		count++
		if count > 1 && row.ID <= prev {
			t.Fatalf("out of order at row %d: %d after %d", count, row.ID, prev)
		}
		prev = row.ID
		if err := cur.Advance(); err != nil {
			t.Fatal(err)
		}
	}
	if count != n {
		t.Errorf("scanned %d rows, want %d", count, n)
	}
}

// TestInternalInsertOverflowIsFatal exercises internalInsert's overflow
// branch directly against a hand-built parent node already at
// InternalMaxCells. Driving this condition through real leaf splits would
// require far more separators than TableMaxPages has room for pages, so the
// node is constructed in place rather than grown by insertion.
func TestInternalInsertOverflowIsFatal(t *testing.T) {
	tbl := newTempTable(t)

	root, err := tbl.getNode(RootPage)
	if err != nil {
		t.Fatal(err)
	}
	root.InitializeInternal()
	root.SetIsRoot(true)
	root.SetNumKeys(InternalMaxCells)

	rightPage := tbl.Pager.Allocate()
	right, err := tbl.getNode(rightPage)
	if err != nil {
		t.Fatal(err)
	}
	right.InitializeLeaf()
	right.SetNumCells(1)
	right.SetLeafKey(0, 1000)
	root.SetRightChild(rightPage)

	childPage := tbl.Pager.Allocate()
	child, err := tbl.getNode(childPage)
	if err != nil {
		t.Fatal(err)
	}
	child.InitializeLeaf()
	child.SetNumCells(1)
	child.SetLeafKey(0, 2000)

	err = tbl.internalInsert(RootPage, childPage)
	if err == nil {
		t.Fatal("expected an error when growing an internal node already at InternalMaxCells")
	}
	if !dberr.IsFatal(err) {
		t.Fatalf("internalInsert overflow error = %v, want a dberr.FatalError", err)
	}
}

func TestPrintTreeFormat(t *testing.T) {
	tbl := newTempTable(t)
	insertRow(t, tbl, 3)
	insertRow(t, tbl, 1)
	insertRow(t, tbl, 2)

	var buf strings.Builder
	if err := tbl.PrintTree(&buf); err != nil {
		t.Fatal(err)
	}
	want := "- leaf (size 3)\n 1\n 2\n 3\n"
	if buf.String() != want {
		t.Errorf("PrintTree() = %q, want %q", buf.String(), want)
	}
}
