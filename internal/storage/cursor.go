package storage

// Cursor is a positioned iterator over a leaf's cells, following the
// next-leaf chain across page boundaries as it advances.
type Cursor struct {
	table      *Table
	pageNum    uint32
	cellNum    uint32
	endOfTable bool
}

// NewCursorAtStart returns a cursor positioned at the first cell of the
// leftmost leaf.
func (t *Table) NewCursorAtStart() (*Cursor, error) {
	leaf, err := t.LeftmostLeaf(RootPage)
	if err != nil {
		return nil, err
	}
	n, err := t.peekNode(leaf)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		table:      t,
		pageNum:    leaf,
		cellNum:    0,
		endOfTable: n.NumCells() == 0,
	}, nil
}

// CursorFor positions a cursor at key's slot (whether or not key is
// present), for callers that want to inspect or insert at a specific spot.
func (t *Table) CursorFor(key uint32) (*Cursor, error) {
	pageNum, cellNum, err := t.Find(key)
	if err != nil {
		return nil, err
	}
	return &Cursor{table: t, pageNum: pageNum, cellNum: cellNum}, nil
}

// EndOfTable reports whether the cursor has advanced past the last row.
func (c *Cursor) EndOfTable() bool { return c.endOfTable }

// Value deserializes the row at the cursor's current position.
func (c *Cursor) Value() (Row, error) {
	n, err := c.table.peekNode(c.pageNum)
	if err != nil {
		return Row{}, err
	}
	return DeserializeRow(n.LeafValue(c.cellNum))
}

// Advance moves the cursor to the next cell, following the leaf's
// next-leaf pointer once the current leaf is exhausted.
func (c *Cursor) Advance() error {
	n, err := c.table.peekNode(c.pageNum)
	if err != nil {
		return err
	}
	c.cellNum++
	if c.cellNum >= n.NumCells() {
		next := n.NextLeaf()
		if next == 0 {
			c.endOfTable = true
			return nil
		}
		c.pageNum = next
		c.cellNum = 0
	}
	return nil
}

// Insert inserts row at the cursor's current key/position. It does not
// check for a duplicate key; Table.InsertRow, which the REPL executor
// calls, does that check before inserting.
func (c *Cursor) Insert(key uint32, row Row) error {
	return c.table.leafInsert(c.pageNum, c.cellNum, key, row)
}
