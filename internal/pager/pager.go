// Package pager owns the database file and the fixed-size slot array of
// cached page buffers that the B+tree is built on top of. It knows nothing
// about keys, rows, or tree shape; it only knows that a page is 4096 bytes
// and that every page carries a common header (node type, is-root flag,
// parent page number) at a fixed offset, which it needs in order to
// materialize a fresh root leaf when a database file is first created.
package pager

import (
	"encoding/binary"
	"io"
	"log/slog"
	"os"

	"sqliters/internal/dberr"
)

const (
	// PageSize is the fixed size of every page, on disk and in memory.
	PageSize = 4096
	// TableMaxPages bounds the database file to roughly 400KB. Exceeding it
	// is fatal; there is no provision for a larger address space.
	TableMaxPages = 100
)

// Node type tags, common to leaf and internal pages.
const (
	NodeTypeInternal byte = 0
	NodeTypeLeaf      byte = 1
)

// Common node header layout, shared by leaf and internal pages.
const (
	NodeTypeOffset       = 0
	IsRootOffset         = NodeTypeOffset + 1
	ParentPointerOffset  = IsRootOffset + 1
	CommonNodeHeaderSize = ParentPointerOffset + 4

	// LeafNumCellsOffset and LeafNextLeafOffset extend the common header
	// for leaf pages. They live here, rather than in the storage package,
	// because Open must be able to stamp out an empty root leaf before any
	// higher-level tree code exists.
	LeafNumCellsOffset = CommonNodeHeaderSize
	LeafNextLeafOffset = LeafNumCellsOffset + 4
	LeafHeaderSize     = LeafNextLeafOffset + 4
)

// Page is one 4096-byte slot in the pager's cache.
type Page struct {
	Data [PageSize]byte
}

// Pager owns the database file and the TableMaxPages-sized array of cached
// pages. A nil slot means the page has never been loaded or allocated this
// session.
type Pager struct {
	file     *os.File
	pages    [TableMaxPages]*Page
	numPages uint32
}

// Open opens or creates the database file at path. If the file is brand
// new, page 0 is materialized as an empty leaf marked as root, satisfying
// the invariant that page 0 is always the root.
func Open(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, dberr.Fatalf("open database file %q: %v", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, dberr.Fatalf("stat database file %q: %v", path, err)
	}
	size := fi.Size()
	if size%PageSize != 0 {
		return nil, dberr.Fatalf("db file is not a whole number of pages. Corrupt file.")
	}

	p := &Pager{file: f, numPages: uint32(size / PageSize)}
	if p.numPages == 0 {
		pg, err := p.Get(0)
		if err != nil {
			return nil, err
		}
		initLeafNode(pg.Data[:], true)
	}
	return p, nil
}

func initLeafNode(data []byte, isRoot bool) {
	data[NodeTypeOffset] = NodeTypeLeaf
	if isRoot {
		data[IsRootOffset] = 1
	} else {
		data[IsRootOffset] = 0
	}
	binary.LittleEndian.PutUint32(data[ParentPointerOffset:], 0)
	binary.LittleEndian.PutUint32(data[LeafNumCellsOffset:], 0)
	binary.LittleEndian.PutUint32(data[LeafNextLeafOffset:], 0)
}

func (p *Pager) readPage(pageNum uint32, pg *Page) error {
	off := int64(pageNum) * PageSize
	if _, err := p.file.Seek(off, io.SeekStart); err != nil {
		return dberr.Fatalf("seek page %d: %v", pageNum, err)
	}
	n, err := io.ReadFull(p.file, pg.Data[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return dberr.Fatalf("read page %d: %v", pageNum, err)
	}
	if err != nil {
		slog.Debug("pager: short read past EOF", "page", pageNum, "bytes", n)
	}
	return nil
}

// Get returns a mutable handle to page pageNum. An empty slot is loaded
// from disk if pageNum falls within the file, or allocated as a zeroed
// buffer otherwise. A call that extends the logical file bumps NumPages.
func (p *Pager) Get(pageNum uint32) (*Page, error) {
	if pageNum >= TableMaxPages {
		return nil, dberr.Fatalf("tried to fetch page number out of bounds: %d >= %d", pageNum, TableMaxPages)
	}
	if p.pages[pageNum] == nil {
		pg := &Page{}
		if pageNum <= p.numPages {
			if err := p.readPage(pageNum, pg); err != nil {
				return nil, err
			}
		}
		p.pages[pageNum] = pg
	}
	if pageNum >= p.numPages {
		p.numPages = pageNum + 1
	}
	return p.pages[pageNum], nil
}

// Peek returns a read-only handle to page pageNum using the same lazy-load
// rule as Get, but never grows NumPages. Callers must not mutate the
// returned page's Data.
func (p *Pager) Peek(pageNum uint32) (*Page, error) {
	if pageNum >= TableMaxPages {
		return nil, dberr.Fatalf("tried to fetch page number out of bounds: %d >= %d", pageNum, TableMaxPages)
	}
	if p.pages[pageNum] == nil {
		pg := &Page{}
		if pageNum <= p.numPages {
			if err := p.readPage(pageNum, pg); err != nil {
				return nil, err
			}
		}
		p.pages[pageNum] = pg
	}
	return p.pages[pageNum], nil
}

// Allocate hands out the next free page number. The slot is materialized
// lazily by the following Get call; Allocate itself touches nothing.
func (p *Pager) Allocate() uint32 {
	return p.numPages
}

// Flush writes a loaded page's full 4096 bytes back to disk. Flushing an
// unloaded slot is a no-op.
func (p *Pager) Flush(pageNum uint32) error {
	pg := p.pages[pageNum]
	if pg == nil {
		return nil
	}
	off := int64(pageNum) * PageSize
	if _, err := p.file.Seek(off, io.SeekStart); err != nil {
		return dberr.Fatalf("flush: seek page %d: %v", pageNum, err)
	}
	if _, err := p.file.Write(pg.Data[:]); err != nil {
		return dberr.Fatalf("flush: write page %d: %v", pageNum, err)
	}
	return nil
}

// Close flushes every loaded page, fsyncs the file, and closes it.
func (p *Pager) Close() error {
	for i := uint32(0); i < p.numPages; i++ {
		if err := p.Flush(i); err != nil {
			return err
		}
	}
	if err := p.file.Sync(); err != nil {
		return dberr.Fatalf("fsync database file: %v", err)
	}
	return p.file.Close()
}

// NumPages reports the current logical page count.
func (p *Pager) NumPages() uint32 { return p.numPages }
