package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"sqliters/internal/pager"
	"sqliters/internal/storage"
)

// MetaCommandResult reports whether a leading-dot command was recognized.
type MetaCommandResult int

const (
	MetaCommandSuccess MetaCommandResult = iota
	MetaCommandUnrecognizedCommand
)

// doMetaCommand dispatches a leading-dot command. `.exit` never returns.
func doMetaCommand(input string, tbl *storage.Table) MetaCommandResult {
	switch input {
	case ".exit":
		if err := tbl.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	case ".constants":
		printConstants()
		return MetaCommandSuccess
	case ".btree":
		if err := tbl.PrintTree(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return MetaCommandSuccess
	}
	return MetaCommandUnrecognizedCommand
}

// printConstants renders the engine's fixed layout constants as a table.
func printConstants() {
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader([]string{"constant", "value"})
	entries := []struct {
		name  string
		value int
	}{
		{"ROW_SIZE", storage.RowSize},
		{"COMMON_NODE_HEADER_SIZE", pager.CommonNodeHeaderSize},
		{"LEAF_NODE_HEADER_SIZE", storage.LeafHeaderSize},
		{"LEAF_NODE_CELL_SIZE", storage.LeafCellSize},
		{"LEAF_NODE_SPACE_FOR_CELLS", storage.LeafSpaceForCells},
		{"LEAF_NODE_MAX_CELLS", storage.LeafMaxCells},
		{"INTERNAL_NODE_HEADER_SIZE", storage.InternalHeaderSize},
		{"INTERNAL_NODE_CELL_SIZE", storage.InternalCellSize},
		{"INTERNAL_NODE_MAX_CELLS", storage.InternalMaxCells},
	}
	for _, e := range entries {
		w.Append([]string{e.name, strconv.Itoa(e.value)})
	}
	w.Render()
}
