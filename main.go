package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"sqliters/internal/dberr"
	"sqliters/internal/replline"
	"sqliters/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Must supply a database filename.")
		os.Exit(256)
	}

	tbl, err := storage.Open(os.Args[1])
	if err != nil {
		fatal(err)
	}

	rl, err := replline.New()
	if err != nil {
		fatal(err)
	}
	defer rl.Close()

	runREPL(tbl, rl)
}

func runREPL(tbl *storage.Table, rl *replline.Reader) {
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, io.EOF) {
			// End-of-stream on stdin is a fatal input condition: there is
			// no further input to drive the loop.
			if closeErr := tbl.Close(); closeErr != nil {
				fatal(closeErr)
			}
			os.Exit(1)
		}
		if err != nil {
			fatal(err)
		}
		if line == "" {
			continue
		}

		if line[0] == '.' {
			if doMetaCommand(line, tbl) == MetaCommandUnrecognizedCommand {
				fmt.Printf("Unrecognized command %s\n", line)
			}
			continue
		}

		var stmt Statement
		switch prepareStatement(line, &stmt) {
		case PrepareSuccess:
			// fall through to execute below
		case PrepareNegativeID:
			fmt.Println("ID must be positive.")
			continue
		case PrepareStringTooLong:
			fmt.Println("String is too long.")
			continue
		case PrepareSyntaxError:
			fmt.Println("Syntax error. Could not parse statement.")
			continue
		case PrepareUnrecognizedStatement:
			fmt.Printf("Unrecognized keyword at start of %s.\n", line)
			continue
		}

		result, err := executeStatement(tbl, &stmt)
		if err != nil {
			fatal(err)
		}
		switch result {
		case ExecuteSuccess:
			fmt.Println("Executed.")
		case ExecuteDuplicateKey:
			fmt.Println("Error: Duplicate key.")
		}
	}
}

// fatal reports a storage-invariant violation or I/O failure and terminates
// the process; there is no partial-failure recovery path for these.
func fatal(err error) {
	if dberr.IsFatal(err) {
		fmt.Fprintln(os.Stderr, err)
	} else {
		fmt.Fprintln(os.Stderr, "fatal:", err)
	}
	os.Exit(1)
}
