package main

import (
	"fmt"
	"strconv"
	"strings"

	"sqliters/internal/storage"
)

// StatementType distinguishes the two data statements the engine supports.
type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

// PrepareResult reports why parsing a statement succeeded or failed.
type PrepareResult int

const (
	PrepareSuccess PrepareResult = iota
	PrepareNegativeID
	PrepareStringTooLong
	PrepareSyntaxError
	PrepareUnrecognizedStatement
)

// ExecuteResult reports the outcome of running a parsed statement against
// the table.
type ExecuteResult int

const (
	ExecuteSuccess ExecuteResult = iota
	ExecuteDuplicateKey
)

// Statement is a parsed data statement ready to execute.
type Statement struct {
	Type        StatementType
	RowToInsert storage.Row
}

// prepareStatement parses one line of input into a Statement. It performs
// only syntactic and length validation; a duplicate-key condition surfaces
// later, from execution.
func prepareStatement(input string, stmt *Statement) PrepareResult {
	if strings.HasPrefix(input, "insert") {
		return prepareInsert(input, stmt)
	}
	if input == "select" {
		stmt.Type = StatementSelect
		return PrepareSuccess
	}
	return PrepareUnrecognizedStatement
}

func prepareInsert(input string, stmt *Statement) PrepareResult {
	fields := strings.Fields(input)
	if len(fields) < 4 {
		return PrepareSyntaxError
	}

	id, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return PrepareNegativeID
	}

	username, email := fields[2], fields[3]
	if len(username) > storage.MaxUsernameLen || len(email) > storage.MaxEmailLen {
		return PrepareStringTooLong
	}

	stmt.Type = StatementInsert
	stmt.RowToInsert = storage.Row{
		ID:       uint32(id),
		Username: username,
		Email:    email,
	}
	return PrepareSuccess
}

// executeStatement runs stmt against the table, printing select output as
// it goes.
func executeStatement(tbl *storage.Table, stmt *Statement) (ExecuteResult, error) {
	switch stmt.Type {
	case StatementInsert:
		return executeInsert(tbl, stmt)
	case StatementSelect:
		return executeSelect(tbl)
	default:
		return ExecuteSuccess, fmt.Errorf("unhandled statement type %d", stmt.Type)
	}
}

func executeInsert(tbl *storage.Table, stmt *Statement) (ExecuteResult, error) {
	row := stmt.RowToInsert
	err := tbl.InsertRow(row.ID, row)
	switch {
	case err == nil:
		return ExecuteSuccess, nil
	case err == storage.ErrDuplicateKey:
		return ExecuteDuplicateKey, nil
	default:
		return ExecuteSuccess, err
	}
}

func executeSelect(tbl *storage.Table) (ExecuteResult, error) {
	cur, err := tbl.NewCursorAtStart()
	if err != nil {
		return ExecuteSuccess, err
	}
	for !cur.EndOfTable() {
		row, err := cur.Value()
		if err != nil {
			return ExecuteSuccess, err
		}
		fmt.Printf("%d, %s, %s\n", row.ID, row.Username, row.Email)
		if err := cur.Advance(); err != nil {
			return ExecuteSuccess, err
		}
	}
	return ExecuteSuccess, nil
}
