// Package repl implements the line-oriented command shell described in
// spec.md §6: the prompt, statement tokenizing, and dispatch to the B+Tree
// engine. Grounded on askorykh-goDB's cmd/godb-server/main.go read loop and
// handleMetaCommand dispatch, adapted from multi-line buffered SQL to the
// engine's single-line insert/select statements.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"rdb/internal/btree"
	"rdb/internal/row"
)

const prompt = "rdb > "

// Run drives the REPL over in, writing prompts and responses to out, until
// in is exhausted or ".exit" is processed.
//
// clean reports whether the session ended via an explicit ".exit" command;
// per spec.md §5, only that path flushes the pager. A bare end-of-input
// (the reader running dry without ".exit") is treated like an abnormal
// termination: the caller should not flush, so inserts since the last
// ".exit" are lost, matching the original C tutorial's behavior of never
// calling the flush path except from the ".exit" meta-command.
func Run(in io.Reader, out io.Writer, tree *btree.Tree) (clean bool, err error) {
	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, prompt)

		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return false, fmt.Errorf("repl: read: %w", readErr)
		}

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			exit := dispatch(out, tree, line)
			if exit {
				return true, nil
			}
		}

		if errors.Is(readErr, io.EOF) {
			return false, nil
		}
	}
}

// dispatch handles a single non-empty input line. It returns true if the
// REPL should stop reading further input.
func dispatch(out io.Writer, tree *btree.Tree, line string) bool {
	if strings.HasPrefix(line, ".") {
		return handleMeta(out, tree, line)
	}

	handleStatement(out, tree, line)
	return false
}

func handleMeta(out io.Writer, tree *btree.Tree, line string) bool {
	switch line {
	case ".exit":
		return true
	case ".btree":
		if err := tree.PrintTree(out); err != nil {
			fmt.Fprintf(out, "Error printing tree: %v\n", err)
		}
		return false
	case ".constants":
		btree.PrintConstants(out)
		return false
	default:
		fmt.Fprintf(out, "Unrecognized command '%s'.\n", line)
		return false
	}
}

func handleStatement(out io.Writer, tree *btree.Tree, line string) {
	keyword, args := splitKeyword(line)

	switch keyword {
	case "insert":
		handleInsert(out, tree, args)
	case "select":
		handleSelect(out, tree)
	default:
		fmt.Fprintf(out, "Unrecognized keyword at start of '%s'.\n", line)
	}
}

func splitKeyword(line string) (keyword, rest string) {
	fields := strings.SplitN(line, " ", 2)
	keyword = fields[0]
	if len(fields) == 2 {
		rest = fields[1]
	}
	return keyword, rest
}

func handleInsert(out io.Writer, tree *btree.Tree, args string) {
	r, err := row.ParseInsertArgs(args)
	if err != nil {
		fmt.Fprintln(out, err.Error())
		return
	}

	if err := tree.Insert(r.ID, r); err != nil {
		fmt.Fprintln(out, err.Error())
		return
	}

	fmt.Fprintln(out, "Executed.")
}

func handleSelect(out io.Writer, tree *btree.Tree) {
	c, err := tree.Start()
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	for !c.EndOfTable {
		buf, err := tree.Value(c)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}

		r, err := row.Decode(buf)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}

		fmt.Fprintf(out, "(%d, %s, %s)\n", r.ID, r.Username, r.Email)

		if err := tree.Advance(c); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
	}

	fmt.Fprintln(out, "Executed.")
}
