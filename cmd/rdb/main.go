// Command rdb is a line-oriented shell over the disk-backed B+Tree storage
// engine implemented in internal/btree. Grounded on askorykh-goDB's
// cmd/godb-server/main.go entrypoint, trimmed to this engine's single
// positional argument and single-line statements (spec.md §6).
package main

import (
	"fmt"
	"log"
	"os"

	"rdb/internal/btree"
	"rdb/internal/repl"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: rdb <filename>")
		os.Exit(1)
	}

	tree, err := btree.Open(os.Args[1])
	if err != nil {
		log.Fatalf("rdb: could not open %s: %v", os.Args[1], err)
	}

	clean, err := repl.Run(os.Stdin, os.Stdout, tree)
	if err != nil {
		log.Fatalf("rdb: %v", err)
	}

	if !clean {
		os.Exit(1)
	}

	if err := tree.Close(); err != nil {
		log.Fatalf("rdb: close: %v", err)
	}
}
