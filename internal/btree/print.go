package btree

import (
	"fmt"
	"io"
	"strings"

	"rdb/internal/pager"
	"rdb/internal/row"
)

// PrintTree writes the ".btree" diagnostic dump: "Tree:" followed by a
// recursive indented listing starting at the root. Grounded on the
// recursive node-kind switch in ngina-wtfDB's PrettyPrint, trimmed to the
// plain indented format spec.md §4.7 requires.
func (t *Tree) PrintTree(w io.Writer) error {
	fmt.Fprintln(w, "Tree:")
	return t.printNode(w, rootPage, 0)
}

func (t *Tree) printNode(w io.Writer, pageNo uint32, depth int) error {
	page, err := t.pager.GetPage(pageNo)
	if err != nil {
		return err
	}
	indent := strings.Repeat("  ", depth)

	if pager.GetNodeType(page) == pager.NodeLeaf {
		n := leafNumCells(page)
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, n)
		for i := uint32(0); i < n; i++ {
			fmt.Fprintf(w, "%s  - %d\n", indent, leafKey(page, i))
		}
		return nil
	}

	n := internalNumKeys(page)
	fmt.Fprintf(w, "%s- internal (size %d)\n", indent, n)
	for i := uint32(0); i < n; i++ {
		if err := t.printNode(w, internalChild(page, i), depth+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  - key %d\n", indent, internalKey(page, i))
	}
	return t.printNode(w, internalRightChild(page), depth+1)
}

// PrintConstants writes the fixed tuning-constant block for ".constants".
func PrintConstants(w io.Writer) {
	fmt.Fprintln(w, "Constants:")
	fmt.Fprintf(w, "ROW_SIZE: %d\n", row.Size)
	fmt.Fprintf(w, "COMMON_NODE_HEADER_SIZE: %d\n", pager.CommonHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_HEADER_SIZE: %d\n", LeafHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_CELL_SIZE: %d\n", LeafCellSize)
	fmt.Fprintf(w, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", LeafSpaceForCells)
	fmt.Fprintf(w, "LEAF_NODE_MAX_CELLS: %d\n", LeafMaxCells)
}
