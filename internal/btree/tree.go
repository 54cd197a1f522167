// Package btree implements the engine's single-table B+Tree: key search,
// leaf insert with split, internal insert with split, and the root split
// that grows the tree's height while keeping the root at page 0.
package btree

import (
	"fmt"
	"sort"

	"rdb/internal/pager"
	"rdb/internal/row"
)

// rootPage is fixed: the root is always page 0, so external references to
// it never need to change when the tree grows (spec.md §4.5, §9).
const rootPage uint32 = 0

// ErrDuplicateKey is returned by Insert when the key already exists.
var ErrDuplicateKey = fmt.Errorf("Error: Duplicate key.")

// Tree is a B+Tree index backed by a Pager. It owns no state beyond the
// pager: the root page number, node types, and all cell data live entirely
// in pager-managed page bytes, so the tree itself is safe to discard and
// reopen against the same file.
type Tree struct {
	pager *pager.Pager
}

// Open opens path as a B+Tree-backed table, creating an empty leaf root at
// page 0 if the file is new.
func Open(path string) (*Tree, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}

	t := &Tree{pager: p}

	if p.PageCount() == 0 {
		root, err := p.GetPage(rootPage)
		if err != nil {
			return nil, err
		}
		initializeLeaf(root)
		pager.SetIsRoot(root, true)
	}

	return t, nil
}

// Close flushes all pages and releases the file.
func (t *Tree) Close() error {
	return t.pager.Close()
}

// Insert adds (key, r) to the tree. It fails with ErrDuplicateKey, without
// mutating any page, if key is already present.
func (t *Tree) Insert(key uint32, r row.Row) error {
	rowBytes, err := row.Encode(r)
	if err != nil {
		return err
	}

	c, err := t.Find(key)
	if err != nil {
		return err
	}

	leaf, err := t.pager.GetPage(c.PageNo)
	if err != nil {
		return err
	}

	if c.CellIdx < leafNumCells(leaf) && leafKey(leaf, c.CellIdx) == key {
		return ErrDuplicateKey
	}

	if leafNumCells(leaf) < LeafMaxCells {
		leafInsertAt(leaf, c.CellIdx, key, rowBytes)
		return nil
	}

	return t.splitLeafAndInsert(c.PageNo, c.CellIdx, key, rowBytes)
}

// leafEntry pairs a key with its encoded row, used only while redistributing
// cells across a split.
type leafEntry struct {
	key uint32
	row []byte
}

// splitLeafAndInsert splits the full leaf at leafPage, inserting the new
// (key, rowBytes) at its sorted position, then propagates the split upward.
func (t *Tree) splitLeafAndInsert(leafPage uint32, insertAt uint32, key uint32, rowBytes []byte) error {
	left, err := t.pager.GetPage(leafPage)
	if err != nil {
		return err
	}

	n := leafNumCells(left)
	entries := make([]leafEntry, 0, n+1)
	for i := uint32(0); i < n; i++ {
		if i == insertAt {
			entries = append(entries, leafEntry{key: key, row: rowBytes})
		}
		entries = append(entries, leafEntry{key: leafKey(left, i), row: append([]byte(nil), leafValue(left, i)...)})
	}
	if insertAt == n {
		entries = append(entries, leafEntry{key: key, row: rowBytes})
	}

	// Lower half (including any "adjustment" from an odd split) stays in
	// the left leaf; upper half moves to a new right sibling.
	leftCount := (len(entries) + 1) / 2
	leftEntries, rightEntries := entries[:leftCount], entries[leftCount:]

	rightPageNo := t.pager.Allocate()
	right, err := t.pager.GetPage(rightPageNo)
	if err != nil {
		return err
	}
	initializeLeaf(right)

	wasRoot := pager.IsRoot(left)
	parent := pager.GetParent(left)
	nextLeaf := leafNextLeaf(left)

	initializeLeaf(left)
	for i, e := range leftEntries {
		setLeafCell(left, uint32(i), e.key, e.row)
	}
	setLeafNumCells(left, uint32(len(leftEntries)))

	for i, e := range rightEntries {
		setLeafCell(right, uint32(i), e.key, e.row)
	}
	setLeafNumCells(right, uint32(len(rightEntries)))

	setLeafNextLeaf(left, rightPageNo)
	setLeafNextLeaf(right, nextLeaf)
	pager.SetParent(right, parent)

	if wasRoot {
		_, err := t.splitRoot(leafPage, rightPageNo)
		return err
	}

	pager.SetParent(left, parent)
	newLeftMax := leftEntries[len(leftEntries)-1].key
	newRightMax := rightEntries[len(rightEntries)-1].key
	return t.updateAfterSplit(parent, leafPage, newLeftMax, rightPageNo, newRightMax)
}

// splitRoot is called when the current root (always page 0) overflows. It
// copies the root's current bytes into a freshly allocated page, then
// reinitializes page 0 as a new internal root over the old root's contents
// and the sibling created by the split. Page 0 never stops being the root.
//
// It returns the page number the old root's content was moved to. When the
// old root was itself an internal node, its children's stored parent
// pointers still name the old root page and must be repointed to this
// returned page by the caller — splitRoot only fixes up the two pages it
// directly handles, not their grandchildren.
func (t *Tree) splitRoot(oldLeftContentPage, rightPageNo uint32) (uint32, error) {
	oldRootBytes, err := t.pager.GetPage(oldLeftContentPage)
	if err != nil {
		return 0, err
	}

	newLeftPageNo := t.pager.Allocate()
	newLeft, err := t.pager.GetPage(newLeftPageNo)
	if err != nil {
		return 0, err
	}
	copy(newLeft, oldRootBytes)
	pager.SetIsRoot(newLeft, false)
	pager.SetParent(newLeft, rootPage)

	right, err := t.pager.GetPage(rightPageNo)
	if err != nil {
		return 0, err
	}
	pager.SetIsRoot(right, false)
	pager.SetParent(right, rootPage)

	leftMax, err := t.maxKey(newLeftPageNo)
	if err != nil {
		return 0, err
	}

	root, err := t.pager.GetPage(rootPage)
	if err != nil {
		return 0, err
	}
	initializeInternal(root)
	pager.SetIsRoot(root, true)
	setInternalCell(root, 0, newLeftPageNo, leftMax)
	setInternalNumKeys(root, 1)
	setInternalRightChild(root, rightPageNo)

	return newLeftPageNo, nil
}

// updateAfterSplit fixes up parent after a child split into (leftPage,
// rightPage): it replaces parent's routing key for leftPage with its new
// max key, then inserts a routing entry for rightPage immediately after.
func (t *Tree) updateAfterSplit(parentPage, leftPage uint32, leftMax uint32, rightPage uint32, rightMax uint32) error {
	parent, err := t.pager.GetPage(parentPage)
	if err != nil {
		return err
	}

	n := internalNumKeys(parent)
	leftIdx, err := findChildIndex(parent, leftPage)
	if err != nil {
		return err
	}

	if leftIdx < n {
		setInternalCell(parent, leftIdx, leftPage, leftMax)
	} else {
		// leftPage was the right child; it now routes through leftMax and
		// rightPage becomes the new right child below.
		setInternalRightChild(parent, leftPage)
	}

	return t.insertInternalCell(parentPage, leftPage, leftMax, rightPage, rightMax)
}

// insertInternalCell inserts a new (rightPage, rightMax) routing entry into
// parentPage immediately after the entry for leftPage, splitting parentPage
// first if it is already full.
func (t *Tree) insertInternalCell(parentPage, leftPage uint32, leftMax uint32, rightPage uint32, rightMax uint32) error {
	parent, err := t.pager.GetPage(parentPage)
	if err != nil {
		return err
	}

	n := internalNumKeys(parent)
	if n >= InternalMaxCells {
		return t.splitInternalAndInsert(parentPage, leftPage, leftMax, rightPage, rightMax)
	}

	pos, err := findChildIndex(parent, leftPage)
	if err != nil {
		return err
	}

	if pos == n {
		// leftPage was the right child: demote it into the last cell slot,
		// keyed by its new max, and promote rightPage to the new right
		// child (it now holds the globally largest keys in this subtree).
		internalInsertAt(parent, n, leftPage, leftMax)
		setInternalRightChild(parent, rightPage)
		return nil
	}

	internalInsertAt(parent, pos+1, rightPage, rightMax)
	return nil
}

// splitInternalAndInsert splits a full internal node, inserting a new
// (rightPage, rightMax) entry for the child that split from leftPage, then
// recurses into the grandparent (or performs a root split).
func (t *Tree) splitInternalAndInsert(nodePage uint32, leftPage uint32, leftMax uint32, rightPage uint32, rightMax uint32) error {
	node, err := t.pager.GetPage(nodePage)
	if err != nil {
		return err
	}

	n := internalNumKeys(node)
	type cell struct {
		child uint32
		key   uint32
	}
	cells := make([]cell, 0, n+1)
	for i := uint32(0); i < n; i++ {
		cells = append(cells, cell{child: internalChild(node, i), key: internalKey(node, i)})
	}

	pos, err := findChildIndex(node, leftPage)
	if err != nil {
		return err
	}

	// The node's current right child becomes a regular, keyed cell once the
	// new entry is spliced in below. If that right child is leftPage itself
	// (pos == n), its true key is the leftMax the caller already computed
	// from the split; otherwise its key is filled in once the final list
	// position of this cell is known.
	rightChildCell := cell{child: internalRightChild(node)}
	if pos == n {
		rightChildCell.key = leftMax
	}
	cells = append(cells, rightChildCell)

	inserted := cell{child: rightPage, key: rightMax}
	widened := make([]cell, 0, len(cells)+1)
	widened = append(widened, cells[:pos+1]...)
	widened = append(widened, inserted)
	widened = append(widened, cells[pos+1:]...)

	// When the node's original right child was not leftPage, it is still
	// the last entry in widened; give it its true max key now that the
	// list is final. When it was leftPage, the last entry is "inserted",
	// which already carries rightPage's correct max key.
	if pos != n {
		lastChild := widened[len(widened)-1].child
		lastMax, err := t.maxKey(lastChild)
		if err != nil {
			return err
		}
		widened[len(widened)-1].key = lastMax
	}

	sort.SliceStable(widened[:len(widened)-1], func(i, j int) bool {
		return widened[i].key < widened[j].key
	})

	mid := len(widened) / 2
	leftCells, rightCells := widened[:mid], widened[mid:]

	wasRoot := pager.IsRoot(node)
	parent := pager.GetParent(node)

	initializeInternal(node)
	for i, c := range leftCells {
		if i == len(leftCells)-1 {
			setInternalRightChild(node, c.child)
			break
		}
		setInternalCell(node, uint32(i), c.child, c.key)
	}
	setInternalNumKeys(node, uint32(len(leftCells)-1))

	newRightPageNo := t.pager.Allocate()
	newRight, err := t.pager.GetPage(newRightPageNo)
	if err != nil {
		return err
	}
	initializeInternal(newRight)
	for i, c := range rightCells {
		if i == len(rightCells)-1 {
			setInternalRightChild(newRight, c.child)
			break
		}
		setInternalCell(newRight, uint32(i), c.child, c.key)
	}
	setInternalNumKeys(newRight, uint32(len(rightCells)-1))
	for _, c := range rightCells {
		reparent(t, c.child, newRightPageNo)
	}

	leftMaxKey, err := t.maxKey(nodePage)
	if err != nil {
		return err
	}
	rightMaxKey, err := t.maxKey(newRightPageNo)
	if err != nil {
		return err
	}

	if wasRoot {
		// nodePage's content is about to move to whatever page splitRoot
		// allocates for it; reparent leftCells' children there, not to
		// nodePage, once that destination is known.
		newLeftPageNo, err := t.splitRoot(nodePage, newRightPageNo)
		if err != nil {
			return err
		}
		for _, c := range leftCells {
			reparent(t, c.child, newLeftPageNo)
		}
		return nil
	}

	for _, c := range leftCells {
		reparent(t, c.child, nodePage)
	}
	pager.SetParent(node, parent)
	pager.SetParent(newRight, parent)
	return t.updateAfterSplit(parent, nodePage, leftMaxKey, newRightPageNo, rightMaxKey)
}

func reparent(t *Tree, childPage, parentPage uint32) {
	child, err := t.pager.GetPage(childPage)
	if err != nil {
		return
	}
	pager.SetParent(child, parentPage)
}

// findChildIndex returns the cell index (0..numKeys, where numKeys denotes
// the right child) at which childPage is referenced from node.
func findChildIndex(node []byte, childPage uint32) (uint32, error) {
	n := internalNumKeys(node)
	for i := uint32(0); i < n; i++ {
		if internalChild(node, i) == childPage {
			return i, nil
		}
	}
	if internalRightChild(node) == childPage {
		return n, nil
	}
	return 0, fmt.Errorf("btree: child page %d not found in parent", childPage)
}

// maxKey returns the maximum key stored anywhere in the subtree rooted at
// pageNo, by walking the right spine down to a leaf.
func (t *Tree) maxKey(pageNo uint32) (uint32, error) {
	page, err := t.pager.GetPage(pageNo)
	if err != nil {
		return 0, err
	}
	if pager.GetNodeType(page) == pager.NodeLeaf {
		n := leafNumCells(page)
		if n == 0 {
			return 0, nil
		}
		return leafKey(page, n-1), nil
	}
	return t.maxKey(internalRightChild(page))
}
