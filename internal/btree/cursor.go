package btree

import "rdb/internal/pager"

// Cursor identifies a position in the tree's logical ascending-key
// sequence: a leaf page plus a cell index within it. Cursors are not valid
// across mutations — any insert that triggers a split invalidates every
// outstanding cursor (spec.md §9).
type Cursor struct {
	PageNo     uint32
	CellIdx    uint32
	EndOfTable bool
}

// Start returns a cursor positioned at the tree's minimum key, i.e. the
// first cell of the left-most leaf.
func (t *Tree) Start() (*Cursor, error) {
	pageNo := rootPage
	for {
		page, err := t.pager.GetPage(pageNo)
		if err != nil {
			return nil, err
		}
		if pager.GetNodeType(page) == pager.NodeLeaf {
			return &Cursor{
				PageNo:     pageNo,
				CellIdx:    0,
				EndOfTable: leafNumCells(page) == 0,
			}, nil
		}
		pageNo = childAt(page, 0)
	}
}

// Find descends from the root to the leaf where key belongs, returning a
// cursor at either the cell holding key or the position where it would be
// inserted. It always returns a position; callers must inspect the key at
// that cell to tell present from absent.
func (t *Tree) Find(key uint32) (*Cursor, error) {
	pageNo := rootPage
	for {
		page, err := t.pager.GetPage(pageNo)
		if err != nil {
			return nil, err
		}

		if pager.GetNodeType(page) == pager.NodeLeaf {
			idx := leafSearch(page, key)
			return &Cursor{PageNo: pageNo, CellIdx: idx}, nil
		}

		pageNo = internalChildForKey(page, key)
	}
}

// leafSearch binary-searches a leaf's cells for key, returning either the
// index of the matching cell or the index at which it would be inserted.
func leafSearch(page []byte, key uint32) uint32 {
	n := leafNumCells(page)
	lo, hi := uint32(0), n
	for lo < hi {
		mid := (lo + hi) / 2
		k := leafKey(page, mid)
		if k == key {
			return mid
		}
		if k < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// internalChildForKey binary-searches an internal node's routing keys to
// pick the child whose key range contains key.
func internalChildForKey(page []byte, key uint32) uint32 {
	n := internalNumKeys(page)
	lo, hi := uint32(0), n
	for lo < hi {
		mid := (lo + hi) / 2
		if key <= internalKey(page, mid) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return childAt(page, lo)
}

// Advance moves the cursor to the next cell in ascending key order, jumping
// to the next leaf via the next-leaf chain when the current leaf is
// exhausted.
func (t *Tree) Advance(c *Cursor) error {
	page, err := t.pager.GetPage(c.PageNo)
	if err != nil {
		return err
	}

	c.CellIdx++
	if c.CellIdx < leafNumCells(page) {
		return nil
	}

	next := leafNextLeaf(page)
	if next == 0 {
		c.EndOfTable = true
		return nil
	}
	c.PageNo = next
	c.CellIdx = 0
	return nil
}

// Value returns the encoded row bytes at the cursor's current position.
func (t *Tree) Value(c *Cursor) ([]byte, error) {
	page, err := t.pager.GetPage(c.PageNo)
	if err != nil {
		return nil, err
	}
	return leafValue(page, c.CellIdx), nil
}
