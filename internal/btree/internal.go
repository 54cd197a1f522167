package btree

import (
	"encoding/binary"

	"rdb/internal/pager"
)

// Internal node layout (extends the common 6-byte header):
//
//	offset 6..9:   number of keys     (uint32)
//	offset 10..13: right-child page   (uint32)
//	offset 14..:   cells, InternalCellSize bytes each
//
// A cell is a 4-byte left-child page number followed by a 4-byte key: the
// maximum key reachable through that child. An internal node with N keys
// therefore addresses N+1 children (N cell children plus the right child).
const (
	internalNumKeysOffset = pager.CommonHeaderSize
	internalNumKeysSize   = 4
	internalRightOffset   = internalNumKeysOffset + internalNumKeysSize
	internalRightSize     = 4

	// InternalHeaderSize is the total internal header width in bytes.
	InternalHeaderSize = internalRightOffset + internalRightSize // 14

	internalChildSize = 4
	internalKeySize   = 4
	InternalCellSize  = internalChildSize + internalKeySize // 8

	// InternalMaxCells bounds the fan-out of an internal node. Chosen small
	// on purpose (see SPEC_FULL.md §3.1) so internal splits are exercised by
	// modestly sized trees rather than requiring hundreds of keys.
	InternalMaxCells = 3
)

func internalNumKeys(page []byte) uint32 {
	return binary.LittleEndian.Uint32(page[internalNumKeysOffset : internalNumKeysOffset+internalNumKeysSize])
}

func setInternalNumKeys(page []byte, n uint32) {
	binary.LittleEndian.PutUint32(page[internalNumKeysOffset:internalNumKeysOffset+internalNumKeysSize], n)
}

func internalRightChild(page []byte) uint32 {
	return binary.LittleEndian.Uint32(page[internalRightOffset : internalRightOffset+internalRightSize])
}

func setInternalRightChild(page []byte, child uint32) {
	binary.LittleEndian.PutUint32(page[internalRightOffset:internalRightOffset+internalRightSize], child)
}

func internalCellOffset(cellIdx uint32) int {
	return InternalHeaderSize + int(cellIdx)*InternalCellSize
}

func internalCell(page []byte, cellIdx uint32) []byte {
	off := internalCellOffset(cellIdx)
	return page[off : off+InternalCellSize]
}

func internalChild(page []byte, cellIdx uint32) uint32 {
	return binary.LittleEndian.Uint32(internalCell(page, cellIdx)[:internalChildSize])
}

func internalKey(page []byte, cellIdx uint32) uint32 {
	return binary.LittleEndian.Uint32(internalCell(page, cellIdx)[internalChildSize:])
}

func setInternalCell(page []byte, cellIdx uint32, child uint32, key uint32) {
	cell := internalCell(page, cellIdx)
	binary.LittleEndian.PutUint32(cell[:internalChildSize], child)
	binary.LittleEndian.PutUint32(cell[internalChildSize:], key)
}

func initializeInternal(page []byte) {
	pager.SetNodeType(page, pager.NodeInternal)
	pager.SetIsRoot(page, false)
	setInternalNumKeys(page, 0)
	setInternalRightChild(page, 0)
}

// childAt returns the page number of the i-th child (0..numKeys), where
// child numKeys is the right child stored in the header.
func childAt(page []byte, i uint32) uint32 {
	n := internalNumKeys(page)
	if i == n {
		return internalRightChild(page)
	}
	return internalChild(page, i)
}

func internalInsertAt(page []byte, cellIdx uint32, child uint32, key uint32) {
	n := internalNumKeys(page)
	for i := n; i > cellIdx; i-- {
		copy(internalCell(page, i), internalCell(page, i-1))
	}
	setInternalCell(page, cellIdx, child, key)
	setInternalNumKeys(page, n+1)
}
