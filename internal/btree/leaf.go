package btree

import (
	"encoding/binary"

	"rdb/internal/pager"
	"rdb/internal/row"
)

// Leaf node layout (extends the common 6-byte header):
//
//	offset 6..9:   number of cells   (uint32)
//	offset 10..13: next-leaf page    (uint32, 0 = none)
//	offset 14..:   cells, LeafCellSize bytes each
//
// A cell is a 4-byte key followed by the Size-byte encoded row.
const (
	leafNumCellsOffset = pager.CommonHeaderSize
	leafNumCellsSize   = 4
	leafNextLeafOffset = leafNumCellsOffset + leafNumCellsSize
	leafNextLeafSize   = 4

	// LeafHeaderSize is the total leaf header width in bytes.
	LeafHeaderSize = leafNextLeafOffset + leafNextLeafSize // 14

	leafKeySize  = 4
	LeafCellSize = leafKeySize + row.Size // 296

	// LeafSpaceForCells is the page space left for cells after the header.
	LeafSpaceForCells = pager.Size - LeafHeaderSize // 4082
	// LeafMaxCells is the maximum number of cells a leaf page can hold.
	LeafMaxCells = LeafSpaceForCells / LeafCellSize // 13
)

func leafNumCells(page []byte) uint32 {
	return binary.LittleEndian.Uint32(page[leafNumCellsOffset : leafNumCellsOffset+leafNumCellsSize])
}

func setLeafNumCells(page []byte, n uint32) {
	binary.LittleEndian.PutUint32(page[leafNumCellsOffset:leafNumCellsOffset+leafNumCellsSize], n)
}

func leafNextLeaf(page []byte) uint32 {
	return binary.LittleEndian.Uint32(page[leafNextLeafOffset : leafNextLeafOffset+leafNextLeafSize])
}

func setLeafNextLeaf(page []byte, next uint32) {
	binary.LittleEndian.PutUint32(page[leafNextLeafOffset:leafNextLeafOffset+leafNextLeafSize], next)
}

func leafCellOffset(cellIdx uint32) int {
	return LeafHeaderSize + int(cellIdx)*LeafCellSize
}

func leafCell(page []byte, cellIdx uint32) []byte {
	off := leafCellOffset(cellIdx)
	return page[off : off+LeafCellSize]
}

func leafKey(page []byte, cellIdx uint32) uint32 {
	return binary.LittleEndian.Uint32(leafCell(page, cellIdx)[:leafKeySize])
}

func leafValue(page []byte, cellIdx uint32) []byte {
	return leafCell(page, cellIdx)[leafKeySize:]
}

// setLeafCell writes key and the already-encoded row bytes into cellIdx.
func setLeafCell(page []byte, cellIdx uint32, key uint32, rowBytes []byte) {
	cell := leafCell(page, cellIdx)
	binary.LittleEndian.PutUint32(cell[:leafKeySize], key)
	copy(cell[leafKeySize:], rowBytes)
}

func initializeLeaf(page []byte) {
	pager.SetNodeType(page, pager.NodeLeaf)
	pager.SetIsRoot(page, false)
	setLeafNumCells(page, 0)
	setLeafNextLeaf(page, 0)
}

// leafInsertAt shifts cells at position >= cellIdx one slot to the right to
// make room, then writes the new cell. Caller must have already verified
// there is room (numCells < LeafMaxCells).
func leafInsertAt(page []byte, cellIdx uint32, key uint32, rowBytes []byte) {
	n := leafNumCells(page)
	for i := n; i > cellIdx; i-- {
		copy(leafCell(page, i), leafCell(page, i-1))
	}
	setLeafCell(page, cellIdx, key, rowBytes)
	setLeafNumCells(page, n+1)
}
