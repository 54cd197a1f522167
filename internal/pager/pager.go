package pager

import (
	"fmt"
	"os"
)

// Pager owns the database file and a cache of its pages, keyed by page
// number. Callers mutate page bytes in place through GetPage; there is no
// dirty tracking, every cached page is rewritten on FlushAll.
type Pager struct {
	file      *os.File
	pageCount uint32
	cache     map[uint32][]byte
}

// Open opens path for read/write, creating it if necessary, and computes the
// current page count from the file size. A file whose size is not a
// multiple of Size indicates a corrupted database and is a fatal error.
func Open(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pager: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pager: stat %s: %w", path, err)
	}

	if info.Size()%Size != 0 {
		f.Close()
		return nil, fmt.Errorf("pager: corrupt file: size %d is not a multiple of page size %d", info.Size(), Size)
	}

	return &Pager{
		file:      f,
		pageCount: uint32(info.Size() / Size),
		cache:     make(map[uint32][]byte),
	}, nil
}

// PageCount returns the number of pages the file is known to contain,
// including pages allocated but not yet flushed.
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// GetPage returns the mutable in-memory buffer for pageNo. The first call
// for a given page number either reads it from disk (if it already exists
// in the file) or zero-fills it; subsequent calls return the same cached
// buffer.
func (p *Pager) GetPage(pageNo uint32) ([]byte, error) {
	if buf, ok := p.cache[pageNo]; ok {
		return buf, nil
	}

	buf := make([]byte, Size)
	if pageNo < p.pageCount {
		if _, err := p.file.ReadAt(buf, int64(pageNo)*Size); err != nil {
			return nil, fmt.Errorf("pager: read page %d: %w", pageNo, err)
		}
	}

	p.cache[pageNo] = buf
	if pageNo >= p.pageCount {
		p.pageCount = pageNo + 1
	}
	return buf, nil
}

// Allocate reserves the next page number, seeds a zeroed cached buffer for
// it, and returns its page number.
func (p *Pager) Allocate() uint32 {
	pageNo := p.pageCount
	p.pageCount++
	p.cache[pageNo] = make([]byte, Size)
	return pageNo
}

// FlushAll writes every cached page back to disk at its page-number offset,
// then truncates the file to exactly PageCount pages.
func (p *Pager) FlushAll() error {
	for pageNo, buf := range p.cache {
		if _, err := p.file.WriteAt(buf, int64(pageNo)*Size); err != nil {
			return fmt.Errorf("pager: write page %d: %w", pageNo, err)
		}
	}
	if err := p.file.Truncate(int64(p.pageCount) * Size); err != nil {
		return fmt.Errorf("pager: truncate: %w", err)
	}
	return nil
}

// Close flushes all cached pages and releases the underlying file.
func (p *Pager) Close() error {
	if err := p.FlushAll(); err != nil {
		return err
	}
	return p.file.Close()
}
