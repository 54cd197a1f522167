package pager

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenNewFileHasZeroPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer p.Close()

	if p.PageCount() != 0 {
		t.Fatalf("expected 0 pages for a new file, got %d", p.PageCount())
	}
}

func TestOpenRejectsCorruptFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	if err := os.WriteFile(path, make([]byte, Size+1), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatalf("expected error opening a file whose size is not a multiple of %d", Size)
	}
}

func TestAllocateAndGetPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer p.Close()

	pageNo := p.Allocate()
	if pageNo != 0 {
		t.Fatalf("first allocated page should be 0, got %d", pageNo)
	}
	if p.PageCount() != 1 {
		t.Fatalf("expected page count 1 after one allocation, got %d", p.PageCount())
	}

	buf, err := p.GetPage(pageNo)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	buf[0] = 0x42

	buf2, err := p.GetPage(pageNo)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if buf2[0] != 0x42 {
		t.Fatalf("GetPage did not return the same cached buffer")
	}
}

func TestFlushAllPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	pageNo := p.Allocate()
	buf, err := p.GetPage(pageNo)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	copy(buf, []byte("hello page"))

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	p2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer p2.Close()

	if p2.PageCount() != 1 {
		t.Fatalf("expected 1 page after reopen, got %d", p2.PageCount())
	}

	got, err := p2.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if string(got[:len("hello page")]) != "hello page" {
		t.Fatalf("page contents did not survive close/reopen: %q", got[:len("hello page")])
	}
}
