package repl

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"rdb/internal/btree"
)

func runSession(t *testing.T, path, input string) string {
	t.Helper()
	tr, err := btree.Open(path)
	if err != nil {
		t.Fatalf("btree.Open failed: %v", err)
	}

	var out strings.Builder
	clean, err := Run(strings.NewReader(input), &out, tr)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if clean {
		if err := tr.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
	return out.String()
}

// S1: a single insert round-trips through a select, then .exit.
func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	got := runSession(t, path, "insert 1 user1 person1@example.com\nselect\n.exit\n")

	want := "rdb > Executed.\n" +
		"rdb > (1, user1, person1@example.com)\n" +
		"Executed.\n" +
		"rdb > "
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// S2: maximum-length username and email fields round-trip verbatim.
func TestMaxLengthStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	username := strings.Repeat("a", 32)
	email := strings.Repeat("a", 255)

	got := runSession(t, path, "insert 1 "+username+" "+email+"\nselect\n.exit\n")

	want := "rdb > Executed.\n" +
		"rdb > (1, " + username + ", " + email + ")\n" +
		"Executed.\n" +
		"rdb > "
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// S3: an overlong field is rejected before it ever reaches the tree.
func TestStringTooLong(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	username := strings.Repeat("a", 33)
	email := strings.Repeat("a", 256)

	got := runSession(t, path, "insert 1 "+username+" "+email+"\nselect\n.exit\n")

	want := "rdb > String is too long.\n" +
		"rdb > Executed.\n" +
		"rdb > "
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// S4: a negative id is rejected before it ever reaches the tree.
func TestNegativeID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	got := runSession(t, path, "insert -1 cstack foo@bar.com\nselect\n.exit\n")

	want := "rdb > ID must be positive.\n" +
		"rdb > Executed.\n" +
		"rdb > "
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// S5: a row inserted and explicitly exited in one session is visible to a
// fresh REPL session opened against the same file.
func TestPersistenceAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	runSession(t, path, "insert 1 user1 person1@example.com\n.exit\n")
	got := runSession(t, path, "select\n.exit\n")

	want := "rdb > (1, user1, person1@example.com)\n" +
		"Executed.\n" +
		"rdb > "
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// S6: inserting the same id twice reports a duplicate-key error and leaves
// exactly one row behind.
func TestDuplicateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	got := runSession(t, path,
		"insert 1 user1 person1@example.com\n"+
			"insert 1 user1 person1@example.com\n"+
			"select\n.exit\n")

	want := "rdb > Executed.\n" +
		"rdb > Error: Duplicate key.\n" +
		"rdb > (1, user1, person1@example.com)\n" +
		"Executed.\n" +
		"rdb > "
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// S7: out-of-order inserts into a single leaf print back sorted by key.
func TestBtreeSingleLeafOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	got := runSession(t, path,
		"insert 3 user3 person3@example.com\n"+
			"insert 1 user1 person1@example.com\n"+
			"insert 2 user2 person2@example.com\n"+
			".btree\n.exit\n")

	want := "rdb > Executed.\n" +
		"rdb > Executed.\n" +
		"rdb > Executed.\n" +
		"rdb > Tree:\n" +
		"- leaf (size 3)\n" +
		"  - 1\n" +
		"  - 2\n" +
		"  - 3\n" +
		"rdb > "
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// S8: 14 ascending inserts split the root leaf into an internal node with
// one routing key over two seven-row leaves.
func TestBtreeLeafSplit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	var in strings.Builder
	var want strings.Builder
	for i := 1; i <= 14; i++ {
		s := strconv.Itoa(i)
		in.WriteString("insert " + s + " user" + s + " person" + s + "@example.com\n")
		want.WriteString("rdb > Executed.\n")
	}
	in.WriteString(".btree\n.exit\n")

	want.WriteString("rdb > Tree:\n")
	want.WriteString("- internal (size 1)\n")
	want.WriteString("  - leaf (size 7)\n")
	for i := 1; i <= 7; i++ {
		want.WriteString("    - " + strconv.Itoa(i) + "\n")
	}
	want.WriteString("  - key 7\n")
	want.WriteString("  - leaf (size 7)\n")
	for i := 8; i <= 14; i++ {
		want.WriteString("    - " + strconv.Itoa(i) + "\n")
	}
	want.WriteString("rdb > ")

	got := runSession(t, path, in.String())
	if got != want.String() {
		t.Fatalf("got %q, want %q", got, want.String())
	}
}
