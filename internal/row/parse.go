package row

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInsertArgs validates the three whitespace-separated fields of an
// "insert <id> <username> <email>" statement and builds the Row to store.
//
// Error strings are part of the engine's external contract and must match
// exactly: "Syntax error.", "ID must be positive.", "String is too long."
func ParseInsertArgs(args string) (Row, error) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return Row{}, fmt.Errorf("Syntax error.")
	}

	idTok, username, email := fields[0], fields[1], fields[2]

	id, err := strconv.ParseInt(idTok, 10, 64)
	if err != nil || id < 0 || id > int64(^uint32(0)) {
		return Row{}, fmt.Errorf("ID must be positive.")
	}

	if len(username) > UsernameSize || len(email) > EmailSize {
		return Row{}, fmt.Errorf("String is too long.")
	}

	return Row{ID: uint32(id), Username: username, Email: email}, nil
}
