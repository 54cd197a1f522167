// Package row encodes and decodes the engine's single fixed-schema record:
// (id uint32, username [32]byte, email [255]byte) followed by one reserved
// zero byte, 292 bytes on the wire.
package row

import (
	"encoding/binary"
	"fmt"
)

const (
	UsernameSize = 32
	EmailSize    = 255

	idSize = 4

	// trailerSize is one reserved byte after the email slot; Encode always
	// leaves it zero.
	trailerSize = 1

	// Size is the serialized width of a Row in bytes (292).
	Size = idSize + UsernameSize + EmailSize + trailerSize
)

// Row is the engine's single record type. Username and Email are stored
// null-padded in their fixed slots; the textual value must not itself
// contain a NUL byte.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// Encode serializes r into a freshly allocated Size-byte slice.
func Encode(r Row) ([]byte, error) {
	if len(r.Username) > UsernameSize {
		return nil, fmt.Errorf("row: username exceeds %d bytes", UsernameSize)
	}
	if len(r.Email) > EmailSize {
		return nil, fmt.Errorf("row: email exceeds %d bytes", EmailSize)
	}

	buf := make([]byte, Size)
	binary.LittleEndian.PutUint32(buf[0:4], r.ID)
	copy(buf[4:4+UsernameSize], r.Username)
	copy(buf[4+UsernameSize:4+UsernameSize+EmailSize], r.Email)
	return buf, nil
}

// Decode reads a Row out of a Size-byte slice produced by Encode.
func Decode(buf []byte) (Row, error) {
	if len(buf) != Size {
		return Row{}, fmt.Errorf("row: decode: expected %d bytes, got %d", Size, len(buf))
	}
	return Row{
		ID:       binary.LittleEndian.Uint32(buf[0:4]),
		Username: cstring(buf[4 : 4+UsernameSize]),
		Email:    cstring(buf[4+UsernameSize : 4+UsernameSize+EmailSize]),
	}, nil
}

// Key reads just the 4-byte key prefix written by Encode, without decoding
// the rest of the row. The key is the row's ID.
func Key(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[0:4])
}

func cstring(padded []byte) string {
	n := len(padded)
	for i, b := range padded {
		if b == 0 {
			n = i
			break
		}
	}
	return string(padded[:n])
}
