package codegen

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// BuildID computes a content hash over the emitted .text and .data bytes
// and wraps it in the standard GNU ELF .note.gnu.build-id layout (name
// "GNU\x00", type NT_GNU_BUILD_ID = 3), the same convention Go's own
// linker and most production linkers use to make an object's identity
// derivable from its contents rather than a counter.
func BuildID(text, data []byte) []byte {
	const ntGNUBuildID = 3

	h, _ := blake2b.New(16, nil) // 128-bit digest, matching --build-id=md5-style short IDs
	h.Write(text)
	h.Write(data)
	sum := h.Sum(nil)

	nameField := []byte("GNU\x00")
	note := make([]byte, 0, 16+len(nameField)+len(sum))

	head := make([]byte, 12)
	binary.LittleEndian.PutUint32(head[0:], uint32(len(nameField)))
	binary.LittleEndian.PutUint32(head[4:], uint32(len(sum)))
	binary.LittleEndian.PutUint32(head[8:], ntGNUBuildID)

	note = append(note, head...)
	note = append(note, nameField...)
	note = append(note, sum...)
	return note
}
