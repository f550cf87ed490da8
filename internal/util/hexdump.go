// Package util provides small shared helpers for the recgame tools.
package util

import (
	"fmt"
	"strings"
)

// Hexdump formats data in 16-byte rows: offset, hex bytes, printable ASCII.
// Offsets start at baseOffset so dumps of a slice keep file-relative
// addresses.
func Hexdump(data []byte, baseOffset int64) string {
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		chunk := data[i:min(i+16, len(data))]
		var hexPart, ascPart strings.Builder
		for j, c := range chunk {
			if j > 0 {
				hexPart.WriteByte(' ')
			}
			fmt.Fprintf(&hexPart, "%02x", c)
			if c >= 0x20 && c < 0x7f {
				ascPart.WriteByte(c)
			} else {
				ascPart.WriteByte('.')
			}
		}
		fmt.Fprintf(&b, "  %08x  %-47s  %s\n", baseOffset+int64(i), hexPart.String(), ascPart.String())
	}
	return b.String()
}
