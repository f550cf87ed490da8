package mgz

import (
	"bytes"
	"fmt"
)

// deStringMagic prefixes every DE-encoded string.
var deStringMagic = []byte{0x60, 0x0a}

// aocString reads an i16 length prefix followed by that many bytes.
func aocString(c *Cursor) (string, error) {
	n, err := c.I16()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("negative string length %d at offset %d", n, c.Offset())
	}
	b, err := c.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return cleanString(b), nil
}

// intString reads a u32 length prefix followed by that many bytes.
func intString(c *Cursor) (string, error) {
	b, err := c.PrefixedBytes()
	if err != nil {
		return "", err
	}
	return cleanString(b), nil
}

// deString reads a DE string: 2-byte magic, i16 length, then the bytes.
func deString(c *Cursor) (string, error) {
	magic, err := c.Bytes(2)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(magic, deStringMagic) {
		return "", fmt.Errorf("de string magic mismatch at offset %d: got %x", c.Offset()-2, magic)
	}
	n, err := c.I16()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("negative string length %d at offset %d", n, c.Offset())
	}
	b, err := c.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return cleanString(b), nil
}

// hdString reads an HD string: i16 length, 2-byte magic, then the bytes.
func hdString(c *Cursor) (string, error) {
	n, err := c.I16()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("negative string length %d at offset %d", n, c.Offset())
	}
	magic, err := c.Bytes(2)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(magic, deStringMagic) {
		return "", fmt.Errorf("hd string magic mismatch at offset %d: got %x", c.Offset()-2, magic)
	}
	b, err := c.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return cleanString(b), nil
}

// stringBlock reads a DE header string list: each entry is a u32 crc followed
// by a DE string; a crc strictly between 0 and 255 terminates the list.
func stringBlock(c *Cursor) ([]string, error) {
	var out []string
	for {
		crc, err := c.U32()
		if err != nil {
			return nil, err
		}
		if crc > 0 && crc < 255 {
			return out, nil
		}
		s, err := deString(c)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

// cleanString strips trailing NUL padding.
func cleanString(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}
