package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexdump(t *testing.T) {
	data := append([]byte("VER 9.4\x00"), 0x00, 0x80, 0x55, 0x41)
	out := Hexdump(data, 0)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "00000000")
	assert.Contains(t, lines[0], "56 45 52 20 39 2e 34 00")
	assert.Contains(t, lines[0], "VER 9.4..")
}

func TestHexdumpMultipleRows(t *testing.T) {
	data := make([]byte, 40)
	out := Hexdump(data, 0x100)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "00000100")
	assert.Contains(t, lines[1], "00000110")
	assert.Contains(t, lines[2], "00000120")
	// Final row has only eight bytes.
	assert.Contains(t, lines[2], "........")
}

func TestHexdumpEmpty(t *testing.T) {
	assert.Empty(t, Hexdump(nil, 0))
}
