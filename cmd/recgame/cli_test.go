package main

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBareBody(t *testing.T) {
	containerPrefix := make([]byte, 8)
	binary.LittleEndian.PutUint32(containerPrefix, 23184)

	bodyPrefix := make([]byte, 8)
	binary.LittleEndian.PutUint32(bodyPrefix, 5)

	tests := []struct {
		name string
		path string
		raw  []byte
		want bool
	}{
		{"container by content", "game.mgz", containerPrefix, false},
		{"body blob by suffix", "game.body.bin", containerPrefix, true},
		{"body blob by suffix uppercase", "GAME.BODY.BIN", containerPrefix, true},
		{"body blob by log version word", "stream.dat", bodyPrefix, true},
		{"too short to call", "stub", []byte{1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBareBody(tt.path, tt.raw))
		})
	}
}
