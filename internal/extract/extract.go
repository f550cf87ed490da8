// Package extract splits a recorded-game container into a decompressed
// header blob and a raw body blob. Input may be a bare recording or a ZIP
// archive holding one.
package extract

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const chapterAddressThreshold = 100_000_000

// Result describes the two blobs produced by a split. The header blob keeps
// the container's length prefix (and chapter address when present) ahead of
// the inflated bytes, so downstream decoding accepts it unchanged.
type Result struct {
	Header []byte
	Body   []byte
}

// Load returns the raw container bytes at path, unpacking the first
// recording entry when path is a ZIP archive.
func Load(path string, logger *slog.Logger) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err == nil {
		defer zr.Close()
		return loadFromZip(zr, path, logger)
	}
	return os.ReadFile(path)
}

func loadFromZip(zr *zip.ReadCloser, path string, logger *slog.Logger) ([]byte, error) {
	var candidates []*zip.File
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if strings.HasSuffix(name, ".mgz") || strings.HasSuffix(name, ".aoe2record") {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 && len(zr.File) > 0 {
		candidates = zr.File[:1]
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("zip archive %s is empty", path)
	}
	if len(candidates) > 1 {
		logger.Warn("multiple candidates in zip archive", "path", path, "using", candidates[0].Name)
	}
	rc, err := candidates[0].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Split divides a raw container into header and body blobs, inflating the
// header content.
func Split(raw []byte) (*Result, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("file too small to be a recording (%d bytes)", len(raw))
	}
	headerLen := binary.LittleEndian.Uint32(raw[:4])
	if int(headerLen) > len(raw) {
		return nil, fmt.Errorf("header length %d exceeds file size %d", headerLen, len(raw))
	}
	if headerLen < 8 {
		return nil, fmt.Errorf("implausible header length %d", headerLen)
	}

	prefixEnd := 4
	if binary.LittleEndian.Uint32(raw[4:8]) < chapterAddressThreshold {
		prefixEnd = 8
	}
	compressed := raw[prefixEnd:headerLen]

	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()
	inflated, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("inflating header: %w", err)
	}

	header := make([]byte, 0, prefixEnd+len(inflated))
	header = append(header, raw[:prefixEnd]...)
	header = append(header, inflated...)
	return &Result{Header: header, Body: raw[headerLen:]}, nil
}

// WriteFiles splits the container at recPath and writes <stem>.header.bin
// and <stem>.body.bin next to it (or into outDir when non-empty). It
// returns the two output paths.
func WriteFiles(recPath, outDir string, logger *slog.Logger) (headerPath, bodyPath string, err error) {
	raw, err := Load(recPath, logger)
	if err != nil {
		return "", "", err
	}
	res, err := Split(raw)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", recPath, err)
	}

	stem := strings.TrimSuffix(filepath.Base(recPath), filepath.Ext(recPath))
	dir := filepath.Dir(recPath)
	if outDir != "" {
		dir = outDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", err
		}
	}
	headerPath = filepath.Join(dir, stem+".header.bin")
	bodyPath = filepath.Join(dir, stem+".body.bin")

	if err := os.WriteFile(headerPath, res.Header, 0o644); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(bodyPath, res.Body, 0o644); err != nil {
		return "", "", err
	}
	logger.Info("extracted recording",
		"path", recPath,
		"header_bytes", len(res.Header),
		"body_bytes", len(res.Body))
	return headerPath, bodyPath, nil
}
