package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/siegetools/recgame/internal/catalog"
	"github.com/siegetools/recgame/internal/extract"
	"github.com/siegetools/recgame/internal/util"
	"github.com/siegetools/recgame/internal/worker"
	"github.com/siegetools/recgame/pkg/mgz"
	"github.com/siegetools/recgame/pkg/rec"
)

// runHeader decodes the header of each file and prints one JSON document per
// file. A bad file is reported and skipped.
func runHeader(paths []string) error {
	if len(paths) == 0 {
		return errors.New("no files provided")
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	var failed int
	for _, path := range paths {
		hdr, _, err := decodeFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, describeError(err))
			continue
		}
		if err := out.Encode(hdr); err != nil {
			return err
		}
	}
	return failedError(failed, len(paths))
}

type bodyLine struct {
	Kind string `json:"kind"`
	*rec.Operation
}

// runBody decodes each file's body stream and prints one JSON line per
// operation. Inputs may be full containers or pre-split body blobs as
// produced by the extract subcommand.
func runBody(paths []string) error {
	if len(paths) == 0 {
		return errors.New("no files provided")
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	out := json.NewEncoder(w)

	var failed int
	for _, path := range paths {
		c, err := bodyCursor(path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, describeError(err))
			continue
		}
		if c == nil {
			continue // header-only file
		}
		for {
			op, err := mgz.ReadOperation(c)
			if errors.Is(err, mgz.ErrEndOfData) {
				break
			}
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %s\n", path, describeError(err))
				break
			}
			if err := out.Encode(bodyLine{Kind: op.Type.String(), Operation: op}); err != nil {
				return err
			}
		}
	}
	return failedError(failed, len(paths))
}

// runExtract splits each container into header and body blob files next to
// the input.
func runExtract(paths []string) error {
	if len(paths) == 0 {
		return errors.New("no files provided")
	}

	var failed int
	for _, path := range paths {
		headerPath, bodyPath, err := extract.WriteFiles(path, "", Logger)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, describeError(err))
			continue
		}
		fmt.Println(headerPath)
		fmt.Println(bodyPath)
	}
	return failedError(failed, len(paths))
}

// runDump hex-dumps the split header and body blobs of one file, truncated to
// maxBytes per blob (default 512, 0 for everything).
func runDump(args []string) error {
	if len(args) == 0 {
		return errors.New("no file provided")
	}
	limit := 512
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid byte count %q", args[1])
		}
		limit = n
	}

	raw, err := extract.Load(args[0], Logger)
	if err != nil {
		return err
	}
	res, err := extract.Split(raw)
	if err != nil {
		return err
	}

	fmt.Printf("header (%d bytes)\n", len(res.Header))
	fmt.Print(util.Hexdump(truncate(res.Header, limit), 0))
	fmt.Printf("\nbody (%d bytes)\n", len(res.Body))
	fmt.Print(util.Hexdump(truncate(res.Body, limit), 0))
	return nil
}

// runIndex decodes every recording under the given paths into the configured
// catalog backend. Directories are walked for recording files.
func runIndex(args []string) error {
	files, err := collectRecordings(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no recordings found")
	}

	backend, err := catalog.NewBackend()
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return err
	}
	defer backend.Close()

	mon := setupMonitor()
	if mon != nil {
		defer mon.Close()
	}

	m := worker.NewManager(worker.Dependencies{
		LogManager: LogManager,
		Backend:    backend,
		Monitor:    mon,
	})

	var failed int
	for _, r := range m.Run(context.Background(), files) {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", r.Path, describeError(r.Err))
			continue
		}
		fmt.Printf("%s: %s save %.2f, %d players, %d operations, %dms\n",
			r.Path, r.Record.GameVersion, r.Record.SaveVersion,
			r.Record.NumPlayers, r.Record.Operations, r.Record.DurationMs)
	}
	return failedError(failed, len(files))
}

// bodyCursor positions a cursor at the first body operation of path, which
// may be a full container or a pre-split body blob. A nil cursor with nil
// error means the file holds a header and no body.
func bodyCursor(path string) (*mgz.Cursor, error) {
	raw, err := extract.Load(path, Logger)
	if err != nil {
		return nil, err
	}

	if isBareBody(path, raw) {
		c := mgz.NewBytesCursor(raw)
		if _, _, err := mgz.ReadBareMeta(c); err != nil {
			return nil, err
		}
		return c, nil
	}

	r := bytes.NewReader(raw)
	hdr, err := mgz.DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	c, err := mgz.NewCursor(r)
	if err != nil {
		return nil, err
	}
	if _, err := mgz.ReadMeta(c, hdr.Version); err != nil {
		if errors.Is(err, mgz.ErrEndOfData) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// isBareBody reports whether raw is a pre-split body blob rather than a
// container. A container opens with its header length, never below 8; a
// body blob opens with a log-version word far below that.
func isBareBody(path string, raw []byte) bool {
	if strings.HasSuffix(strings.ToLower(path), ".body.bin") {
		return true
	}
	return len(raw) >= 4 && binary.LittleEndian.Uint32(raw[:4]) < 8
}

// decodeFile loads a container (bare or zipped), decodes its header and
// returns a cursor positioned at the body.
func decodeFile(path string) (*rec.Header, *mgz.Cursor, error) {
	raw, err := extract.Load(path, Logger)
	if err != nil {
		return nil, nil, err
	}
	r := bytes.NewReader(raw)
	hdr, err := mgz.DecodeHeader(r)
	if err != nil {
		return nil, nil, err
	}
	c, err := mgz.NewCursor(r)
	if err != nil {
		return nil, nil, err
	}
	return hdr, c, nil
}

func collectRecordings(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".mgz", ".aoe2record", ".zip":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// describeError renders a decode failure with its kind and offset.
func describeError(err error) string {
	var unsupported *mgz.UnsupportedFormatError
	var corruptHeader *mgz.CorruptHeaderError
	var corruptBody *mgz.CorruptBodyError
	switch {
	case errors.As(err, &unsupported):
		return fmt.Sprintf("unsupported format: %v", err)
	case errors.As(err, &corruptHeader):
		return fmt.Sprintf("corrupt header at offset 0x%x: %v", corruptHeader.Offset, err)
	case errors.As(err, &corruptBody):
		return fmt.Sprintf("corrupt body at offset 0x%x: %v", corruptBody.Offset, err)
	case errors.Is(err, mgz.ErrEndOfData):
		return fmt.Sprintf("truncated: %v", err)
	}
	return err.Error()
}

func failedError(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d files failed", failed, total)
}

func truncate(b []byte, limit int) []byte {
	if limit > 0 && len(b) > limit {
		return b[:limit]
	}
	return b
}
