package blockstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/coredag/fullnode/consensus"
)

const bucketSize = 1000

// BlockStore is a height-addressed, file-per-block store. Blocks land
// under {root}/{height/1000}/{height:09d}.blk so no single directory
// accumulates more than 1000 entries.
type BlockStore struct {
	root string
}

// Open creates (if absent) and returns the block store rooted at
// dataDir/blocks.
func Open(dataDir string) (*BlockStore, error) {
	root := filepath.Join(dataDir, "blocks")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, newErr(ErrIo, "mkdir %s: %v", root, err)
	}
	return &BlockStore{root: root}, nil
}

func (bs *BlockStore) bucketDir(height consensus.Height) string {
	return filepath.Join(bs.root, strconv.FormatUint(uint64(height)/bucketSize, 10))
}

func (bs *BlockStore) path(height consensus.Height) string {
	return filepath.Join(bs.bucketDir(height), fmt.Sprintf("%09d.blk", height))
}

// Write stores raw block bytes at height, overwriting any existing
// file at that height. The write lands via a temp file plus rename so
// a crash mid-write never leaves a partial .blk file visible under its
// final name, and both the file and its directory are fsynced before
// returning.
func (bs *BlockStore) Write(height consensus.Height, data []byte) error {
	dir := bs.bucketDir(height)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newErr(ErrIo, "mkdir %s: %v", dir, err)
	}
	final := bs.path(height)
	tmp := final + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return newErr(ErrIo, "create %s: %v", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return newErr(ErrIo, "write %s: %v", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return newErr(ErrIo, "fsync %s: %v", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return newErr(ErrIo, "close %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return newErr(ErrIo, "rename %s: %v", final, err)
	}
	if dirf, err := os.Open(dir); err == nil {
		_ = dirf.Sync()
		_ = dirf.Close()
	}
	return nil
}

// Read returns the raw block bytes stored at height.
func (bs *BlockStore) Read(height consensus.Height) ([]byte, error) {
	data, err := os.ReadFile(bs.path(height))
	if errors.Is(err, os.ErrNotExist) {
		return nil, newErr(ErrNotFound, "height %d", height)
	}
	if err != nil {
		return nil, newErr(ErrIo, "%v", err)
	}
	return data, nil
}

// Exists reports whether a block is stored at height.
func (bs *BlockStore) Exists(height consensus.Height) bool {
	_, err := os.Stat(bs.path(height))
	return err == nil
}

// Prune removes the block stored at height. It is a no-op if absent.
func (bs *BlockStore) Prune(height consensus.Height) error {
	err := os.Remove(bs.path(height))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return newErr(ErrIo, "remove height %d: %v", height, err)
	}
	return nil
}

// Scan walks every bucket directory and returns the sorted set of
// heights currently stored on disk. It is used on restart to recover
// which blocks survived a prior run.
func (bs *BlockStore) Scan() ([]consensus.Height, error) {
	entries, err := os.ReadDir(bs.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, newErr(ErrIo, "%v", err)
	}
	var heights []consensus.Height
	for _, bucket := range entries {
		if !bucket.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(bs.root, bucket.Name()))
		if err != nil {
			return nil, newErr(ErrIo, "%v", err)
		}
		for _, f := range files {
			name := f.Name()
			if !strings.HasSuffix(name, ".blk") {
				continue
			}
			n, err := strconv.ParseUint(strings.TrimSuffix(name, ".blk"), 10, 32)
			if err != nil {
				continue
			}
			heights = append(heights, consensus.Height(n))
		}
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights, nil
}

// TotalSize sums the on-disk size of every stored block.
func (bs *BlockStore) TotalSize() (uint64, error) {
	var total uint64
	entries, err := os.ReadDir(bs.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, newErr(ErrIo, "%v", err)
	}
	for _, bucket := range entries {
		if !bucket.IsDir() {
			continue
		}
		dir := filepath.Join(bs.root, bucket.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return 0, newErr(ErrIo, "%v", err)
		}
		for _, f := range files {
			if !strings.HasSuffix(f.Name(), ".blk") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				return 0, newErr(ErrIo, "%v", err)
			}
			total += uint64(info.Size())
		}
	}
	return total, nil
}
