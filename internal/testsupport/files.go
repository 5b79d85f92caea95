package testsupport

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	"mytvlog/internal/catalog"
)

// MoveCall records one MoveFiles invocation against the fake store.
type MoveCall struct {
	SrcPattern string
	DstDir     string
}

// FakeFileStore is an in-memory FileStore. Sizes maps full share paths to
// file sizes; mutations rewrite the map the way the SMB client would rewrite
// the share.
type FakeFileStore struct {
	mu    sync.Mutex
	Sizes map[string]int64

	MoveCalls   []MoveCall
	DeleteCalls []string

	// Err, when set, is returned by every mutation.
	Err error
}

// NewFakeFileStore returns an empty fake store.
func NewFakeFileStore() *FakeFileStore {
	return &FakeFileStore{Sizes: make(map[string]int64)}
}

// Put registers a file at p with the given size.
func (f *FakeFileStore) Put(p string, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sizes[p] = size
}

// Paths returns every registered path in sorted order.
func (f *FakeFileStore) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.Sizes))
	for p := range f.Sizes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Exists reports whether a file is present at p.
func (f *FakeFileStore) Exists(ctx context.Context, p string) (bool, error) {
	size, err := f.FileSize(ctx, p)
	if err != nil {
		return false, err
	}
	return size != nil, nil
}

// FileSize returns the registered size, or nil for unknown paths.
func (f *FakeFileStore) FileSize(_ context.Context, p string) (*int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	size, ok := f.Sizes[p]
	if !ok {
		return nil, nil
	}
	return &size, nil
}

func (f *FakeFileStore) matchLocked(pattern string) []string {
	var matches []string
	for p := range f.Sizes {
		if ok, _ := path.Match(pattern, p); ok {
			matches = append(matches, p)
		}
	}
	sort.Strings(matches)
	return matches
}

// MoveFiles relocates every matching path into dstDir, keeping base names.
func (f *FakeFileStore) MoveFiles(_ context.Context, srcPattern, dstDir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MoveCalls = append(f.MoveCalls, MoveCall{SrcPattern: srcPattern, DstDir: dstDir})
	if f.Err != nil {
		return f.Err
	}
	for _, src := range f.matchLocked(srcPattern) {
		dst := dstDir + "/" + catalog.BaseName(src)
		if _, exists := f.Sizes[dst]; exists {
			return fmt.Errorf("destination already exists: %s", dst)
		}
		f.Sizes[dst] = f.Sizes[src]
		delete(f.Sizes, src)
	}
	return nil
}

// DeleteFiles removes every matching path and reports whether anything was
// deleted.
func (f *FakeFileStore) DeleteFiles(_ context.Context, pattern string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls = append(f.DeleteCalls, pattern)
	if f.Err != nil {
		return false, f.Err
	}
	matches := f.matchLocked(pattern)
	for _, p := range matches {
		delete(f.Sizes, p)
	}
	return len(matches) > 0, nil
}
