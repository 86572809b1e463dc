package jsonapi

import (
	"github.com/dshills/docshare/internal/jsonapi/handle"
)

// GetPath resolves path against the document of an open key and returns a
// handle to the first match in document order. It returns 0 for an
// invalid key handle, a malformed path, or no match.
func (b *Bridge) GetPath(ref KeyRef, path string) PathRef {
	kh, ok := b.keys.Get(handle.ID(ref))
	if !ok {
		return 0
	}
	doc := kh.document()
	if doc == nil {
		return 0
	}
	val, err := doc.First(path)
	if err != nil {
		b.log().Debug("path not resolved", "key", kh.key.Name(), "path", path, "err", err)
		return 0
	}

	kh.mu.Lock()
	defer kh.mu.Unlock()
	if limit := b.maxPathsKey.Load(); limit > 0 && int64(len(kh.paths)) >= limit {
		b.log().Warn("path handle limit reached", "key", kh.key.Name(), "limit", limit)
		return 0
	}
	id := b.paths.Insert(&pathHandle{owner: handle.ID(ref), val: val})
	kh.paths = append(kh.paths, id)
	return PathRef(id)
}

// ClosePath releases a path handle before its key handle is closed.
func (b *Bridge) ClosePath(ref PathRef) {
	ph, ok := b.paths.Remove(handle.ID(ref))
	if !ok {
		return
	}
	kh, ok := b.keys.Get(ph.owner)
	if !ok {
		return
	}
	kh.mu.Lock()
	for i, id := range kh.paths {
		if id == handle.ID(ref) {
			kh.paths = append(kh.paths[:i], kh.paths[i+1:]...)
			break
		}
	}
	kh.mu.Unlock()
}
