package jsonapi

import (
	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/jsonapi/handle"
	"github.com/dshills/docshare/internal/keyspace"
)

// OpenKey opens keyName for writing and returns a handle to the document
// stored there. It returns 0 when the key is missing, holds a value of
// another type, or cannot be opened. The key stays locked until CloseKey.
func (b *Bridge) OpenKey(hc *host.Context, keyName string) KeyRef {
	if hc == nil || hc.Done() {
		b.log().Debug("open key outside a command frame", "key", keyName)
		return 0
	}
	typ, ok := DocumentType(hc.Server().Store())
	if !ok {
		b.log().Debug("document type not registered", "key", keyName)
		return 0
	}
	if limit := b.maxKeys.Load(); limit > 0 && int64(b.keys.Len()) >= limit {
		b.log().Warn("key handle limit reached", "key", keyName, "limit", limit)
		return 0
	}

	k, err := hc.OpenKey(keyName, keyspace.ModeWrite)
	if err != nil {
		b.log().Debug("open key failed", "key", keyName, "err", err)
		return 0
	}
	if k.IsEmpty() || k.Type() != typ {
		_ = k.Close()
		return 0
	}
	v, err := k.Value(typ)
	doc, ok := v.(*document.Document)
	if err != nil || !ok {
		_ = k.Close()
		return 0
	}

	id := b.keys.Insert(&keyHandle{hc: hc, key: k, typ: typ, doc: doc})
	hc.OnRelease(func() {
		if b.keys.Valid(id) {
			b.log().Warn("key handle leaked past its command frame", "key", keyName, "handle", id, "invocation", hc.ID())
			b.closeKey(id)
		}
	})
	return KeyRef(id)
}

// CloseKey releases the handle, its path handles and the key lock.
// Zero is a no-op; an unknown or already closed handle is logged and
// ignored.
func (b *Bridge) CloseKey(ref KeyRef) {
	if ref == 0 {
		return
	}
	if !b.closeKey(handle.ID(ref)) {
		b.log().Warn("close of unknown or closed key handle", "handle", handle.ID(ref))
	}
}

func (b *Bridge) closeKey(id handle.ID) bool {
	kh, ok := b.keys.Remove(id)
	if !ok {
		return false
	}
	kh.mu.Lock()
	paths := kh.paths
	kh.paths = nil
	kh.mu.Unlock()

	for _, p := range paths {
		b.paths.Remove(p)
	}
	_ = kh.key.Close()
	return true
}

// document returns the live document behind a key handle, or nil when the
// handle is stale or the key no longer holds the document it was opened on.
func (kh *keyHandle) document() *document.Document {
	if kh.key.Closed() {
		return nil
	}
	v, err := kh.key.Value(kh.typ)
	if err != nil {
		return nil
	}
	doc, ok := v.(*document.Document)
	if !ok || doc != kh.doc {
		return nil
	}
	return doc
}
