package jsonapi

import (
	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/jsonapi/handle"
)

// resolve returns the value behind a key or path handle. A path handle is
// only valid while its key is open and the document is unchanged since
// the path was resolved.
func (b *Bridge) resolve(ref ValueRef) (document.Value, bool) {
	id := handle.ID(ref)
	switch id.Kind() {
	case kindKey:
		kh, ok := b.keys.Get(id)
		if !ok {
			return document.Value{}, false
		}
		doc := kh.document()
		if doc == nil {
			return document.Value{}, false
		}
		return doc.Root(), true
	case kindPath:
		ph, ok := b.paths.Get(id)
		if !ok {
			return document.Value{}, false
		}
		kh, ok := b.keys.Get(ph.owner)
		if !ok {
			return document.Value{}, false
		}
		doc := kh.document()
		if doc == nil || doc.Version() != ph.val.Version() {
			return document.Value{}, false
		}
		return ph.val, true
	default:
		return document.Value{}, false
	}
}

// GetInfo reports the type and size of the value behind a key handle (the
// document root) or a path handle. Size is the byte length of a string,
// the element count of an array, the member count of an object and 0 for
// other values. Status is always 0; an invalid handle yields Err and 0.
func (b *Bridge) GetInfo(ref ValueRef) (status int, jtype JSONType, size int) {
	v, ok := b.resolve(ref)
	if !ok {
		return 0, Err, 0
	}
	return 0, jsonTypeOf(v.Type()), v.Len()
}

// GetJSON returns the compact JSON text of the value behind ref.
func (b *Bridge) GetJSON(ref ValueRef) (string, bool) {
	v, ok := b.resolve(ref)
	if !ok {
		return "", false
	}
	return v.Raw(), true
}

// GetLen returns the length of a string, array or object value, and -1
// for other values and invalid handles.
func (b *Bridge) GetLen(ref ValueRef) int {
	v, ok := b.resolve(ref)
	if !ok {
		return -1
	}
	switch v.Type() {
	case document.TypeString, document.TypeArray, document.TypeObject:
		return v.Len()
	default:
		return -1
	}
}
