package jsonapi

import (
	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/jsonapi/handle"
	"github.com/dshills/docshare/internal/keyspace"
)

// Names under which the document type and the capability tables are
// registered with the host.
const (
	TypeName            = "DocJSON-1"
	TypeEncodingVersion = 3
	APINameV1           = "DocShare_V1"
	APINameV2           = "DocShare_V2"
)

// JSONType tags the dynamic type of a resolved value. The numeric values
// are part of the exported interface and never change.
type JSONType int

const (
	String JSONType = 0
	Int    JSONType = 1
	Float  JSONType = 2
	Bool   JSONType = 3
	Object JSONType = 4
	Array  JSONType = 5
	Null   JSONType = 6
	Err    JSONType = 7
)

// String returns the type name.
func (t JSONType) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "number"
	case Bool:
		return "boolean"
	case Object:
		return "object"
	case Array:
		return "array"
	case Null:
		return "null"
	default:
		return "error"
	}
}

func jsonTypeOf(t document.Type) JSONType {
	switch t {
	case document.TypeString:
		return String
	case document.TypeInt:
		return Int
	case document.TypeFloat:
		return Float
	case document.TypeBool:
		return Bool
	case document.TypeObject:
		return Object
	case document.TypeArray:
		return Array
	case document.TypeNull:
		return Null
	default:
		return Err
	}
}

// KeyRef is an opaque handle to an open document key. Zero means absent.
type KeyRef uint64

// PathRef is an opaque handle to a value resolved inside an open key.
// Zero means absent.
type PathRef uint64

// ValueRef is either a KeyRef or a PathRef, as accepted by GetInfo.
type ValueRef uint64

const (
	kindKey  handle.Kind = 1
	kindPath handle.Kind = 2
)

// RegisterType registers the document type with a keyspace. Registering
// with a keyspace that already has it returns the existing type.
func RegisterType(store *keyspace.Store) (*keyspace.ValueType, error) {
	if t, ok := store.LookupType(TypeName); ok {
		return t, nil
	}
	return store.RegisterType(TypeName, TypeEncodingVersion)
}

// DocumentType returns the document type registered with store.
func DocumentType(store *keyspace.Store) (*keyspace.ValueType, bool) {
	return store.LookupType(TypeName)
}
