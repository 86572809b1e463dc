package jsonapi

import (
	"fmt"
	"sync"

	"github.com/dshills/docshare/internal/host"
)

// APIV1 is the version 1 capability table. Its layout is frozen: new
// functions go into a new version.
type APIV1 struct {
	OpenKey  func(hc *host.Context, keyName string) KeyRef
	GetPath  func(ref KeyRef, path string) PathRef
	GetInfo  func(ref ValueRef) (status int, jtype JSONType, size int)
	CloseKey func(ref KeyRef)
}

// APIV2 extends APIV1. The first four fields match APIV1.
type APIV2 struct {
	OpenKey  func(hc *host.Context, keyName string) KeyRef
	GetPath  func(ref KeyRef, path string) PathRef
	GetInfo  func(ref ValueRef) (status int, jtype JSONType, size int)
	CloseKey func(ref KeyRef)

	ClosePath func(ref PathRef)
	GetJSON   func(ref ValueRef) (string, bool)
	GetLen    func(ref ValueRef) int
}

// V1 builds a version 1 table bound to b.
func (b *Bridge) V1() APIV1 {
	return APIV1{
		OpenKey:  b.OpenKey,
		GetPath:  b.GetPath,
		GetInfo:  b.GetInfo,
		CloseKey: b.CloseKey,
	}
}

// V2 builds a version 2 table bound to b.
func (b *Bridge) V2() APIV2 {
	return APIV2{
		OpenKey:   b.OpenKey,
		GetPath:   b.GetPath,
		GetInfo:   b.GetInfo,
		CloseKey:  b.CloseKey,
		ClosePath: b.ClosePath,
		GetJSON:   b.GetJSON,
		GetLen:    b.GetLen,
	}
}

var (
	tableOnce sync.Once
	tableV1   APIV1
	tableV2   APIV2
)

func buildTables() {
	tableOnce.Do(func() {
		b := Default()
		tableV1 = b.V1()
		tableV2 = b.V2()
	})
}

// API returns the process-wide version 1 table.
func API() APIV1 {
	buildTables()
	return tableV1
}

// APIV2Table returns the process-wide version 2 table.
func APIV2Table() APIV2 {
	buildTables()
	return tableV2
}

// ExportOptions selects which tables Export publishes.
type ExportOptions struct {
	// SkipV2 publishes only the version 1 table.
	SkipV2 bool

	// Bridge binds the published tables to a bridge of the caller's own.
	// Nil publishes the process-wide tables backed by Default.
	Bridge *Bridge
}

// Export registers the document type with the host keyspace and publishes
// the capability tables. Exporting twice to the same host fails. When any
// table name is already taken nothing is published.
func Export(hc *host.Context, opts ExportOptions) error {
	names := []string{APINameV1}
	if !opts.SkipV2 {
		names = append(names, APINameV2)
	}
	for _, name := range names {
		if _, err := hc.GetSharedAPI(name); err == nil {
			return fmt.Errorf("export %s: %w: %q", name, host.ErrAPIExists, name)
		}
	}
	if _, err := RegisterType(hc.Server().Store()); err != nil {
		return fmt.Errorf("register document type: %w", err)
	}
	v1, v2 := API(), APIV2Table()
	if opts.Bridge != nil {
		v1, v2 = opts.Bridge.V1(), opts.Bridge.V2()
	}
	if err := hc.ExportSharedAPI(APINameV1, v1); err != nil {
		return fmt.Errorf("export %s: %w", APINameV1, err)
	}
	if opts.SkipV2 {
		return nil
	}
	if err := hc.ExportSharedAPI(APINameV2, v2); err != nil {
		return fmt.Errorf("export %s: %w", APINameV2, err)
	}
	return nil
}

// Lookup returns the version 1 table exported to the host.
func Lookup(hc *host.Context) (APIV1, error) {
	v, err := hc.GetSharedAPI(APINameV1)
	if err != nil {
		return APIV1{}, err
	}
	api, ok := v.(APIV1)
	if !ok {
		return APIV1{}, fmt.Errorf("%s has unexpected type %T", APINameV1, v)
	}
	return api, nil
}

// LookupV2 returns the version 2 table exported to the host.
func LookupV2(hc *host.Context) (APIV2, error) {
	v, err := hc.GetSharedAPI(APINameV2)
	if err != nil {
		return APIV2{}, err
	}
	api, ok := v.(APIV2)
	if !ok {
		return APIV2{}, fmt.Errorf("%s has unexpected type %T", APINameV2, v)
	}
	return api, nil
}
