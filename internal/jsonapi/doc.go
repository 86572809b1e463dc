// Package jsonapi exports the JSON document type to other extensions as a
// versioned capability table.
//
// A consumer looks the table up once by name through the host
// ("DocShare_V1" or "DocShare_V2") and then works with opaque handles:
//
//	api := v.(jsonapi.APIV1)
//	key := api.OpenKey(hc, "user:1")
//	if key == 0 {
//		// missing key, wrong type, or lookup failure
//	}
//	path := api.GetPath(key, "$.name")
//	_, typ, size := api.GetInfo(jsonapi.ValueRef(path))
//	api.CloseKey(key)
//
// Caller obligations:
//
//   - Every non-null KeyRef must be passed to CloseKey, in the same command
//     frame that opened it. A handle still open when the frame ends is
//     closed by the host and logged as a leak.
//   - A PathRef belongs to the KeyRef it was resolved from. CloseKey
//     releases it; using it afterwards yields the null/Err sentinels.
//   - While a KeyRef is open the key's lock is held. Other frames touching
//     the key block until CloseKey.
//
// No function in a table panics or returns an error. Failure is reported
// with the null handle (0) or the Err type tag.
package jsonapi
