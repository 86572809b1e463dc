// Package lua is the sandboxed Lua runtime extensions run in.
//
// A State wraps a gopher-lua LState with only the safe standard libraries
// opened (base, table, string, math). File loading is removed and require
// only resolves whitelisted built-ins and modules the host preloads and
// allows. Execution is bounded by a timeout through the LState context.
//
// gopher-lua states are not goroutine-safe. State serializes its own calls
// with a mutex; Go functions registered into the state run on the calling
// goroutine.
package lua
