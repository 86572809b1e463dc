// Package host is the in-process key-value host that extensions run in.
//
// A Server owns the keyspace, the keyspace-notification channel and the
// shared-API registry. Work is done in command frames: Server.Invoke creates
// a Context, runs a function with it, and when the function returns runs
// the Context's release hooks in reverse registration order. Keys opened
// through a Context are closed by such a hook, so a frame never leaves a
// key locked.
//
// A Context must not be used after its frame has ended.
package host
