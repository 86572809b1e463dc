// Package jsoncmd implements the document commands of the host: set, get,
// delete and the typed in-place edits.
//
// Every command runs inside a host command frame and holds the key lock for
// its duration. A command that changes a document publishes exactly one
// keyspace notification of kind module, named after the command
// ("json.set", "json.del", ...), before it returns. Commands that change
// nothing publish nothing.
//
// Paths starting with "$" may match many values; commands then apply to
// every match and return one result per match, in document order, with a
// placeholder for matches of the wrong type. Legacy paths (".a.b") apply to
// the first match only and fail when it has the wrong type.
package jsoncmd
