package jsonapi

import (
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/notify"
)

// Notify publishes a keyspace notification for keyName through the host.
// Every mutation of a document must call it exactly once, in the command
// frame that made the change.
func Notify(hc *host.Context, kind notify.Kind, event, keyName string) error {
	return hc.NotifyKeyspaceEvent(kind, event, keyName)
}
