// Package changefeed carries document change notifications between writers and
// live views. Delivery is at-least-once and only the latest state of each document
// matters: consumers must treat every notification as level-triggered.
package changefeed

import (
	"context"
	"encoding/json"
	"time"
)

// Collections observed by the dashboard.
const (
	CollectionOrders            = "orders"
	CollectionStoreOrders       = "store_orders"
	CollectionLineItems         = "line_items"
	CollectionCatalogueProducts = "catalogue_products"
	CollectionStores            = "stores"
	CollectionAgents            = "agents"
)

// Kind describes what happened to the document.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Change is one notification about a document.
type Change struct {
	Collection string         `json:"collection"`
	DocumentID string         `json:"documentId"`
	ParentID   string         `json:"parentId,omitempty"`
	Kind       Kind           `json:"kind"`
	Fields     map[string]any `json:"fields,omitempty"`
	At         time.Time      `json:"at"`
}

// Filter selects changes; empty fields match everything.
type Filter struct {
	Collection string
	ParentID   string
}

// Matches reports whether the change passes the filter.
func (f Filter) Matches(c Change) bool {
	if f.Collection != "" && f.Collection != c.Collection {
		return false
	}
	if f.ParentID != "" && f.ParentID != c.ParentID {
		return false
	}
	return true
}

// Publisher emits changes.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Subscriber streams changes until the context is cancelled or unsubscribe is called.
type Subscriber interface {
	Subscribe(ctx context.Context, filter Filter) (<-chan Change, func(), error)
}

// Feed is implemented by every driver.
type Feed interface {
	Publisher
	Subscriber
	Close() error
}

// Encode serializes a change for transports that move bytes.
func Encode(c Change) ([]byte, error) {
	return json.Marshal(c)
}

// Decode parses a change produced by Encode.
func Decode(data []byte) (Change, error) {
	var c Change
	err := json.Unmarshal(data, &c)
	return c, err
}

// Discard is a publisher that drops every change.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Change) error { return nil }
