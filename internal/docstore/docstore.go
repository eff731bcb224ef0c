// Package docstore abstracts the remote document store the sync engine talks
// to. Documents are flat field maps of raw JSON so a merge write can preserve
// unrelated top-level fields and callers can compare fields by serialized form.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when no document exists for an id.
var ErrNotFound = errors.New("document not found")

// Document is the wire form of one stored document.
type Document = map[string]json.RawMessage

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// Store is the document-store contract. All backends deliver at least the
// latest document state per change to subscribers.
type Store interface {
	// Create stores a new document and returns its generated id.
	Create(ctx context.Context, collection string, doc Document) (string, error)

	// Read fetches a document by id. Returns ErrNotFound if absent.
	Read(ctx context.Context, collection, id string) (Document, error)

	// Write stores a document under an existing id. With merge set, fields
	// absent from doc keep their stored values; fields present are fully
	// overwritten.
	Write(ctx context.Context, collection, id string, doc Document, merge bool) error

	// Subscribe delivers the current document immediately (when it exists)
	// and again after every change. onError receives delivery failures.
	Subscribe(collection, id string, onChange func(Document), onError func(error)) (CancelFunc, error)
}

// Clone returns a deep copy of a document.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
