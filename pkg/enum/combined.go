package enum

import (
	"context"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// CombinedEnumerator runs multiple enumerators sequentially and deduplicates
// documents with the same content and path, so a file reachable from two
// sources is scanned once.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

// NewCombinedEnumerator creates a CombinedEnumerator that wraps the provided
// enumerators. They are run in order.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

type docKey struct {
	id   types.ContentID
	path string
}

// Enumerate runs each child enumerator in sequence, passing unique documents
// to callback.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback func(doc *types.Document) error) error {
	seen := make(map[docKey]bool)

	for _, e := range c.enumerators {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.Enumerate(ctx, func(doc *types.Document) error {
			key := docKey{id: doc.ID, path: doc.Path()}
			if seen[key] {
				return nil
			}
			seen[key] = true
			return callback(doc)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
