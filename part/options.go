// Package part reads and writes single XML parts of a package.
//
// [Parse] walks a part once, depth-first, and builds an [element.Node] tree
// driven by the descriptors in a [schema.Registry].  [Write] is its inverse:
// for any tree Parse can produce, Parse(Write(tree)) is semantically equal to
// tree.
package part

import (
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xlsx/schema"
)

// RelationshipTable is the set of relationship IDs owned by the part being
// parsed.  Every r:id in the part must name one of them.
type RelationshipTable interface {
	Contains(id string) bool
}

// IDs is a RelationshipTable backed by a set.
type IDs map[string]struct{}

// NewIDs returns a table holding ids.
func NewIDs(ids ...string) IDs {
	t := make(IDs, len(ids))
	for _, id := range ids {
		t[id] = struct{}{}
	}
	return t
}

// Contains implements RelationshipTable.
func (t IDs) Contains(id string) bool {
	_, ok := t[id]
	return ok
}

// Option configures Parse.
type Option func(*options)

type options struct {
	registry *schema.Registry
	partName string
	logger   *zap.Logger
}

func defaultOptions() options {
	return options{
		registry: schema.DefaultRegistry(),
		logger:   zap.NewNop(),
	}
}

// WithRegistry selects the descriptors used to recognise the root element.
func WithRegistry(r *schema.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithPartName names the part in errors and log entries.
func WithPartName(name string) Option {
	return func(o *options) { o.partName = name }
}

// WithLogger sets the logger.  The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
