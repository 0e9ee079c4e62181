// Package metadata answers derived-property questions about plan nodes ("is this
// restartable?", "how many rows?", "which fields are unique?").
//
// Handlers are bound to a (query name, node kind) pair and dispatched on the node's
// concrete kind; kinds do not inherit handlers from one another. Capability queries
// have a default composition for nodes without a handler: a leaf answers its intrinsic
// default, and an interior node answers the logical AND of its children.
package metadata

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"

	"mit.edu/dsg/goplan/common"
	"mit.edu/dsg/goplan/planner"
)

// Handler computes the answer to one query for one node. The registry is passed in so
// that handlers can query the node's children. The second result is false when the
// handler cannot answer for this particular node.
type Handler func(r *Registry, node planner.RelNode, arg any) (any, bool)

// IntrinsicCapabilities is implemented by leaf nodes whose capabilities differ from the
// registered leaf defaults.
type IntrinsicCapabilities interface {
	// Capability returns the node's own answer for a capability query, or false as the
	// second result to fall back to the registered leaf default.
	Capability(name string) (bool, bool)
}

type handlerKey struct {
	name string
	kind planner.Kind
}

type cacheKey struct {
	node planner.RelNode
	arg  string
}

type cachedAnswer struct {
	value any
	ok    bool
}

// Registry holds the metadata providers of a planner. Registration happens during
// setup; Query is safe to call from many planning sessions at once.
type Registry struct {
	handlers     *xsync.MapOf[handlerKey, Handler]
	capabilities *xsync.MapOf[string, bool]
	caches       *xsync.MapOf[string, *xsync.MapOf[cacheKey, cachedAnswer]]
}

// NewRegistry creates a registry with no queries.
func NewRegistry() *Registry {
	return &Registry{
		handlers:     xsync.NewMapOf[handlerKey, Handler](),
		capabilities: xsync.NewMapOf[string, bool](),
		caches:       xsync.NewMapOf[string, *xsync.MapOf[cacheKey, cachedAnswer]](),
	}
}

// NewDefaultRegistry creates a registry with the builtin queries installed for the
// logical node kinds.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		panic(err)
	}
	return r
}

// RegisterCapability declares name as a boolean capability query whose leaves answer
// leafDefault unless they say otherwise. Declaring the same capability twice with a
// different default is an InvalidConfigurationError.
func (r *Registry) RegisterCapability(name string, leafDefault bool) error {
	prev, loaded := r.capabilities.LoadOrStore(name, leafDefault)
	if loaded && prev != leafDefault {
		return common.NewError(common.InvalidConfigurationError,
			"capability %q already declared with leaf default %t", name, prev)
	}
	return nil
}

// IsCapability reports whether name was declared with RegisterCapability.
func (r *Registry) IsCapability(name string) bool {
	_, ok := r.capabilities.Load(name)
	return ok
}

// Register binds handler to the query name for nodes of the given kind. Binding the
// same pair twice is an InvalidConfigurationError.
func (r *Registry) Register(name string, kind planner.Kind, handler Handler) error {
	common.Assert(handler != nil, "nil handler for %s on %s", name, kind)
	if _, loaded := r.handlers.LoadOrStore(handlerKey{name: name, kind: kind}, handler); loaded {
		return common.NewError(common.InvalidConfigurationError,
			"metadata query %q already has a handler for %s", name, kind)
	}
	return nil
}

// EnableCaching memoizes the answers of query name per (node, argument). Nodes are
// immutable, so an answer never goes stale while the node is alive. Answers are keyed
// by node identity, which only pointer (or otherwise comparable) node types have; other
// nodes are answered without the cache.
func (r *Registry) EnableCaching(name string) {
	r.caches.LoadOrStore(name, xsync.NewMapOf[cacheKey, cachedAnswer]())
}

// ClearCaches drops every memoized answer.
func (r *Registry) ClearCaches() {
	r.caches.Range(func(_ string, cache *xsync.MapOf[cacheKey, cachedAnswer]) bool {
		cache.Clear()
		return true
	})
}

// Query asks the named question about node. The second result is false when no
// provider can answer it.
func (r *Registry) Query(node planner.RelNode, name string, arg any) (any, bool) {
	cache, ok := r.caches.Load(name)
	if !ok || !reflect.TypeOf(node).Comparable() {
		return r.query(node, name, arg)
	}
	key := cacheKey{node: node, arg: argKey(arg)}
	if hit, ok := cache.Load(key); ok {
		return hit.value, hit.ok
	}
	value, found := r.query(node, name, arg)
	cache.Store(key, cachedAnswer{value: value, ok: found})
	return value, found
}

func (r *Registry) query(node planner.RelNode, name string, arg any) (any, bool) {
	if h, ok := r.handlers.Load(handlerKey{name: name, kind: node.Kind()}); ok {
		return h(r, node, arg)
	}
	leafDefault, isCapability := r.capabilities.Load(name)
	if !isCapability {
		return nil, false
	}

	children := node.Children()
	if len(children) == 0 {
		if ic, ok := node.(IntrinsicCapabilities); ok {
			if v, ok := ic.Capability(name); ok {
				return v, true
			}
		}
		return leafDefault, true
	}
	for _, child := range children {
		if !r.capability(child, name, arg) {
			return false, true
		}
	}
	return true, true
}

// capability evaluates a boolean query. Anything other than an available true is false.
func (r *Registry) capability(node planner.RelNode, name string, arg any) bool {
	v, ok := r.Query(node, name, arg)
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	return isBool && b
}

func argKey(arg any) string {
	if arg == nil {
		return ""
	}
	return fmt.Sprintf("%T:%v", arg, arg)
}
