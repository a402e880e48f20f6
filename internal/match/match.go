// Package match provides combinators over proxy-record predicates, for
// composing the extra constraints passed to GetProxyIf. Predicates built
// here are stateless and safe to reuse across concurrent queries.
package match

import "github.com/fa993/rama/internal/proxydb"

// Not inverts a predicate.
func Not(pred proxydb.Predicate) proxydb.Predicate {
	return func(p *proxydb.Proxy) bool {
		return !pred(p)
	}
}

// And matches when every predicate matches. With no predicates it matches
// everything.
func And(preds ...proxydb.Predicate) proxydb.Predicate {
	return func(p *proxydb.Proxy) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// Or matches when at least one predicate matches. With no predicates it
// matches nothing.
func Or(preds ...proxydb.Predicate) proxydb.Predicate {
	return func(p *proxydb.Proxy) bool {
		for _, pred := range preds {
			if pred(p) {
				return true
			}
		}
		return false
	}
}
