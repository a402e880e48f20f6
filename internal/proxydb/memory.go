package proxydb

import "context"

// Predicate is an arbitrary extra constraint over an already
// attribute-filtered record. Predicates must be safe to call from many
// concurrent queries; they get a read-only view of the shared record.
type Predicate func(*Proxy) bool

// Database is the read surface a proxy pool exposes to the rest of the
// pipeline. The in-memory engine below is the default implementation;
// internal/database provides a SQL-backed one behind the same interface.
// Both calls take a context for uniformity with the wider pipeline even
// though implementations may never block on it.
type Database interface {
	// GetProxy picks one eligible proxy for the given request context and
	// filter, or returns ErrProxyNotFound / ErrProxyMismatch.
	GetProxy(ctx context.Context, req RequestContext, filter ProxyFilter) (Proxy, error)

	// GetProxyIf is GetProxy with an extra predicate that found proxies
	// must also satisfy.
	GetProxyIf(ctx context.Context, req RequestContext, filter ProxyFilter, pred Predicate) (Proxy, error)
}

// MemoryProxyDB is a fast in-memory proxy database. Reads never lock: the
// index is immutable after construction and every query is a self-contained
// computation against it.
type MemoryProxyDB struct {
	index *Index
}

var _ Database = (*MemoryProxyDB)(nil)

// NewMemoryProxyDB builds the database from a record batch. Duplicate ids
// reject the batch as a whole; see InsertError.
func NewMemoryProxyDB(proxies []Proxy) (*MemoryProxyDB, error) {
	index, err := NewIndex(proxies)
	if err != nil {
		return nil, err
	}
	return &MemoryProxyDB{index: index}, nil
}

// Len returns the number of proxies in the database.
func (db *MemoryProxyDB) Len() int {
	return db.index.Len()
}

func (db *MemoryProxyDB) IsEmpty() bool {
	return db.index.Len() == 0
}

// queryFromFilter merges the explicit filter constraints with the implicit
// requirement derived from the request: HTTP/3 runs over QUIC and needs a
// UDP-capable SOCKS5 upstream, anything else needs TCP. Whether a TCP
// proxy then speaks HTTP or SOCKS5 is not checked here; it is assumed to
// support at least one of them.
func (db *MemoryProxyDB) queryFromFilter(req RequestContext, filter ProxyFilter) *Query {
	query := db.index.Query()

	if filter.PoolID != nil {
		query.PoolID(*filter.PoolID)
	}
	if filter.Country != nil {
		query.Country(*filter.Country)
	}
	if filter.City != nil {
		query.City(*filter.City)
	}
	if filter.Carrier != nil {
		query.Carrier(*filter.Carrier)
	}

	if filter.Datacenter != nil {
		query.Datacenter(*filter.Datacenter)
	}
	if filter.Residential != nil {
		query.Residential(*filter.Residential)
	}
	if filter.Mobile != nil {
		query.Mobile(*filter.Mobile)
	}

	if req.RequiresUDP() {
		query.UDP(true)
		query.SOCKS5(true)
	} else {
		query.TCP(true)
	}

	return query
}

// GetProxy implements Database. With filter.ID set it is an O(1) lookup
// followed by validation of every other filter field; without it the
// filter becomes a query and one candidate is drawn at random.
func (db *MemoryProxyDB) GetProxy(_ context.Context, req RequestContext, filter ProxyFilter) (Proxy, error) {
	if filter.ID != nil {
		proxy := db.index.GetByID(*filter.ID)
		if proxy == nil {
			return Proxy{}, ErrProxyNotFound
		}
		if !proxy.IsMatch(req, filter) {
			return Proxy{}, ErrProxyMismatch
		}
		return proxy.Clone(), nil
	}

	result := db.queryFromFilter(req, filter).Execute()
	if result == nil {
		return Proxy{}, ErrProxyNotFound
	}
	return result.Any().Clone(), nil
}

// GetProxyIf implements Database.
func (db *MemoryProxyDB) GetProxyIf(_ context.Context, req RequestContext, filter ProxyFilter, pred Predicate) (Proxy, error) {
	if filter.ID != nil {
		proxy := db.index.GetByID(*filter.ID)
		if proxy == nil {
			return Proxy{}, ErrProxyNotFound
		}
		if !proxy.IsMatch(req, filter) || !pred(proxy) {
			return Proxy{}, ErrProxyMismatch
		}
		return proxy.Clone(), nil
	}

	result := db.queryFromFilter(req, filter).Execute()
	if result != nil {
		result = result.Filter(pred)
	}
	if result == nil {
		return Proxy{}, ErrProxyNotFound
	}
	return result.Any().Clone(), nil
}
