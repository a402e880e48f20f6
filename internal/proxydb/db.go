package proxydb

import "math/rand"

// Index owns the full record set. It is built once, checked for id
// uniqueness, and read-only afterwards, so any number of concurrent
// queries can run against it without locking.
type Index struct {
	byID map[string]*Proxy
	all  []*Proxy
}

// NewIndex builds an index over the given batch. A duplicate id rejects
// the whole batch atomically; the returned *InsertError carries every
// record of the batch, not just the duplicate.
func NewIndex(proxies []Proxy) (*Index, error) {
	byID := make(map[string]*Proxy, len(proxies))
	all := make([]*Proxy, 0, len(proxies))
	for i := range proxies {
		record := proxies[i].Clone()
		if _, exists := byID[record.ID]; exists {
			return nil, NewDuplicateKeyError(proxies)
		}
		byID[record.ID] = &record
		all = append(all, &record)
	}
	return &Index{byID: byID, all: all}, nil
}

func (idx *Index) Len() int {
	return len(idx.all)
}

// GetByID returns the record with the given id, or nil.
func (idx *Index) GetByID(id string) *Proxy {
	return idx.byID[id]
}

// Query starts an empty query over the index. Constraints are added with
// the setter methods; unset constraints restrict nothing.
func (idx *Index) Query() *Query {
	return &Query{index: idx}
}

// Query narrows the record set by exact boolean constraints and
// equality-or-wildcard categorical constraints. Each query recomputes its
// own candidate set, so queries share no mutable state.
type Query struct {
	index *Index

	tcp         *bool
	udp         *bool
	socks5      *bool
	datacenter  *bool
	residential *bool
	mobile      *bool

	poolID  *StringFilter
	country *StringFilter
	city    *StringFilter
	carrier *StringFilter
}

func (q *Query) TCP(v bool) *Query         { q.tcp = &v; return q }
func (q *Query) UDP(v bool) *Query         { q.udp = &v; return q }
func (q *Query) SOCKS5(v bool) *Query      { q.socks5 = &v; return q }
func (q *Query) Datacenter(v bool) *Query  { q.datacenter = &v; return q }
func (q *Query) Residential(v bool) *Query { q.residential = &v; return q }
func (q *Query) Mobile(v bool) *Query      { q.mobile = &v; return q }

func (q *Query) PoolID(f StringFilter) *Query  { q.poolID = &f; return q }
func (q *Query) Country(f StringFilter) *Query { q.country = &f; return q }
func (q *Query) City(f StringFilter) *Query    { q.city = &f; return q }
func (q *Query) Carrier(f StringFilter) *Query { q.carrier = &f; return q }

func (q *Query) matches(p *Proxy) bool {
	if q.tcp != nil && *q.tcp != p.TCP {
		return false
	}
	if q.udp != nil && *q.udp != p.UDP {
		return false
	}
	if q.socks5 != nil && *q.socks5 != p.SOCKS5 {
		return false
	}
	if q.datacenter != nil && *q.datacenter != p.Datacenter {
		return false
	}
	if q.residential != nil && *q.residential != p.Residential {
		return false
	}
	if q.mobile != nil && *q.mobile != p.Mobile {
		return false
	}
	return storedMatches(p.PoolID, q.poolID) &&
		storedMatches(p.Country, q.country) &&
		storedMatches(p.City, q.city) &&
		storedMatches(p.Carrier, q.carrier)
}

// Execute computes the candidate set. It returns nil when nothing matches.
func (q *Query) Execute() *QueryResult {
	var candidates []*Proxy
	for _, p := range q.index.all {
		if q.matches(p) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return &QueryResult{proxies: candidates}
}

// QueryResult is a non-empty candidate set.
type QueryResult struct {
	proxies []*Proxy
}

// Filter narrows the candidates with an arbitrary predicate. It returns
// nil when no candidate survives.
func (r *QueryResult) Filter(pred Predicate) *QueryResult {
	var kept []*Proxy
	for _, p := range r.proxies {
		if pred(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &QueryResult{proxies: kept}
}

// Any draws one candidate uniformly at random. Over repeated identical
// queries every candidate is reachable; there is no cursor to share or
// starve.
func (r *QueryResult) Any() *Proxy {
	return r.proxies[rand.Intn(len(r.proxies))]
}
