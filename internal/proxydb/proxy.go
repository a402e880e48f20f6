package proxydb

// Proxy is one entry in the selection pool: a unique id, the upstream
// address, capability flags and optional categorical attributes. Records
// are created during ingestion and never mutated afterwards; changing the
// pool means rebuilding the whole store.
type Proxy struct {
	// ID is the unique key of the record.
	ID string

	// Address is the upstream authority ("host:port"), opaque to selection.
	Address string

	// Transport and classification capabilities. Always present, default false.
	TCP         bool
	UDP         bool
	SOCKS5      bool
	Datacenter  bool
	Residential bool
	Mobile      bool

	// Categorical attributes. nil means unconstrained: the record matches
	// any requested value for that attribute.
	PoolID  *StringFilter
	Country *StringFilter
	City    *StringFilter
	Carrier *StringFilter

	Credentials *ProxyCredentials
}

// Clone returns a deep copy of the record so callers can never reach into
// the shared store.
func (p *Proxy) Clone() Proxy {
	clone := *p
	clone.PoolID = cloneFilter(p.PoolID)
	clone.Country = cloneFilter(p.Country)
	clone.City = cloneFilter(p.City)
	clone.Carrier = cloneFilter(p.Carrier)
	if p.Credentials != nil {
		creds := *p.Credentials
		clone.Credentials = &creds
	}
	return clone
}

func cloneFilter(f *StringFilter) *StringFilter {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

// IsMatch validates the record against every set field of the filter and
// against the protocol requirement derived from the request context. Used
// on the identity path, where the id already pinned the record.
func (p *Proxy) IsMatch(ctx RequestContext, filter ProxyFilter) bool {
	if ctx.RequiresUDP() {
		if !p.UDP || !p.SOCKS5 {
			return false
		}
	} else if !p.TCP {
		return false
	}

	if filter.Datacenter != nil && *filter.Datacenter != p.Datacenter {
		return false
	}
	if filter.Residential != nil && *filter.Residential != p.Residential {
		return false
	}
	if filter.Mobile != nil && *filter.Mobile != p.Mobile {
		return false
	}

	return storedMatches(p.PoolID, filter.PoolID) &&
		storedMatches(p.Country, filter.Country) &&
		storedMatches(p.City, filter.City) &&
		storedMatches(p.Carrier, filter.Carrier)
}

// storedMatches compares a record attribute against a query constraint.
// A nil constraint restricts nothing; a nil attribute accepts everything.
func storedMatches(stored, query *StringFilter) bool {
	if query == nil {
		return true
	}
	if stored == nil {
		return true
	}
	return stored.Matches(*query)
}

// ProxyFilter selects a kind of proxy. With ID set the other fields act as
// validators against the single possible record; without it they combine
// into a query that a random matching record is drawn from. Fields left
// nil impose no constraint. Flag combinations compose, e.g. datacenter
// plus residential is essentially an ISP proxy.
type ProxyFilter struct {
	ID          *string       `json:"id,omitempty"`
	PoolID      *StringFilter `json:"pool_id,omitempty"`
	Country     *StringFilter `json:"country,omitempty"`
	City        *StringFilter `json:"city,omitempty"`
	Datacenter  *bool         `json:"datacenter,omitempty"`
	Residential *bool         `json:"residential,omitempty"`
	Mobile      *bool         `json:"mobile,omitempty"`
	Carrier     *StringFilter `json:"carrier,omitempty"`
}
