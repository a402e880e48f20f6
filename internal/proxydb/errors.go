package proxydb

// InsertErrorKind classifies why a batch of records was rejected at
// construction time.
type InsertErrorKind int

const (
	// InsertErrorDuplicateKey means at least two records share an id.
	InsertErrorDuplicateKey InsertErrorKind = iota
	// InsertErrorInvalidProxy is reserved for record-level validation,
	// e.g. a proxy that supports neither tcp nor socks5. Nothing emits it yet.
	InsertErrorInvalidProxy
)

// InsertError rejects a whole ingestion batch. Nothing is partially
// inserted; the complete offending batch travels with the error so the
// caller can inspect and repair it.
type InsertError struct {
	kind    InsertErrorKind
	proxies []Proxy
}

// NewDuplicateKeyError builds the rejection for a batch with duplicate
// ids. Exported so alternative Database backends can keep the same
// construction contract.
func NewDuplicateKeyError(proxies []Proxy) *InsertError {
	return &InsertError{kind: InsertErrorDuplicateKey, proxies: proxies}
}

func (e *InsertError) Error() string {
	switch e.kind {
	case InsertErrorInvalidProxy:
		return "a proxy in the batch is invalid"
	default:
		return "a proxy with the same key already exists in the database"
	}
}

func (e *InsertError) Kind() InsertErrorKind {
	return e.kind
}

// Proxies returns the entire rejected batch, unmodified.
func (e *InsertError) Proxies() []Proxy {
	return e.proxies
}

// QueryErrorKind distinguishes the two ways a lookup can come back empty.
type QueryErrorKind int

const (
	// QueryErrorNotFound: no record matched, or the pinned id is absent.
	QueryErrorNotFound QueryErrorKind = iota
	// QueryErrorMismatch: the pinned id exists but its record fails the
	// filter, the protocol requirement or the predicate. Only the identity
	// path produces this; without a pinned id there is no "wrong record".
	QueryErrorMismatch
)

// QueryError is the ordinary, expected failure of a selection. Callers
// branch on Kind: an absent id usually points at configuration drift, a
// mismatch at a capability problem with a known record.
type QueryError struct {
	kind QueryErrorKind
}

var (
	// ErrProxyNotFound is returned when no proxy match could be found.
	ErrProxyNotFound = &QueryError{kind: QueryErrorNotFound}
	// ErrProxyMismatch is returned when a proxy looked up by id did not
	// match the given filters or requirements.
	ErrProxyMismatch = &QueryError{kind: QueryErrorMismatch}
)

func (e *QueryError) Error() string {
	switch e.kind {
	case QueryErrorMismatch:
		return "proxy config did not match the given filters/requirements"
	default:
		return "no proxy match could be found"
	}
}

func (e *QueryError) Kind() QueryErrorKind {
	return e.kind
}
