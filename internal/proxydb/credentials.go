package proxydb

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidProxyCredentials is returned for any credential string that
// cannot be parsed: unknown scheme, malformed base64, non-UTF8 payload or
// missing parts. Callers get no finer taxonomy.
var ErrInvalidProxyCredentials = errors.New("invalid proxy credentials string")

type credentialsKind int

const (
	credentialsBasic credentialsKind = iota
	credentialsBearer
)

// ProxyCredentials are the credentials used to authenticate with an
// upstream proxy, either Basic (RFC 7617) or Bearer (RFC 6750).
type ProxyCredentials struct {
	kind        credentialsKind
	username    string
	password    string
	hasPassword bool
	token       string
}

// NewBasicCredentials builds Basic credentials without a password.
func NewBasicCredentials(username string) ProxyCredentials {
	return ProxyCredentials{kind: credentialsBasic, username: username}
}

// NewBasicCredentialsWithPassword builds Basic credentials with a password.
func NewBasicCredentialsWithPassword(username, password string) ProxyCredentials {
	return ProxyCredentials{
		kind:        credentialsBasic,
		username:    username,
		password:    password,
		hasPassword: true,
	}
}

// NewBearerCredentials builds Bearer credentials. The token is opaque to
// the proxy facilities; no encoding is applied to it.
func NewBearerCredentials(token string) ProxyCredentials {
	return ProxyCredentials{kind: credentialsBearer, token: token}
}

// Username returns the Basic username, if any.
func (c ProxyCredentials) Username() (string, bool) {
	if c.kind != credentialsBasic {
		return "", false
	}
	return c.username, true
}

// Password returns the Basic password, if one was set.
func (c ProxyCredentials) Password() (string, bool) {
	if c.kind != credentialsBasic || !c.hasPassword {
		return "", false
	}
	return c.password, true
}

// Bearer returns the Bearer token, if any.
func (c ProxyCredentials) Bearer() (string, bool) {
	if c.kind != credentialsBearer {
		return "", false
	}
	return c.token, true
}

// String renders the credentials as a proxy-authorization header value.
func (c ProxyCredentials) String() string {
	switch c.kind {
	case credentialsBearer:
		return "Bearer " + c.token
	default:
		payload := c.username
		if c.hasPassword {
			payload = c.username + ":" + c.password
		}
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(payload))
	}
}

// ParseProxyCredentials parses a header-style credentials string back into
// ProxyCredentials. Only the first colon splits a Basic username from its
// password, so a password containing colons does not round-trip exactly.
func ParseProxyCredentials(s string) (ProxyCredentials, error) {
	scheme, rest, found := strings.Cut(s, " ")
	switch scheme {
	case "Basic":
		if !found {
			return ProxyCredentials{}, ErrInvalidProxyCredentials
		}
		decoded, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return ProxyCredentials{}, fmt.Errorf("%w: %v", ErrInvalidProxyCredentials, err)
		}
		if !utf8.Valid(decoded) {
			return ProxyCredentials{}, ErrInvalidProxyCredentials
		}
		username, password, hasPassword := strings.Cut(string(decoded), ":")
		if hasPassword {
			return NewBasicCredentialsWithPassword(username, password), nil
		}
		return NewBasicCredentials(username), nil
	case "Bearer":
		if !found {
			return ProxyCredentials{}, ErrInvalidProxyCredentials
		}
		return NewBearerCredentials(rest), nil
	default:
		return ProxyCredentials{}, ErrInvalidProxyCredentials
	}
}
