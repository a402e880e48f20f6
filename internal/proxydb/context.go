package proxydb

// Version is the major HTTP version of the inbound request. Only the
// major version matters for proxy selection: HTTP/3 rides on QUIC and
// needs a UDP-capable SOCKS5 upstream, everything else needs TCP.
type Version int

const (
	VersionHTTP1 Version = 1
	VersionHTTP2 Version = 2
	VersionHTTP3 Version = 3
)

// VersionFromProto maps an http.Request ProtoMajor to a Version.
func VersionFromProto(protoMajor int) Version {
	switch protoMajor {
	case 3:
		return VersionHTTP3
	case 2:
		return VersionHTTP2
	default:
		return VersionHTTP1
	}
}

// RequestContext describes the inbound request a proxy is being selected
// for. The selection core only consults Version; Scheme, Host and Port are
// carried along for the surrounding layers (logging, telemetry).
type RequestContext struct {
	Version Version
	Scheme  string
	Host    string
	Port    int
}

// RequiresUDP reports whether the request can only be served through an
// upstream that relays UDP (SOCKS5 UDP associate).
func (ctx RequestContext) RequiresUDP() bool {
	return ctx.Version == VersionHTTP3
}
