package support

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ForwardedAuthority is the host (and optional port) a client originally
// asked for, as carried by X-Forwarded-Host style headers.
type ForwardedAuthority struct {
	Host string
	Port int // 0 when the header carried no port
}

func (a ForwardedAuthority) String() string {
	if a.Port == 0 {
		return a.Host
	}
	if strings.Contains(a.Host, ":") {
		return fmt.Sprintf("[%s]:%d", a.Host, a.Port)
	}
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// ParseForwardedAuthority parses an X-Forwarded-Host value. Accepted
// forms: "example.com", "example.com:443", "203.0.113.195",
// "203.0.113.195:80", a bare IPv6 address, or "[IPv6]:port".
func ParseForwardedAuthority(value string) (ForwardedAuthority, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ForwardedAuthority{}, errors.New("empty forwarded host value")
	}

	// A bare IPv6 address has colons but is not host:port.
	if strings.Count(value, ":") > 1 && !strings.HasPrefix(value, "[") {
		if net.ParseIP(value) == nil {
			return ForwardedAuthority{}, fmt.Errorf("invalid forwarded host %q", value)
		}
		return ForwardedAuthority{Host: value}, nil
	}

	if host, portStr, err := net.SplitHostPort(value); err == nil {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return ForwardedAuthority{}, fmt.Errorf("invalid forwarded port %q", portStr)
		}
		return ForwardedAuthority{Host: host, Port: port}, nil
	}

	host := value
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
		if net.ParseIP(host) == nil {
			return ForwardedAuthority{}, fmt.Errorf("invalid forwarded host %q", value)
		}
	}
	return ForwardedAuthority{Host: host}, nil
}
