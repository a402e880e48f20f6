// Package dto holds the wire shapes of the HTTP API.
package dto

import "github.com/fa993/rama/internal/proxydb"

// ProxyInfo is the response body for a selected proxy. Categorical
// attributes render as their value, "*" for wildcard, or are omitted
// when unconstrained. Credentials render as a Proxy-Authorization
// header value.
type ProxyInfo struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	TCP         bool   `json:"tcp"`
	UDP         bool   `json:"udp"`
	SOCKS5      bool   `json:"socks5"`
	Datacenter  bool   `json:"datacenter"`
	Residential bool   `json:"residential"`
	Mobile      bool   `json:"mobile"`

	PoolID  *proxydb.StringFilter `json:"pool_id,omitempty"`
	Country *proxydb.StringFilter `json:"country,omitempty"`
	City    *proxydb.StringFilter `json:"city,omitempty"`
	Carrier *proxydb.StringFilter `json:"carrier,omitempty"`

	Credentials string `json:"credentials,omitempty"`
}

func ProxyInfoFromProxy(p proxydb.Proxy) ProxyInfo {
	info := ProxyInfo{
		ID:          p.ID,
		Address:     p.Address,
		TCP:         p.TCP,
		UDP:         p.UDP,
		SOCKS5:      p.SOCKS5,
		Datacenter:  p.Datacenter,
		Residential: p.Residential,
		Mobile:      p.Mobile,
		PoolID:      p.PoolID,
		Country:     p.Country,
		City:        p.City,
		Carrier:     p.Carrier,
	}
	if p.Credentials != nil {
		info.Credentials = p.Credentials.String()
	}
	return info
}
