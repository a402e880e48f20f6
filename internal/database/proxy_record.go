// Package database provides a SQL-backed implementation of the
// proxydb.Database interface, for pools too large or too shared to hold in
// process memory. Semantics match the in-memory engine: the same identity
// path validation, the same wildcard matching, the same uniform random
// draw over candidates.
package database

import (
	"github.com/fa993/rama/internal/proxydb"
)

// wildcardValue is how a store-side wildcard attribute is persisted.
// NULL persists an unconstrained attribute.
const wildcardValue = "*"

// ProxyRecord is the persisted shape of a proxydb.Proxy.
type ProxyRecord struct {
	ID          string `gorm:"primaryKey;size:64"`
	Address     string `gorm:"size:255"`
	TCP         bool   `gorm:"column:tcp;index"`
	UDP         bool   `gorm:"column:udp;index"`
	SOCKS5      bool   `gorm:"column:socks5;index"`
	Datacenter  bool
	Residential bool
	Mobile      bool
	PoolID      *string `gorm:"size:64"`
	Country     *string `gorm:"size:56;index"`
	City        *string `gorm:"size:100"`
	Carrier     *string `gorm:"size:100"`
	Credentials string  `gorm:"size:512"` // header-style encoding, "" = none
}

func (ProxyRecord) TableName() string {
	return "proxy_records"
}

func recordFromProxy(proxy proxydb.Proxy) ProxyRecord {
	record := ProxyRecord{
		ID:          proxy.ID,
		Address:     proxy.Address,
		TCP:         proxy.TCP,
		UDP:         proxy.UDP,
		SOCKS5:      proxy.SOCKS5,
		Datacenter:  proxy.Datacenter,
		Residential: proxy.Residential,
		Mobile:      proxy.Mobile,
		PoolID:      columnFromFilter(proxy.PoolID),
		Country:     columnFromFilter(proxy.Country),
		City:        columnFromFilter(proxy.City),
		Carrier:     columnFromFilter(proxy.Carrier),
	}
	if proxy.Credentials != nil {
		record.Credentials = proxy.Credentials.String()
	}
	return record
}

func (record ProxyRecord) toProxy() (proxydb.Proxy, error) {
	proxy := proxydb.Proxy{
		ID:          record.ID,
		Address:     record.Address,
		TCP:         record.TCP,
		UDP:         record.UDP,
		SOCKS5:      record.SOCKS5,
		Datacenter:  record.Datacenter,
		Residential: record.Residential,
		Mobile:      record.Mobile,
		PoolID:      filterFromColumn(record.PoolID),
		Country:     filterFromColumn(record.Country),
		City:        filterFromColumn(record.City),
		Carrier:     filterFromColumn(record.Carrier),
	}
	if record.Credentials != "" {
		creds, err := proxydb.ParseProxyCredentials(record.Credentials)
		if err != nil {
			return proxydb.Proxy{}, err
		}
		proxy.Credentials = &creds
	}
	return proxy, nil
}

// columnFromFilter persists a categorical attribute. The wildcard shares
// its representation with a literal "*" value, so the latter cannot be
// stored faithfully in this backend.
func columnFromFilter(f *proxydb.StringFilter) *string {
	if f == nil {
		return nil
	}
	value := f.String()
	return &value
}

func filterFromColumn(column *string) *proxydb.StringFilter {
	if column == nil {
		return nil
	}
	var f proxydb.StringFilter
	if *column == wildcardValue {
		f = proxydb.WildcardFilter()
	} else {
		f = proxydb.NewStringFilter(*column)
	}
	return &f
}
