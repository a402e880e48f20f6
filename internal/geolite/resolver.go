// Package geolite fills in missing proxy-record attributes from MaxMind
// GeoLite2 databases before the store is built: a missing country from the
// record address's IP, and unset classification flags from ASN data plus
// reverse-DNS heuristics. Enrichment is best effort; records it cannot
// resolve are left as they are.
package geolite

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oschwald/geoip2-golang"
	"golang.org/x/sync/singleflight"

	"github.com/fa993/rama/internal/proxydb"
)

var (
	datacenterRegex     = regexp.MustCompile(`(?i)(amazon|google|microsoft|digitalocean|linode|hetzner|ovh|vultr|ibm|alibaba|tencent|cloudflare|rackspace|hostinger|upcloud|azure|gcp|aws)`)
	residentialKeywords = regexp.MustCompile(`(?i)(dyn|pool|dsl|cust|res|adsl|ppp|user|dhcp)`)
	mobileKeywords      = regexp.MustCompile(`(?i)(mobile|cellular|wireless|lte|umts|gsm|3g|4g|5g)`)
)

const dnsCacheTTL = 12 * time.Hour

type dnsCacheEntry struct {
	names   []string
	expires time.Time
}

// Resolver answers country and proxy-type questions for IP addresses.
// Safe for concurrent use; reverse-DNS lookups are cached and deduplicated.
type Resolver struct {
	country *geoip2.Reader
	asn     *geoip2.Reader

	dnsCache sync.Map
	dnsGroup singleflight.Group
}

// Open loads the GeoLite2 databases from disk. Either path may be empty;
// the matching capability is then unavailable and enrichment for it is
// skipped.
func Open(countryPath, asnPath string) (*Resolver, error) {
	resolver := &Resolver{}

	if countryPath != "" {
		db, err := geoip2.Open(countryPath)
		if err != nil {
			return nil, fmt.Errorf("open GeoLite2 country database: %w", err)
		}
		resolver.country = db
	}
	if asnPath != "" {
		db, err := geoip2.Open(asnPath)
		if err != nil {
			resolver.Close()
			return nil, fmt.Errorf("open GeoLite2 ASN database: %w", err)
		}
		resolver.asn = db
	}

	return resolver, nil
}

func (r *Resolver) Close() {
	if r.country != nil {
		_ = r.country.Close()
	}
	if r.asn != nil {
		_ = r.asn.Close()
	}
}

// CountryCode returns the ISO country code for an IP, or "" when unknown.
func (r *Resolver) CountryCode(ipAddress string) string {
	if r.country == nil {
		return ""
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return ""
	}

	record, err := r.country.Country(ip)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

func (r *Resolver) cachedDNS(ip string) []string {
	now := time.Now()
	if entry, ok := r.dnsCache.Load(ip); ok {
		cached := entry.(dnsCacheEntry)
		if now.Before(cached.expires) {
			return cached.names
		}
	}

	result, _, _ := r.dnsGroup.Do(ip, func() (interface{}, error) {
		names, err := net.LookupAddr(ip)
		if err != nil {
			return []string{}, nil // cache failures as empty results
		}
		return names, nil
	})

	names := result.([]string)
	r.dnsCache.Store(ip, dnsCacheEntry{names: names, expires: now.Add(dnsCacheTTL)})
	return names
}

// proxyKind is what classification concluded about an IP.
type proxyKind int

const (
	kindUnknown proxyKind = iota
	kindDatacenter
	kindResidential
	kindMobile
)

func (r *Resolver) classify(ipAddress string) proxyKind {
	if r.asn == nil {
		return kindUnknown
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return kindUnknown
	}

	names := r.cachedDNS(ipAddress)
	if kind := classifyNames(names); kind != kindUnknown {
		return kind
	}

	asnRecord, err := r.asn.ASN(ip)
	if err != nil {
		return kindUnknown
	}

	org := strings.ToLower(asnRecord.AutonomousSystemOrganization)
	switch {
	case datacenterRegex.MatchString(org):
		return kindDatacenter
	case mobileKeywords.MatchString(org):
		return kindMobile
	case strings.Contains(org, "customer") || strings.Contains(org, "residential"):
		return kindResidential
	default:
		return kindUnknown
	}
}

func classifyNames(names []string) proxyKind {
	for _, name := range names {
		if mobileKeywords.MatchString(name) {
			return kindMobile
		}
		if residentialKeywords.MatchString(name) {
			return kindResidential
		}
	}
	return kindUnknown
}

// Enrich fills the missing attributes of one record in place. The country
// is only set when the record has none, and classification flags only when
// all three are unset; explicit ingestion data always wins.
func (r *Resolver) Enrich(proxy *proxydb.Proxy) {
	host, _, err := net.SplitHostPort(proxy.Address)
	if err != nil {
		host = proxy.Address
	}
	if net.ParseIP(host) == nil {
		return
	}

	if proxy.Country == nil {
		if code := r.CountryCode(host); code != "" {
			country := proxydb.NewStringFilter(code)
			proxy.Country = &country
		}
	}

	if !proxy.Datacenter && !proxy.Residential && !proxy.Mobile {
		switch r.classify(host) {
		case kindDatacenter:
			proxy.Datacenter = true
		case kindResidential:
			proxy.Residential = true
		case kindMobile:
			proxy.Mobile = true
		}
	}
}

// EnrichProxies runs Enrich over a whole batch.
func (r *Resolver) EnrichProxies(proxies []proxydb.Proxy) {
	enriched := 0
	for i := range proxies {
		before := proxies[i]
		r.Enrich(&proxies[i])
		if proxies[i] != before {
			enriched++
		}
	}
	if enriched > 0 {
		log.Debug("GeoLite enrichment applied", "records", enriched, "total", len(proxies))
	}
}
