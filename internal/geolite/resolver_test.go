package geolite

import (
	"testing"

	"github.com/fa993/rama/internal/proxydb"
)

func TestClassifyNames(t *testing.T) {
	cases := []struct {
		names []string
		want  proxyKind
	}{
		{[]string{"host-1-2-3-4.mobile.example.net."}, kindMobile},
		{[]string{"1-2-3-4.dsl.example.net."}, kindResidential},
		{[]string{"pool-1-2-3-4.example.net."}, kindResidential},
		{[]string{"server.example.net."}, kindUnknown},
		{nil, kindUnknown},
	}

	for _, tc := range cases {
		if got := classifyNames(tc.names); got != tc.want {
			t.Fatalf("classifyNames(%v) returned %v, want %v", tc.names, got, tc.want)
		}
	}
}

func TestEnrichWithoutDatabasesIsANoop(t *testing.T) {
	resolver := &Resolver{}
	proxy := proxydb.Proxy{ID: "1", Address: "203.0.113.1:8080", TCP: true}

	resolver.Enrich(&proxy)

	if proxy.Country != nil {
		t.Fatalf("country was set to %v without a country database", proxy.Country)
	}
	if proxy.Datacenter || proxy.Residential || proxy.Mobile {
		t.Fatalf("classification flags were set without an ASN database: %+v", proxy)
	}
}

func TestEnrichKeepsExplicitAttributes(t *testing.T) {
	resolver := &Resolver{}
	country := proxydb.NewStringFilter("AU")
	proxy := proxydb.Proxy{
		ID:      "1",
		Address: "203.0.113.1:8080",
		Country: &country,
		Mobile:  true,
	}

	resolver.Enrich(&proxy)

	if proxy.Country.Value() != "AU" {
		t.Fatalf("explicit country was overwritten: %v", proxy.Country)
	}
	if !proxy.Mobile {
		t.Fatal("explicit mobile flag was cleared")
	}
}

func TestEnrichSkipsHostnames(t *testing.T) {
	resolver := &Resolver{}
	proxy := proxydb.Proxy{ID: "1", Address: "proxy.example.com:8080"}

	resolver.Enrich(&proxy)

	if proxy.Country != nil {
		t.Fatal("hostname addresses cannot be geolocated and must be skipped")
	}
}
