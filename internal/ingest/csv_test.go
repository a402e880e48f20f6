package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fa993/rama/internal/proxydb"
)

const rawRows = `id,address,tcp,udp,socks5,datacenter,residential,mobile,pool_id,country,city,carrier,credentials
1,10.0.0.1:8080,1,0,0,1,0,0,poolA,US,New York,,Basic dXNlcjpwYXNz
2,10.0.0.2:1080,1,1,1,0,1,0,poolB,*,,,
3,10.0.0.3:3128,,,,,,1,,DE,Berlin,Vodafone,
`

func TestRowReaderParsesRows(t *testing.T) {
	rows, err := ReadAll(context.Background(), NewRawRowReader(rawRows))
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("ReadAll returned %d rows, want 3", len(rows))
	}

	first := rows[0]
	if first.ID != "1" || first.Address != "10.0.0.1:8080" {
		t.Fatalf("first row parsed as %s @ %s", first.ID, first.Address)
	}
	if !first.TCP || !first.Datacenter || first.UDP {
		t.Fatalf("first row flags parsed wrong: %+v", first)
	}
	if first.Country == nil || first.Country.Value() != "US" {
		t.Fatalf("first row country is %v, want US", first.Country)
	}
	if first.Carrier != nil {
		t.Fatal("empty carrier column should stay unconstrained")
	}
	if first.Credentials == nil {
		t.Fatal("first row credentials were not parsed")
	}
	if username, _ := first.Credentials.Username(); username != "user" {
		t.Fatalf("credentials username is %q, want user", username)
	}

	second := rows[1]
	if second.Country == nil || !second.Country.IsWildcard() {
		t.Fatalf("asterisk country should parse as wildcard, got %v", second.Country)
	}
	if second.City != nil {
		t.Fatal("empty city column should stay unconstrained")
	}

	third := rows[2]
	if third.TCP || third.UDP || third.SOCKS5 {
		t.Fatalf("empty flag columns should default to false: %+v", third)
	}
	if !third.Mobile {
		t.Fatal("third row mobile flag was not parsed")
	}
}

func TestRowReaderWithoutHeader(t *testing.T) {
	rows, err := ReadAll(context.Background(), NewRawRowReader("7,10.0.0.7:8080,1,0,0,0,0,0,,US,,,\n"))
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "7" {
		t.Fatalf("ReadAll returned %+v, want the single record 7", rows)
	}
}

func TestRowReaderInvalidFlag(t *testing.T) {
	_, err := ReadAll(context.Background(), NewRawRowReader("1,addr,yes?,0,0,0,0,0,,,,,\n"))
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("ReadAll returned %v, want *RowError", err)
	}
	if rowErr.Row != 1 {
		t.Fatalf("error names row %d, want 1", rowErr.Row)
	}
}

func TestRowReaderInvalidCredentials(t *testing.T) {
	_, err := ReadAll(context.Background(), NewRawRowReader("1,addr,1,0,0,0,0,0,,,,,Digest nope\n"))
	if !errors.Is(err, proxydb.ErrInvalidProxyCredentials) {
		t.Fatalf("ReadAll returned %v, want ErrInvalidProxyCredentials", err)
	}
}

func TestRowReaderMissingID(t *testing.T) {
	_, err := ReadAll(context.Background(), NewRawRowReader(",addr,1,0,0,0,0,0,,,,,\n"))
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("ReadAll returned %v, want *RowError", err)
	}
}

func TestRowReaderWrongColumnCount(t *testing.T) {
	_, err := ReadAll(context.Background(), NewRawRowReader("1,addr,1\n"))
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("ReadAll returned %v, want *RowError", err)
	}
}

func TestRowReaderContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewRawRowReader(rawRows).Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next returned %v, want context.Canceled", err)
	}
}

func TestRowRecordJSONShape(t *testing.T) {
	payload := `{"id":"42","address":"10.1.1.1:1080","udp":true,"socks5":true,"country":"*","credentials":"Bearer tok"}`

	var row rowRecord
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	proxy, err := row.toProxy()
	if err != nil {
		t.Fatalf("toProxy returned error: %v", err)
	}
	if proxy.ID != "42" || !proxy.UDP || !proxy.SOCKS5 {
		t.Fatalf("record parsed wrong: %+v", proxy)
	}
	if proxy.Country == nil || !proxy.Country.IsWildcard() {
		t.Fatal("wildcard country did not survive the JSON shape")
	}
	if token, ok := proxy.Credentials.Bearer(); !ok || token != "tok" {
		t.Fatalf("credentials parsed as %v, want bearer tok", proxy.Credentials)
	}
}
