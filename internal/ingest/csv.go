// Package ingest produces validated proxy records for store construction.
// Readers are sequential: each Next call yields the next record, (nil, nil)
// at end of input, or a terminal error naming the offending row. Whether a
// batch as a whole is acceptable (duplicate ids) is the store's concern,
// not this package's.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fa993/rama/internal/proxydb"
)

// Reader is a sequential producer of proxy records.
type Reader interface {
	Next(ctx context.Context) (*proxydb.Proxy, error)
}

// RowError wraps a parse failure with the row it happened on.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("proxy row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// RowReader walks CSV proxy rows. Expected columns:
//
//	id,address,tcp,udp,socks5,datacenter,residential,mobile,pool_id,country,city,carrier,credentials
//
// Flags parse with strconv.ParseBool and may be empty (false). Categorical
// columns: empty means unconstrained, "*" means wildcard, anything else is
// a concrete value. The credentials column, when present, must parse as a
// proxy-authorization header value. A header line starting with "id" is
// skipped.
type RowReader struct {
	csv    *csv.Reader
	closer io.Closer
	row    int
}

// NewRowReader reads rows from r.
func NewRowReader(r io.Reader) *RowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 13
	cr.TrimLeadingSpace = true
	return &RowReader{csv: cr}
}

// NewRawRowReader reads rows from an in-memory CSV string.
func NewRawRowReader(raw string) *RowReader {
	return NewRowReader(strings.NewReader(raw))
}

// OpenRowReader reads rows from a file. Close releases the file.
func OpenRowReader(path string) (*RowReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open proxy rows: %w", err)
	}
	reader := NewRowReader(f)
	reader.closer = f
	return reader, nil
}

func (r *RowReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Next returns the next record, (nil, nil) at end of input, or a terminal
// *RowError. After an error the reader is not usable further.
func (r *RowReader) Next(ctx context.Context) (*proxydb.Proxy, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		r.row++
		if err != nil {
			return nil, &RowError{Row: r.row, Err: err}
		}
		if r.row == 1 && fields[0] == "id" {
			continue
		}

		proxy, err := parseRow(fields)
		if err != nil {
			return nil, &RowError{Row: r.row, Err: err}
		}
		return proxy, nil
	}
}

func parseRow(fields []string) (*proxydb.Proxy, error) {
	row := rowRecord{
		ID:          fields[0],
		Address:     fields[1],
		PoolID:      fields[8],
		Country:     fields[9],
		City:        fields[10],
		Carrier:     fields[11],
		Credentials: fields[12],
	}

	flags := []struct {
		name  string
		value string
		dst   *bool
	}{
		{"tcp", fields[2], &row.TCP},
		{"udp", fields[3], &row.UDP},
		{"socks5", fields[4], &row.SOCKS5},
		{"datacenter", fields[5], &row.Datacenter},
		{"residential", fields[6], &row.Residential},
		{"mobile", fields[7], &row.Mobile},
	}
	for _, flag := range flags {
		if flag.value == "" {
			continue
		}
		parsed, err := strconv.ParseBool(flag.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s flag %q", flag.name, flag.value)
		}
		*flag.dst = parsed
	}

	return row.toProxy()
}

// rowRecord is the wire shape shared by the CSV and Redis producers.
type rowRecord struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	TCP         bool   `json:"tcp"`
	UDP         bool   `json:"udp"`
	SOCKS5      bool   `json:"socks5"`
	Datacenter  bool   `json:"datacenter"`
	Residential bool   `json:"residential"`
	Mobile      bool   `json:"mobile"`
	PoolID      string `json:"pool_id"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Carrier     string `json:"carrier"`
	Credentials string `json:"credentials"`
}

func (row rowRecord) toProxy() (*proxydb.Proxy, error) {
	if row.ID == "" {
		return nil, errors.New("missing proxy id")
	}

	proxy := proxydb.Proxy{
		ID:          row.ID,
		Address:     row.Address,
		TCP:         row.TCP,
		UDP:         row.UDP,
		SOCKS5:      row.SOCKS5,
		Datacenter:  row.Datacenter,
		Residential: row.Residential,
		Mobile:      row.Mobile,
		PoolID:      categorical(row.PoolID),
		Country:     categorical(row.Country),
		City:        categorical(row.City),
		Carrier:     categorical(row.Carrier),
	}

	if row.Credentials != "" {
		creds, err := proxydb.ParseProxyCredentials(row.Credentials)
		if err != nil {
			return nil, fmt.Errorf("proxy %s: %w", row.ID, err)
		}
		proxy.Credentials = &creds
	}

	return &proxy, nil
}

func categorical(value string) *proxydb.StringFilter {
	switch value {
	case "":
		return nil
	case "*":
		f := proxydb.WildcardFilter()
		return &f
	default:
		f := proxydb.NewStringFilter(value)
		return &f
	}
}

// ReadAll drains a reader into a batch.
func ReadAll(ctx context.Context, reader Reader) ([]proxydb.Proxy, error) {
	var proxies []proxydb.Proxy
	for {
		proxy, err := reader.Next(ctx)
		if err != nil {
			return nil, err
		}
		if proxy == nil {
			return proxies, nil
		}
		proxies = append(proxies, *proxy)
	}
}
