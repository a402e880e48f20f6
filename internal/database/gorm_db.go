package database

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fa993/rama/internal/proxydb"
	"github.com/fa993/rama/internal/support"
)

// Config controls how the SQL connection is established.
type Config struct {
	ExistingDB  *gorm.DB
	Dialector   gorm.Dialector
	AutoMigrate bool
}

type Option func(*Config)

// WithExistingDB reuses an already opened connection (tests).
func WithExistingDB(db *gorm.DB) Option {
	return func(cfg *Config) { cfg.ExistingDB = db }
}

// WithDialector overrides the default postgres dialector.
func WithDialector(dialector gorm.Dialector) Option {
	return func(cfg *Config) { cfg.Dialector = dialector }
}

func buildDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		support.GetEnv("POSTGRES_HOST", "localhost"),
		support.GetEnv("POSTGRES_USER", "rama"),
		support.GetEnv("POSTGRES_PASSWORD", ""),
		support.GetEnv("POSTGRES_DB", "rama"),
		support.GetEnv("POSTGRES_PORT", "5432"),
		support.GetEnv("POSTGRES_SSLMODE", "disable"),
	)
}

// SetupDB opens the proxy-record database and migrates its schema.
func SetupDB(opts ...Option) (*gorm.DB, error) {
	cfg := Config{AutoMigrate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var db *gorm.DB
	switch {
	case cfg.ExistingDB != nil:
		db = cfg.ExistingDB
	default:
		dialector := cfg.Dialector
		if dialector == nil {
			dialector = postgres.Open(buildDSN())
		}
		opened, err := gorm.Open(dialector, &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("database: open connection: %w", err)
		}
		db = opened
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&ProxyRecord{}); err != nil {
			return nil, fmt.Errorf("database: auto migrate: %w", err)
		}
		log.Debug("proxy record schema migrated")
	}

	return db, nil
}

// GormProxyDB is the SQL-backed proxydb.Database. Identity lookups go by
// primary key and are validated in Go exactly like the in-memory engine;
// filter queries push the attribute constraints into SQL and draw the
// random candidate in Go so predicates keep the same contract.
type GormProxyDB struct {
	db *gorm.DB
}

var _ proxydb.Database = (*GormProxyDB)(nil)

func NewGormProxyDB(db *gorm.DB) *GormProxyDB {
	return &GormProxyDB{db: db}
}

// Seed replaces the table contents with the given batch, atomically. A
// duplicate id rejects the whole batch with a proxydb.InsertError, the
// same contract as in-memory construction.
func (g *GormProxyDB) Seed(ctx context.Context, proxies []proxydb.Proxy) error {
	seen := make(map[string]struct{}, len(proxies))
	records := make([]ProxyRecord, 0, len(proxies))
	for _, proxy := range proxies {
		if _, dup := seen[proxy.ID]; dup {
			return proxydb.NewDuplicateKeyError(proxies)
		}
		seen[proxy.ID] = struct{}{}
		records = append(records, recordFromProxy(proxy))
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ProxyRecord{}).Error; err != nil {
			return fmt.Errorf("clear proxy records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			if isDuplicateKeyErr(err) {
				return proxydb.NewDuplicateKeyError(proxies)
			}
			return fmt.Errorf("insert proxy records: %w", err)
		}
		return nil
	})
}

// Len returns the number of stored records.
func (g *GormProxyDB) Len(ctx context.Context) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&ProxyRecord{}).Count(&count).Error
	return count, err
}

func (g *GormProxyDB) getByID(ctx context.Context, id string) (*proxydb.Proxy, error) {
	var record ProxyRecord
	err := g.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, proxydb.ErrProxyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load proxy %s: %w", id, err)
	}
	proxy, err := record.toProxy()
	if err != nil {
		return nil, fmt.Errorf("decode proxy %s: %w", id, err)
	}
	return &proxy, nil
}

func categoricalClause(tx *gorm.DB, column string, f *proxydb.StringFilter) *gorm.DB {
	if f == nil {
		return tx
	}
	// NULL is unconstrained, "*" is the stored wildcard. A query-side
	// wildcard never matches concrete values, mirroring StringFilter.
	if f.IsWildcard() {
		return tx.Where(
			fmt.Sprintf("%s IS NULL OR %s = ?", column, column), wildcardValue)
	}
	return tx.Where(
		fmt.Sprintf("%s IS NULL OR %s IN ?", column, column),
		[]string{wildcardValue, f.Value()})
}

func (g *GormProxyDB) candidates(ctx context.Context, req proxydb.RequestContext, filter proxydb.ProxyFilter) ([]ProxyRecord, error) {
	tx := g.db.WithContext(ctx).Model(&ProxyRecord{})

	if req.RequiresUDP() {
		tx = tx.Where("udp = ? AND socks5 = ?", true, true)
	} else {
		tx = tx.Where("tcp = ?", true)
	}

	if filter.Datacenter != nil {
		tx = tx.Where("datacenter = ?", *filter.Datacenter)
	}
	if filter.Residential != nil {
		tx = tx.Where("residential = ?", *filter.Residential)
	}
	if filter.Mobile != nil {
		tx = tx.Where("mobile = ?", *filter.Mobile)
	}

	tx = categoricalClause(tx, "pool_id", filter.PoolID)
	tx = categoricalClause(tx, "country", filter.Country)
	tx = categoricalClause(tx, "city", filter.City)
	tx = categoricalClause(tx, "carrier", filter.Carrier)

	var records []ProxyRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query proxy candidates: %w", err)
	}
	return records, nil
}

// GetProxy implements proxydb.Database.
func (g *GormProxyDB) GetProxy(ctx context.Context, req proxydb.RequestContext, filter proxydb.ProxyFilter) (proxydb.Proxy, error) {
	return g.GetProxyIf(ctx, req, filter, func(*proxydb.Proxy) bool { return true })
}

// GetProxyIf implements proxydb.Database.
func (g *GormProxyDB) GetProxyIf(ctx context.Context, req proxydb.RequestContext, filter proxydb.ProxyFilter, pred proxydb.Predicate) (proxydb.Proxy, error) {
	if filter.ID != nil {
		proxy, err := g.getByID(ctx, *filter.ID)
		if err != nil {
			return proxydb.Proxy{}, err
		}
		if !proxy.IsMatch(req, filter) || !pred(proxy) {
			return proxydb.Proxy{}, proxydb.ErrProxyMismatch
		}
		return *proxy, nil
	}

	records, err := g.candidates(ctx, req, filter)
	if err != nil {
		return proxydb.Proxy{}, err
	}

	eligible := make([]proxydb.Proxy, 0, len(records))
	for _, record := range records {
		proxy, err := record.toProxy()
		if err != nil {
			log.Warn("skipping undecodable proxy record", "id", record.ID, "error", err)
			continue
		}
		if pred(&proxy) {
			eligible = append(eligible, proxy)
		}
	}
	if len(eligible) == 0 {
		return proxydb.Proxy{}, proxydb.ErrProxyNotFound
	}
	return eligible[rand.Intn(len(eligible))], nil
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
