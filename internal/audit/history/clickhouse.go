package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/ethpandaops/pageaudit/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse" // clickhouse driver for migrations
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var errNoAddress = errors.New("clickhouse DSN has no host")

// ClickHouseStore writes one row per URL, metric and flow into ClickHouse.
type ClickHouseStore struct {
	log      logrus.FieldLogger
	conn     driver.Conn
	database string
}

// ParseDSN parses a clickhouse-go DSN and applies connection defaults. The
// returned options connect to the "default" database; the history database
// is returned separately so it can be created first.
func ParseDSN(dsn string) (*clickhouse.Options, string, error) {
	options, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, "", fmt.Errorf("parsing clickhouse DSN: %w", err)
	}

	if len(options.Addr) == 0 || options.Addr[0] == "" {
		return nil, "", errNoAddress
	}

	database := options.Auth.Database
	if database == "" || database == "default" {
		database = config.HistoryDatabase
	}

	options.Auth.Database = "default"
	if options.Settings == nil {
		options.Settings = clickhouse.Settings{}
	}

	if _, ok := options.Settings["max_execution_time"]; !ok {
		options.Settings["max_execution_time"] = 60
	}

	if options.Compression == nil {
		options.Compression = &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		}
	}

	options.DialTimeout = 30 * time.Second
	options.MaxOpenConns = 5
	options.MaxIdleConns = 5
	options.ConnMaxLifetime = 10 * time.Minute

	return options, database, nil
}

// NewClickHouseStore connects, creates the history database and applies
// the embedded migrations.
func NewClickHouseStore(ctx context.Context, log logrus.FieldLogger, dsn string) (*ClickHouseStore, error) {
	options, database, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := conn.Ping(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", database)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	s := &ClickHouseStore{
		log:      log.WithField("component", "clickhouse_history"),
		conn:     conn,
		database: database,
	}

	if err := s.migrate(options); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *ClickHouseStore) migrate(options *clickhouse.Options) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, MigrationURL(options, s.database))
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			s.log.WithField("source_error", srcErr).WithField("db_error", dbErr).Warn("failed to close migration instance")
		}
	}()

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", upErr)
	}

	version, dirty, vErr := m.Version()
	if vErr != nil && !errors.Is(vErr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", vErr)
	}

	s.log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Debug("history schema up to date")

	return nil
}

// MigrationURL builds the golang-migrate connection string for options.
func MigrationURL(options *clickhouse.Options, database string) string {
	query := url.Values{}
	query.Set("username", options.Auth.Username)
	query.Set("database", database)
	query.Set("x-multi-statement", "true")
	query.Set("x-migrations-table-engine", "MergeTree")

	if options.Auth.Password != "" {
		query.Set("password", options.Auth.Password)
	}

	return fmt.Sprintf("clickhouse://%s?%s", options.Addr[0], query.Encode())
}

// Append inserts every row of rec in one batch.
func (s *ClickHouseStore) Append(ctx context.Context, rec *record.RunRecord) error {
	rows := Flatten(rec)

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO `%s`.audit_results", s.database))
	if err != nil {
		return fmt.Errorf("preparing history batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(
			r.RunID,
			r.RunTimestamp,
			r.Mode,
			r.URL,
			r.URLSuccess,
			r.URLError,
			r.Kind,
			r.Name,
			r.Value,
			r.ThresholdMin,
			r.ThresholdMax,
			r.Status,
			r.Error,
			r.DurationMs,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("appending history row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending history batch: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"run_id": rec.ID,
		"rows":   len(rows),
	}).Info("saved run to clickhouse")

	return nil
}

// List summarises the newest limit runs with trend labels, oldest first.
func (s *ClickHouseStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := fmt.Sprintf(`
		SELECT
			run_id,
			min(run_timestamp) AS ts,
			any(mode) AS mode,
			countIf(kind = 'url') AS urls,
			countIf(kind = 'url' AND url_success = 0) AS failed_urls,
			countIf(kind != 'url' AND status = 'PASS') AS passed,
			countIf(kind != 'url' AND status = 'FAIL') AS failed,
			countIf(kind = 'metric' AND status = 'N/A') AS na
		FROM `+"`%s`"+`.audit_results
		GROUP BY run_id
		ORDER BY ts DESC`, s.database)

	// One extra run so the oldest listed entry still gets a real trend.
	if limit > 0 {
		query += fmt.Sprintf("\n\t\tLIMIT %d", limit+1)
	}

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var newestFirst []Entry

	for rows.Next() {
		var (
			e    Entry
			mode string

			urls, failedURLs, passed, failed, na uint64
		)

		if err := rows.Scan(&e.ID, &e.Timestamp, &mode, &urls, &failedURLs, &passed, &failed, &na); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}

		e.Mode = record.Mode(mode)
		e.URLs = int(urls)
		e.FailedURLs = int(failedURLs)
		e.ChecksPass = int(passed)
		e.ChecksFail = int(failed)
		e.ChecksNA = int(na)

		newestFirst = append(newestFirst, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}

	entries := make([]Entry, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		entries = append(entries, newestFirst[i])
	}

	ApplyTrends(entries)

	return lastN(entries, limit), nil
}

// Close closes the ClickHouse connection.
func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

// Compile-time interface compliance check
var _ Store = (*ClickHouseStore)(nil)
