package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS feed_cache (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	feed      TEXT    NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS image_data (
	url  TEXT PRIMARY KEY,
	data BLOB NOT NULL
);`

// SQLiteStore keeps the feed snapshot in a single-row table and image
// data in a url-keyed table.
type SQLiteStore struct {
	sqlDB *sql.DB
	queue *queue
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection keeps :memory: databases alive and matches the queue
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, queue: newQueue()}, nil
}

func (s *SQLiteStore) Close() error {
	s.queue.close()
	return s.sqlDB.Close()
}

func (s *SQLiteStore) DeleteCachedFeed(ctx context.Context) error {
	err := exec(ctx, s.queue, func() error {
		_, err := s.sqlDB.ExecContext(context.WithoutCancel(ctx), `DELETE FROM feed_cache`)
		return err
	})
	return storeErr("delete feed", err)
}

func (s *SQLiteStore) InsertFeed(ctx context.Context, feed []LocalFeedImage, timestamp time.Time) error {
	err := exec(ctx, s.queue, func() error {
		if feed == nil {
			feed = []LocalFeedImage{}
		}
		data, err := json.Marshal(feed)
		if err != nil {
			return fmt.Errorf("encoding feed: %w", err)
		}
		_, err = s.sqlDB.ExecContext(context.WithoutCancel(ctx),
			`INSERT INTO feed_cache (id, feed, timestamp) VALUES (1, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET feed = excluded.feed, timestamp = excluded.timestamp`,
			string(data), timestamp.UTC().UnixNano())
		return err
	})
	return storeErr("insert feed", err)
}

func (s *SQLiteStore) RetrieveFeed(ctx context.Context) (*CachedFeed, error) {
	cached, err := do(ctx, s.queue, func() (*CachedFeed, error) {
		var (
			raw   string
			nanos int64
		)
		err := s.sqlDB.QueryRowContext(context.WithoutCancel(ctx),
			`SELECT feed, timestamp FROM feed_cache WHERE id = 1`).Scan(&raw, &nanos)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		cached := &CachedFeed{Timestamp: time.Unix(0, nanos).UTC()}
		if err := json.Unmarshal([]byte(raw), &cached.Feed); err != nil {
			return nil, fmt.Errorf("decoding feed: %w", err)
		}
		return cached, nil
	})
	if err != nil {
		return nil, storeErr("retrieve feed", err)
	}
	return cached, nil
}

func (s *SQLiteStore) InsertImageData(ctx context.Context, data []byte, url string) error {
	err := exec(ctx, s.queue, func() error {
		if data == nil {
			data = []byte{}
		}
		_, err := s.sqlDB.ExecContext(context.WithoutCancel(ctx),
			`INSERT INTO image_data (url, data) VALUES (?, ?)
			 ON CONFLICT(url) DO UPDATE SET data = excluded.data`,
			url, data)
		return err
	})
	return storeErr("insert image data", err)
}

func (s *SQLiteStore) RetrieveImageData(ctx context.Context, url string) ([]byte, error) {
	data, err := do(ctx, s.queue, func() ([]byte, error) {
		var data []byte
		err := s.sqlDB.QueryRowContext(context.WithoutCancel(ctx),
			`SELECT data FROM image_data WHERE url = ?`, url).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if data == nil {
			data = []byte{}
		}
		return data, nil
	})
	if err != nil {
		return nil, storeErr("retrieve image data", err)
	}
	return data, nil
}
