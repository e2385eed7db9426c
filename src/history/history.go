// Package history records finished analyses in MySQL so the CLI can list
// them later. An empty DSN disables it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"screen-vision/src/session"
	"screen-vision/src/vision"
)

const maxTags = 10

type Record struct {
	ID          int64
	CreatedAt   time.Time
	Source      string
	Backend     string
	X, Y, W, H  int
	Caption     string
	Tags        []string
	ObjectCount int
	Duration    time.Duration
	Analysis    *vision.Analysis
}

type Store interface {
	Save(ctx context.Context, r Record) (int64, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Open returns a MySQL store for dsn, or Nop when dsn is empty.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return Nop{}, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse history dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	s := NewMySQL(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("History: connected to %s@%s/%s", cfg.User, cfg.Addr, cfg.DBName)
	return s, nil
}

// RecordFrom builds a record from a finished capture.
func RecordFrom(res session.Result) Record {
	r := Record{
		CreatedAt: res.At,
		Source:    res.Source,
		Backend:   res.Backend,
		X:         res.Region.Min.X,
		Y:         res.Region.Min.Y,
		W:         res.Region.Dx(),
		H:         res.Region.Dy(),
		Duration:  res.Elapsed,
		Analysis:  res.Analysis,
	}
	if res.Analysis != nil {
		sorted := res.Analysis.Sorted()
		r.Caption = sorted.Caption()
		for i, t := range sorted.Tags {
			if i >= maxTags {
				break
			}
			r.Tags = append(r.Tags, t.Name)
		}
		r.ObjectCount = len(sorted.Objects)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return r
}

// MySQL stores records in the analyses table.
type MySQL struct {
	db *sql.DB
}

func NewMySQL(db *sql.DB) *MySQL { return &MySQL{db: db} }

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS analyses (
		id INT AUTO_INCREMENT PRIMARY KEY,
		created_at TIMESTAMP(3) NOT NULL,
		source VARCHAR(64) NOT NULL,
		backend VARCHAR(64) NOT NULL,
		region_x INT NOT NULL,
		region_y INT NOT NULL,
		region_w INT NOT NULL,
		region_h INT NOT NULL,
		caption TEXT,
		tags TEXT,
		object_count INT NOT NULL DEFAULT 0,
		duration_ms INT NOT NULL DEFAULT 0,
		analysis_json LONGTEXT
	) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`

func (s *MySQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create analyses table: %w", err)
	}
	return nil
}

func (s *MySQL) Save(ctx context.Context, r Record) (int64, error) {
	payload, err := json.Marshal(r.Analysis)
	if err != nil {
		return 0, fmt.Errorf("encode analysis: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (created_at, source, backend, region_x, region_y, region_w, region_h, caption, tags, object_count, duration_ms, analysis_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CreatedAt.UTC(), r.Source, r.Backend, r.X, r.Y, r.W, r.H,
		r.Caption, strings.Join(r.Tags, ","), r.ObjectCount, r.Duration.Milliseconds(), string(payload))
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}
	return id, nil
}

func (s *MySQL) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, backend, region_x, region_y, region_w, region_h, caption, tags, object_count, duration_ms, analysis_json
		FROM analyses ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r          Record
			caption    sql.NullString
			tags       sql.NullString
			payload    sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.Backend, &r.X, &r.Y, &r.W, &r.H,
			&caption, &tags, &r.ObjectCount, &durationMS, &payload); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		r.Caption = caption.String
		r.Tags = splitTags(tags.String)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if payload.Valid && payload.String != "" && payload.String != "null" {
			var a vision.Analysis
			if err := json.Unmarshal([]byte(payload.String), &a); err == nil {
				r.Analysis = &a
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *MySQL) Close() error { return s.db.Close() }

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Nop discards records.
type Nop struct{}

func (Nop) Save(context.Context, Record) (int64, error) { return 0, nil }

func (Nop) Recent(context.Context, int) ([]Record, error) { return nil, nil }

func (Nop) Close() error { return nil }

// Target saves every successful capture.
type Target struct {
	Store   Store
	Timeout time.Duration
}

func (t Target) OnSuccess(res session.Result) error {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	id, err := t.Store.Save(ctx, RecordFrom(res))
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if id > 0 {
		log.Printf("History: saved analysis %d", id)
	}
	return nil
}

func (t Target) OnFailure(err error) error { return nil }
