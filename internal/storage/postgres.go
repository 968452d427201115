package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/fieldsight/internal/config"
	"github.com/your-org/fieldsight/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the observation tables if they don't exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS markers (
			id UUID PRIMARY KEY,
			account_id TEXT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			image_url TEXT NOT NULL,
			predicted_class TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			identifier TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_markers_account ON markers (account_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS sights (
			id UUID PRIMARY KEY,
			account_id TEXT NOT NULL,
			image_url TEXT NOT NULL,
			predicted_class TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sights_account_class ON sights (account_id, predicted_class)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Markers ---

// SaveMarker appends one map marker. Markers are never updated or deleted.
func (s *PostgresStore) SaveMarker(ctx context.Context, m *models.Marker) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO markers (id, account_id, latitude, longitude, image_url, predicted_class, confidence, timestamp, identifier, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.AccountID, m.Latitude, m.Longitude, m.ImageURL,
		m.PredictedClass, m.Confidence, m.Timestamp, m.Identifier, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("save marker: %w", err)
	}
	return nil
}

// ListMarkers returns one account's markers, newest first.
func (s *PostgresStore) ListMarkers(ctx context.Context, accountID string) ([]models.Marker, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, latitude, longitude, image_url, predicted_class, confidence, timestamp, identifier, created_at
		 FROM markers WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	defer rows.Close()

	var markers []models.Marker
	for rows.Next() {
		var m models.Marker
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Latitude, &m.Longitude, &m.ImageURL,
			&m.PredictedClass, &m.Confidence, &m.Timestamp, &m.Identifier, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// ListAllMarkers returns every account's markers (the map's "show all"
// toggle), newest first.
func (s *PostgresStore) ListAllMarkers(ctx context.Context, limit int) ([]models.Marker, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, latitude, longitude, image_url, predicted_class, confidence, timestamp, identifier, created_at
		 FROM markers ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list all markers: %w", err)
	}
	defer rows.Close()

	var markers []models.Marker
	for rows.Next() {
		var m models.Marker
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Latitude, &m.Longitude, &m.ImageURL,
			&m.PredictedClass, &m.Confidence, &m.Timestamp, &m.Identifier, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// --- Sights ---

// SaveSight appends one catalog sight. Sights are never updated or deleted.
func (s *PostgresStore) SaveSight(ctx context.Context, sight *models.Sight) error {
	if sight.ID == uuid.Nil {
		sight.ID = uuid.New()
	}
	sight.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sights (id, account_id, image_url, predicted_class, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sight.ID, sight.AccountID, sight.ImageURL, sight.PredictedClass, sight.CreatedAt)
	if err != nil {
		return fmt.Errorf("save sight: %w", err)
	}
	return nil
}

// ListSights returns one account's sights, oldest first so catalog slideshows
// play in discovery order. When classes is non-empty only those predicted
// classes are returned (category filtering).
func (s *PostgresStore) ListSights(ctx context.Context, accountID string, classes []string) ([]models.Sight, error) {
	query := `SELECT id, account_id, image_url, predicted_class, created_at
		 FROM sights WHERE account_id = $1`
	args := []interface{}{accountID}
	if len(classes) > 0 {
		query += ` AND predicted_class = ANY($2)`
		args = append(args, classes)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sights: %w", err)
	}
	defer rows.Close()

	var sights []models.Sight
	for rows.Next() {
		var sg models.Sight
		if err := rows.Scan(&sg.ID, &sg.AccountID, &sg.ImageURL, &sg.PredictedClass, &sg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sight: %w", err)
		}
		sights = append(sights, sg)
	}
	return sights, nil
}
