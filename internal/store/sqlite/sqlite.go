package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

// PingContext verifies the database connection is alive.
func (r *SqliteRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) APIKeys() store.APIKeyRepository {
	return &apiKeyRepo{db: r.executor}
}

func (r *SqliteRepository) Requests() store.RequestRepository {
	return &requestRepo{db: r.executor}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

type apiKeyRepo struct {
	db DB
}

func (r *apiKeyRepo) GetByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	// active check is part of the query for speed
	query := `SELECT * FROM api_keys WHERE key_hash = ? AND is_active = 1`
	if err := r.db.GetContext(ctx, &key, query, hash); err != nil {
		return nil, notFound(err)
	}
	return &key, nil
}

func (r *apiKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	query := `
	INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, is_active, created_at, updated_at)
	VALUES (:id, :user_id, :name, :key_hash, :key_prefix, :is_active, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, key)
	return err
}

func (r *apiKeyRepo) UpdateUsage(ctx context.Context, id string) error {
	query := `UPDATE api_keys SET last_used_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	return err
}

type requestRepo struct {
	db DB
}

func (r *requestRepo) Log(ctx context.Context, rec *model.RequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	query := `
	INSERT INTO request_records (
		id, task, provider_id, model_hint, model, success, degraded, error_kind,
		input_tokens, output_tokens, cost, latency_ms,
		user_id, api_key_id, app_name, created_at
	) VALUES (
		:id, :task, :provider_id, :model_hint, :model, :success, :degraded, :error_kind,
		:input_tokens, :output_tokens, :cost, :latency_ms,
		:user_id, :api_key_id, :app_name, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (*model.RequestRecord, error) {
	var rec model.RequestRecord
	if err := r.db.GetContext(ctx, &rec, `SELECT * FROM request_records WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *requestRepo) Recent(ctx context.Context, limit int) ([]model.RequestRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []model.RequestRecord
	query := `SELECT * FROM request_records ORDER BY created_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &recs, query, limit)
	return recs, err
}

// where renders f as a WHERE clause with positional args.
func where(f store.RequestFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Task != "" {
		conds = append(conds, "task = ?")
		args = append(args, f.Task)
	}
	if f.Provider != "" {
		conds = append(conds, "provider_id = ?")
		args = append(args, f.Provider)
	}
	if f.Success != nil {
		conds = append(conds, "success = ?")
		args = append(args, *f.Success)
	}
	if f.Degraded != nil {
		conds = append(conds, "degraded = ?")
		args = append(args, *f.Degraded)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *requestRepo) Count(ctx context.Context, f store.RequestFilter) (int64, error) {
	clause, args := where(f)
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM request_records`+clause, args...)
	return n, err
}

var summable = map[string]bool{
	"input_tokens":  true,
	"output_tokens": true,
	"cost":          true,
	"latency_ms":    true,
}

func (r *requestRepo) Sum(ctx context.Context, column string, f store.RequestFilter) (float64, error) {
	if !summable[column] {
		return 0, fmt.Errorf("%w: %s", store.ErrInvalidColumn, column)
	}
	clause, args := where(f)
	var total float64
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM request_records%s`, column, clause)
	err := r.db.GetContext(ctx, &total, query, args...)
	return total, err
}

func (r *requestRepo) DailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	var stats []model.DailyStats
	query := `
		SELECT
			DATE(created_at) AS date,
			COUNT(*) AS total_requests,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			COALESCE(SUM(cost), 0) AS total_cost,
			COALESCE(AVG(latency_ms), 0) AS avg_latency
		FROM request_records
		WHERE created_at >= ?
		GROUP BY date
		ORDER BY date DESC
	`
	since := time.Now().UTC().AddDate(0, 0, -days)
	err := r.db.SelectContext(ctx, &stats, query, since)
	return stats, err
}
