package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
)

type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Postgres persists history entries. Artifacts are stored as JSONB so new
// artifact fields never require a migration.
type Postgres struct {
	db DBTX
}

func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the history table when it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS generation_history (
    id         UUID PRIMARY KEY,
    prompt     TEXT NOT NULL,
    effect     TEXT NOT NULL DEFAULT '',
    artifact   JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`)
	if err != nil {
		return domain.Wrap(domain.KindInternal, "history_schema_failed", err)
	}
	return nil
}

func (p *Postgres) Prepend(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	artifact, err := json.Marshal(entry.Artifact)
	if err != nil {
		return domain.HistoryEntry{}, domain.Wrap(domain.KindInternal, "history_write_failed", err)
	}
	_, err = p.db.Exec(ctx, `
INSERT INTO generation_history (id, prompt, effect, artifact, created_at)
VALUES ($1, $2, $3, $4, $5)
`, entry.ID, entry.Prompt, entry.Effect, artifact, entry.CreatedAt)
	if err != nil {
		return domain.HistoryEntry{}, domain.Wrap(domain.KindInternal, "history_write_failed", err)
	}
	return entry, nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.Query(ctx, `
SELECT id, prompt, effect, artifact, created_at
FROM generation_history
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "history_read_failed", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			entry    domain.HistoryEntry
			artifact []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Prompt, &entry.Effect, &artifact, &entry.CreatedAt); err != nil {
			return nil, domain.Wrap(domain.KindInternal, "history_read_failed", err)
		}
		if err := json.Unmarshal(artifact, &entry.Artifact); err != nil {
			return nil, domain.Wrap(domain.KindInternal, "history_read_failed", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindInternal, "history_read_failed", err)
	}
	return entries, nil
}

var _ Store = (*Postgres)(nil)
