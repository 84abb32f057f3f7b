// Package store persists scan history for the Telegram front-end. The
// HTTP gateway itself keeps no state here; history is the bot's feature.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/3xyy/Sortify/internal/classify"
)

var ErrNotFound = sql.ErrNoRows

type ScanRepo struct{ DB *sql.DB }

func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{DB: db} }

type ScanRow struct {
	ID        int64
	CreatedAt time.Time
	ChatID    int64
	Engine    string
	City      string
	Result    classify.Result
}

// One statement per exec: the pgx driver's default protocol does not
// accept multi-statement strings.
var schema = []string{
	`create table if not exists scans (
    id          bigserial primary key,
    created_at  timestamptz not null default now(),
    chat_id     bigint not null,
    engine      text not null,
    city        text not null,
    category    text not null,
    confidence  int not null,
    result_json jsonb not null
)`,
	`create index if not exists scans_chat_created_idx on scans (chat_id, created_at desc)`,
}

func (r *ScanRepo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScanRepo) Insert(ctx context.Context, chatID int64, engine, city string, res classify.Result) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	const q = `
insert into scans (chat_id, engine, city, category, confidence, result_json)
values ($1, $2, $3, $4, $5, $6)`
	_, err = r.DB.ExecContext(ctx, q, chatID, engine, city, res.Category, res.Confidence, js)
	return err
}

// Recent returns the chat's latest scans, newest first.
func (r *ScanRepo) Recent(ctx context.Context, chatID int64, limit int) ([]ScanRow, error) {
	if limit <= 0 {
		limit = 5
	}
	const q = `
select id, created_at, chat_id, engine, city, result_json
from scans
where chat_id = $1
order by created_at desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScanRow
	for rows.Next() {
		var (
			row ScanRow
			js  []byte
		)
		if err := rows.Scan(&row.ID, &row.CreatedAt, &row.ChatID, &row.Engine, &row.City, &js); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(js, &row.Result); err != nil {
			// Broken rows are skipped rather than failing the listing.
			continue
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
