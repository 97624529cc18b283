package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-seller-dashboard/provider"
)

const preferencesTable = "notification_preferences"

// RowStore reads and upserts rows by id.
type RowStore interface {
	SelectByID(ctx context.Context, accessToken, table, id, columns string, out any) error
	Upsert(ctx context.Context, accessToken, table string, values any) error
}

var _ RowStore = (*provider.DataAPI)(nil)

type preferencesRow struct {
	ID          string             `json:"id"`
	DailyDigest bool               `json:"daily_digest"`
	Settings    map[string]Setting `json:"settings"`
	UpdatedAt   string             `json:"updated_at,omitempty"`
}

// ProviderRepo is a Repo backed by the provider's data API.
type ProviderRepo struct {
	rows    RowStore
	nowTime func() time.Time
}

var _ Repo = (*ProviderRepo)(nil)

func NewProviderRepo(rows RowStore) (*ProviderRepo, error) {
	if rows == nil {
		return nil, errors.New("[NewProviderRepo] row store is required")
	}
	return &ProviderRepo{rows: rows, nowTime: time.Now}, nil
}

func (r *ProviderRepo) Get(ctx context.Context, accessToken, userID string) (*Preferences, error) {
	var row preferencesRow
	if err := r.rows.SelectByID(ctx, accessToken, preferencesTable, userID, "id,daily_digest,settings", &row); err != nil {
		return nil, err
	}
	return merge(row.DailyDigest, row.Settings), nil
}

func (r *ProviderRepo) Save(ctx context.Context, accessToken, userID string, p *Preferences) error {
	return r.rows.Upsert(ctx, accessToken, preferencesTable, preferencesRow{
		ID:          userID,
		DailyDigest: p.DailyDigest,
		Settings:    p.Settings(),
		UpdatedAt:   r.nowTime().UTC().Format(time.RFC3339),
	})
}
