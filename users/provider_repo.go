package users

import (
	"context"
	"errors"

	"github.com/jrsteele09/go-seller-dashboard/provider"
)

const (
	userProfilesTable   = "user_profiles"
	sellerProfilesTable = "seller_profiles"
)

// RowReader reads a single row by id.
type RowReader interface {
	SelectByID(ctx context.Context, accessToken, table, id, columns string, out any) error
}

var _ RowReader = (*provider.DataAPI)(nil)

// ProviderRepo is a ProfileRepo backed by the provider's data API.
type ProviderRepo struct {
	rows RowReader
}

var _ ProfileRepo = (*ProviderRepo)(nil)

func NewProviderRepo(rows RowReader) (*ProviderRepo, error) {
	if rows == nil {
		return nil, errors.New("[NewProviderRepo] row reader is required")
	}
	return &ProviderRepo{rows: rows}, nil
}

func (r *ProviderRepo) GetUserProfile(ctx context.Context, accessToken, userID string) (*UserProfile, error) {
	var p UserProfile
	if err := r.rows.SelectByID(ctx, accessToken, userProfilesTable, userID, "id,role,is_active,email", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProviderRepo) GetDisplayProfile(ctx context.Context, accessToken, userID string) (*DisplayProfile, error) {
	var p DisplayProfile
	if err := r.rows.SelectByID(ctx, accessToken, sellerProfilesTable, userID, "id,display_name,email,subscription_plan", &p); err != nil {
		return nil, err
	}
	return &p, nil
}
