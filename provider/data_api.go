package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
)

// DataAPI reads and writes rows through the provider's REST data endpoints.
// Requests carry the user's access token so row level security applies.
type DataAPI struct {
	client
	schema string
}

// NewDataAPI creates a DataAPI scoped to schema.
func NewDataAPI(configs ConfigSource, httpClient *http.Client, schema string) *DataAPI {
	return &DataAPI{client: newClient(configs, httpClient), schema: schema}
}

// SelectByID decodes the row of table whose id equals id into out.
// It returns ErrNotFound when there is no such row.
func (d *DataAPI) SelectByID(ctx context.Context, accessToken, table, id, columns string, out any) error {
	q := url.Values{}
	q.Set("select", columns)
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []json.RawMessage
	err := d.do(ctx, request{
		method:      http.MethodGet,
		path:        "/rest/v1/" + table + "?" + q.Encode(),
		accessToken: accessToken,
		headers:     map[string]string{"Accept-Profile": d.schema},
	}, &rows)
	if err != nil {
		return apperrors.Wrapf(err, "[DataAPI SelectByID] %s", table)
	}
	if len(rows) == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "[DataAPI SelectByID] %s", table)
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("[DataAPI SelectByID] decoding %s row: %w", table, err)
	}
	return nil
}

// UpdateByID applies values to the row of table whose id equals id.
func (d *DataAPI) UpdateByID(ctx context.Context, accessToken, table, id string, values any) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	err := d.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/rest/v1/" + table + "?" + q.Encode(),
		accessToken: accessToken,
		body:        values,
		headers: map[string]string{
			"Content-Profile": d.schema,
			"Prefer":          "return=minimal",
		},
	}, nil)
	return apperrors.Wrapf(err, "[DataAPI UpdateByID] %s", table)
}

// Upsert inserts values into table, merging with an existing row on primary key conflict.
func (d *DataAPI) Upsert(ctx context.Context, accessToken, table string, values any) error {
	err := d.do(ctx, request{
		method:      http.MethodPost,
		path:        "/rest/v1/" + table,
		accessToken: accessToken,
		body:        values,
		headers: map[string]string{
			"Content-Profile": d.schema,
			"Prefer":          "resolution=merge-duplicates,return=minimal",
		},
	}, nil)
	return apperrors.Wrapf(err, "[DataAPI Upsert] %s", table)
}
