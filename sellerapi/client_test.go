package sellerapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/sellerapi"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*sellerapi.Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := sellerapi.NewClient(srv.URL, srv.Client(), sellerapi.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)
	return client, &calls
}

func TestGetDecodesEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.Equal(t, sellerapi.PathActiveProducts, r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"products":[{"id":"p1"}]}}`))
	})

	var out struct {
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	require.NoError(t, client.Get(context.Background(), "token", sellerapi.PathActiveProducts, &out))
	require.Len(t, out.Products, 1)
	require.Equal(t, "p1", out.Products[0].ID)
}

func TestGetWithoutTokenMakesNoCall(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	err := client.Get(context.Background(), "", sellerapi.PathActiveProducts, nil)
	require.ErrorIs(t, err, apperrors.ErrAuthRequired)
	require.Zero(t, calls.Load())
}

func TestGetUnauthorizedIsNotRetried(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"jwt expired"}`))
	})

	err := client.Get(context.Background(), "token", sellerapi.PathActiveProducts, nil)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.EqualValues(t, 1, calls.Load())
}

func TestGetRetriesServerErrors(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.Get(context.Background(), "token", sellerapi.PathActiveProducts, nil)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
	require.EqualValues(t, 3, calls.Load())
}

func TestGetRecoversAfterRetry(t *testing.T) {
	var n atomic.Int32
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	})

	require.NoError(t, client.Get(context.Background(), "token", sellerapi.PathAccountDetails, &struct{}{}))
	require.EqualValues(t, 2, calls.Load())
}

func TestEnvelopeFailure(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"seller profile incomplete"}`))
	})

	err := client.Get(context.Background(), "token", sellerapi.PathAccountDetails, nil)
	require.ErrorIs(t, err, apperrors.ErrEnvelopeFailure)
	require.NotErrorIs(t, err, apperrors.ErrUnauthorized)
	require.EqualValues(t, 1, calls.Load())
}

func TestPutSendsBodyOnce(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]any{"business": map[string]any{"city": "Leeds"}}, body)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.Put(context.Background(), "token", sellerapi.PathAccountDetails,
		map[string]any{"business": map[string]string{"city": "Leeds"}}, nil)
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())
}

type recordingObserver struct {
	statuses []int
}

func (o *recordingObserver) ObserveAPIRequest(_ string, status int, _ time.Duration) {
	o.statuses = append(o.statuses, status)
}

func TestObserverSeesEveryAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	obs := &recordingObserver{}
	client, err := sellerapi.NewClient(srv.URL, srv.Client(),
		sellerapi.WithMaxRetries(1), sellerapi.WithRetryDelay(time.Millisecond), sellerapi.WithObserver(obs))
	require.NoError(t, err)

	require.Error(t, client.Get(context.Background(), "token", sellerapi.PathActiveProducts, nil))
	require.Equal(t, []int{500, 500}, obs.statuses)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := sellerapi.NewClient("", nil)
	require.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	require.ErrorIs(t, sellerapi.AuthRequired(&apperrors.APIError{Status: http.StatusUnauthorized}), apperrors.ErrAuthRequired)
	require.NotErrorIs(t, sellerapi.AuthRequired(&apperrors.APIError{Status: http.StatusForbidden}), apperrors.ErrAuthRequired)
	require.NoError(t, sellerapi.AuthRequired(nil))
}
