package lrs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/pkg/config"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(config.LRSInstance{
		ID:       "test-lrs",
		Endpoint: srv.URL,
		Username: "lrs-user",
		Password: "lrs-pass",
	}, Options{HTTPClient: srv.Client()})
	require.NoError(t, err)
	return client
}

func writeStatements(w http.ResponseWriter, result models.StatementResult) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func TestQueryStatements_SendsXAPIHeaders(t *testing.T) {
	var gotVersion, gotAuth, gotCorrelation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("X-Experience-API-Version")
		gotAuth = r.Header.Get("Authorization")
		gotCorrelation = r.Header.Get("X-Correlation-ID")
		writeStatements(w, models.StatementResult{})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.QueryStatements(context.Background(), NewStatementQuery(), 0)
	require.NoError(t, err)

	assert.Equal(t, "1.0.3", gotVersion)
	assert.Contains(t, gotAuth, "Basic ")
	assert.NotEmpty(t, gotCorrelation)
}

func TestQueryStatements_FollowsMoreLinks(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			writeStatements(w, models.StatementResult{
				Statements: []models.Statement{{ID: "s1"}, {ID: "s2"}},
				More:       "/statements/more/abc",
			})
		default:
			assert.Equal(t, "/statements/more/abc", r.URL.Path)
			writeStatements(w, models.StatementResult{Statements: []models.Statement{{ID: "s3"}}})
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	statements, err := client.QueryStatements(context.Background(), NewStatementQuery(), 0)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, statements, 3)
	assert.Equal(t, "s3", statements[2].ID)
	for _, stmt := range statements {
		assert.Equal(t, "test-lrs", stmt.InstanceID)
	}
}

func TestQueryStatements_TruncatesAtMaxStatements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatements(w, models.StatementResult{
			Statements: []models.Statement{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			More:       "/statements/more/next",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	statements, err := client.QueryStatements(context.Background(), NewStatementQuery(), 2)
	require.NoError(t, err)
	assert.Len(t, statements, 2)
}

func TestQueryStatements_RetriesServerErrorOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeStatements(w, models.StatementResult{Statements: []models.Statement{{ID: "ok"}}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	statements, err := client.QueryStatements(context.Background(), NewStatementQuery(), 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, statements, 1)
}

func TestQueryStatements_DoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.QueryStatements(context.Background(), NewStatementQuery(), 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "unknown", appErrors.LRSCategory(err))
}

func TestQueryStatements_AuthErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.QueryStatements(context.Background(), NewStatementQuery(), 0)
	require.Error(t, err)
	assert.Equal(t, "auth", appErrors.LRSCategory(err))
}

func TestQueryStatements_ServerErrorExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	_, err := client.QueryStatements(context.Background(), NewStatementQuery(), 0)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "server", appErrors.LRSCategory(err))
}

func TestAggregate_ReturnsCountWithZeroLimit(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		writeStatements(w, models.StatementResult{Statements: []models.Statement{{ID: "a"}, {ID: "b"}}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	count, err := client.Aggregate(context.Background(), NewStatementQuery())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "0", gotLimit)
}

func TestInstanceHealth(t *testing.T) {
	t.Run("2xx healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/about", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		health := newTestClient(t, srv).InstanceHealth(context.Background())
		assert.True(t, health.Healthy)
		assert.Empty(t, health.Error)
	})

	t.Run("auth rejection still reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		health := newTestClient(t, srv).InstanceHealth(context.Background())
		assert.True(t, health.Healthy)
	})

	t.Run("server error unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		health := newTestClient(t, srv).InstanceHealth(context.Background())
		assert.False(t, health.Healthy)
		assert.Contains(t, health.Error, "500")
	})

	t.Run("connection failure unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		health := newTestClient(t, srv).InstanceHealth(context.Background())
		assert.False(t, health.Healthy)
		assert.NotEmpty(t, health.Error)
	})
}
