package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afc-report-backend/config"
	"afc-report-backend/internal/apperror"
)

func newTestClient(url string) *Client {
	return NewClient(config.RemoteConfig{URL: url, Timeout: 2 * time.Second})
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"Tag": 1, "Station": "1(NRS)"}, {"Tag": "02", "Station": "2(DMK)"}]`))
	}))
	defer server.Close()

	rows, err := newTestClient(server.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].Get("tag"))
	assert.Equal(t, "02", rows[1].Get("tag"))
	assert.Equal(t, "2(DMK)", rows[1].Get("station"))
}

func TestClient_Create(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).Create(context.Background(), map[string]string{"tag": "12"})
	require.NoError(t, err)
	assert.Equal(t, "12", received["tag"])
}

func TestClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "delete", req.Action)
		assert.EqualValues(t, 7, req.RowIndex)
		w.Write([]byte(`{"status":"deleted","row":7}`))
	}))
	defer server.Close()

	body, err := newTestClient(server.URL).Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"deleted","row":7}`, string(body))
}

func TestClient_DeleteForwardsRowIndexAsGiven(t *testing.T) {
	var raw map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Delete(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, `"5"`, string(raw["rowIndex"]))

	_, err = newTestClient(server.URL).Delete(context.Background(), json.Number("5.0"))
	require.NoError(t, err)
	assert.Equal(t, `5.0`, string(raw["rowIndex"]))
}

func TestClient_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		url        func(t *testing.T) string
		wantCode   apperror.ErrorCode
		wantStatus int
	}{
		{
			name:       "Missing URL",
			url:        func(t *testing.T) string { return "" },
			wantCode:   apperror.ErrCodeConfig,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "Upstream rejects",
			url: func(t *testing.T) string {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "quota exceeded", http.StatusTooManyRequests)
				}))
				t.Cleanup(server.Close)
				return server.URL
			},
			wantCode:   apperror.ErrCodeUpstream,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name: "Unreachable",
			url: func(t *testing.T) string {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
				url := server.URL
				server.Close()
				return url
			},
			wantCode:   apperror.ErrCodeUpstreamUnreachable,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "Not JSON",
			url: func(t *testing.T) string {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte("<html>login</html>"))
				}))
				t.Cleanup(server.Close)
				return server.URL
			},
			wantCode:   apperror.ErrCodeUpstreamUnreachable,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestClient(tc.url(t)).Fetch(context.Background())
			require.Error(t, err)
			assert.True(t, apperror.Is(err, tc.wantCode), "unexpected error %v", err)
			status, _ := apperror.StatusOf(err)
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}
