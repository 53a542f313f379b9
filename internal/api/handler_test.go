package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afc-report-backend/config"
	"afc-report-backend/internal/db"
	"afc-report-backend/internal/form"
	"afc-report-backend/internal/queue"
	"afc-report-backend/internal/remote"
	"afc-report-backend/internal/sheet"
	"afc-report-backend/internal/store"
	"afc-report-backend/internal/submit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSheet stands in for the spreadsheet script.
type fakeSheet struct {
	mu     sync.Mutex
	rows   []sheet.Row
	status int
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		http.Error(w, "quota exceeded", f.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(f.rows)
	case http.MethodPost:
		var body sheet.Row
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["action"] == "delete" {
			idx, _ := strconv.Atoi(fmt.Sprint(body["rowIndex"]))
			f.rows = append(f.rows[:idx-2], f.rows[idx-1:]...)
			fmt.Fprintf(w, `{"result":"deleted","rowIndex":%d}`, idx)
			return
		}
		f.rows = append(f.rows, body)
		fmt.Fprint(w, `{"result":"success"}`)
	}
}

func (f *fakeSheet) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type testEnv struct {
	router *gin.Engine
	sheet  *fakeSheet
	store  store.Store
	queue  *queue.Controller
	form   *form.Form
}

var athens, _ = time.LoadLocation("Europe/Athens")

func newTestEnv(t *testing.T, configured bool) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := db.Init(&config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + name + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	t.Cleanup(func() { sqlDB.Close() })

	fs := &fakeSheet{}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	remoteCfg := config.RemoteConfig{Timeout: 2 * time.Second}
	if configured {
		remoteCfg.URL = srv.URL
	}
	rc := remote.NewClient(remoteCfg)

	st := store.NewGormStore(gormDB)
	qc := queue.NewController(st, submit.NewRemoteClient(rc), queue.AlwaysOnline{}, time.Hour)
	f := form.New(ctx, st, st, qc, form.Options{
		Location: athens,
		Clock:    func() time.Time { return time.Date(2025, 3, 4, 13, 7, 0, 0, time.UTC) },
	})

	h := NewHandler(st, rc, qc, f, nil)
	h.now = func() time.Time { return time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC) }

	router := NewRouter(ctx, config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		UpstreamPerMin:  1000,
		CacheTTLSeconds: 60,
	}, h)

	return &testEnv{router: router, sheet: fs, store: st, queue: qc, form: f}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	return w
}

func TestGetReports(t *testing.T) {
	env := newTestEnv(t, true)
	env.sheet.rows = []sheet.Row{{"Tag": "044", "Station": "2(DMK)"}}

	w := env.do(http.MethodGet, "/api/reports", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `[{"Tag":"044","Station":"2(DMK)"}]`, w.Body.String())
}

func TestProxyErrors(t *testing.T) {
	testCases := []struct {
		name       string
		configured bool
		status     int
		method     string
		path       string
		body       any
		wantCode   int
		wantBody   string
	}{
		{
			name: "Reports without script URL", method: http.MethodGet, path: "/api/reports",
			wantCode: http.StatusInternalServerError, wantBody: `{"error":"Configuration Error: Missing Google Script URL"}`,
		},
		{
			name: "Submit without script URL", method: http.MethodPost, path: "/api/submit", body: map[string]string{"tag": "1"},
			wantCode: http.StatusInternalServerError, wantBody: `{"error":"Configuration Error: Missing Google Script URL"}`,
		},
		{
			name: "Delete without script URL is checked first", method: http.MethodPost, path: "/api/delete", body: map[string]int{},
			wantCode: http.StatusInternalServerError, wantBody: `{"error":"Configuration Error: Missing Google Script URL"}`,
		},
		{
			name: "Delete without script URL ignores the body", method: http.MethodPost, path: "/api/delete", body: "{not json",
			wantCode: http.StatusInternalServerError, wantBody: `{"error":"Configuration Error: Missing Google Script URL"}`,
		},
		{
			name: "Delete with zero rowIndex", configured: true, method: http.MethodPost, path: "/api/delete", body: map[string]int{"rowIndex": 0},
			wantCode: http.StatusBadRequest, wantBody: `{"error":"Missing rowIndex"}`,
		},
		{
			name: "Delete with empty rowIndex", configured: true, method: http.MethodPost, path: "/api/delete", body: map[string]string{"rowIndex": ""},
			wantCode: http.StatusBadRequest, wantBody: `{"error":"Missing rowIndex"}`,
		},
		{
			name: "Delete without rowIndex", configured: true, method: http.MethodPost, path: "/api/delete", body: map[string]int{},
			wantCode: http.StatusBadRequest, wantBody: `{"error":"Missing rowIndex"}`,
		},
		{
			name: "Upstream status passes through", configured: true, status: http.StatusServiceUnavailable,
			method: http.MethodPost, path: "/api/submit", body: map[string]string{"tag": "1"},
			wantCode: http.StatusServiceUnavailable, wantBody: `{"error":"Google Script responded with error"}`,
		},
		{
			name: "Invalid body", configured: true, method: http.MethodPost, path: "/api/submit", body: "{not json",
			wantCode: http.StatusBadRequest, wantBody: `{"error":"invalid request"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.configured)
			env.sheet.status = tc.status

			w := env.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantCode, w.Code)
			assert.JSONEq(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestSubmitAndDeleteProxy(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(http.MethodPost, "/api/submit", map[string]string{"tag": "7", "station": "3(VNZ)"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Equal(t, 1, env.sheet.count())

	w = env.do(http.MethodPost, "/api/delete", map[string]int{"rowIndex": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"deleted","rowIndex":2}`, w.Body.String())
	assert.Zero(t, env.sheet.count())
}

func TestDeleteProxy_RowIndexAsString(t *testing.T) {
	env := newTestEnv(t, true)
	for _, tag := range []string{"7", "8"} {
		w := env.do(http.MethodPost, "/api/submit", map[string]string{"tag": tag})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(http.MethodPost, "/api/delete", map[string]string{"rowIndex": "3"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"deleted","rowIndex":3}`, w.Body.String())
	assert.Equal(t, 1, env.sheet.count())
}

func TestFormSubmitAndSync(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(http.MethodPatch, "/api/form", map[string]string{"field": "station", "value": "6(PNP)"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPut, "/api/form/multi-tag", map[string]any{"enabled": true, "tags": "1, 2, 3"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/form/submit", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var res form.SubmitResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res.Reports, 3)
	assert.Equal(t, "3 Reports Saved to Queue! 📨", res.Message)

	w = env.do(http.MethodPost, "/api/pending/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result queue.SyncResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, queue.SyncResult{Attempted: 3, Synced: 3}, result)
	assert.Equal(t, 3, env.sheet.count())
	assert.Equal(t, "3", env.sheet.rows[0]["tag"], "newest first")

	w = env.do(http.MethodGet, "/api/pending", nil)
	assert.JSONEq(t, `{"reports":[],"syncing":false,"online":false}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/pending/clear", nil)
	assert.JSONEq(t, `{"removed":3}`, w.Body.String())
}

func TestFormErrors(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(http.MethodPost, "/api/form/submit", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Please provide a Tag."`)

	w = env.do(http.MethodPatch, "/api/form", map[string]string{"field": "reportedDate", "value": "2025-03-01T10:00"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPatch, "/api/form", map[string]string{"field": "station", "value": "99(XXX)"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/form/auto-time", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePending(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	env.do(http.MethodPatch, "/api/form", map[string]string{"field": "tag", "value": "12"})
	w := env.do(http.MethodPost, "/api/form/submit", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var res form.SubmitResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	env.queue.Refresh(ctx)
	require.Len(t, env.queue.Pending(), 1)

	w = env.do(http.MethodDelete, "/api/pending/"+res.Reports[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, env.queue.Pending())

	all, err := env.store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t, true)

	first := env.do(http.MethodGet, "/api/catalog/GATE", nil)
	second := env.do(http.MethodGet, "/api/catalog/GATE", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	var c form.Catalog
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &c))
	assert.Empty(t, c.AlarmCodes)
	assert.NotEmpty(t, c.Impacts)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/catalog/ESCALATOR", nil).Code)
}

func TestHistoryAndEdit(t *testing.T) {
	env := newTestEnv(t, true)
	for i := 1; i <= 12; i++ {
		env.sheet.rows = append(env.sheet.rows, sheet.Row{
			"Reported By": "Nikos Tsiagkas",
			"Date":        fmt.Sprintf("2025-03-%02dT08:00:00.000Z", i),
			"Tag":         float64(i),
			"Station":     "5(SNT)",
		})
	}

	w := env.do(http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []sheet.Row
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 10)
	assert.Equal(t, "12", rows[0].Get("tag"))
	assert.Equal(t, "12/3/2025, 10:00 π.μ.", rows[0]["Date"])

	w = env.do(http.MethodPost, "/api/history/edit", rows[0])
	require.Equal(t, http.StatusOK, w.Code)
	var state form.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, form.ModeEdit, state.Mode)
	assert.Equal(t, "2025-03-12T10:00", state.Draft.ReportedDate)

	w = env.do(http.MethodDelete, "/api/form/edit", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, form.ModeCreate, state.Mode)
}

func TestDashboardAndExport(t *testing.T) {
	env := newTestEnv(t, true)
	env.sheet.rows = []sheet.Row{
		{"Date": "1/3/2025, 12:00 π.μ.", "Station": "2(DMK)", "Device": "GATE", "Malfunction": "Red X"},
		{"Date": "2025-03-10T10:00:00.000Z", "Station": "2(DMK)", "Device": "ATIM", "Malfunction": "Paper Empty"},
		{"Date": "28/2/2025, 11:00 μ.μ.", "Station": "4(AGS)", "Device": "GATE"},
		{"Date": "not a date", "Station": "4(AGS)"},
	}

	w := env.do(http.MethodGet, "/api/dashboard?start=2025-03-01&end=2025-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Start   string `json:"start"`
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2025-03-01", body.Start)
	assert.Equal(t, 2, body.Summary.Total)

	w = env.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"end":"2025-03-20"`, "defaults end to today")

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/dashboard?start=March", nil).Code)

	w = env.do(http.MethodGet, "/api/export?start=2025-03-01&end=2025-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="AFC_Reports_2025-03-01_to_2025-03-31.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.NotZero(t, w.Body.Len())

	w = env.do(http.MethodGet, "/api/export?start=2024-01-01&end=2024-01-31", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No data to export!"}`, w.Body.String())
}

func TestSubscriptions(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(http.MethodPut, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())

	sub := map[string]string{"endpoint": "https://push.example/abc", "p256dh": "key", "auth": "secret"}
	assert.Equal(t, http.StatusCreated, env.do(http.MethodPut, "/api/subscriptions", sub).Code)
	sub["auth"] = "rotated"
	assert.Equal(t, http.StatusCreated, env.do(http.MethodPut, "/api/subscriptions", sub).Code)

	w = env.do(http.MethodGet, "/api/subscriptions?endpoint=https://push.example/abc", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"endpoint":"https://push.example/abc"`)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/subscriptions", map[string]string{"endpoint": "https://push.example/abc"}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/subscriptions?endpoint=https://push.example/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/subscriptions", nil).Code)
}

func TestVAPIDAndHealth(t *testing.T) {
	env := newTestEnv(t, true)

	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/api/vapid_public_key", nil).Code)

	w := env.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","pending":0,"online":false,"remote":true}`, w.Body.String())
}

func TestVAPIDConfigured(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, &webpush.Options{VAPIDPublicKey: "BPub"})
	r := gin.New()
	r.GET("/key", h.GetVAPIDPublicKey)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/key", nil))
	assert.JSONEq(t, `{"public_key":"BPub"}`, w.Body.String())
}
