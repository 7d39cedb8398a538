package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/engine"
	"github.com/Veraticus/subscout/internal/metrics"
	"github.com/Veraticus/subscout/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	scanErr      error
	scanResult   *model.ScanResult
	commitErr    error
	lastScan     engine.ScanRequest
	lastUser     string
	lastCommit   []model.ResolutionDecision
	records      []model.Subscription
	importedFrom []model.ClassifiedCandidate
}

func (f *fakePipeline) Scan(_ context.Context, req engine.ScanRequest) (*model.ScanResult, error) {
	f.lastScan = req
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.scanResult, nil
}

func (f *fakePipeline) ImportAllNew(_ context.Context, userID string, candidates []model.ClassifiedCandidate) (*engine.ImportResult, error) {
	f.lastUser = userID
	f.importedFrom = candidates
	return &engine.ImportResult{Applied: len(candidates)}, nil
}

func (f *fakePipeline) Commit(_ context.Context, userID string, _ []model.ClassifiedCandidate, decisions []model.ResolutionDecision) (*engine.CommitResult, error) {
	f.lastUser = userID
	f.lastCommit = decisions
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	return &engine.CommitResult{Applied: len(decisions), Failures: []model.CommitOutcome{}}, nil
}

func (f *fakePipeline) ListSubscriptions(_ context.Context, userID string) ([]model.Subscription, error) {
	f.lastUser = userID
	return f.records, nil
}

func do(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, NewHandler(&fakePipeline{}, "local"), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestScanSuccess(t *testing.T) {
	p := &fakePipeline{scanResult: &model.ScanResult{
		Success:    true,
		Message:    engine.NoBillsMessage,
		Candidates: []model.ClassifiedCandidate{},
	}}
	h := NewHandler(p, "local")

	rec := do(t, h, http.MethodPost, "/v1/scan", `{"access_token":"tok","days":14}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"found":0,"scanned":0,"candidates":[],"message":"no bills found"}`, rec.Body.String())
	assert.Equal(t, engine.ScanRequest{UserID: "local", AccessToken: "tok", Days: 14}, p.lastScan)
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		wantMsg    string
		wantStatus int
	}{
		{
			name:       "mailbox unavailable",
			err:        common.NewUserError("Reconnect your mailbox.", common.ErrMailboxUnavailable),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Reconnect your mailbox.",
		},
		{
			name:       "not entitled",
			err:        common.NewUserError("Upgrade your plan.", common.ErrNotEntitled),
			wantStatus: http.StatusForbidden,
			wantMsg:    "Upgrade your plan.",
		},
		{
			name:       "invalid request",
			err:        fmt.Errorf("%w: missing user id", common.ErrInvalidRequest),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid request: missing user id",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakePipeline{scanErr: tt.err}, "local")
			rec := do(t, h, http.MethodPost, "/v1/scan", `{"user_id":"u1","access_token":"tok"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body scanError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

func TestScanInvalidJSON(t *testing.T) {
	rec := do(t, NewHandler(&fakePipeline{}, "local"), http.MethodPost, "/v1/scan", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportNew(t *testing.T) {
	p := &fakePipeline{}
	h := NewHandler(p, "local")

	body := `{"user_id":"u9","candidates":[{"classification":"NEW","candidate":{"merchant_name":"Netflix","amount":15.49}}]}`
	rec := do(t, h, http.MethodPost, "/v1/import-new", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"applied":1}`, rec.Body.String())
	assert.Equal(t, "u9", p.lastUser)
	require.Len(t, p.importedFrom, 1)
	assert.Equal(t, "Netflix", p.importedFrom[0].Candidate.MerchantName)
}

func TestCommit(t *testing.T) {
	p := &fakePipeline{}
	h := NewHandler(p, "local")

	body := `{"candidates":[{"classification":"NEW"}],"decisions":[{"selected":true,"action":"ADD_SEPARATE"}]}`
	rec := do(t, h, http.MethodPost, "/v1/commit", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"applied":1,"failures":[]}`, rec.Body.String())
	require.Len(t, p.lastCommit, 1)
	assert.Equal(t, model.ActionAddSeparate, p.lastCommit[0].Action)

	p.commitErr = fmt.Errorf("%w: 1 candidates but 0 decisions", common.ErrInvalidRequest)
	rec = do(t, h, http.MethodPost, "/v1/commit", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSubscriptions(t *testing.T) {
	p := &fakePipeline{}
	h := NewHandler(p, "local")

	rec := do(t, h, http.MethodGet, "/v1/subscriptions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subscriptions":[]}`, rec.Body.String())
	assert.Equal(t, "local", p.lastUser)

	p.records = []model.Subscription{{ID: "s1", UserID: "u2", Name: "Spotify", Cost: 9.99}}
	rec = do(t, h, http.MethodGet, "/v1/subscriptions?user_id=u2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Spotify"`)
	assert.Equal(t, "u2", p.lastUser)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, NewHandler(&fakePipeline{}, "local"), http.MethodGet, "/v1/scan", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestsAreCounted(t *testing.T) {
	h := NewHandler(&fakePipeline{}, "local")
	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/healthz", "200")
	before := testutil.ToFloat64(counter)

	do(t, h, http.MethodGet, "/healthz", "")

	assert.InDelta(t, before+1, testutil.ToFloat64(counter), 1e-9)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, NewHandler(&fakePipeline{}, "local"), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "subscout_")
}
