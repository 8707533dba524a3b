package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polytrader/polytrader"
	"github.com/polytrader/polytrader/pkg/adapters/httpapi"
	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/nodes"
	"github.com/polytrader/polytrader/pkg/ports"
)

type fixedMarketClient struct{}

func (fixedMarketClient) FetchMarket(ctx context.Context, marketID string) (*domain.MarketData, []domain.Token, error) {
	return &domain.MarketData{Question: "Will it happen?", Active: true},
		[]domain.Token{{TokenID: "tok-yes", Outcome: "Yes", Price: 0.6}}, nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	pipeline := nodes.DefaultPipeline(
		fixedMarketClient{},
		ports.ResearcherFunc(func(ctx context.Context, state *domain.State) (*domain.ResearchReport, error) {
			return &domain.ResearchReport{Summary: "looks likely"}, nil
		}),
		ports.AnalystFunc(func(ctx context.Context, state *domain.State) (*domain.AnalysisInfo, error) {
			return &domain.AnalysisInfo{Summary: "lean yes", ProbabilityEstimate: 0.7}, nil
		}),
		ports.TraderFunc(func(ctx context.Context, state *domain.State) (*domain.TradeDecision, float64, error) {
			return &domain.TradeDecision{Side: domain.SideBuy, TokenID: "tok-yes", Size: 5}, 0.8, nil
		}),
	)
	engine, err := polytrader.New(pipeline)
	require.NoError(t, err)
	return httpapi.NewHandler(engine)
}

// sseFrame is one parsed Server-Sent Event.
type sseFrame struct {
	Event string
	Data  string
}

func parseSSE(t *testing.T, body string) []sseFrame {
	t.Helper()
	var frames []sseFrame
	for _, block := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		var frame sseFrame
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				frame.Event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				frame.Data = strings.TrimPrefix(line, "data: ")
			}
		}
		frames = append(frames, frame)
	}
	return frames
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createThread(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := do(t, handler, http.MethodPost, "/threads", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["thread_id"])
	return resp["thread_id"]
}

func TestServer_RunUntilInterrupt(t *testing.T) {
	handler := newTestHandler(t)
	threadID := createThread(t, handler)

	rec := do(t, handler, http.MethodPost, "/threads/"+threadID+"/runs", `{"market_id":"516877"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames := parseSSE(t, rec.Body.String())
	require.Len(t, frames, 4)
	assert.Equal(t, "update", frames[0].Event)
	assert.Equal(t, "update", frames[1].Event)
	assert.Equal(t, "interrupt", frames[2].Event)
	assert.Equal(t, "run", frames[3].Event)

	var interrupt domain.Event
	require.NoError(t, json.Unmarshal([]byte(frames[2].Data), &interrupt))
	assert.Equal(t, domain.NodeAnalysis, interrupt.Node)

	var run domain.Run
	require.NoError(t, json.Unmarshal([]byte(frames[3].Data), &run))
	assert.Equal(t, domain.RunInterrupted, run.Status)
	require.NotNil(t, run.PendingInterrupt)
	assert.Equal(t, domain.NodeAnalysis, run.PendingInterrupt.Node)
}

func TestServer_ResolveCompletesRun(t *testing.T) {
	handler := newTestHandler(t)
	threadID := createThread(t, handler)

	rec := do(t, handler, http.MethodPost, "/threads/"+threadID+"/runs", `{"market_id":"516877"}`)
	frames := parseSSE(t, rec.Body.String())
	var run domain.Run
	require.NoError(t, json.Unmarshal([]byte(frames[len(frames)-1].Data), &run))

	resolvePath := fmt.Sprintf("/threads/%s/runs/%s/resolve", threadID, run.ID)
	rec = do(t, handler, http.MethodPost, resolvePath,
		`{"decision":{"analysis_info":{"summary":"confirmed","probability_estimate":0.7}}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	frames = parseSSE(t, rec.Body.String())
	require.Len(t, frames, 2)
	assert.Equal(t, "update", frames[0].Event)
	assert.Equal(t, "run", frames[1].Event)

	var final domain.Run
	require.NoError(t, json.Unmarshal([]byte(frames[1].Data), &final))
	assert.Equal(t, domain.RunCompleted, final.Status)

	// A second resolution of the same run conflicts.
	rec = do(t, handler, http.MethodPost, resolvePath, `{"decision":{}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_RunStatusAndListing(t *testing.T) {
	handler := newTestHandler(t)
	threadID := createThread(t, handler)

	rec := do(t, handler, http.MethodPost, "/threads/"+threadID+"/runs", `{"market_id":"516877"}`)
	frames := parseSSE(t, rec.Body.String())
	var run domain.Run
	require.NoError(t, json.Unmarshal([]byte(frames[len(frames)-1].Data), &run))

	rec = do(t, handler, http.MethodGet, fmt.Sprintf("/threads/%s/runs/%s", threadID, run.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched domain.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, run.ID, fetched.ID)

	// The run is scoped to its thread.
	otherThread := createThread(t, handler)
	rec = do(t, handler, http.MethodGet, fmt.Sprintf("/threads/%s/runs/%s", otherThread, run.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, handler, http.MethodGet, "/threads/"+threadID+"/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []domain.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
}

func TestServer_Checkpoints(t *testing.T) {
	handler := newTestHandler(t)
	threadID := createThread(t, handler)

	rec := do(t, handler, http.MethodGet, "/threads/"+threadID+"/checkpoints", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	do(t, handler, http.MethodPost, "/threads/"+threadID+"/runs", `{"market_id":"516877"}`)

	rec = do(t, handler, http.MethodGet, "/threads/"+threadID+"/checkpoints", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.Checkpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 3)
	assert.Equal(t, domain.NodeTradeDecision, history[len(history)-1].Position)
}

func TestServer_BadRequests(t *testing.T) {
	handler := newTestHandler(t)
	threadID := createThread(t, handler)

	rec := do(t, handler, http.MethodPost, "/threads/"+threadID+"/runs", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, handler, http.MethodPost, "/threads/"+threadID+"/runs", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, handler, http.MethodPost, "/threads/unknown-thread/runs", `{"market_id":"1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resolvePath := fmt.Sprintf("/threads/%s/runs/%s/resolve", threadID, "no-such-run")
	rec = do(t, handler, http.MethodPost, resolvePath, `{"decision":{}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, handler, http.MethodPost, resolvePath, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthAndInfo(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(t, handler, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, handler, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, polytrader.Version, info["version"])
}

func TestServer_Metrics(t *testing.T) {
	handler := newTestHandler(t)
	rec := do(t, handler, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
