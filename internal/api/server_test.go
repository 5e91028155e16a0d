package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedScope/internal/cache"
	"feedScope/internal/chain"
	"feedScope/internal/feed"
	"feedScope/internal/model"
	"feedScope/internal/netproto"
)

var (
	testContract = common.HexToAddress("0x00000000B24D62781dB359b07880a105cD0b64e6")
	testTopics   = Topics{Registry: "BAI-registry", Evidence: "BAI-Official", Applications: "bai-registry-applications"}
)

type stubReader struct {
	mu        sync.Mutex
	pages     map[string]feed.Page
	err       error
	limits    []uint64
	latestHit int
}

func (s *stubReader) Latest(_ context.Context, topic string, limit uint64) (feed.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestHit++
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return feed.Page{}, s.err
	}
	page, ok := s.pages[topic]
	if !ok {
		return feed.Page{Topic: topic, Messages: []model.Message{}}, nil
	}
	return page, nil
}

func (s *stubReader) Stats(_ context.Context, topics ...string) ([]feed.TopicCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]feed.TopicCount, 0, len(topics))
	for _, topic := range topics {
		out = append(out, feed.TopicCount{Topic: topic, Count: s.pages[topic].Total})
	}
	return out, nil
}

func (s *stubReader) Contract() common.Address { return testContract }

func newTestServer(t *testing.T, reader FeedReader, responses cache.Cache) http.Handler {
	t.Helper()
	srv := NewServer(reader, responses, Config{
		Topics:       testTopics,
		DefaultLimit: 50,
		MaxLimit:     100,
		CacheTTL:     time.Minute,
		Version:      "test",
	}, nil)
	srv.now = func() time.Time { return time.Date(2025, 2, 6, 12, 0, 0, 0, time.UTC) }
	return srv.Routes()
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func registryPage() feed.Page {
	return feed.Page{
		Topic: "BAI-registry",
		Total: 2,
		End:   2,
		Messages: []model.Message{
			{Sender: common.HexToAddress("0x02"), Timestamp: 1738800060, Text: `{"name":"Sentinel"}`, Topic: "BAI-registry"},
			{Sender: common.HexToAddress("0x01"), Timestamp: 1738800000, Text: "plain", Topic: "BAI-registry"},
		},
	}
}

func TestRegistryEndpoint(t *testing.T) {
	reader := &stubReader{pages: map[string]feed.Page{"BAI-registry": registryPage()}}
	h := newTestServer(t, reader, nil)

	rec, body := get(t, h, "/registry")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	assert.Equal(t, "BAI-registry", body["feed"])
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, "2025-02-06T12:00:00.000Z", body["lastUpdated"])
	assert.NotContains(t, body, "decodeError")

	agents := body["agents"].([]any)
	require.Len(t, agents, 2)
	first := agents[0].(map[string]any)
	assert.Equal(t, "Sentinel", first["name"])
	second := agents[1].(map[string]any)
	assert.Equal(t, "Agent", second["name"])
	assert.Equal(t, "plain", second["description"])

	assert.Equal(t, []uint64{50}, reader.limits)
}

func TestEvidenceEndpoint(t *testing.T) {
	reader := &stubReader{pages: map[string]feed.Page{"BAI-Official": {
		Topic: "BAI-Official",
		Total: 1,
		Messages: []model.Message{
			{Sender: common.HexToAddress("0x03"), Timestamp: 1738800000, Text: `{"caseId":"CASE-004","type":"evidence","title":"x"}`},
		},
	}}}
	rec, body := get(t, newTestServer(t, reader, nil), "/evidence?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	evidence := body["evidence"].([]any)
	require.Len(t, evidence, 1)
	item := evidence[0].(map[string]any)
	assert.Equal(t, "CASE-004", item["caseId"])
	assert.Equal(t, "x", item["title"])
	assert.Equal(t, []uint64{5}, reader.limits)
}

func TestApplicationsEndpointEmptyFeed(t *testing.T) {
	rec, body := get(t, newTestServer(t, &stubReader{}, nil), "/applications")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bai-registry-applications", body["feed"])
	assert.Equal(t, []any{}, body["applications"])
	assert.Equal(t, float64(0), body["count"])
}

func TestLimitHandling(t *testing.T) {
	reader := &stubReader{}
	h := newTestServer(t, reader, nil)

	rec, _ := get(t, h, "/registry?limit=1000")
	require.Equal(t, http.StatusOK, rec.Code)

	for _, bad := range []string{"abc", "-1", "1.5"} {
		rec, body := get(t, h, "/registry?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		assert.Contains(t, body["error"], "invalid limit")
	}

	assert.Equal(t, []uint64{100}, reader.limits, "limit clamps to the maximum and bad limits never reach the reader")
}

func TestDecodeErrorDegrades(t *testing.T) {
	reader := &stubReader{pages: map[string]feed.Page{"BAI-Official": {
		Topic:     "BAI-Official",
		Total:     3,
		Messages:  []model.Message{},
		DecodeErr: &netproto.DecodeError{Kind: netproto.OutOfBounds, Field: "array offset", Need: 32},
	}}}
	responses, err := cache.NewMemory(context.Background(), time.Minute)
	require.NoError(t, err)
	defer responses.Close()
	h := newTestServer(t, reader, responses)

	for i := 0; i < 2; i++ {
		rec, body := get(t, h, "/evidence")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{}, body["evidence"])
		assert.Contains(t, body["decodeError"], "out of bounds")
	}
	assert.Equal(t, 2, reader.latestHit, "degraded responses are not cached")
}

func TestTransportErrorIsBadGateway(t *testing.T) {
	reader := &stubReader{err: &chain.CallError{Method: "eth_call", To: testContract, Err: errors.New("dial tcp: connection refused")}}
	h := newTestServer(t, reader, nil)

	for _, path := range []string{"/registry", "/stats"} {
		rec, body := get(t, h, path)
		assert.Equal(t, http.StatusBadGateway, rec.Code, path)
		assert.Contains(t, body["error"], "connection refused")
	}
}

func TestOtherErrorIsInternal(t *testing.T) {
	h := newTestServer(t, &stubReader{err: fmt.Errorf("decode count: %w", netproto.ErrMalformed)}, nil)
	rec, _ := get(t, h, "/registry")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestResponsesAreCached(t *testing.T) {
	reader := &stubReader{pages: map[string]feed.Page{"BAI-registry": registryPage()}}
	responses, err := cache.NewMemory(context.Background(), time.Minute)
	require.NoError(t, err)
	defer responses.Close()
	h := newTestServer(t, reader, responses)

	rec, _ := get(t, h, "/registry?limit=10")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec, body := get(t, h, "/registry?limit=10")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, float64(2), body["count"])

	// a different limit is a different key
	rec, _ = get(t, h, "/registry?limit=11")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, reader.latestHit)
}

func TestStatsEndpoint(t *testing.T) {
	reader := &stubReader{pages: map[string]feed.Page{
		"BAI-registry": {Total: 12},
		"BAI-Official": {Total: 4},
	}}
	rec, body := get(t, newTestServer(t, reader, nil), "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	registry := body["registry"].(map[string]any)
	assert.Equal(t, "BAI-registry", registry["topic"])
	assert.Equal(t, float64(12), registry["count"])
	evidence := body["evidence"].(map[string]any)
	assert.Equal(t, float64(4), evidence["count"])
}

func TestHealthAndIndex(t *testing.T) {
	h := newTestServer(t, &stubReader{}, nil)

	rec, body := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, testContract.Hex(), body["contract"])
	assert.Equal(t, []any{"BAI-registry", "BAI-Official", "bai-registry-applications"}, body["feeds"])

	rec, body = get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BAI Feed API", body["name"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "Base (Chain ID: 8453)", body["network"])
}

func TestPreflightAndUnknownRoute(t *testing.T) {
	h := newTestServer(t, &stubReader{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/registry", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec, body := get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, &stubReader{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
