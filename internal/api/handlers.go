package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"feedScope/internal/chain"
	"feedScope/internal/feed"
	"feedScope/internal/model"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// feedItems interprets a page of messages and names the response field holding them.
type feedItems func(msgs []model.Message) (field string, items any, count int)

type statsResponse struct {
	Registry     feed.TopicCount `json:"registry"`
	Evidence     feed.TopicCount `json:"evidence"`
	Applications feed.TopicCount `json:"applications"`
	LastUpdated  string          `json:"lastUpdated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        serviceName,
		"version":     s.cfg.Version,
		"description": "Read BAI data from Net Protocol on Base",
		"endpoints": map[string]string{
			"/registry":     "Verified agents (limit param optional)",
			"/evidence":     "Evidence submissions (limit param optional)",
			"/applications": "Registry applications (limit param optional)",
			"/stats":        "Feed statistics",
			"/health":       "Health check",
			"/metrics":      "Prometheus metrics",
		},
		"contract": s.reader.Contract().Hex(),
		"network":  network,
	})
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	s.serveFeed(w, r, s.cfg.Topics.Registry, func(msgs []model.Message) (string, any, int) {
		agents := feed.InterpretAgents(msgs)
		return "agents", agents, len(agents)
	})
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	s.serveFeed(w, r, s.cfg.Topics.Evidence, func(msgs []model.Message) (string, any, int) {
		evidence := feed.InterpretEvidenceList(msgs)
		return "evidence", evidence, len(evidence)
	})
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	s.serveFeed(w, r, s.cfg.Topics.Applications, func(msgs []model.Message) (string, any, int) {
		applications := feed.InterpretAgents(msgs)
		return "applications", applications, len(applications)
	})
}

func (s *Server) serveFeed(w http.ResponseWriter, r *http.Request, topic string, interpret feedItems) {
	limit, err := s.parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%s?limit=%d", r.URL.Path, limit)
	if s.serveCached(w, r, key) {
		return
	}

	page, err := s.reader.Latest(r.Context(), topic, limit)
	if err != nil {
		s.writeReadError(w, topic, err)
		return
	}

	field, items, count := interpret(page.Messages)
	resp := map[string]any{
		"feed":        topic,
		"count":       count,
		field:         items,
		"total":       page.Total,
		"lastUpdated": s.now().UTC().Format(timeLayout),
	}
	if page.DecodeErr != nil {
		// not cached: the next request retries the read
		resp["decodeError"] = page.DecodeErr.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	s.writeCached(w, r, key, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.serveCached(w, r, r.URL.Path) {
		return
	}

	topics := s.cfg.Topics
	counts, err := s.reader.Stats(r.Context(), topics.Registry, topics.Evidence, topics.Applications)
	if err != nil {
		s.writeReadError(w, "stats", err)
		return
	}

	s.writeCached(w, r, r.URL.Path, statsResponse{
		Registry:     counts[0],
		Evidence:     counts[1],
		Applications: counts[2],
		LastUpdated:  s.now().UTC().Format(timeLayout),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	topics := s.cfg.Topics
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"contract": s.reader.Contract().Hex(),
		"feeds":    []string{topics.Registry, topics.Evidence, topics.Applications},
	})
}

// parseLimit reads ?limit=, defaulting when absent and clamping to the configured maximum.
func (s *Server) parseLimit(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.cfg.DefaultLimit, nil
	}
	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return min(limit, s.cfg.MaxLimit), nil
}

func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	body, ok, err := s.cache.Get(r.Context(), key)
	if err != nil {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	w.Header().Set("X-Cache", "HIT")
	writeBody(w, http.StatusOK, body)
	return true
}

func (s *Server) writeCached(w http.ResponseWriter, r *http.Request, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode response")
		return
	}
	if err := s.cache.Set(r.Context(), key, body); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	w.Header().Set("X-Cache", "MISS")
	writeBody(w, http.StatusOK, body)
}

func (s *Server) writeReadError(w http.ResponseWriter, topic string, err error) {
	if errors.Is(err, chain.ErrTransport) {
		s.logger.Warn("feed read failed", zap.String("topic", topic), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.logger.Error("feed read failed", zap.String("topic", topic), zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	writeBody(w, status, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
