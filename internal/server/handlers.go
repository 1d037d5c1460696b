package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
	"github.com/bookwhisperer/bookwhisperer/internal/recommend"
	"github.com/bookwhisperer/bookwhisperer/internal/storage"
)

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("recommend request",
		zap.String("strategy", req.Strategy),
		zap.String("query", req.Query),
		zap.Int("count", req.Count))

	start := time.Now()
	ctx := r.Context()

	sync, err := s.syncer.Sync(ctx)
	if err != nil {
		s.logger.Error("catalog sync failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	past, err := s.storage.PastRecommendationIDs(ctx)
	if err != nil {
		s.logger.Error("load history failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.engine.Recommend(sync.Books, past, &req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRequest) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("recommendation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if len(result.IDs) > 0 {
		today := time.Now().Format("2006-01-02")
		if err := s.storage.RecordRecommendations(ctx, today, result.IDs); err != nil {
			s.logger.Error("record history failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.respondJSON(w, http.StatusOK, buildResponse(sync.Books, result, &req, time.Since(start)))
}

// buildResponse resolves ranked IDs back to catalog entries.
func buildResponse(books []*models.Book, result *recommend.Result, req *models.RecommendRequest, elapsed time.Duration) *models.RecommendResponse {
	byID := make(map[string]*models.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}
	resolved := make([]*models.RecommendedBook, 0, len(result.IDs))
	for i, id := range result.IDs {
		if book, ok := byID[id]; ok {
			resolved = append(resolved, &models.RecommendedBook{Book: book, Rank: i + 1})
		}
	}
	return &models.RecommendResponse{
		Strategy:  result.Strategy,
		Query:     req.Query,
		Count:     req.Count,
		Books:     resolved,
		FellBack:  result.FellBack,
		QueryTime: elapsed.Milliseconds(),
	}
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	sync, err := s.syncer.Sync(r.Context())
	if err != nil {
		s.logger.Error("catalog sync failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"books":      sync.Books,
		"from_cache": sync.FromCache,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	recs, err := s.storage.ListRecommendations(r.Context(), limit)
	if err != nil {
		s.logger.Error("list history failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookCount, err := s.storage.CountBooks(ctx)
	if err != nil {
		s.logger.Error("status: count books failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recCount, err := s.storage.CountRecommendations(ctx)
	if err != nil {
		s.logger.Error("status: count recommendations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"books":           bookCount,
		"recommendations": recCount,
	}
	if s.databasePath != "" {
		if diskBytes, err := storage.DiskUsageBytes(s.databasePath); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
