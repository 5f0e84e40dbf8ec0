package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/analysis"
	"github.com/hyperjump/bunrui/internal/dataset"
	"github.com/hyperjump/bunrui/internal/kmeans"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type clusterResponse struct {
	Run    *models.Run `json:"run"`
	Labels []int       `json:"labels"`
	Saved  bool        `json:"saved"`
}

func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	var req models.ClusterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("cluster request", zap.Int("rows", len(req.Rows)), zap.Int("k", req.K))

	policy, err := kmeans.ParseEmptyClusterPolicy(req.EmptyCluster)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := make(dataset.Dataset, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = row
	}
	out, err := s.analyzer.Run(r.Context(), analysis.Request{
		Rows:      rows,
		Name:      req.Source,
		Normalize: req.Normalize,
		Cluster: kmeans.Config{
			K:             req.K,
			MaxIterations: req.MaxIterations,
			Epsilon:       req.Epsilon,
			Seed:          req.Seed,
			Workers:       req.Workers,
			EmptyCluster:  policy,
		},
		Save: req.Save,
	})
	if err != nil {
		var insufficient *kmeans.InsufficientDataError
		if errors.As(err, &insufficient) || errors.Is(err, kmeans.ErrInvalidConfig) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("clustering failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if out.Saved {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, clusterResponse{Run: out.Run, Labels: out.Result.Labels, Saved: out.Saved})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit < 1 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	ctx := r.Context()
	runs, err := s.storage.ListRuns(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountRuns(ctx)
	if err != nil {
		s.logger.Error("count runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.storage.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete run request", zap.String("id", id))
	err := s.storage.DeleteRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type predictResponse struct {
	RunID  string `json:"run_id"`
	Labels []int  `json:"labels"`
}

// handlePredict labels rows with the nearest centroid of a stored run. Rows
// must be in the space the run was clustered in.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.storage.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(run.Centroids) == 0 {
		s.respondError(w, http.StatusConflict, "run has no centroids")
		return
	}
	if run.Normalized {
		s.respondError(w, http.StatusBadRequest, "run was clustered on normalized data; its centroids cannot label raw rows")
		return
	}

	var req models.PredictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(len(run.Centroids[0])); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	centroids := kmeans.Centroids(run.Centroids)
	labels := make([]int, len(req.Rows))
	for i, row := range req.Rows {
		labels[i] = kmeans.Predict(centroids, row)
	}
	s.respondJSON(w, http.StatusOK, predictResponse{RunID: run.ID, Labels: labels})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{}
	if s.storage != nil {
		runCount, err := s.storage.CountRuns(r.Context())
		if err != nil {
			s.logger.Error("status: count runs failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["runs"] = runCount
	}

	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"database_path":  s.config.Storage.DatabasePath,
			"max_iterations": s.config.Cluster.MaxIterations,
			"epsilon":        s.config.Cluster.Epsilon,
			"workers":        s.config.Cluster.Workers,
			"empty_cluster":  s.config.Cluster.EmptyCluster,
		}
		if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(s.config.Storage.DatabasePath)...); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) requireStorage(w http.ResponseWriter) bool {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "run history not enabled")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// respondJSON encodes data before writing the header, so values JSON cannot
// represent (such as an infinite inertia) produce a 500 instead of a
// truncated 200.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
		body = []byte(`{"error":"response cannot be encoded as JSON"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
