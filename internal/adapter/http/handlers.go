package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/store"
)

var validate = validator.New()

type createTankRequest struct {
	Name           string  `json:"name" validate:"required"`
	CapacityLiters float64 `json:"capacity_liters" validate:"gt=0"`
	Location       string  `json:"location"`
	Type           string  `json:"type" validate:"omitempty,oneof=Rainwater Groundwater Reservoir Other"`
	Status         string  `json:"status" validate:"omitempty,oneof=Active Inactive"`
	CurrentLevel   float64 `json:"current_level" validate:"gte=0"`
}

type createTankLogRequest struct {
	TankID      string     `json:"tank_id" validate:"required"`
	Timestamp   *time.Time `json:"timestamp"`
	Level       float64    `json:"level" validate:"gte=0"`
	RainfallMm  float64    `json:"rainfall_mm" validate:"gte=0"`
	UsageLiters float64    `json:"usage_liters" validate:"gte=0"`
	Notes       string     `json:"notes"`
	LogType     string     `json:"log_type" validate:"omitempty,oneof=manual automated"`
}

type predictionRequest struct {
	TankID string `json:"tank_id" validate:"required"`
}

// decodeAndValidate parses the JSON body into dst and runs struct validation.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		s.writeBadRequest(w, "validation failed: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleCreateTank(w http.ResponseWriter, r *http.Request) {
	var req createTankRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = domain.TankTypeOther
	}
	if req.Status == "" {
		req.Status = domain.TankStatusActive
	}

	tank, err := s.store.CreateTank(r.Context(), domain.Tank{
		Name:           req.Name,
		CapacityLiters: req.CapacityLiters,
		Location:       req.Location,
		Type:           req.Type,
		Status:         req.Status,
		CurrentLevel:   req.CurrentLevel,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("tank created", "tank_id", tank.ID, "name", tank.Name)
	writeJSON(w, http.StatusCreated, tank)
}

func (s *Server) handleListTanks(w http.ResponseWriter, r *http.Request) {
	tanks, err := s.store.ListTanks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if tanks == nil {
		tanks = []domain.Tank{}
	}
	writeJSON(w, http.StatusOK, tanks)
}

func (s *Server) handleGetTank(w http.ResponseWriter, r *http.Request) {
	tank, err := s.store.GetTank(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tank)
}

func (s *Server) handleDeleteTank(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTank(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("tank deleted", "tank_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTankLog(w http.ResponseWriter, r *http.Request) {
	var req createTankLogRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	log := domain.TankLog{
		TankID:      req.TankID,
		Level:       req.Level,
		RainfallMm:  req.RainfallMm,
		UsageLiters: req.UsageLiters,
		Notes:       req.Notes,
		LogType:     req.LogType,
	}
	if req.Timestamp != nil {
		log.Timestamp = *req.Timestamp
	}

	created, err := s.store.CreateTankLog(r.Context(), log)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTankLogs(w http.ResponseWriter, r *http.Request) {
	q, ok := parseLogQuery(r)
	if !ok {
		s.writeBadRequest(w, "invalid limit/start/end query parameter")
		return
	}

	logs, err := s.store.ListTankLogs(r.Context(), r.PathValue("tankID"), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []domain.TankLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// parseLogQuery reads limit (int), start, and end (RFC 3339) query params.
func parseLogQuery(r *http.Request) (store.LogQuery, bool) {
	var q store.LogQuery
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, false
		}
		q.Limit = n
	}
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, false
		}
		q.Start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, false
		}
		q.End = t
	}
	return q, true
}

func (s *Server) handlePredictionPost(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	s.servePrediction(w, r, req.TankID)
}

func (s *Server) handlePredictionGet(w http.ResponseWriter, r *http.Request) {
	s.servePrediction(w, r, r.PathValue("tankID"))
}

func (s *Server) servePrediction(w http.ResponseWriter, r *http.Request, tankID string) {
	pred, err := s.predictor.Predict(r.Context(), tankID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Publishing is fire-and-forget: a broker outage must not fail the request.
	if s.publisher != nil {
		if err := s.publisher.Publish(r.Context(), pred); err != nil {
			s.logger.Error("prediction event publish failed", "tank_id", tankID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, pred)
}
