package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
	"github.com/secmon-lab/jobrisk/pkg/utils/errutil"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
)

// ModelVersionHeader carries the artifact version that produced a prediction
const ModelVersionHeader = "X-Model-Version"

type batchRequest struct {
	Records []model.PredictionRequest `json:"records"`
}

type batchResponse struct {
	Results []*model.PredictionResult `json:"results"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.PredictionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	record, err := req.Record()
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	result, err := s.predictor.Predict(ctx, record)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.predictions.WithLabelValues(result.ClassLabel).Inc()
	}
	w.Header().Set(ModelVersionHeader, result.Version.String())
	writeJSON(ctx, w, http.StatusOK, result)
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	records := make([]model.AttributeRecord, len(req.Records))
	for i := range req.Records {
		record, err := req.Records[i].Record()
		if err != nil {
			s.writeError(ctx, w, &model.RecordError{Index: i, Err: err})
			return
		}
		records[i] = *record
	}

	results, err := s.predictor.PredictBatch(ctx, records)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	if len(results) > 0 {
		w.Header().Set(ModelVersionHeader, results[0].Version.String())
	}
	if s.metrics != nil {
		for _, result := range results {
			s.metrics.predictions.WithLabelValues(result.ClassLabel).Inc()
		}
	}
	writeJSON(ctx, w, http.StatusOK, batchResponse{Results: results})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	info, err := s.predictor.Info()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info, err := s.predictor.Info()
	if err != nil {
		w.Header().Set("Retry-After", s.retryAfterSeconds())
		writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ready", Version: info.Version.String()})
}

// errMalformedBody is returned for bodies that are not a single JSON object
var errMalformedBody = errors.New("request body must be a JSON object")

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	// exactly one JSON value per body
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return goerr.Wrap(errMalformedBody, "trailing data after request body")
		}
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return goerr.Wrap(usecase.ErrBatchTooLarge, "request body too large", goerr.V("limit", tooLarge.Limit))
	}
	return goerr.Wrap(errMalformedBody, "failed to decode request", goerr.V("cause", err.Error()))
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	reason := "internal"
	defer func() {
		if s.metrics != nil {
			s.metrics.errors.WithLabelValues(reason).Inc()
		}
	}()

	switch {
	case errors.Is(err, model.ErrInvalidInput):
		reason = "invalid_input"
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)

	case errors.Is(err, errMalformedBody):
		reason = "malformed_body"
		logging.From(ctx).Warn("HTTP client error", "status", http.StatusBadRequest, "error", err.Error())
		errutil.WriteJSONError(w, http.StatusBadRequest, errMalformedBody.Error())

	case errors.Is(err, usecase.ErrBatchTooLarge):
		reason = "too_large"
		logging.From(ctx).Warn("HTTP client error", "status", http.StatusRequestEntityTooLarge, "error", err.Error())
		errutil.WriteJSONError(w, http.StatusRequestEntityTooLarge, usecase.ErrBatchTooLarge.Error())

	case errors.Is(err, usecase.ErrServiceUnavailable):
		reason = "unavailable"
		logging.From(ctx).Warn("prediction requested before a model was loaded")
		w.Header().Set("Retry-After", s.retryAfterSeconds())
		errutil.WriteJSONError(w, http.StatusServiceUnavailable, usecase.ErrServiceUnavailable.Error())

	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck
}
