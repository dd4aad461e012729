package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
)

const (
	DefaultMaxBodyBytes = 1 << 20
	DefaultRetryAfter   = 5 * time.Second
)

// Predictor is the inference use case served over HTTP
type Predictor interface {
	Predict(ctx context.Context, record *model.AttributeRecord) (*model.PredictionResult, error)
	PredictBatch(ctx context.Context, records []model.AttributeRecord) ([]*model.PredictionResult, error)
	Info() (*model.ModelInfo, error)
}

type Server struct {
	router       *chi.Mux
	predictor    Predictor
	metrics      *Metrics
	maxBodyBytes int64
	retryAfter   time.Duration
}

type Options func(*Server)

func WithMetrics(m *Metrics) Options {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMaxBodyBytes limits the size of request bodies
func WithMaxBodyBytes(n int64) Options {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// WithRetryAfter sets the Retry-After hint sent while no model is loaded
func WithRetryAfter(d time.Duration) Options {
	return func(s *Server) {
		s.retryAfter = d
	}
}

func New(predictor Predictor, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		predictor:    predictor,
		maxBodyBytes: DefaultMaxBodyBytes,
		retryAfter:   DefaultRetryAfter,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	if s.metrics != nil {
		r.Use(s.metrics.middleware)
	}
	r.Use(middleware.Recoverer)

	r.Post("/predict", s.handlePredict)
	r.Post("/predict/batch", s.handlePredictBatch)
	r.Get("/model", s.handleModel)
	r.Get("/health", s.handleHealth)

	if s.metrics != nil {
		s.metrics.registerModel(predictor)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) retryAfterSeconds() string {
	return strconv.Itoa(int(s.retryAfter.Round(time.Second) / time.Second))
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}
