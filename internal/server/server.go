// Package server exposes the dashboard pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/postings-dashboard/internal/dashboard"
	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/model"
)

const (
	archiveField    = "archive"
	occupationField = "occupation"
	multipartMemory = 32 << 20
)

var errNoArchive = eris.New("no archive uploaded and no fallback source configured")

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	RateLimit      rate.Limit
	RateBurst      int
	CORSOrigins    []string
	Fallback       fetcher.Source // used when a request carries no archive; may be nil
	Metrics        http.Handler   // served at /metrics when set
}

// Server handles upload and view requests. Every request builds its own
// dataset; nothing is cached between requests.
type Server struct {
	builder *dashboard.Builder
	opts    Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Server around builder.
func New(builder *dashboard.Builder, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Inf
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}
	return &Server{
		builder:  builder,
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/occupations", s.handleOccupations)
		r.Post("/occupations", s.handleOccupations)
		r.Get("/view", s.handleView)
		r.Post("/view", s.handleView)
	})

	return r
}

// maxLimiters bounds the per-client limiter table; it is reset when full.
const maxLimiters = 10000

// limiter returns the token bucket for one client address.
func (s *Server) limiter(r *http.Request) *rate.Limiter {
	client, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		client = r.RemoteAddr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[client]
	if !ok {
		if len(s.limiters) >= maxLimiters {
			s.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(s.opts.RateLimit, s.opts.RateBurst)
		s.limiters[client] = l
	}
	return l
}

// rateLimit throttles each client address separately.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter(r).Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type occupationsResponse struct {
	Occupations []string       `json:"occupations"`
	Empty       bool           `json:"empty"`
	Notices     []model.Notice `json:"notices,omitempty"`
}

func (s *Server) handleOccupations(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.load(w, r)
	if !ok {
		return
	}

	resp := occupationsResponse{
		Occupations: ds.Occupations(),
		Empty:       ds.Entries == 0,
		Notices:     ds.Notices,
	}
	if resp.Empty {
		resp.Notices = append(resp.Notices, model.Notice{Kind: model.NoticeNoData, Message: dashboard.NoCSVsMessage})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.load(w, r)
	if !ok {
		return
	}

	selected := r.FormValue(occupationField)
	vm := ds.View(selected)
	zap.L().Info("server: view built",
		zap.String("request_id", vm.RequestID),
		zap.String("occupation", vm.Selected),
		zap.Int("companies", len(vm.Companies)),
		zap.Int("industries", len(vm.Industries)),
		zap.Int("notices", len(vm.Notices)),
	)
	writeJSON(w, http.StatusOK, vm)
}

// load reads the request's archive and builds its dataset, writing the error
// response itself when that fails.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*dashboard.Dataset, bool) {
	archive, err := s.readArchive(w, r)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeError(w, http.StatusRequestEntityTooLarge, "archive exceeds the upload limit")
		case eris.Is(err, errNoArchive):
			writeError(w, http.StatusBadRequest, errNoArchive.Error())
		default:
			zap.L().Error("server: read archive", zap.Error(err))
			writeError(w, http.StatusBadRequest, "could not read the uploaded archive")
		}
		return nil, false
	}

	ds, err := s.builder.Load(r.Context(), archive)
	if err != nil {
		if model.IsArchiveFormat(err) {
			writeError(w, http.StatusUnprocessableEntity, "the upload is not a readable .tar.gz or .zip archive")
			return nil, false
		}
		zap.L().Error("server: load archive", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not process the archive")
		return nil, false
	}
	return ds, true
}

func (s *Server) readArchive(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
		// Unwrapped so callers can detect *http.MaxBytesError.
		if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}

		file, _, err := r.FormFile(archiveField)
		switch {
		case err == nil:
			defer file.Close() //nolint:errcheck
			return io.ReadAll(file)
		case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
			return nil, eris.Wrap(err, "server: open upload")
		}
	}

	if s.opts.Fallback == nil {
		return nil, errNoArchive
	}
	data, err := s.opts.Fallback.Archive(r.Context())
	if err != nil {
		return nil, eris.Wrapf(err, "server: read fallback %s", s.opts.Fallback.Describe())
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
