package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	v1 "github.com/madhava-poojari/academy-api/internal/api/v1"
	"github.com/madhava-poojari/academy-api/internal/config"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

type Server struct {
	cfg   *config.Config
	db    *store.Store
	files utils.FileStore
	local *utils.FileStorage
}

// NewServer picks R2 for uploads when it is configured, local disk otherwise.
func NewServer(cfg *config.Config, db *store.Store) *Server {
	s := &Server{cfg: cfg, db: db}
	if cfg.R2Enabled() {
		s.files = utils.NewR2Storage(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2Endpoint, cfg.R2BucketName)
	} else {
		s.local = utils.NewFileStorage(cfg.UploadDir, cfg.UploadBaseURL)
		s.files = s.local
	}
	return s
}

// Handler builds the full middleware stack and mounts the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = hlog.FromRequest(r).Error()
		case status >= 400:
			ev = hlog.FromRequest(r).Warn()
		default:
			ev = hlog.FromRequest(r).Info()
		}
		ev.Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api := v1.NewAPI(s.cfg, s.db, s.files)
	r.Mount("/api/v1", api.Routes())

	if s.local != nil {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.local.BaseDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}
	return r
}

func (s *Server) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.BindAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
