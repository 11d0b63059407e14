package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"refsync/internal/config"
	apierrors "refsync/internal/http-server/handlers/errors"
	"refsync/internal/http-server/handlers/referrals"
	"refsync/internal/http-server/handlers/settings"
	"refsync/internal/http-server/handlers/users"
	"refsync/internal/http-server/middleware/cors"
	"refsync/internal/http-server/middleware/requestlog"
	"refsync/internal/http-server/middleware/timeout"
	"refsync/internal/http-server/middleware/userctx"
	"refsync/lib/sl"
)

const requestTimeout = 5 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	userctx.Users
	users.Core
	referrals.Core
	settings.Core
}

// NewRouter builds the routing tree without binding a listener
func NewRouter(log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(requestTimeout))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestlog.New(log))
	router.Use(cors.Allow())
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(apierrors.NotFound(log))
	router.MethodNotAllowed(apierrors.NotAllowed(log))

	router.Get("/health", settings.Health(log))
	router.Get("/config/abuse", settings.Abuse(log, handler))

	router.Route("/users", func(r chi.Router) {
		r.Get("/", users.List(log, handler))
		r.Route("/{id}", func(u chi.Router) {
			u.Use(userctx.New(log, handler))
			u.Get("/referrals", users.Referrals(log, handler))
			u.Get("/referral-stats", users.Stats(log, handler))
		})
	})
	router.Route("/referrals", func(r chi.Router) {
		r.Post("/", referrals.Create(log, handler))
		r.Get("/{code}", referrals.Validate(log, handler))
		r.Post("/{id}/complete", referrals.Complete(log, handler))
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) *Server {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// Start blocks serving requests until Shutdown is called
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
