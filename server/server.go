package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zcrmhq/auth-gateway/auth"
	"github.com/zcrmhq/auth-gateway/backend"
	"github.com/zcrmhq/auth-gateway/internal/config"
	"github.com/zcrmhq/auth-gateway/refresh"
	"github.com/zcrmhq/auth-gateway/session"
	"github.com/zcrmhq/auth-gateway/token"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config

	store         *session.Store
	backend       *backend.Client
	refresher     *refresh.Coordinator
	authenticator *auth.Authenticator
	idp           IdentityProvider
	limiter       *RateLimiter

	log zerolog.Logger
}

// Option overrides a Server dependency, primarily for testing.
type Option func(*Server)

// WithIdentityProvider replaces the OIDC-backed identity provider.
func WithIdentityProvider(idp IdentityProvider) Option {
	return func(s *Server) { s.idp = idp }
}

// WithRateLimiter replaces the Redis-backed rate limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

func New(cfg config.Config, options ...Option) (*Server, error) {
	secure := cfg.GetEnv() != "DEV"
	store := session.NewStore(cfg, secure)
	backendClient := backend.NewClient(cfg)

	s := &Server{
		env:           cfg.GetEnv(),
		mux:           http.NewServeMux(),
		config:        cfg,
		store:         store,
		backend:       backendClient,
		refresher:     refresh.NewCoordinator(store, backendClient, cfg.GetRefreshBuffer()),
		authenticator: auth.NewAuthenticator(token.NewVerifier(cfg.GetBearerSecret()), store),
		idp:           newOidcProvider(cfg),
		log:           log.With().Str("component", "server").Logger(),
	}

	if cfg.GetEnableRateLimiting() {
		opts, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to parse redis URL: %w", err)
		}
		s.limiter = NewRateLimiter(redis.NewClient(opts), cfg.GetAuthRateLimitPerMin(), time.Minute)
	}

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.log.Debug().Str("route", route).Msg("registered")
	}
}
