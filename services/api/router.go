package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"albumd/pkg/bus"
	"albumd/pkg/cache"
	"albumd/pkg/mediastore"
	"albumd/pkg/render"
)

const (
	defaultInviteTTL = 14 * 24 * time.Hour
	presignURLExpiry = 15 * time.Minute

	requestSubmittedTopic = "album.requests.submitted"
	requestApprovedTopic  = "album.requests.approved"
	requestRejectedTopic  = "album.requests.rejected"
	inviteCreatedTopic    = "album.invites.created"
	capacityExceededTopic = "album.capacity.exceeded"
)

// Config controls runtime behaviour for the API handlers.
type Config struct {
	APIBase        string
	InviteTTL      time.Duration
	MediaBucket    string
	AllowedOrigins []string
}

// API wires the store, event bus, media client, cache, template renderer,
// and configuration for the HTTP handlers.
type API struct {
	store    Store
	bus      *bus.Bus
	media    *mediastore.Client
	cache    *cache.Cache
	renderer *render.Engine
	config   Config
}

// New initialises the API layer with sane defaults applied to the provided
// configuration. The bus, media client, and cache are optional; handlers
// degrade gracefully when they are absent.
func New(store Store, eventBus *bus.Bus, media *mediastore.Client, readCache *cache.Cache, renderer *render.Engine, cfg Config) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}

	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = defaultInviteTTL
	}
	if cfg.MediaBucket == "" {
		cfg.MediaBucket = os.Getenv("MEDIA_S3_BUCKET")
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return &API{
		store:    store,
		bus:      eventBus,
		media:    media,
		cache:    readCache,
		renderer: renderer,
		config:   cfg,
	}, nil
}

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.Limit(100, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Anonymous: invite resolution, join stats, and the showroom funnel
		// work without a session so a recipient can see what they were
		// invited to before signing up.
		r.Get("/invite/{token}", a.handleResolveInvite)
		r.Get("/albums/{albumID}/join-stats", a.handleJoinStats)
		r.Get("/packages", a.handleListPackages)
		r.Post("/leads", a.handleCreateLead)

		r.Group(func(r chi.Router) {
			r.Use(a.requireSession)

			r.Post("/albums", a.handleCreateAlbum)
			r.Get("/albums", a.handleListAlbums)
			r.Get("/albums/{albumID}", a.handleGetAlbum)
			r.Get("/albums/{albumID}/members", a.handleListMembers)
			r.Post("/albums/{albumID}/invites", a.handleCreateInvite)

			r.Post("/albums/{albumID}/classes/{classID}/requests", a.handleSubmitRequest)
			r.Get("/albums/{albumID}/classes/{classID}/my-request", a.handleMyRequest)
			r.Post("/requests/{requestID}/approve", a.handleApproveRequest)
			r.Post("/requests/{requestID}/reject", a.handleRejectRequest)

			r.Post("/albums/{albumID}/media", a.handleRegisterMedia)
			r.Get("/media/{assetID}/download", a.handleMediaDownload)
		})
	})

	return r, nil
}
