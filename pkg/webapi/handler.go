// Package webapi implements the HTTP front door of spec §6: the handful of
// JSON routes that let end users claim devices, push content to them, and
// poll job results. It is a write-once producer into the job and render
// queues, a direct writer of the User document only (sign-in upsert and
// device unregister), and a read-only consumer of everything else (spec §3 "Ownership"),
// built on internal/httpserver the way the teacher's pkg/incident and
// pkg/alert handlers are built on its httpserver package.
package webapi

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/lanternhq/beacon/internal/auth"
	"github.com/lanternhq/beacon/internal/config"
	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/calendar"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/rendering"
)

// Handler serves spec §6's HTTP API. It never mutates the pool, authority
// records, diagnostics, device states, or schedules directly — those are the
// registrar's exclusive domain (spec §3 "Ownership"); it only enqueues jobs
// and renders and reads back what other workers have written.
type Handler struct {
	logger *slog.Logger

	broker *platform.Broker
	signer *envelope.Signer

	users       *platform.Coll[model.User]
	diagnostics *platform.Coll[model.DeviceDiagnostic]
	authorities *platform.Coll[model.DeviceAuthorityRecord]
	histories   *platform.Coll[model.DeviceHistoryRecord]

	identity   *auth.Identity
	sessionMgr *auth.SessionManager
	renders    *rendering.Queue
	calendar   calendar.Client

	uiRedirect    string
	secureCookies bool
}

// Deps bundles the wiring NewHandler needs.
type Deps struct {
	Logger      *slog.Logger
	Broker      *platform.Broker
	Store       *platform.Store
	Collections config.StoreCollections
	Signer      *envelope.Signer
	Identity    *auth.Identity
	SessionMgr  *auth.SessionManager
	Calendar    calendar.Client
	UIRedirect  string
	// SecureCookies sets the Secure flag on the session cookie; false for
	// local development over plain HTTP (spec §6 "...HttpOnly[; Secure]...").
	SecureCookies bool
}

// NewHandler builds a webapi Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		logger:        d.Logger,
		broker:        d.Broker,
		signer:        d.Signer,
		users:         platform.Collection[model.User](d.Store, d.Collections.Users),
		diagnostics:   platform.Collection[model.DeviceDiagnostic](d.Store, d.Collections.DeviceDiagnostics),
		authorities:   platform.Collection[model.DeviceAuthorityRecord](d.Store, d.Collections.DeviceAuthorities),
		histories:     platform.Collection[model.DeviceHistoryRecord](d.Store, d.Collections.DeviceHistories),
		identity:      d.Identity,
		sessionMgr:    d.SessionMgr,
		renders:       rendering.NewQueue(d.Broker, d.Signer),
		calendar:      d.Calendar,
		uiRedirect:    d.UIRedirect,
		secureCookies: d.SecureCookies,
	}
}

// Routes returns a chi.Router with every spec §6 route mounted, matching the
// teacher's per-domain Routes() convention (pkg/incident, pkg/alert, ...).
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/auth/redirect", h.handleAuthRedirect)
	r.Get("/auth/complete", h.handleAuthComplete)
	r.Get("/auth/identify", h.handleAuthIdentify)

	r.Post("/device/register", h.handleDeviceRegister)
	r.Post("/device/unregister", h.handleDeviceUnregister)
	r.Get("/device/info", h.handleDeviceInfo)
	r.Get("/device/authority", h.handleDeviceAuthority)
	r.Post("/device/queue", h.handleDeviceQueue)

	r.Get("/jobs", h.handleJobResult)
	r.Get("/status", h.handleStatus)

	return r
}
