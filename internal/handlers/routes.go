package handlers

import (
	"net/http"

	"github.com/videoportal/backend/internal/auth"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts    AccountService
	Catalog     Catalog
	Uploader    VideoUploader
	Identities  IdentityResolver
	AuthLimiter RateLimiter
	Health      HealthChecker
}

// Route binds a method and path pattern to a handler and the policy that
// guards it.
type Route struct {
	Method  string
	Pattern string
	Policy  auth.Policy
	Handler http.HandlerFunc
}

// Routes returns the full route table. Every endpoint appears exactly once
// with its policy.
func Routes(deps Dependencies) []Route {
	health := HealthHandler{Checker: deps.Health}
	authH := AuthHandler{Accounts: deps.Accounts, Limiter: deps.AuthLimiter}
	admin := AdminHandler{Accounts: deps.Accounts}
	catalog := VideoHandler{Catalog: deps.Catalog, Uploader: deps.Uploader}

	return []Route{
		{http.MethodGet, "/healthz", auth.PolicyNone, health.Handle},

		{http.MethodPost, "/api/auth/register", auth.PolicyNone, authH.Register},
		{http.MethodPost, "/api/auth/login", auth.PolicyNone, authH.Login},
		{http.MethodGet, "/api/users/me", auth.PolicyAuthenticated, authH.Me},
		{http.MethodPut, "/api/users/profile", auth.PolicyAuthenticated, authH.UpdateProfile},

		{http.MethodGet, "/api/admin/users/pending", auth.PolicyAdmin, admin.ListPending},
		{http.MethodGet, "/api/admin/users/approved", auth.PolicyAdmin, admin.ListApproved},
		{http.MethodGet, "/api/admin/users/admins", auth.PolicyAdmin, admin.ListAdmins},
		{http.MethodPost, "/api/admin/users/{id}/approve", auth.PolicyAdmin, admin.Approve},
		{http.MethodPost, "/api/admin/users/{id}/toggle-admin", auth.PolicyAdmin, admin.ToggleAdmin},

		{http.MethodPost, "/api/videos/albums", auth.PolicyAdmin, catalog.CreateAlbum},
		{http.MethodGet, "/api/videos/albums", auth.PolicyApprovedOrAdmin, catalog.ListAlbums},
		{http.MethodGet, "/api/videos/albums/{id}/videos", auth.PolicyApprovedOrAdmin, catalog.ListAlbumVideos},
		{http.MethodPost, "/api/videos/videos", auth.PolicyAdmin, catalog.CreateVideo},
		{http.MethodGet, "/api/videos/videos/{id}", auth.PolicyApprovedOrAdmin, catalog.GetVideo},
		{http.MethodPost, "/api/videos/videos/{id}/share", auth.PolicyApprovedOrAdmin, catalog.RotateShareToken},
		{http.MethodGet, "/api/videos/share/{token}", auth.PolicyApprovedOrAdmin, catalog.ResolveShareToken},
		{http.MethodPost, "/api/videos/upload", auth.PolicyAdmin, catalog.Upload},
	}
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux, wrapping each
// one with its policy check.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	for _, route := range Routes(deps) {
		mux.HandleFunc(route.Method+" "+route.Pattern, requirePolicy(deps.Identities, route.Policy, route.Handler))
	}
}
