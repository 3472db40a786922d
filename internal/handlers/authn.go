package handlers

import (
	"net/http"
	"strings"

	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/logging"
)

// requirePolicy resolves the bearer token into a fresh identity, evaluates the
// policy and only then invokes next. Requests failing either step never reach
// the handler, so no entity lookup happens for them.
func requirePolicy(resolver IdentityResolver, policy auth.Policy, next http.HandlerFunc) http.HandlerFunc {
	if policy == auth.PolicyNone {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if resolver == nil {
			logging.FromContext(ctx).Error("identity resolver unavailable")
			respondMessage(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
			return
		}

		token := bearerToken(r)
		if token == "" {
			respondError(ctx, w, auth.ErrUnauthenticated)
			return
		}

		identity, err := resolver.ResolveIdentity(ctx, token)
		if err != nil {
			respondError(ctx, w, err)
			return
		}

		if err := auth.Authorize(identity, policy); err != nil {
			logging.FromContext(ctx).Warn("request denied", "userId", identity.ID, "policy", policy.String())
			respondError(ctx, w, err)
			return
		}

		ctx = auth.WithIdentity(ctx, identity)
		ctx = logging.WithUser(ctx, identity.ID)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
