package webapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lanternhq/beacon/internal/apperr"
	"github.com/lanternhq/beacon/internal/httpserver"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/registrar"
	"github.com/lanternhq/beacon/pkg/rendering"
)

// oauthStateCookie holds the CSRF state between /auth/redirect and
// /auth/complete. The identity provider round-trips it unmodified via the
// `state` query parameter.
const oauthStateCookie = "beacon_oauth_state"

// handleAuthRedirect implements spec §6 GET /auth/redirect: 302 to the
// identity provider's authorize URL.
func (h *Handler) handleAuthRedirect(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.identity.AuthCodeURL(state), http.StatusFound)
}

// handleAuthComplete implements spec §6 GET /auth/complete?code=…: exchange
// the code, fetch the profile, upsert the User document, persist the token
// handle via a percolated job, then redirect to the UI with the session
// cookie set.
func (h *Handler) handleAuthComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		httpserver.RespondError(w, apperr.New(apperr.KindAuth, "invalid_oauth_state", "missing or mismatched oauth state"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		httpserver.RespondError(w, apperr.New(apperr.KindValidation, "missing_code", "code query parameter is required"))
		return
	}

	tok, err := h.identity.Exchange(ctx, code)
	if err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindExternal, "oauth_exchange_failed", "exchanging authorization code", err))
		return
	}
	profile, err := h.identity.FetchProfile(ctx, tok)
	if err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindExternal, "oauth_profile_failed", "fetching user profile", err))
		return
	}

	if _, err := h.users.FindOneAndUpdateUpsert(ctx,
		bson.M{"oid": profile.Subject},
		bson.M{
			"$set": bson.M{
				"name":    profile.Name,
				"picture": profile.Picture,
			},
			"$setOnInsert": bson.M{"oid": profile.Subject, "devices": bson.M{}},
		},
	); err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindTransport, "user_upsert_failed", "upserting user document", err))
		return
	}

	if err := h.persistTokenHandle(ctx, profile.Subject, tok.AccessToken, tok.RefreshToken, int(time.Until(tok.Expiry).Seconds())); err != nil {
		h.logger.Error("webapi: persisting token handle failed", "user_id", profile.Subject, "error", err)
	}

	if err := h.sessionMgr.IssueCookie(w, profile.Subject, h.secureCookies); err != nil {
		httpserver.RespondError(w, apperr.Wrap(apperr.KindSerialization, "session_issue_failed", "issuing session cookie", err))
		return
	}
	http.Redirect(w, r, h.uiRedirect, http.StatusFound)
}

// persistTokenHandle wraps the raw access/refresh tokens (spec §3 Token
// Handle: "at rest are themselves signed tokens") and percolates a
// UserAccessTokenRefresh job so the registrar is the one writing latest_token
// (spec §4.D "Ownership" — the registrar exclusively mutates persisted state
// outside job results).
func (h *Handler) persistTokenHandle(ctx context.Context, userID, accessToken, refreshToken string, expiresIn int) error {
	wrappedAccess, err := h.signer.WrapString(accessToken, rendering.EnvelopeTTL)
	if err != nil {
		return err
	}
	var wrappedRefresh string
	if refreshToken != "" {
		wrappedRefresh, err = h.signer.WrapString(refreshToken, rendering.EnvelopeTTL)
		if err != nil {
			return err
		}
	}

	handle := model.TokenHandle{
		Created: time.Now().UTC(),
		Token: model.TokenPayload{
			AccessToken:  model.WrappedToken(wrappedAccess),
			RefreshToken: model.WrappedToken(wrappedRefresh),
			ExpiresIn:    expiresIn,
		},
	}
	job, err := model.MarshalTagged(model.JobKindUserAccessTokenRefresh, model.UserAccessTokenRefreshJob{
		Handle: handle, UserID: userID,
	})
	if err != nil {
		return err
	}
	_, err = registrar.EnqueueJob(ctx, h.broker, h.signer, job)
	return err
}

// handleAuthIdentify implements spec §6 GET /auth/identify: 200 User JSON,
// or 404 if no session.
func (h *Handler) handleAuthIdentify(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		httpserver.RespondError(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, user)
}

// currentUser validates the session cookie and loads the corresponding User
// document, returning a NotFound apperr (spec §6: "404 if no session" /
// "404 if no user") for any failure along the way.
func (h *Handler) currentUser(r *http.Request) (*model.User, error) {
	claims, err := h.sessionMgr.ValidateCookie(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "no_session", "no valid session", err)
	}
	user, err := h.users.FindOne(r.Context(), bson.M{"oid": claims.OID})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "user_not_found", "user not found", err)
	}
	return &user, nil
}
