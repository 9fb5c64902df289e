package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/identity/internal/identity/external"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/identitysdk"
)

type UserInfoHandler struct {
	Identities *service.IdentityService
	Meta       *session.Meta
	pages      *pages
}

// ServeHTTP describes the signed in user.
//
//	@Summary		Get the current user
//	@Description	Returns the signed in identity and its linked external providers.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	identitysdk.UserInfoResponse
//	@Failure		401	{object}	identitysdk.Error	"loginRequired"
//	@Failure		404	{object}	identitysdk.Error	"userNotFound"
//	@Failure		500	{object}	identitysdk.Error	"internalError"
//	@Router			/auth/userinfo [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.Meta.Decode(r)
	if sess.User == nil {
		h.pages.fail(w, r, sess, "", external.ErrLoginRequired)
		return
	}

	identity, err := h.Identities.GetUser(ctx, sess.User.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			sess.Clear()
		}
		h.pages.fail(w, r, sess, "", err)
		return
	}

	links, err := h.Identities.LinkedProviders(ctx, identity.UserID)
	if err != nil {
		h.pages.fail(w, r, sess, "", err)
		return
	}

	response := identitysdk.UserInfoResponse{
		UserID:           identity.UserID.String(),
		Name:             identity.Name,
		Email:            identity.Email,
		IsEmailConfirmed: identity.IsEmailConfirmed,
		Created:          identity.Creation,
		LinkedProviders:  make([]identitysdk.LinkedProvider, 0, len(links)),
	}
	if tl := sess.TokenLogin; tl != nil {
		response.SessionExpires = tl.Expires
		response.RememberMe = tl.RememberMe
	}
	for _, l := range links {
		response.LinkedProviders = append(response.LinkedProviders, identitysdk.LinkedProvider{
			Provider:   l.Provider,
			ProviderID: l.ProviderID,
			LinkedAt:   l.LinkedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, response)
}

// ProvidersHandler godoc
//
//	@Summary		List external providers
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	identitysdk.ProvidersResponse
//	@Router			/auth/providers [get].
func ProvidersHandler(registry *external.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, identitysdk.ProvidersResponse{Providers: registry.Names()})
	}
}
