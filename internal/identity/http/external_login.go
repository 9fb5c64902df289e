package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/identity/internal/identity/external"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

type ExternalLoginHandler struct {
	Flow  *external.Flow
	Meta  *session.Meta
	pages *pages
}

// HandleLogin starts a login with an external provider.
//
//	@Summary		Start external login
//	@Description	Redirects to the provider's authorization page. Fails with logoutRequired when a user is already signed in.
//	@Description	Errors redirect to errorUrl with type and status query parameters, or are returned as JSON without a usable errorUrl.
//	@Tags			Auth
//	@Param			provider	path	string	true	"Provider name"
//	@Param			redirectUrl	query	string	false	"Page to return to after a successful login"
//	@Param			errorUrl	query	string	false	"Page to return to after a failed login"
//	@Param			rememberMe	query	bool	false	"Keep the user signed in across browser sessions"
//	@Success		303
//	@Failure		400	{object}	identitysdk.Error	"invalidRedirectUrl, logoutRequired"
//	@Failure		404	{object}	identitysdk.Error	"unknownProvider"
//	@Router			/auth/{provider}/login [get].
func (h *ExternalLoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	rememberMe, _ := strconv.ParseBool(r.URL.Query().Get("rememberMe"))
	h.start(w, r, rememberMe, false)
}

// HandleLink starts linking an external provider to the signed in user.
//
//	@Summary		Start external link
//	@Description	Redirects to the provider's authorization page. The provider account is linked to the signed in user.
//	@Tags			Auth
//	@Param			provider	path	string	true	"Provider name"
//	@Param			redirectUrl	query	string	false	"Page to return to after a successful link"
//	@Param			errorUrl	query	string	false	"Page to return to after a failed link"
//	@Success		303
//	@Failure		400	{object}	identitysdk.Error	"invalidRedirectUrl"
//	@Failure		401	{object}	identitysdk.Error	"loginRequired"
//	@Failure		404	{object}	identitysdk.Error	"unknownProvider"
//	@Router			/auth/{provider}/link [get].
func (h *ExternalLoginHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, false, true)
}

func (h *ExternalLoginHandler) start(w http.ResponseWriter, r *http.Request, rememberMe, link bool) {
	r = withProvider(r)
	sess := h.Meta.Decode(r)
	targetURL, errorURL, ok := h.pages.redirects(w, r, sess)
	if !ok {
		return
	}

	authURL, err := h.Flow.Start(r.Context(), sess, r.PathValue("provider"), external.StartRequest{
		TargetURL:  targetURL,
		ErrorURL:   errorURL,
		RememberMe: rememberMe,
		Link:       link,
	})
	if err != nil {
		h.pages.fail(w, r, sess, external.ErrorURL(err), err)
		return
	}
	h.pages.redirect(w, r, sess, authURL)
}

// HandleCallback completes the flow when the provider redirects back.
//
//	@Summary		External login callback
//	@Description	Exchanges the authorization code, then signs the user in (registering on first login) or links the provider account.
//	@Tags			Auth
//	@Param			provider	path	string	true	"Provider name"
//	@Param			code		query	string	false	"Authorization code"
//	@Param			state		query	string	true	"CSRF state"
//	@Param			error		query	string	false	"Error reported by the provider"
//	@Success		303
//	@Failure		400	{object}	identitysdk.Error	"missingExternalLogin, invalidCsrf, missingNonce, failedExternalUserInfo"
//	@Failure		403	{object}	identitysdk.Error	"providerDenied"
//	@Failure		409	{object}	identitysdk.Error	"emailAlreadyUsed, providerAlreadyUsed"
//	@Failure		500	{object}	identitysdk.Error	"internalError"
//	@Router			/auth/{provider}/auth [get].
func (h *ExternalLoginHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)
	q := r.URL.Query()
	sess := h.Meta.Decode(r)

	res, err := h.Flow.Callback(r.Context(), sess, r.PathValue("provider"), external.CallbackRequest{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	})
	if err != nil {
		h.pages.fail(w, r, sess, external.ErrorURL(err), err)
		return
	}
	h.pages.redirect(w, r, sess, res.TargetURL)
}

func withProvider(r *http.Request) *http.Request {
	return r.WithContext(slogx.With(r.Context(), "provider", r.PathValue("provider")))
}
