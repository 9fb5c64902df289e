package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/identity/internal/identity/external"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/internal/identity/token"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

type SessionHandler struct {
	Identities *service.IdentityService
	Tokens     *token.Generator
	Meta       *session.Meta
	pages      *pages
}

// HandleTokenLogin restores the user session from the token login cookie.
//
//	@Summary		Sign in with the token login
//	@Description	Re-establishes the user session from the long lived token login cookie and rotates the token.
//	@Tags			Auth
//	@Param			redirectUrl	query	string	false	"Page to return to"
//	@Param			errorUrl	query	string	false	"Page to return to on failure"
//	@Success		303
//	@Failure		400	{object}	identitysdk.Error	"invalidRedirectUrl"
//	@Failure		401	{object}	identitysdk.Error	"loginRequired"
//	@Failure		404	{object}	identitysdk.Error	"userNotFound"
//	@Router			/auth/token/login [get].
func (h *SessionHandler) HandleTokenLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, targetURL, errorURL, ok := h.decode(w, r)
	if !ok {
		return
	}

	tl := sess.TokenLogin
	if tl == nil {
		h.pages.fail(w, r, sess, errorURL, external.ErrLoginRequired)
		return
	}

	identity, err := h.Identities.GetUser(ctx, tl.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			sess.Clear()
		}
		h.pages.fail(w, r, sess, errorURL, err)
		return
	}

	rotated, err := h.Tokens.Generate(identity.UserID, tl.RememberMe)
	if err != nil {
		h.pages.fail(w, r, sess, errorURL, err)
		return
	}
	sess.SignIn(session.CurrentUser{UserID: identity.UserID, Name: identity.Name}, rotated)
	slogx.FromContext(ctx).Debug("token login", "user_id", identity.UserID)

	h.pages.redirect(w, r, sess, targetURL)
}

// HandleLogout clears the session.
//
//	@Summary		Sign out
//	@Description	Removes the user session, the token login and any in-flight external login.
//	@Tags			Auth
//	@Param			redirectUrl	query	string	false	"Page to return to"
//	@Success		303
//	@Failure		400	{object}	identitysdk.Error	"invalidRedirectUrl"
//	@Router			/auth/logout [get].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, targetURL, _, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess.Clear()
	h.pages.redirect(w, r, sess, targetURL)
}

// HandleDelete deletes the signed in user.
//
//	@Summary		Delete the current user
//	@Description	Deletes the signed in identity with all its external logins and clears the session.
//	@Tags			Auth
//	@Param			redirectUrl	query	string	false	"Page to return to"
//	@Param			errorUrl	query	string	false	"Page to return to on failure"
//	@Success		303
//	@Failure		400	{object}	identitysdk.Error	"invalidRedirectUrl"
//	@Failure		401	{object}	identitysdk.Error	"loginRequired"
//	@Router			/auth/delete [get].
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess, targetURL, errorURL, ok := h.decode(w, r)
	if !ok {
		return
	}
	if sess.User == nil {
		h.pages.fail(w, r, sess, errorURL, external.ErrLoginRequired)
		return
	}
	if err := h.Identities.DeleteUser(r.Context(), sess.User.UserID); err != nil {
		h.pages.fail(w, r, sess, errorURL, err)
		return
	}
	sess.Clear()
	h.pages.redirect(w, r, sess, targetURL)
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request) (*session.Session, string, string, bool) {
	sess := h.Meta.Decode(r)
	targetURL, errorURL, ok := h.pages.redirects(w, r, sess)
	return sess, targetURL, errorURL, ok
}
