package external

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type fakeProvider struct {
	name string
	kind Kind

	exchangeErr error
	userInfo    domain.ExternalUserInfo
	userInfoErr error

	exchanged []string // verifiers seen by Exchange
	nonces    []string // nonces seen by UserInfo
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Kind() Kind   { return p.kind }
func (p *fakeProvider) sealed()      {}

func (p *fakeProvider) AuthCodeURL(state, verifier, nonce string) string {
	q := url.Values{
		"state":          {state},
		"code_challenge": {oauth2.S256ChallengeFromVerifier(verifier)},
	}
	if nonce != "" {
		q.Set("nonce", nonce)
	}
	return "https://provider.example.com/authorize?" + q.Encode()
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	p.exchanged = append(p.exchanged, verifier)
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "at-" + code}, nil
}

func (p *fakeProvider) UserInfo(_ context.Context, _ *oauth2.Token, nonce string) (domain.ExternalUserInfo, error) {
	p.nonces = append(p.nonces, nonce)
	if p.userInfoErr != nil {
		return domain.ExternalUserInfo{}, p.userInfoErr
	}
	info := p.userInfo
	info.Provider = p.name
	return info, nil
}

type linkCall struct {
	userID uuid.UUID
	login  domain.ExternalLogin
}

type fakeIdentities struct {
	identity domain.Identity
	loginErr error
	linkErr  error

	logins []domain.ExternalUserInfo
	links  []linkCall
}

func (f *fakeIdentities) LoginOrRegister(_ context.Context, info domain.ExternalUserInfo) (domain.Identity, error) {
	f.logins = append(f.logins, info)
	if f.loginErr != nil {
		return domain.Identity{}, f.loginErr
	}
	return f.identity, nil
}

func (f *fakeIdentities) LinkUser(_ context.Context, userID uuid.UUID, login domain.ExternalLogin) error {
	f.links = append(f.links, linkCall{userID: userID, login: login})
	return f.linkErr
}

type fakeTokens struct{ now time.Time }

func (f fakeTokens) Generate(userID uuid.UUID, rememberMe bool) (session.TokenLogin, error) {
	return session.TokenLogin{
		UserID:     userID,
		Token:      "token",
		Expires:    f.now.Add(time.Hour),
		RememberMe: rememberMe,
	}, nil
}

type countingObserver map[string]int

func (o countingObserver) ExternalLogin(provider, outcome string) {
	o[provider+"/"+outcome]++
}

var errBoom = errors.New("boom")
