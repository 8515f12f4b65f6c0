package oauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/enbi81/attendance-board/internal/fault"
	"github.com/enbi81/attendance-board/internal/state"
)

// SpreadsheetsReadOnlyScope grants read access to the user's spreadsheets.
const SpreadsheetsReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// Provider is the OAuth authorization server.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (state.Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (state.Credentials, error)
}

// ProviderConfig configures GoogleProvider. Endpoint defaults to Google's
// and Scopes to the read-only spreadsheets scope.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	Scopes       []string
	HTTPClient   *http.Client
}

// GoogleProvider implements Provider with golang.org/x/oauth2.
type GoogleProvider struct {
	conf   *oauth2.Config
	client *http.Client
	now    func() time.Time
}

// NewGoogleProvider builds a provider from cfg.
func NewGoogleProvider(cfg ProviderConfig) *GoogleProvider {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = endpoints.Google
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{SpreadsheetsReadOnlyScope}
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		client: client,
		now:    time.Now,
	}
}

// AuthCodeURL returns the consent page URL. Offline access and forced
// consent make the provider issue a refresh token on every authorization.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a credential set.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (state.Credentials, error) {
	token, err := p.conf.Exchange(p.context(ctx), code)
	if err != nil {
		return state.Credentials{}, fault.Upstream("token exchange", err)
	}
	return p.credentials(token, ""), nil
}

// Refresh obtains a new access token. The token source is seeded without an
// access token so the refresh grant is always sent.
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (state.Credentials, error) {
	if refreshToken == "" {
		return state.Credentials{}, fault.Upstream("token refresh", errors.New("no refresh token"))
	}
	token, err := p.conf.TokenSource(p.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return state.Credentials{}, fault.Upstream("token refresh", err)
	}
	return p.credentials(token, refreshToken), nil
}

func (p *GoogleProvider) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

func (p *GoogleProvider) credentials(token *oauth2.Token, previousRefresh string) state.Credentials {
	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = p.now()
	}
	return state.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: refresh,
		TokenType:    token.Type(),
		Expiry:       expiry,
	}
}

// Token converts a credential set into an oauth2 token for API clients.
func Token(creds state.Credentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    creds.TokenType,
		Expiry:       creds.Expiry,
	}
}
