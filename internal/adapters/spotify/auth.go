package spotify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	spotifyoauth "golang.org/x/oauth2/spotify"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
)

// Scopes requested during sign-in.
var Scopes = []string{
	"user-top-read",
	"playlist-modify-private",
	"playlist-modify-public",
	"ugc-image-upload",
}

// AuthConfig configures the Spotify accounts service.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// AuthURL and TokenURL override the production endpoints.
	AuthURL  string
	TokenURL string
}

// Authenticator performs the authorization-code and client-credentials flows.
type Authenticator struct {
	oauth      oauth2.Config
	httpClient *http.Client
}

var _ ports.TokenExchanger = (*Authenticator)(nil)

// NewAuthenticator builds an Authenticator. Missing credentials are reported
// by Exchange and ClientCredentialsToken, not here, so the server can start
// and answer with a configuration error.
func NewAuthenticator(cfg AuthConfig, httpClient *http.Client) *Authenticator {
	endpoint := spotifyoauth.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Authenticator{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       Scopes,
		},
		httpClient: httpClient,
	}
}

// Configured reports whether client credentials are present.
func (a *Authenticator) Configured() bool {
	return a.oauth.ClientID != "" && a.oauth.ClientSecret != ""
}

// AuthCodeURL returns the consent page URL carrying state.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (domain.AccessToken, error) {
	if !a.Configured() {
		return domain.AccessToken{}, fmt.Errorf("spotify adapter: %w", ports.ErrMissingCredentials)
	}
	if code == "" {
		return domain.AccessToken{}, errors.New("spotify adapter: missing authorization code")
	}

	tok, err := a.oauth.Exchange(a.clientContext(ctx), code)
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("spotify adapter: %w", &ports.UpstreamError{Op: "token exchange", StatusCode: retrieveStatus(err), Err: err})
	}
	return toAccessToken(tok), nil
}

// ClientCredentialsToken obtains an app-only token for catalog reads.
func (a *Authenticator) ClientCredentialsToken(ctx context.Context) (domain.AccessToken, error) {
	if !a.Configured() {
		return domain.AccessToken{}, fmt.Errorf("spotify adapter: %w", ports.ErrMissingCredentials)
	}
	cc := clientcredentials.Config{
		ClientID:     a.oauth.ClientID,
		ClientSecret: a.oauth.ClientSecret,
		TokenURL:     a.oauth.Endpoint.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tok, err := cc.Token(a.clientContext(ctx))
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("spotify adapter: %w", &ports.UpstreamError{Op: "client credentials", StatusCode: retrieveStatus(err), Err: err})
	}
	return toAccessToken(tok), nil
}

func (a *Authenticator) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

func toAccessToken(tok *oauth2.Token) domain.AccessToken {
	at := domain.AccessToken{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		at.ExpiresIn = int(math.Round(time.Until(tok.Expiry).Seconds()))
	}
	return at
}

func retrieveStatus(err error) int {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode
	}
	return 0
}
