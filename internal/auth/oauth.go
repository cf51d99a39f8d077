package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ProviderConfig names the identity provider's endpoints and credentials
// (spec §6 configuration: "OAuth {client_id, client_secret, auth_uri,
// token_uri, info_uri, redirect_uri, scopes}").
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURI      string
	TokenURI     string
	InfoURI      string
	RedirectURI  string
	Scopes       []string
}

// Profile is the subset of the identity provider's user-info response beacon
// needs to upsert a User document.
type Profile struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Identity wraps the authorization-code exchange and profile fetch against
// the configured OAuth2/OIDC provider, adapted from the teacher's
// OIDCAuthenticator but driving the full Authorization Code flow (redirect,
// code exchange, userinfo) rather than only verifying bearer tokens, since
// beacon is itself the OAuth client, not a resource server.
type Identity struct {
	cfg       ProviderConfig
	oauth2Cfg oauth2.Config
	keySet    oidc.KeySet
}

// NewIdentity builds an Identity from static endpoint configuration — no OIDC
// discovery call, since spec §6 names concrete auth/token/info URIs rather
// than an issuer to discover against. It sets up no ID-token key set;
// VerifyIDToken checks ID tokens against the key set its caller passes in.
func NewIdentity(cfg ProviderConfig) *Identity {
	return &Identity{
		cfg: cfg,
		oauth2Cfg: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURI,
				TokenURL: cfg.TokenURI,
			},
		},
	}
}

// AuthCodeURL builds the /auth/redirect target. access_type=offline and
// prompt=consent are set for every provider, so that a provider supporting
// offline refresh (Google) returns a refresh token on first consent (spec §6).
func (id *Identity) AuthCodeURL(state string) string {
	return id.oauth2Cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("access_type", "offline"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a token.
func (id *Identity) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := id.oauth2Cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging authorization code: %w", err)
	}
	return tok, nil
}

// FetchProfile calls the provider's userinfo endpoint with the given token
// and decodes the profile beacon persists onto the User document.
func (id *Identity) FetchProfile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	client := id.oauth2Cfg.Client(ctx, tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id.cfg.InfoURI, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: userinfo returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("auth: decoding userinfo response: %w", err)
	}
	if profile.Subject == "" {
		return nil, fmt.Errorf("auth: userinfo response missing sub claim")
	}
	return &profile, nil
}

// VerifyIDToken verifies and decodes the ID token returned alongside an
// access token, when the provider issues one, against the given key set
// (typically built via oidc.NewRemoteKeySet against the provider's JWKS URI).
func VerifyIDToken(ctx context.Context, keySet oidc.KeySet, clientID, rawIDToken string) (*Profile, error) {
	verifier := oidc.NewVerifier(clientID, keySet, &oidc.Config{ClientID: clientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("auth: verifying ID token: %w", err)
	}
	var profile Profile
	if err := idToken.Claims(&profile); err != nil {
		return nil, fmt.Errorf("auth: extracting ID token claims: %w", err)
	}
	return &profile, nil
}

// RefreshToken uses a stored refresh token to mint a fresh access token
// (spec §4.D step 4: token-refresh sweep).
func (id *Identity) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := id.oauth2Cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("auth: refreshing access token: %w", err)
	}
	return tok, nil
}
