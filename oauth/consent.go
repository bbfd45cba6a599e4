package oauth

import (
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/goliatone/go-vendorgate/core"
)

// ZohoTokenType is the Authorization scheme the Zoho APIs expect.
const ZohoTokenType = "Zoho-oauthtoken"

type ConsentRequest struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	State       string
	Datacenter  core.Datacenter
}

// AuthorizationURL builds the consent screen URL with offline access and a
// forced consent prompt so a refresh token is always issued.
func (m *Manager) AuthorizationURL(req ConsentRequest) (string, error) {
	if strings.TrimSpace(req.ClientID) == "" {
		return "", core.BadRequestError("client id is required", nil)
	}
	if strings.TrimSpace(req.RedirectURI) == "" {
		return "", core.BadRequestError("redirect uri is required", nil)
	}
	scopes := make([]string, 0, len(req.Scopes))
	for _, scope := range req.Scopes {
		if trimmed := strings.TrimSpace(scope); trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	if len(scopes) == 0 {
		return "", core.BadRequestError("at least one scope is required", nil)
	}
	base, err := m.router.ResolveBaseURL(core.VendorAccounts, req.Datacenter)
	if err != nil {
		return "", err
	}
	cfg := oauth2.Config{
		ClientID:    strings.TrimSpace(req.ClientID),
		RedirectURL: strings.TrimSpace(req.RedirectURI),
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + authPath,
			TokenURL: base + tokenPath,
		},
		// the accounts service expects a comma separated scope list
		Scopes: []string{strings.Join(scopes, ",")},
	}
	return cfg.AuthCodeURL(
		strings.TrimSpace(req.State),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// AuthorizationHeader composes the Authorization value for a Zoho access token.
func AuthorizationHeader(accessToken string) string {
	token := &oauth2.Token{AccessToken: strings.TrimSpace(accessToken), TokenType: ZohoTokenType}
	return token.Type() + " " + token.AccessToken
}

// SetAuthorization attaches a Zoho access token to req.
func SetAuthorization(req *http.Request, accessToken string) {
	token := &oauth2.Token{AccessToken: strings.TrimSpace(accessToken), TokenType: ZohoTokenType}
	token.SetAuthHeader(req)
}

// StripScheme removes a leading Bearer or Zoho-oauthtoken scheme.
func StripScheme(value string) string {
	value = strings.TrimSpace(value)
	for _, scheme := range []string{"bearer ", strings.ToLower(ZohoTokenType) + " "} {
		if len(value) >= len(scheme) && strings.EqualFold(value[:len(scheme)], scheme) {
			return strings.TrimSpace(value[len(scheme):])
		}
	}
	return value
}
