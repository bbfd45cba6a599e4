// Package oauth exchanges authorization codes and refresh tokens against the
// accounts service resolved through the datacenter router.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-vendorgate/core"
)

const (
	tokenPath                 = "/oauth/v2/token"
	authPath                  = "/oauth/v2/auth"
	maxTokenResponseBodyBytes = 1 << 20 // 1 MiB
)

const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

type AuthorizationCodeGrant struct {
	Code         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Datacenter   core.Datacenter
}

type RefreshGrant struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
	Datacenter   core.Datacenter
}

type ManagerConfig struct {
	Router     core.BaseURLResolver
	HTTPClient core.HTTPDoer
	Timeout    time.Duration
	Logger     core.Logger
}

// Manager is stateless apart from its immutable configuration. It issues a
// single request per call and never retries.
type Manager struct {
	router  core.BaseURLResolver
	client  core.HTTPDoer
	timeout time.Duration
	ops     core.OperationLogger
}

type tokenEndpointPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	APIDomain        string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Router == nil {
		return nil, fmt.Errorf("oauth: router is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = core.DefaultRequestTimeout
	}
	return &Manager{
		router:  cfg.Router,
		client:  client,
		timeout: timeout,
		ops:     core.NewOperationLogger(cfg.Logger),
	}, nil
}

func (m *Manager) ExchangeAuthorizationCode(ctx context.Context, grant AuthorizationCodeGrant) (result core.TokenExchangeResult, err error) {
	startedAt := time.Now()
	defer func() {
		m.ops.Observe(ctx, startedAt, "oauth exchange code", err, map[string]any{
			"vendor":     string(core.VendorAccounts),
			"grant_type": GrantTypeAuthorizationCode,
			"datacenter": string(grant.Datacenter),
		})
	}()

	code := strings.TrimSpace(grant.Code)
	if code == "" {
		return core.TokenExchangeResult{}, core.BadRequestError("authorization code is required", nil)
	}
	if err := requireClient(grant.ClientID, grant.ClientSecret); err != nil {
		return core.TokenExchangeResult{}, err
	}
	redirectURI := strings.TrimSpace(grant.RedirectURI)
	if redirectURI == "" {
		return core.TokenExchangeResult{}, core.BadRequestError("redirect uri is required", nil)
	}

	query := url.Values{}
	query.Set("grant_type", GrantTypeAuthorizationCode)
	query.Set("code", code)
	query.Set("client_id", strings.TrimSpace(grant.ClientID))
	query.Set("client_secret", strings.TrimSpace(grant.ClientSecret))
	query.Set("redirect_uri", redirectURI)

	payload, err := m.fetchToken(ctx, grant.Datacenter, query)
	if err != nil {
		return core.TokenExchangeResult{}, err
	}
	return toResult(payload), nil
}

func (m *Manager) RefreshAccessToken(ctx context.Context, grant RefreshGrant) (result core.TokenExchangeResult, err error) {
	startedAt := time.Now()
	defer func() {
		m.ops.Observe(ctx, startedAt, "oauth refresh", err, map[string]any{
			"vendor":     string(core.VendorAccounts),
			"grant_type": GrantTypeRefreshToken,
			"datacenter": string(grant.Datacenter),
			"rotated":    result.Rotated,
		})
	}()

	refreshToken := strings.TrimSpace(grant.RefreshToken)
	if refreshToken == "" {
		return core.TokenExchangeResult{}, core.BadRequestError("refresh token is required", nil)
	}
	if err := requireClient(grant.ClientID, grant.ClientSecret); err != nil {
		return core.TokenExchangeResult{}, err
	}

	query := url.Values{}
	query.Set("grant_type", GrantTypeRefreshToken)
	query.Set("refresh_token", refreshToken)
	query.Set("client_id", strings.TrimSpace(grant.ClientID))
	query.Set("client_secret", strings.TrimSpace(grant.ClientSecret))

	payload, err := m.fetchToken(ctx, grant.Datacenter, query)
	if err != nil {
		return core.TokenExchangeResult{}, err
	}
	return toResult(payload), nil
}

// TokenURL returns the token endpoint for dc.
func (m *Manager) TokenURL(dc core.Datacenter) (string, error) {
	base, err := m.router.ResolveBaseURL(core.VendorAccounts, dc)
	if err != nil {
		return "", err
	}
	return base + tokenPath, nil
}

func (m *Manager) fetchToken(ctx context.Context, dc core.Datacenter, query url.Values) (tokenEndpointPayload, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tokenURL, err := m.TokenURL(dc)
	if err != nil {
		return tokenEndpointPayload{}, err
	}

	requestCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, tokenURL+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return tokenEndpointPayload{}, core.InternalError("build token request", nil)
	}
	httpReq.Header.Set("Accept", "application/json")

	response, err := m.client.Do(httpReq)
	if err != nil {
		return tokenEndpointPayload{}, core.UpstreamUnreachableError(core.VendorAccounts, err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxTokenResponseBodyBytes+1))
	if readErr != nil {
		return tokenEndpointPayload{}, core.UpstreamUnreachableError(core.VendorAccounts, readErr)
	}
	if int64(len(body)) > maxTokenResponseBodyBytes {
		return tokenEndpointPayload{}, core.VendorRejectedError(core.VendorAccounts, http.StatusBadGateway, nil, "")
	}

	contentType := response.Header.Get("Content-Type")
	success := response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices
	payload, parseErr := parseTokenPayload(body, contentType)
	if parseErr == nil && payload.ErrorCode != "" {
		return tokenEndpointPayload{}, core.InvalidGrantError(core.VendorAccounts, response.StatusCode, payload.ErrorCode, body)
	}
	if !success {
		return tokenEndpointPayload{}, core.VendorRejectedError(core.VendorAccounts, response.StatusCode, body, contentType)
	}
	if parseErr != nil || payload.AccessToken == "" {
		return tokenEndpointPayload{}, core.VendorRejectedError(core.VendorAccounts, http.StatusBadGateway, body, contentType)
	}
	return payload, nil
}

func requireClient(clientID, clientSecret string) error {
	if strings.TrimSpace(clientID) == "" {
		return core.BadRequestError("client id is required", nil)
	}
	if strings.TrimSpace(clientSecret) == "" {
		return core.BadRequestError("client secret is required", nil)
	}
	return nil
}

// toResult never invents a refresh token: Rotated is set only when the
// vendor sent one back.
func toResult(payload tokenEndpointPayload) core.TokenExchangeResult {
	return core.TokenExchangeResult{
		AccessToken:      payload.AccessToken,
		RefreshToken:     payload.RefreshToken,
		ExpiresInSeconds: payload.ExpiresIn,
		APIDomain:        payload.APIDomain,
		TokenType:        payload.TokenType,
		Rotated:          payload.RefreshToken != "",
	}
}

func parseTokenPayload(body []byte, contentType string) (tokenEndpointPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(contentType, "x-www-form-urlencoded") {
		return parseTokenPayloadForm(body)
	}
	if payload, err := parseTokenPayloadJSON(body); err == nil {
		return payload, nil
	} else if strings.Contains(contentType, "json") {
		return tokenEndpointPayload{}, err
	}
	return parseTokenPayloadForm(body)
}

func parseTokenPayloadJSON(body []byte) (tokenEndpointPayload, error) {
	if strings.TrimSpace(string(body)) == "" {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return tokenEndpointPayload{}, err
	}
	return tokenEndpointPayload{
		AccessToken:      readAnyString(decoded["access_token"]),
		TokenType:        readAnyString(decoded["token_type"]),
		RefreshToken:     readAnyString(decoded["refresh_token"]),
		APIDomain:        readAnyString(decoded["api_domain"]),
		ExpiresIn:        readAnyInt64(decoded["expires_in"]),
		ErrorCode:        readAnyString(decoded["error"]),
		ErrorDescription: readAnyString(decoded["error_description"]),
	}, nil
}

func parseTokenPayloadForm(body []byte) (tokenEndpointPayload, error) {
	if strings.TrimSpace(string(body)) == "" {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	expiresIn, _ := strconv.ParseInt(strings.TrimSpace(values.Get("expires_in")), 10, 64)
	return tokenEndpointPayload{
		AccessToken:      strings.TrimSpace(values.Get("access_token")),
		TokenType:        strings.TrimSpace(values.Get("token_type")),
		RefreshToken:     strings.TrimSpace(values.Get("refresh_token")),
		APIDomain:        strings.TrimSpace(values.Get("api_domain")),
		ExpiresIn:        expiresIn,
		ErrorCode:        strings.TrimSpace(values.Get("error")),
		ErrorDescription: strings.TrimSpace(values.Get("error_description")),
	}, nil
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func readAnyInt64(value any) int64 {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int64:
		return typed
	case float64:
		return int64(typed)
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return parsed
		}
	case string:
		if parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
