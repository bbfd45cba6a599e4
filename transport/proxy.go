package transport

import (
	"context"
	"strings"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/credentials"
	"github.com/goliatone/go-vendorgate/oauth"
)

const apiKeyHeader = "X-Api-Key"

// APIKeySource supplies server-held keys for API-key vendors.
type APIKeySource interface {
	APIKey(vendor core.Vendor) (string, error)
}

type ProxyRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// Proxy picks the credential for a request from the vendor that owns its
// URL. API-key vendors get the server key; OAuth vendors use the caller's
// Authorization header.
type Proxy struct {
	forwarder *Forwarder
	keys      APIKeySource
}

func NewProxy(forwarder *Forwarder, keys APIKeySource) *Proxy {
	return &Proxy{forwarder: forwarder, keys: keys}
}

func (p *Proxy) Handle(ctx context.Context, req ProxyRequest) (core.VendorResponse, error) {
	_, vendor, err := p.forwarder.Target(req.URL)
	if err != nil {
		return core.VendorResponse{}, err
	}
	method, ok := core.ParseHTTPMethod(req.Method)
	if !ok {
		return core.VendorResponse{}, core.BadRequestError("method is not supported", map[string]any{"method": req.Method})
	}

	headers := make(map[string]string, len(req.Headers))
	for key, value := range req.Headers {
		if strings.EqualFold(strings.TrimSpace(key), apiKeyHeader) {
			continue
		}
		headers[key] = value
	}
	callerAuth := HeaderValue(req.Headers, "Authorization")

	var authHeader string
	switch {
	case vendor == "":
		authHeader = callerAuth
	case credentials.AuthKind(vendor) == core.CredentialKindAPIKey:
		if p.keys == nil {
			return core.VendorResponse{}, core.MissingCredentialError(vendor, core.EnvApolloAPIKey)
		}
		key, err := p.keys.APIKey(vendor)
		if err != nil {
			return core.VendorResponse{}, err
		}
		headers[apiKeyHeader] = key
	default:
		if callerAuth == "" {
			return core.VendorResponse{}, core.UnauthorizedError("authorization header is required for " + string(vendor))
		}
		authHeader = callerAuth
		if !strings.Contains(callerAuth, " ") {
			authHeader = oauth.AuthorizationHeader(callerAuth)
		}
	}

	return p.forwarder.Forward(ctx, core.VendorRequest{
		TargetURL: req.URL,
		Method:    method,
		Headers:   headers,
		Body:      req.Body,
	}, authHeader)
}
