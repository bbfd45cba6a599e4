// Package transport forwards authenticated requests to vendor hosts. It
// owns the host allow-list, vendor header profiles and per-host throttling.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-vendorgate/core"
)

// VendorResolver identifies the vendor behind a target URL.
type VendorResolver interface {
	VendorForURL(target *url.URL) (core.Vendor, bool)
}

type ForwarderConfig struct {
	HTTPClient           core.HTTPDoer
	AllowList            *AllowList
	Resolver             VendorResolver
	Throttle             *Throttle
	Timeout              time.Duration
	MaxResponseBodyBytes int64
	Activity             core.ActivityRecorder
	Logger               core.Logger
}

// Forwarder is safe for concurrent use; it holds no per-request state.
type Forwarder struct {
	client       core.HTTPDoer
	allow        *AllowList
	resolver     VendorResolver
	throttle     *Throttle
	timeout      time.Duration
	maxBodyBytes int64
	activity     core.ActivityRecorder
	ops          core.OperationLogger
}

func NewForwarder(cfg ForwarderConfig) (*Forwarder, error) {
	if cfg.AllowList == nil {
		return nil, fmt.Errorf("transport: allow list is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = core.DefaultRequestTimeout
	}
	maxBody := cfg.MaxResponseBodyBytes
	if maxBody <= 0 {
		maxBody = core.DefaultMaxResponseBytes
	}
	activity := cfg.Activity
	if activity == nil {
		activity = core.NopActivityRecorder{}
	}
	return &Forwarder{
		client:       client,
		allow:        cfg.AllowList,
		resolver:     cfg.Resolver,
		throttle:     cfg.Throttle,
		timeout:      timeout,
		maxBodyBytes: maxBody,
		activity:     activity,
		ops:          core.NewOperationLogger(cfg.Logger),
	}, nil
}

// Target validates the request URL and reports the vendor that owns it.
// Hosts added through configuration resolve to an empty vendor.
func (f *Forwarder) Target(rawURL string) (*url.URL, core.Vendor, error) {
	target, err := f.allow.ParseTarget(rawURL)
	if err != nil {
		return nil, "", err
	}
	var vendor core.Vendor
	if f.resolver != nil {
		if resolved, ok := f.resolver.VendorForURL(target); ok {
			vendor = resolved
		}
	}
	return target, vendor, nil
}

// Forward sends req with authHeader as Authorization. Non-2xx vendor
// statuses are returned as responses; only local validation and transport
// failures are errors.
func (f *Forwarder) Forward(ctx context.Context, req core.VendorRequest, authHeader string) (response core.VendorResponse, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	entry := core.ActivityEntry{Operation: "proxy", Method: string(req.Method)}
	defer func() {
		entry.Duration = time.Since(startedAt)
		entry.StatusCode = response.StatusCode
		entry.Outcome = outcomeFor(response, err)
		if err != nil {
			entry.TextCode = core.MapError(err).TextCode
		}
		f.finish(ctx, startedAt, entry, err)
	}()

	target, vendor, err := f.Target(req.TargetURL)
	if err != nil {
		return core.VendorResponse{}, err
	}
	entry.Vendor, entry.Host, entry.Path = vendor, target.Hostname(), target.Path

	method, ok := core.ParseHTTPMethod(string(req.Method))
	if !ok {
		return core.VendorResponse{}, core.BadRequestError("method is not supported", map[string]any{"method": string(req.Method)})
	}
	entry.Method = string(method)

	if err := f.throttle.Wait(ctx, target.Hostname()); err != nil {
		return core.VendorResponse{}, core.UpstreamUnreachableError(vendor, err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if method.CarriesBody() && len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(requestCtx, string(method), target.String(), body)
	if err != nil {
		return core.VendorResponse{}, core.BadRequestError("request could not be built", nil)
	}
	applyHeaders(httpReq, ProfileFor(vendor).DefaultHeaders, req.Headers, authHeader)
	if method.CarriesBody() && len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpRes, err := f.client.Do(httpReq)
	if err != nil {
		return core.VendorResponse{}, core.UpstreamUnreachableError(vendor, err)
	}
	defer httpRes.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, f.maxBodyBytes+1))
	if err != nil {
		return core.VendorResponse{}, core.UpstreamUnreachableError(vendor, err)
	}
	if int64(len(payload)) > f.maxBodyBytes {
		return core.VendorResponse{}, core.VendorRejectedError(vendor, http.StatusBadGateway,
			[]byte(fmt.Sprintf(`{"error":"vendor response exceeds %d bytes"}`, f.maxBodyBytes)), "application/json")
	}

	return core.VendorResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       payload,
		Metadata: map[string]any{
			"vendor":      string(vendor),
			"duration_ms": time.Since(startedAt).Milliseconds(),
		},
	}, nil
}

func (f *Forwarder) finish(ctx context.Context, startedAt time.Time, entry core.ActivityEntry, err error) {
	entry.OccurredAt = startedAt.UTC()
	f.ops.Observe(ctx, startedAt, "proxy forward", err, map[string]any{
		"vendor":      string(entry.Vendor),
		"method":      entry.Method,
		"host":        entry.Host,
		"path":        entry.Path,
		"status_code": entry.StatusCode,
	})
	if entry.Host == "" {
		return
	}
	if recordErr := f.activity.Record(context.WithoutCancel(ctx), entry); recordErr != nil {
		f.ops.Warn(ctx, "activity record failed", map[string]any{"error": recordErr.Error()})
	}
}

func outcomeFor(response core.VendorResponse, err error) core.ActivityOutcome {
	switch {
	case err == nil && response.Success():
		return core.ActivityOutcomeSuccess
	case err == nil:
		return core.ActivityOutcomeRejected
	case core.HasTextCode(err, core.ErrorUpstreamUnreachable):
		return core.ActivityOutcomeUnreachable
	case core.HasTextCode(err, core.ErrorVendorRejected):
		return core.ActivityOutcomeRejected
	default:
		return core.ActivityOutcomeInvalid
	}
}

// hop-by-hop and framing headers are never copied between legs.
var skippedHeaders = map[string]struct{}{
	"authorization":       {},
	"connection":          {},
	"content-length":      {},
	"host":                {},
	"keep-alive":          {},
	"proxy-authorization": {},
	"proxy-connection":    {},
	"te":                  {},
	"trailer":             {},
	"transfer-encoding":   {},
	"upgrade":             {},
	"cookie":              {},
}

func applyHeaders(req *http.Request, defaults map[string]string, caller map[string]string, authHeader string) {
	for key, value := range defaults {
		req.Header.Set(key, value)
	}
	for key, value := range caller {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, skip := skippedHeaders[strings.ToLower(key)]; skip {
			continue
		}
		req.Header.Set(key, strings.TrimSpace(value))
	}
	if authHeader = strings.TrimSpace(authHeader); authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
}

func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		lower := strings.ToLower(key)
		if _, skip := skippedHeaders[lower]; skip || lower == "set-cookie" {
			continue
		}
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

// HeaderValue does a case-insensitive lookup in a flat header map.
func HeaderValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
