package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadRequest          = "VENDORGATE_BAD_REQUEST"
	ErrorUnauthorized        = "VENDORGATE_UNAUTHORIZED"
	ErrorMissingCredential   = "VENDORGATE_MISSING_CREDENTIAL"
	ErrorVendorRejected      = "VENDORGATE_VENDOR_REJECTED"
	ErrorInvalidGrant        = "VENDORGATE_INVALID_GRANT"
	ErrorUpstreamUnreachable = "VENDORGATE_UPSTREAM_UNREACHABLE"
	ErrorNotFound            = "VENDORGATE_NOT_FOUND"
	ErrorInternal            = "VENDORGATE_INTERNAL_ERROR"
)

const upstreamUnreachableMessage = "vendor service is unreachable, retry later"

const (
	metadataVendorBody        = "vendor_body"
	metadataVendorContentType = "vendor_content_type"
	metadataVendorStatus      = "vendor_status"
)

func BadRequestError(message string, metadata map[string]any) error {
	return newTaxonomyError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorBadRequest, metadata)
}

func UnauthorizedError(message string) error {
	return newTaxonomyError(message, goerrors.CategoryAuth, http.StatusUnauthorized, ErrorUnauthorized, nil)
}

func NotFoundError(message string, metadata map[string]any) error {
	return newTaxonomyError(message, goerrors.CategoryNotFound, http.StatusNotFound, ErrorNotFound, metadata)
}

// MissingCredentialError reports server misconfiguration; the message names
// the variable the operator must set and never its value.
func MissingCredentialError(vendor Vendor, variable string) error {
	variable = strings.TrimSpace(variable)
	return newTaxonomyError(
		fmt.Sprintf("missing %s credential: set %s in the server environment", vendor, variable),
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		ErrorMissingCredential,
		map[string]any{"vendor": string(vendor), "variable": variable},
	)
}

// VendorRejectedError carries the vendor status and body so they can be
// relayed verbatim.
func VendorRejectedError(vendor Vendor, status int, body []byte, contentType string) error {
	if status <= 0 {
		status = http.StatusBadGateway
	}
	return newTaxonomyError(
		fmt.Sprintf("%s rejected the request with status %d", vendor, status),
		goerrors.CategoryExternal,
		status,
		ErrorVendorRejected,
		vendorMetadata(vendor, status, body, contentType),
	)
}

// InvalidGrantError keeps the literal vendor error string as the message.
// Token endpoints that answer 2xx with an error field are reported as 400.
func InvalidGrantError(vendor Vendor, status int, vendorError string, body []byte) error {
	if status < http.StatusBadRequest {
		status = http.StatusBadRequest
	}
	vendorError = strings.TrimSpace(vendorError)
	if vendorError == "" {
		vendorError = "invalid_grant"
	}
	metadata := vendorMetadata(vendor, status, body, "application/json")
	metadata["vendor_error"] = vendorError
	return newTaxonomyError(vendorError, goerrors.CategoryAuth, status, ErrorInvalidGrant, metadata)
}

// UpstreamUnreachableError wraps a transport failure. URL details are dropped
// from the source error since token endpoints carry credentials in the query.
func UpstreamUnreachableError(vendor Vendor, source error) error {
	metadata := map[string]any{}
	if vendor != "" {
		metadata["vendor"] = string(vendor)
	}
	err := goerrors.Wrap(stripURLError(source), goerrors.CategoryExternal, upstreamUnreachableMessage).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorUpstreamUnreachable)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func InternalError(message string, source error) error {
	if source == nil {
		return newTaxonomyError(message, goerrors.CategoryInternal, http.StatusInternalServerError, ErrorInternal, nil)
	}
	return goerrors.Wrap(source, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
}

// VendorPayload returns the relayable vendor status/body carried by a
// VendorRejected or InvalidGrant error.
func VendorPayload(err error) (status int, body []byte, contentType string, ok bool) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return 0, nil, "", false
	}
	if rich.TextCode != ErrorVendorRejected && rich.TextCode != ErrorInvalidGrant {
		return 0, nil, "", false
	}
	raw, found := rich.Metadata[metadataVendorBody]
	if !found {
		return 0, nil, "", false
	}
	text, _ := raw.(string)
	contentType, _ = rich.Metadata[metadataVendorContentType].(string)
	status = rich.Code
	if value, isInt := rich.Metadata[metadataVendorStatus].(int); isInt && value > 0 {
		status = value
	}
	return status, []byte(text), contentType, true
}

// HasTextCode reports whether err carries the given taxonomy text code.
func HasTextCode(err error, textCode string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return false
	}
	return rich.TextCode == textCode
}

// MapError normalizes any error into the taxonomy envelope.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureEnvelope(rich)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		var mapped *goerrors.Error
		goerrors.As(UpstreamUnreachableError("", err), &mapped)
		return mapped
	case errors.Is(err, context.Canceled):
		return ensureEnvelope(goerrors.New("request canceled", goerrors.CategoryBadInput).
			WithTextCode(ErrorBadRequest))
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return ensureEnvelope(goerrors.New(err.Error(), goerrors.CategoryNotFound).WithTextCode(ErrorNotFound))
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return ensureEnvelope(goerrors.New(err.Error(), goerrors.CategoryBadInput).WithTextCode(ErrorBadRequest))
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureEnvelope(mapped)
}

func newTaxonomyError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func vendorMetadata(vendor Vendor, status int, body []byte, contentType string) map[string]any {
	return map[string]any{
		"vendor":                  string(vendor),
		metadataVendorStatus:      status,
		metadataVendorBody:        string(body),
		metadataVendorContentType: strings.TrimSpace(contentType),
	}
}

func ensureEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadRequest
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorUnauthorized
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryExternal:
		return ErrorUpstreamUnreachable
	default:
		return ErrorInternal
	}
}

func HTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func stripURLError(err error) error {
	if err == nil {
		return errors.New("transport failure")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(urlErr.Op), urlErr.Err)
	}
	return err
}
