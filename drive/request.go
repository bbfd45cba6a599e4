package drive

import (
	"mime"
	"net/http"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/oauth"
)

// TokenFromRequest prefers the Authorization header over the token query
// parameter. The returned token carries no scheme prefix.
func TokenFromRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", core.UnauthorizedError("authorization token is required")
	}
	if token := oauth.StripScheme(r.Header.Get("Authorization")); token != "" {
		return token, nil
	}
	if token := oauth.StripScheme(r.URL.Query().Get("token")); token != "" {
		return token, nil
	}
	return "", core.UnauthorizedError("authorization token is required")
}

// ContentDisposition renders an attachment header for filename.
func ContentDisposition(filename string) string {
	rendered := mime.FormatMediaType("attachment", map[string]string{
		"filename": sanitizeFilename(filename, defaultFilename),
	})
	if rendered == "" {
		return `attachment; filename="` + defaultFilename + `"`
	}
	return rendered
}
