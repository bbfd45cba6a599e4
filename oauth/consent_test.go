package oauth

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/devkit"
)

func TestAuthorizationURL(t *testing.T) {
	manager := newTestManager(t, devkit.NewFakeDoer())
	raw, err := manager.AuthorizationURL(ConsentRequest{
		ClientID:    "cid",
		RedirectURI: "https://app.example.com/callback",
		Scopes:      []string{"WorkDrive.files.ALL", " ZohoCreator.report.ALL "},
		State:       "st-1",
		Datacenter:  core.DatacenterIN,
	})
	if err != nil {
		t.Fatalf("authorization url: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Host != "accounts.zoho.in" || parsed.Path != "/oauth/v2/auth" {
		t.Fatalf("unexpected consent endpoint %s", raw)
	}
	query := parsed.Query()
	checks := map[string]string{
		"client_id":     "cid",
		"redirect_uri":  "https://app.example.com/callback",
		"response_type": "code",
		"access_type":   "offline",
		"prompt":        "consent",
		"state":         "st-1",
		"scope":         "WorkDrive.files.ALL,ZohoCreator.report.ALL",
	}
	for key, want := range checks {
		if got := query.Get(key); got != want {
			t.Fatalf("expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestAuthorizationURL_RequiresScopes(t *testing.T) {
	manager := newTestManager(t, devkit.NewFakeDoer())
	_, err := manager.AuthorizationURL(ConsentRequest{ClientID: "cid", RedirectURI: "https://x"})
	if !core.HasTextCode(err, core.ErrorBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	if got := AuthorizationHeader("1000.abc"); got != "Zoho-oauthtoken 1000.abc" {
		t.Fatalf("unexpected header %q", got)
	}
	req, _ := http.NewRequest(http.MethodGet, "https://www.zohoapis.com/workdrive/api/v1/files/x", nil)
	SetAuthorization(req, "1000.abc")
	if got := req.Header.Get("Authorization"); got != "Zoho-oauthtoken 1000.abc" {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestStripScheme(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":           "abc",
		"zoho-oauthtoken abc":  "abc",
		"Zoho-oauthtoken  abc": "abc",
		"abc":                  "abc",
		"  ":                   "",
	}
	for input, want := range cases {
		if got := StripScheme(input); got != want {
			t.Fatalf("StripScheme(%q) = %q, want %q", input, got, want)
		}
	}
}
