package transport

import (
	"context"
	"testing"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/credentials"
	"github.com/goliatone/go-vendorgate/devkit"
)

func newTestProxy(t *testing.T, doer *devkit.FakeDoer, apolloKey string) *Proxy {
	t.Helper()
	forwarder, _ := newTestForwarder(t, doer, "files.example.com")
	cfg := core.DefaultConfig()
	cfg.Apollo.APIKey = apolloKey
	return NewProxy(forwarder, credentials.NewStore(cfg))
}

func TestProxy_InjectsServerKeyForAPIKeyVendor(t *testing.T) {
	doer := devkit.NewFakeDoer(devkit.Script{Body: `{"people":[]}`})
	proxy := newTestProxy(t, doer, "server-key")

	_, err := proxy.Handle(context.Background(), ProxyRequest{
		URL:     "https://api.apollo.io/v1/mixed_people/search",
		Method:  "POST",
		Headers: map[string]string{"x-api-key": "browser-key", "Authorization": "Bearer browser"},
		Body:    []byte(`{"q_keywords":"cto"}`),
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	sent := doer.Last()
	if sent.Header.Get("X-Api-Key") != "server-key" {
		t.Fatalf("expected server key, got %q", sent.Header.Get("X-Api-Key"))
	}
	if sent.Header.Get("Authorization") != "" {
		t.Fatalf("caller authorization must not reach api-key vendors")
	}
}

func TestProxy_MissingAPIKeyIsMissingCredential(t *testing.T) {
	doer := devkit.NewFakeDoer()
	proxy := newTestProxy(t, doer, "")
	_, err := proxy.Handle(context.Background(), ProxyRequest{URL: "https://api.apollo.io/v1/x"})
	if !core.HasTextCode(err, core.ErrorMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if len(doer.Requests()) != 0 {
		t.Fatalf("expected no vendor call")
	}
}

func TestProxy_OAuthVendorRequiresCallerAuthorization(t *testing.T) {
	doer := devkit.NewFakeDoer()
	proxy := newTestProxy(t, doer, "k")

	_, err := proxy.Handle(context.Background(), ProxyRequest{URL: "https://www.zohoapis.com/workdrive/api/v1/users/me"})
	if !core.HasTextCode(err, core.ErrorUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = proxy.Handle(context.Background(), ProxyRequest{
		URL:     "https://www.zohoapis.com/workdrive/api/v1/users/me",
		Headers: map[string]string{"authorization": "1000.raw"},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := doer.Last().Header.Get("Authorization"); got != "Zoho-oauthtoken 1000.raw" {
		t.Fatalf("expected composed zoho header, got %q", got)
	}
}

func TestProxy_ExtraHostPassesCallerAuthorization(t *testing.T) {
	doer := devkit.NewFakeDoer()
	proxy := newTestProxy(t, doer, "k")
	_, err := proxy.Handle(context.Background(), ProxyRequest{
		URL:     "https://files.example.com/report.csv",
		Headers: map[string]string{"Authorization": "Bearer abc"},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := doer.Last().Header.Get("Authorization"); got != "Bearer abc" {
		t.Fatalf("unexpected authorization %q", got)
	}
}
