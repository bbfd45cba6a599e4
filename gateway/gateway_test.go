package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	gocommandadapter "github.com/goliatone/go-vendorgate/adapters/gocommand"
	"github.com/goliatone/go-vendorgate/command"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/devkit"
	"github.com/goliatone/go-vendorgate/query"
)

func testConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Database.DSN = fmt.Sprintf(
		"file:vendorgate-gw-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	cfg.Apollo.APIKey = "server-key"
	cfg.Throttle.RequestsPerSecond = 0
	return cfg
}

func newTestGateway(t *testing.T, doer core.HTTPDoer, opts ...Option) *Gateway {
	t.Helper()
	ctx := context.Background()
	gw, err := New(ctx, testConfig(), append([]Option{WithHTTPClient(doer)}, opts...)...)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	if err := gw.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gw
}

func serve(gw *Gateway, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "oracle"
	if _, err := New(context.Background(), cfg); !core.HasTextCode(err, core.ErrorBadRequest) {
		t.Fatalf("expected bad request for unsupported driver, got %v", err)
	}
}

func TestGateway_SavesAndListsLeads(t *testing.T) {
	gw := newTestGateway(t, devkit.NewFakeDoer())

	rec := serve(gw, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthy gateway, got %d", rec.Code)
	}

	rec = serve(gw, http.MethodPost, "/leads", `{"lead":{"id":"p-1","source":"apollo","name":"Ada Lovelace","email":"ada@example.com"},"notes":"met at expo"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(gw, http.MethodGet, "/leads", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page core.SavedLeadPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode leads: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Lead.Name != "Ada Lovelace" || page.Items[0].Notes != "met at expo" {
		t.Fatalf("unexpected leads page %+v", page)
	}
}

func TestGateway_RecordsProxyActivity(t *testing.T) {
	doer := devkit.NewFakeDoer(devkit.Script{
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   `{"people":[]}`,
	})
	gw := newTestGateway(t, doer)

	rec := serve(gw, http.MethodPost, "/proxy", `{"url":"https://api.apollo.io/api/v1/mixed_people/search?api_key=leak","method":"POST","body":{}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected proxied 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := doer.Last().Header.Get("X-Api-Key"); got != "server-key" {
		t.Fatalf("expected server key on vendor request, got %q", got)
	}

	page, err := gw.Stores().ActivityStore().ListActivity(context.Background(), core.ActivityFilter{Vendor: core.VendorApollo})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one activity row, got %d", len(page.Items))
	}
	entry := page.Items[0]
	if entry.Outcome != core.ActivityOutcomeSuccess || entry.StatusCode != http.StatusOK {
		t.Fatalf("unexpected activity row %+v", entry)
	}
	if bytes.Contains([]byte(entry.Path), []byte("leak")) {
		t.Fatalf("expected query string to be dropped from activity path, got %q", entry.Path)
	}
}

func TestGateway_ExchangedTokenAuthorizesProxiedDriveCall(t *testing.T) {
	const folderBody = `{"data":[{"id":"f-1","type":"files","attributes":{"name":"deck.pdf"}}]}`
	var tokenForm url.Values
	var driveAuth string
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/accounts/oauth/v2/token":
			_ = r.ParseForm()
			tokenForm = r.Form
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"1000.exchanged","refresh_token":"1000.refresh","expires_in":3600,"api_domain":"https://www.zohoapis.com","token_type":"Bearer"}`))
		case strings.HasPrefix(r.URL.Path, "/workdrive/api/v1/files/"):
			driveAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/vnd.api+json")
			_, _ = w.Write([]byte(folderBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer vendor.Close()

	gw := newTestGateway(t, vendor.Client(), WithVendorOverrides(map[core.Vendor]string{
		core.VendorAccounts:  vendor.URL + "/accounts",
		core.VendorWorkDrive: vendor.URL + "/workdrive/api/v1",
	}))

	rec := serve(gw, http.MethodPost, "/token", `{"code":"1000.grant","clientId":"cid","clientSecret":"csecret","redirectUri":"https://app.example.com/callback"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected token exchange 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var exchanged core.TokenExchangeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &exchanged); err != nil {
		t.Fatalf("decode token result: %v", err)
	}
	if exchanged.AccessToken != "1000.exchanged" {
		t.Fatalf("unexpected access token %q", exchanged.AccessToken)
	}
	if tokenForm.Get("grant_type") != "authorization_code" || tokenForm.Get("code") != "1000.grant" {
		t.Fatalf("unexpected token request %v", tokenForm)
	}

	proxyBody, err := json.Marshal(map[string]any{
		"url":     vendor.URL + "/workdrive/api/v1/files/folder-1/files",
		"method":  "GET",
		"headers": map[string]string{"Authorization": exchanged.AccessToken},
	})
	if err != nil {
		t.Fatalf("encode proxy body: %v", err)
	}
	rec = serve(gw, http.MethodPost, "/proxy", string(proxyBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected proxied 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if driveAuth != "Zoho-oauthtoken 1000.exchanged" {
		t.Fatalf("expected exchanged token on drive call, got %q", driveAuth)
	}
	if rec.Body.String() != folderBody {
		t.Fatalf("expected vendor body verbatim, got %s", rec.Body.String())
	}
}

func TestGateway_ResponseLimitIsSeparateFromRequestLimit(t *testing.T) {
	doer := devkit.NewFakeDoer(devkit.Script{
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   `{"people":[{"id":"p-1","name":"Ada Lovelace"}]}`,
	})
	cfg := testConfig()
	cfg.HTTP.MaxResponseBytes = 16
	gw, err := New(context.Background(), cfg, WithHTTPClient(doer))
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	if err := gw.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rec := serve(gw, http.MethodPost, "/proxy", `{"url":"https://api.apollo.io/api/v1/mixed_people/search","method":"POST","body":{"q_keywords":"a request body well over sixteen bytes"}}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for oversized vendor response, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "exceeds 16 bytes") {
		t.Fatalf("expected response limit in error body, got %s", rec.Body.String())
	}
	if len(doer.Requests()) != 1 {
		t.Fatalf("expected request body under the inbound limit to reach the vendor")
	}
}

func TestGateway_BusReachesSQLStores(t *testing.T) {
	_ = newTestGateway(t, devkit.NewFakeDoer())

	collector := gocmd.NewResult[core.SavedCompany]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	msg := command.SaveCompanyMessage{Input: core.SaveCompanyInput{Company: core.NormalizedCompany{Name: "Acme", Domain: "acme.test"}}}
	if err := gocommandadapter.Dispatch(ctx, msg); err != nil {
		t.Fatalf("dispatch save company: %v", err)
	}
	saved, ok := collector.Load()
	if !ok || saved.ID == "" {
		t.Fatalf("expected stored company, got %+v", saved)
	}

	got, err := gocommandadapter.Query[query.GetCompanyMessage, core.SavedCompany](context.Background(), query.GetCompanyMessage{ID: saved.ID})
	if err != nil {
		t.Fatalf("query company: %v", err)
	}
	if got.Company.Domain != "acme.test" {
		t.Fatalf("unexpected company %+v", got)
	}
}

func TestGateway_AssistantWithoutKeyReportsMissingCredential(t *testing.T) {
	gw := newTestGateway(t, devkit.NewFakeDoer())

	rec := serve(gw, http.MethodPost, "/assistant/chat", `{"message":"who should I call?"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(core.EnvAssistantAPIKey)) {
		t.Fatalf("expected error to name %s, got %s", core.EnvAssistantAPIKey, rec.Body.String())
	}
}
