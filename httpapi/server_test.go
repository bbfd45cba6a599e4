package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/credentials"
	"github.com/goliatone/go-vendorgate/datacenter"
	"github.com/goliatone/go-vendorgate/devkit"
	"github.com/goliatone/go-vendorgate/drive"
	"github.com/goliatone/go-vendorgate/oauth"
	"github.com/goliatone/go-vendorgate/search"
	"github.com/goliatone/go-vendorgate/transport"
)

type testEnv struct {
	handler http.Handler
	doer    *devkit.FakeDoer
	leads   *memoryLeads
}

func testConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Apollo.APIKey = "server-key"
	cfg.Zoho.ClientID = "cfg-client"
	cfg.Zoho.ClientSecret = "cfg-secret"
	cfg.Zoho.RedirectURI = "https://app.example.com/callback"
	cfg.Zoho.WorkspaceID = "ws-1"
	return cfg
}

func newTestEnv(t *testing.T, cfg core.Config, scripts ...devkit.Script) testEnv {
	t.Helper()
	doer := devkit.NewFakeDoer(scripts...)
	router := datacenter.NewRouter()
	store := credentials.NewStore(cfg)

	forwarder, err := transport.NewForwarder(transport.ForwarderConfig{
		HTTPClient: doer,
		AllowList:  transport.NewAllowList(router.Hosts()),
		Resolver:   router,
	})
	require.NoError(t, err)
	proxy := transport.NewProxy(forwarder, store)

	driveSvc, err := drive.NewService(drive.ServiceConfig{Router: router, HTTPClient: doer})
	require.NoError(t, err)
	manager, err := oauth.NewManager(oauth.ManagerConfig{Router: router, HTTPClient: doer})
	require.NoError(t, err)
	searchSvc, err := search.NewService(search.ServiceConfig{Router: router, Caller: proxy})
	require.NoError(t, err)

	leads := &memoryLeads{items: map[string]core.SavedLead{}}
	server, err := NewServer(Dependencies{
		Config:      cfg,
		Credentials: store,
		Proxy:       proxy,
		Drive:       driveSvc,
		OAuth:       manager,
		Search:      searchSvc,
		Leads:       leads,
		Activity:    &memoryActivity{},
	})
	require.NoError(t, err)
	return testEnv{handler: server.Handler(), doer: doer, leads: leads}
}

func (e testEnv) do(method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for key, value := range header {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestProxy_AttachesServerKeyAndRelaysBody(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   `{"people":[]}`,
	})
	payload := `{"url":"https://api.apollo.io/api/v1/mixed_people/search","method":"post","body":{"q_keywords":"cto"},
		"headers":{"X-Api-Key":"caller-key","Content-Type":"application/json"}}`

	rec := env.do(http.MethodPost, "/proxy", []byte(payload), map[string]string{"Content-Type": "application/json"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"people":[]}`, rec.Body.String())
	sent := env.doer.Last()
	assert.Equal(t, http.MethodPost, sent.Method)
	assert.Equal(t, "server-key", sent.Header.Get("X-Api-Key"))
	assert.JSONEq(t, `{"q_keywords":"cto"}`, string(sent.Body))
}

func TestProxy_StringBodyIsForwardedRaw(t *testing.T) {
	env := newTestEnv(t, testConfig())
	payload := `{"url":"https://www.zohoapis.com/creator/v2.1/data/acme/app/form/Leads","method":"POST",
		"body":"{\"data\":{\"Name\":\"Ada\"}}","headers":{"Authorization":"1000.tok"}}`

	rec := env.do(http.MethodPost, "/proxy", []byte(payload), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	sent := env.doer.Last()
	assert.Equal(t, `{"data":{"Name":"Ada"}}`, string(sent.Body))
	assert.Equal(t, "Zoho-oauthtoken 1000.tok", sent.Header.Get("Authorization"))
}

func TestProxy_RejectsBeforeNetwork(t *testing.T) {
	env := newTestEnv(t, testConfig())

	missing := env.do(http.MethodPost, "/proxy", []byte(`{"method":"GET"}`), nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, core.ErrorBadRequest, decodeError(t, missing).TextCode)

	foreign := env.do(http.MethodPost, "/proxy", []byte(`{"url":"https://evil.example.com/x"}`), nil)
	assert.Equal(t, http.StatusBadRequest, foreign.Code)

	noAuth := env.do(http.MethodPost, "/proxy", []byte(`{"url":"https://www.zohoapis.com/workdrive/api/v1/files/x"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, noAuth.Code)
	assert.Equal(t, core.ErrorUnauthorized, decodeError(t, noAuth).TextCode)

	malformed := env.do(http.MethodPost, "/proxy", []byte(`{"url":`), nil)
	assert.Equal(t, http.StatusBadRequest, malformed.Code)

	assert.Empty(t, env.doer.Requests())
}

func TestProxy_RelaysVendorErrorVerbatim(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Status: http.StatusNotFound,
		Header: map[string]string{"Content-Type": "application/vnd.api+json"},
		Body:   `{"errors":[{"id":"R008","title":"missing"}]}`,
	})
	payload := `{"url":"https://www.zohoapis.com/workdrive/api/v1/files/missing","headers":{"Authorization":"Zoho-oauthtoken 1000.tok"}}`

	rec := env.do(http.MethodPost, "/proxy", []byte(payload), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/vnd.api+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"errors":[{"id":"R008","title":"missing"}]}`, rec.Body.String())
}

func TestProxy_MissingAPIKeyNamesVariable(t *testing.T) {
	cfg := testConfig()
	cfg.Apollo.APIKey = ""
	env := newTestEnv(t, cfg)

	rec := env.do(http.MethodPost, "/proxy", []byte(`{"url":"https://api.apollo.io/api/v1/auth/health"}`), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decodeError(t, rec)
	assert.Equal(t, core.ErrorMissingCredential, out.TextCode)
	assert.Contains(t, out.Error, core.EnvApolloAPIKey)
}

func TestToken_ExchangesCodeWithConfiguredClient(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   `{"access_token":"1000.new","refresh_token":"1000.refresh","expires_in":3600,"api_domain":"https://www.zohoapis.eu"}`,
	})

	rec := env.do(http.MethodPost, "/token", []byte(`{"code":"1000.code","dc":"eu"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "1000.new", out["access_token"])
	assert.Equal(t, "1000.refresh", out["refresh_token"])

	sent, err := url.Parse(env.doer.Last().URL)
	require.NoError(t, err)
	assert.Equal(t, "accounts.zoho.eu", sent.Host)
	assert.Equal(t, "cfg-client", sent.Query().Get("client_id"))
	assert.Equal(t, "https://app.example.com/callback", sent.Query().Get("redirect_uri"))
	assert.Equal(t, oauth.GrantTypeAuthorizationCode, sent.Query().Get("grant_type"))
}

func TestToken_RefreshUsesCallerToken(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   `{"access_token":"1000.next","expires_in":3600}`,
	})

	rec := env.do(http.MethodPost, "/token", []byte(`{"refreshToken":"1000.rt","clientId":"caller-client"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refresh_token")
	sent, err := url.Parse(env.doer.Last().URL)
	require.NoError(t, err)
	assert.Equal(t, oauth.GrantTypeRefreshToken, sent.Query().Get("grant_type"))
	assert.Equal(t, "caller-client", sent.Query().Get("client_id"))
	assert.Equal(t, "cfg-secret", sent.Query().Get("client_secret"))
}

func TestToken_InvalidGrantRelaysVendorError(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   `{"error":"invalid_code"}`,
	})

	rec := env.do(http.MethodPost, "/token", []byte(`{"code":"stale"}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_code"}`, rec.Body.String())
}

func TestToken_MissingClientConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.Zoho.ClientID = ""
	env := newTestEnv(t, cfg)

	rec := env.do(http.MethodPost, "/token", []byte(`{"code":"1000.code"}`), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decodeError(t, rec)
	assert.Equal(t, core.ErrorMissingCredential, out.TextCode)
	assert.Contains(t, out.Error, core.EnvZohoClientID)
	assert.Empty(t, env.doer.Requests())
}

func TestAuthorizeURL(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(http.MethodGet, "/oauth/authorize-url?dc=eu&state=xyz&scope=WorkDrive.files.ALL", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	consent, err := url.Parse(out["url"])
	require.NoError(t, err)
	assert.Equal(t, "accounts.zoho.eu", consent.Host)
	assert.Equal(t, "cfg-client", consent.Query().Get("client_id"))
	assert.Equal(t, "xyz", consent.Query().Get("state"))
	assert.Equal(t, "WorkDrive.files.ALL", consent.Query().Get("scope"))
	assert.Equal(t, "offline", consent.Query().Get("access_type"))
}

func TestDriveUpload_StreamsFilePart(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   `{"data":[{"attributes":{"resource_id":"f1"}}]}`,
	})
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("parent_id", "folder-9"))
	part, err := writer.CreateFormFile("content", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hello drive"))
	require.NoError(t, writer.Close())

	rec := env.do(http.MethodPost, "/drive/upload?dc=in", body.Bytes(), map[string]string{
		"Content-Type":  writer.FormDataContentType(),
		"Authorization": "Zoho-oauthtoken 1000.tok",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "f1")
	sent, err := url.Parse(env.doer.Last().URL)
	require.NoError(t, err)
	assert.Equal(t, "www.zohoapis.in", sent.Host)
	assert.Equal(t, "folder-9", sent.Query().Get("parent_id"))
	assert.Contains(t, string(env.doer.Last().Body), "hello drive")
}

func TestDriveUpload_Validation(t *testing.T) {
	env := newTestEnv(t, testConfig())

	noToken := env.do(http.MethodPost, "/drive/upload", []byte("x"), map[string]string{"Content-Type": "multipart/form-data; boundary=x"})
	assert.Equal(t, http.StatusUnauthorized, noToken.Code)

	notMultipart := env.do(http.MethodPost, "/drive/upload", []byte("{}"), map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "1000.tok",
	})
	assert.Equal(t, http.StatusBadRequest, notMultipart.Code)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("parent_id", "folder-9"))
	require.NoError(t, writer.Close())
	noContent := env.do(http.MethodPost, "/drive/upload", body.Bytes(), map[string]string{
		"Content-Type":  writer.FormDataContentType(),
		"Authorization": "1000.tok",
	})
	assert.Equal(t, http.StatusBadRequest, noContent.Code)
	assert.Empty(t, env.doer.Requests())
}

func TestDriveUpload_ParentIDAfterContentExplainsFieldOrder(t *testing.T) {
	env := newTestEnv(t, testConfig())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("content", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hello drive"))
	require.NoError(t, writer.WriteField("parent_id", "folder-9"))
	require.NoError(t, writer.Close())

	rec := env.do(http.MethodPost, "/drive/upload", body.Bytes(), map[string]string{
		"Content-Type":  writer.FormDataContentType(),
		"Authorization": "1000.tok",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "before content")
	assert.Contains(t, rec.Body.String(), "query string")
	assert.Empty(t, env.doer.Requests())
}

func TestDriveDownload_StreamsWithFilename(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Header: map[string]string{
			"Content-Type":        "application/pdf",
			"Content-Disposition": `attachment; filename="Q3 report.pdf"`,
		},
		Body: "%PDF-1.7 fake",
	})

	rec := env.do(http.MethodGet, "/drive/download?fileId=abc123&token=1000.tok", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Q3 report.pdf")
	assert.Equal(t, "%PDF-1.7 fake", rec.Body.String())
	assert.Equal(t, "https://download.zoho.com/v1/workdrive/download/abc123", env.doer.Last().URL)
}

func TestDriveDownload_MissingFileID(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(http.MethodGet, "/drive/download?token=1000.tok", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.doer.Requests())
}

func TestDriveFiles_FallsBackToWorkspace(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Header: map[string]string{"Content-Type": "application/vnd.api+json"},
		Body:   `{"data":[{"id":"f1","type":"files","attributes":{"name":"a.txt","is_folder":false}}]}`,
	})

	rec := env.do(http.MethodGet, "/drive/files", nil, map[string]string{"Authorization": "Zoho-oauthtoken 1000.tok"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"folder_id":"ws-1"`)
	sent, err := url.Parse(env.doer.Last().URL)
	require.NoError(t, err)
	assert.Equal(t, "/workdrive/api/v1/files/ws-1/files", sent.Path)
}

func TestSearchPeople(t *testing.T) {
	env := newTestEnv(t, testConfig(), devkit.Script{
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   `{"people":[{"id":"p1","first_name":"Ada","last_name":"Lovelace"}]}`,
	})

	rec := env.do(http.MethodPost, "/search/people", []byte(`{"q_keywords":"engines"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Ada Lovelace"`)
	assert.Equal(t, "https://api.apollo.io/api/v1/mixed_people/search", env.doer.Last().URL)
}

func TestLeads_SaveListDelete(t *testing.T) {
	env := newTestEnv(t, testConfig())

	created := env.do(http.MethodPost, "/leads", []byte(`{"lead":{"id":"p1","name":"Ada Lovelace","email":"ada@x.com"},"notes":"hot"}`), nil)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var saved core.SavedLead
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &saved))
	assert.Equal(t, "hot", saved.Notes)

	list := env.do(http.MethodGet, "/leads?q=ada&page=1&per_page=10", nil, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var page core.SavedLeadPage
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ada", env.leads.lastFilter.Query)

	got := env.do(http.MethodGet, "/leads/"+saved.ID, nil, nil)
	assert.Equal(t, http.StatusOK, got.Code)

	deleted := env.do(http.MethodDelete, "/leads/"+saved.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, deleted.Code)

	missing := env.do(http.MethodDelete, "/leads/"+saved.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, core.ErrorNotFound, decodeError(t, missing).TextCode)
}

func TestLeads_Validation(t *testing.T) {
	env := newTestEnv(t, testConfig())

	empty := env.do(http.MethodPost, "/leads", []byte(`{"lead":{"name":"N/A"}}`), nil)
	assert.Equal(t, http.StatusBadRequest, empty.Code)

	negative := env.do(http.MethodGet, "/leads?page=-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, negative.Code)
}

func TestCompanies_NotConfigured(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(http.MethodGet, "/companies", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred", decodeError(t, rec).Error)
}

func TestActivity_ParsesFilter(t *testing.T) {
	env := newTestEnv(t, testConfig())

	bad := env.do(http.MethodGet, "/activity?from=yesterday", nil, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	unknown := env.do(http.MethodGet, "/activity?vendor=salesforce", nil, nil)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)

	ok := env.do(http.MethodGet, "/activity?vendor=Apollo&outcome=rejected&from=2026-01-01T00:00:00Z", nil, nil)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestAssistant_NotConfiguredIsMissingCredential(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(http.MethodPost, "/assistant/chat", []byte(`{"message":"hi"}`), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decodeError(t, rec)
	assert.Equal(t, core.ErrorMissingCredential, out.TextCode)
	assert.Contains(t, out.Error, core.EnvAssistantAPIKey)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, core.ErrorNotFound, decodeError(t, rec).TextCode)
}

func TestProxyBody(t *testing.T) {
	assert.Nil(t, proxyBody(nil))
	assert.Nil(t, proxyBody(json.RawMessage(" null ")))
	assert.Equal(t, "plain text", string(proxyBody(json.RawMessage(`"plain text"`))))
	assert.Equal(t, `{"a":1}`, string(proxyBody(json.RawMessage(`{"a":1}`))))
}

type memoryLeads struct {
	mu         sync.Mutex
	items      map[string]core.SavedLead
	lastFilter core.RecordFilter
}

func (m *memoryLeads) SaveLead(_ context.Context, in core.SaveLeadInput) (core.SavedLead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := core.SavedLead{ID: "lead-" + in.Lead.ID, Source: "apollo", ExternalID: in.Lead.ID, Lead: in.Lead, Notes: in.Notes}
	m.items[saved.ID] = saved
	return saved, nil
}

func (m *memoryLeads) GetLead(_ context.Context, id string) (core.SavedLead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved, ok := m.items[id]
	if !ok {
		return core.SavedLead{}, core.NotFoundError("lead not found", map[string]any{"id": id})
	}
	return saved, nil
}

func (m *memoryLeads) ListLeads(_ context.Context, filter core.RecordFilter) (core.SavedLeadPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	page := core.SavedLeadPage{}
	for _, item := range m.items {
		if strings.Contains(strings.ToLower(item.Lead.Name), strings.ToLower(filter.Query)) {
			page.Items = append(page.Items, item)
		}
	}
	page.Pagination = core.NewPagination(1, 10, len(page.Items))
	return page, nil
}

func (m *memoryLeads) DeleteLead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return core.NotFoundError("lead not found", map[string]any{"id": id})
	}
	delete(m.items, id)
	return nil
}

type memoryActivity struct{}

func (memoryActivity) Record(context.Context, core.ActivityEntry) error { return nil }

func (memoryActivity) ListActivity(context.Context, core.ActivityFilter) (core.ActivityPage, error) {
	return core.ActivityPage{Items: []core.ActivityRecord{}}, nil
}

func (memoryActivity) Prune(context.Context, core.ActivityRetentionPolicy) (int, error) {
	return 0, nil
}
