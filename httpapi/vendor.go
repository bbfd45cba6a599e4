package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/datacenter"
	"github.com/goliatone/go-vendorgate/drive"
	"github.com/goliatone/go-vendorgate/oauth"
	"github.com/goliatone/go-vendorgate/transport"
)

type proxyRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Body    json.RawMessage   `json:"body"`
	Headers map[string]string `json:"headers"`
}

// proxyBody accepts either a JSON string, forwarded as its raw text, or any
// other JSON value, forwarded as encoded.
func proxyBody(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return []byte(text)
		}
	}
	return trimmed
}

func (s *Server) proxy(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if err := decodeJSON(w, r, &req, s.maxBodyBytes); err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.deps.Proxy.Handle(r.Context(), transport.ProxyRequest{
		URL:     req.URL,
		Method:  req.Method,
		Headers: req.Headers,
		Body:    proxyBody(req.Body),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if contentType := transport.HeaderValue(resp.Headers, "Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// driveUpload streams the multipart "content" part straight into the vendor
// request. parent_id comes from the query or from a form field sent before
// the file part.
func (s *Server) driveUpload(w http.ResponseWriter, r *http.Request) {
	token, err := drive.TokenFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, core.BadRequestError("multipart form body is required", nil))
		return
	}
	parentID := strings.TrimSpace(r.URL.Query().Get("parent_id"))
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, core.BadRequestError("file content is required", nil))
			return
		}
		if err != nil {
			writeError(w, core.BadRequestError("malformed multipart body", nil))
			return
		}
		switch part.FormName() {
		case "parent_id":
			value, readErr := io.ReadAll(io.LimitReader(part, 1024))
			_ = part.Close()
			if readErr != nil {
				writeError(w, core.BadRequestError("malformed parent_id field", nil))
				return
			}
			if parentID == "" {
				parentID = strings.TrimSpace(string(value))
			}
		case "content":
			if parentID == "" {
				_ = part.Close()
				writeError(w, core.BadRequestError(
					"parent_id is required: pass it in the query string or as a form field before content", nil))
				return
			}
			result, uploadErr := s.deps.Drive.Upload(r.Context(), drive.UploadRequest{
				ParentID:   parentID,
				Filename:   part.FileName(),
				Content:    part,
				AuthToken:  token,
				Datacenter: s.datacenterFrom(r),
			})
			_ = part.Close()
			if uploadErr != nil {
				writeError(w, uploadErr)
				return
			}
			status := result.StatusCode
			if status == 0 {
				status = http.StatusOK
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			_, _ = w.Write(result.Body)
			return
		default:
			_ = part.Close()
		}
	}
}

func (s *Server) driveDownload(w http.ResponseWriter, r *http.Request) {
	token, err := drive.TokenFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.deps.Drive.Download(r.Context(), drive.DownloadRequest{
		FileID:     r.URL.Query().Get("fileId"),
		AuthToken:  token,
		Datacenter: s.datacenterFrom(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	defer result.Body.Close()

	contentType := result.ContentType
	if _, _, parseErr := mime.ParseMediaType(contentType); contentType == "" || parseErr != nil {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", drive.ContentDisposition(result.Filename))
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, result.Body); err != nil {
		s.ops.Warn(r.Context(), "download stream interrupted", map[string]any{"error": err.Error()})
	}
}

func (s *Server) driveFiles(w http.ResponseWriter, r *http.Request) {
	token, err := drive.TokenFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	folderID := strings.TrimSpace(r.URL.Query().Get("folderId"))
	if folderID == "" {
		account, accountErr := s.deps.Credentials.RequireAccount(false, false, true)
		if accountErr != nil {
			writeError(w, accountErr)
			return
		}
		folderID = account.WorkspaceID
	}
	entries, err := s.deps.Drive.List(r.Context(), drive.ListRequest{
		FolderID:   folderID,
		AuthToken:  token,
		Datacenter: s.datacenterFrom(r),
		Limit:      queryInt(r, "limit", 0),
		Offset:     queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folder_id": folderID, "files": entries})
}

type tokenRequest struct {
	Code         string `json:"code"`
	RefreshToken string `json:"refreshToken"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectUri"`
	Datacenter   string `json:"dc"`
	GrantType    string `json:"grantType"`
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req, s.maxBodyBytes); err != nil {
		writeError(w, err)
		return
	}
	clientID, clientSecret := strings.TrimSpace(req.ClientID), strings.TrimSpace(req.ClientSecret)
	if clientID == "" || clientSecret == "" {
		configuredID, configuredSecret, err := s.deps.Credentials.ClientCredentials(core.VendorAccounts)
		if err != nil {
			writeError(w, err)
			return
		}
		if clientID == "" {
			clientID = configuredID
		}
		if clientSecret == "" {
			clientSecret = configuredSecret
		}
	}
	dc := s.deps.Credentials.Datacenter()
	if code := strings.TrimSpace(req.Datacenter); code != "" {
		dc = datacenter.Normalize(code)
	}

	grantType := strings.TrimSpace(req.GrantType)
	if grantType == "" {
		grantType = oauth.GrantTypeAuthorizationCode
		if strings.TrimSpace(req.Code) == "" && strings.TrimSpace(req.RefreshToken) != "" {
			grantType = oauth.GrantTypeRefreshToken
		}
	}

	var (
		result core.TokenExchangeResult
		err    error
	)
	switch grantType {
	case oauth.GrantTypeAuthorizationCode:
		redirectURI := strings.TrimSpace(req.RedirectURI)
		if redirectURI == "" {
			redirectURI = s.deps.Credentials.RedirectURI()
		}
		result, err = s.deps.OAuth.ExchangeAuthorizationCode(r.Context(), oauth.AuthorizationCodeGrant{
			Code:         req.Code,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURI:  redirectURI,
			Datacenter:   dc,
		})
	case oauth.GrantTypeRefreshToken:
		refreshToken := strings.TrimSpace(req.RefreshToken)
		if refreshToken == "" {
			refreshToken, err = s.deps.Credentials.RefreshToken()
			if err != nil {
				writeError(w, err)
				return
			}
		}
		result, err = s.deps.OAuth.RefreshAccessToken(r.Context(), oauth.RefreshGrant{
			RefreshToken: refreshToken,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Datacenter:   dc,
		})
	default:
		err = core.BadRequestError("grantType is not supported", map[string]any{"grant_type": grantType})
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) authorizeURL(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	clientID := strings.TrimSpace(s.deps.Config.Zoho.ClientID)
	if clientID == "" {
		writeError(w, core.MissingCredentialError(core.VendorAccounts, core.EnvZohoClientID))
		return
	}
	redirectURI := strings.TrimSpace(query.Get("redirect_uri"))
	if redirectURI == "" {
		redirectURI = s.deps.Credentials.RedirectURI()
	}
	scopes := s.deps.Config.Zoho.Scopes
	if raw := strings.TrimSpace(query.Get("scope")); raw != "" {
		scopes = strings.Split(raw, ",")
	}
	consentURL, err := s.deps.OAuth.AuthorizationURL(oauth.ConsentRequest{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scopes:      scopes,
		State:       query.Get("state"),
		Datacenter:  s.datacenterFrom(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": consentURL})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
