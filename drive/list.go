package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/oauth"
)

// List returns one page of a folder's children through the JSON:API.
func (s *Service) List(ctx context.Context, req ListRequest) (entries []FileEntry, err error) {
	startedAt := time.Now()
	var target *url.URL
	status := 0
	defer func() {
		s.finish(ctx, startedAt, "drive list", core.VendorWorkDrive, http.MethodGet, target, status, err)
	}()

	token := oauth.StripScheme(req.AuthToken)
	if token == "" {
		return nil, core.UnauthorizedError("authorization token is required")
	}
	folderID, err := validateID("folderId", req.FolderID)
	if err != nil {
		return nil, err
	}
	base, err := s.router.ResolveBaseURL(core.VendorWorkDrive, req.Datacenter)
	if err != nil {
		return nil, err
	}
	target, err = url.Parse(base + "/files/" + url.PathEscape(folderID) + "/files")
	if err != nil {
		return nil, core.InternalError("build list url", err)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	query := target.Query()
	query.Set("page[limit]", strconv.Itoa(limit))
	query.Set("page[offset]", strconv.Itoa(offset))
	target.RawQuery = query.Encode()

	requestCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, core.InternalError("build list request", err)
	}
	httpReq.Header.Set("Accept", workDriveJSONMediaType)
	oauth.SetAuthorization(httpReq, token)

	httpRes, err := s.client.Do(httpReq)
	if err != nil {
		return nil, core.UpstreamUnreachableError(core.VendorWorkDrive, err)
	}
	defer httpRes.Body.Close()
	status = httpRes.StatusCode

	body, err := io.ReadAll(io.LimitReader(httpRes.Body, maxListingBodyBytes))
	if err != nil {
		return nil, core.UpstreamUnreachableError(core.VendorWorkDrive, err)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, core.VendorRejectedError(core.VendorWorkDrive, status, body, httpRes.Header.Get("Content-Type"))
	}
	return parseListing(body)
}

type listingDocument struct {
	Data []struct {
		ID         string         `json:"id"`
		Type       string         `json:"type"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
}

func parseListing(body []byte) ([]FileEntry, error) {
	var doc listingDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, core.VendorRejectedError(core.VendorWorkDrive, http.StatusBadGateway, body, workDriveJSONMediaType)
	}
	entries := make([]FileEntry, 0, len(doc.Data))
	for _, item := range doc.Data {
		attrs := item.Attributes
		entry := FileEntry{
			ID:        item.ID,
			Name:      attrString(attrs, "name", "display_attr_name"),
			Type:      attrString(attrs, "type"),
			Extension: attrString(attrs, "extn"),
			Permalink: attrString(attrs, "permalink"),
		}
		if folder, ok := attrs["is_folder"].(bool); ok {
			entry.IsFolder = folder
		} else {
			entry.IsFolder = entry.Type == "folder"
		}
		if storage, ok := attrs["storage_info"].(map[string]any); ok {
			if size, ok := attrInt(storage["size_in_bytes"]); ok {
				entry.SizeBytes = &size
			}
		}
		if millis, ok := attrInt(attrs["modified_time_in_millisecond"]); ok && millis > 0 {
			modified := time.UnixMilli(millis).UTC()
			entry.ModifiedAt = &modified
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func attrString(attrs map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := attrs[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func attrInt(value any) (int64, bool) {
	switch typed := value.(type) {
	case float64:
		return int64(typed), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// jsonOrString keeps a JSON vendor body as-is and quotes anything else.
func jsonOrString(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return json.RawMessage(quoted)
}
