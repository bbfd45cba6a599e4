// Package drive streams file uploads and downloads between the caller and
// the document storage vendor without buffering file content.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/oauth"
)

const (
	defaultFilename        = "download"
	defaultUploadName      = "upload"
	maxErrorBodyBytes      = 1 << 20 // 1 MiB
	maxListingBodyBytes    = 10 << 20
	defaultListLimit       = 50
	maxListLimit           = 200
	workDriveJSONMediaType = "application/vnd.api+json"
)

var errUploadDone = errors.New("drive: upload finished")

type UploadRequest struct {
	ParentID   string
	Filename   string
	Content    io.Reader
	AuthToken  string
	Datacenter core.Datacenter
}

type DownloadRequest struct {
	FileID     string
	AuthToken  string
	Datacenter core.Datacenter
}

type ListRequest struct {
	FolderID   string
	AuthToken  string
	Datacenter core.Datacenter
	Limit      int
	Offset     int
}

type FileEntry struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Extension  string     `json:"extension"`
	IsFolder   bool       `json:"is_folder"`
	SizeBytes  *int64     `json:"size_bytes"`
	ModifiedAt *time.Time `json:"modified_at"`
	Permalink  string     `json:"permalink"`
}

type ServiceConfig struct {
	Router          core.BaseURLResolver
	HTTPClient      core.HTTPDoer
	RequestTimeout  time.Duration
	TransferTimeout time.Duration
	Activity        core.ActivityRecorder
	Logger          core.Logger
}

type Service struct {
	router          core.BaseURLResolver
	client          core.HTTPDoer
	requestTimeout  time.Duration
	transferTimeout time.Duration
	activity        core.ActivityRecorder
	ops             core.OperationLogger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Router == nil {
		return nil, fmt.Errorf("drive: router is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = core.DefaultRequestTimeout
	}
	transferTimeout := cfg.TransferTimeout
	if transferTimeout <= 0 {
		transferTimeout = core.DefaultTransferTimeout
	}
	activity := cfg.Activity
	if activity == nil {
		activity = core.NopActivityRecorder{}
	}
	return &Service{
		router:          cfg.Router,
		client:          client,
		requestTimeout:  requestTimeout,
		transferTimeout: transferTimeout,
		activity:        activity,
		ops:             core.NewOperationLogger(cfg.Logger),
	}, nil
}

// Upload streams req.Content as a multipart body. The outbound Content-Type
// always comes from the multipart writer so the boundary matches.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (result core.UploadResult, err error) {
	startedAt := time.Now()
	var target *url.URL
	defer func() {
		s.finish(ctx, startedAt, "drive upload", core.VendorWorkDrive, http.MethodPost, target, result.StatusCode, err)
	}()

	token := oauth.StripScheme(req.AuthToken)
	if token == "" {
		return core.UploadResult{}, core.UnauthorizedError("authorization token is required")
	}
	parentID := strings.TrimSpace(req.ParentID)
	if parentID == "" {
		return core.UploadResult{}, core.BadRequestError("parent_id is required", nil)
	}
	if req.Content == nil {
		return core.UploadResult{}, core.BadRequestError("file content is required", nil)
	}
	filename := sanitizeFilename(req.Filename, defaultUploadName)

	base, err := s.router.ResolveBaseURL(core.VendorWorkDrive, req.Datacenter)
	if err != nil {
		return core.UploadResult{}, err
	}
	target, err = url.Parse(base + "/upload")
	if err != nil {
		return core.UploadResult{}, core.InternalError("build upload url", err)
	}
	query := target.Query()
	query.Set("parent_id", parentID)
	query.Set("override-name-exist", "true")
	target.RawQuery = query.Encode()

	transferCtx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	written := make(chan struct{})
	go func() {
		defer close(written)
		pw.CloseWithError(writeMultipart(writer, parentID, filename, req.Content))
	}()
	// req.Content belongs to the caller once Upload returns, so the writer
	// must be stopped and drained first.
	defer func() {
		_ = pr.CloseWithError(errUploadDone)
		<-written
	}()

	httpReq, err := http.NewRequestWithContext(transferCtx, http.MethodPost, target.String(), pr)
	if err != nil {
		return core.UploadResult{}, core.InternalError("build upload request", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	oauth.SetAuthorization(httpReq, token)

	httpRes, err := s.client.Do(httpReq)
	if err != nil {
		return core.UploadResult{}, core.UpstreamUnreachableError(core.VendorWorkDrive, err)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpRes.Body, maxErrorBodyBytes))
	if err != nil {
		return core.UploadResult{}, core.UpstreamUnreachableError(core.VendorWorkDrive, err)
	}
	if httpRes.StatusCode < http.StatusOK || httpRes.StatusCode >= http.StatusMultipleChoices {
		return core.UploadResult{StatusCode: httpRes.StatusCode},
			core.VendorRejectedError(core.VendorWorkDrive, httpRes.StatusCode, body, httpRes.Header.Get("Content-Type"))
	}
	return core.UploadResult{StatusCode: httpRes.StatusCode, Body: jsonOrString(body)}, nil
}

func writeMultipart(writer *multipart.Writer, parentID, filename string, content io.Reader) error {
	if err := writer.WriteField("parent_id", parentID); err != nil {
		return err
	}
	if err := writer.WriteField("override-name-exist", "true"); err != nil {
		return err
	}
	part, err := writer.CreateFormFile("content", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return writer.Close()
}

// Download returns the vendor body as a stream. The caller must close
// result.Body; closing it releases the transfer context.
func (s *Service) Download(ctx context.Context, req DownloadRequest) (result *core.DownloadResult, err error) {
	startedAt := time.Now()
	var target *url.URL
	status := 0
	defer func() {
		s.finish(ctx, startedAt, "drive download", core.VendorWorkDriveDownload, http.MethodGet, target, status, err)
	}()

	token := oauth.StripScheme(req.AuthToken)
	if token == "" {
		return nil, core.UnauthorizedError("authorization token is required")
	}
	fileID, err := validateID("fileId", req.FileID)
	if err != nil {
		return nil, err
	}
	base, err := s.router.ResolveBaseURL(core.VendorWorkDriveDownload, req.Datacenter)
	if err != nil {
		return nil, err
	}
	target, err = url.Parse(base + "/download/" + url.PathEscape(fileID))
	if err != nil {
		return nil, core.InternalError("build download url", err)
	}

	transferCtx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	httpReq, err := http.NewRequestWithContext(transferCtx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		cancel()
		return nil, core.InternalError("build download request", err)
	}
	oauth.SetAuthorization(httpReq, token)

	httpRes, err := s.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, core.UpstreamUnreachableError(core.VendorWorkDriveDownload, err)
	}
	status = httpRes.StatusCode
	if httpRes.StatusCode < http.StatusOK || httpRes.StatusCode >= http.StatusMultipleChoices {
		defer cancel()
		defer httpRes.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(httpRes.Body, maxErrorBodyBytes))
		return nil, core.VendorRejectedError(core.VendorWorkDriveDownload, httpRes.StatusCode, body, httpRes.Header.Get("Content-Type"))
	}

	contentType := strings.TrimSpace(httpRes.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &core.DownloadResult{
		Body:          &cancelOnClose{ReadCloser: httpRes.Body, cancel: cancel},
		Filename:      FilenameFromDisposition(httpRes.Header.Get("Content-Disposition")),
		ContentType:   contentType,
		ContentLength: httpRes.ContentLength,
	}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// FilenameFromDisposition extracts a safe filename, defaulting to "download".
func FilenameFromDisposition(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultFilename
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return defaultFilename
	}
	return sanitizeFilename(params["filename"], defaultFilename)
}

func sanitizeFilename(name string, fallback string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return fallback
	}
	return name
}

func validateID(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", core.BadRequestError(field+" is required", nil)
	}
	if strings.ContainsAny(value, "/\\?#") || strings.Contains(value, "..") {
		return "", core.BadRequestError(field+" is not valid", nil)
	}
	return value, nil
}

func (s *Service) finish(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	vendor core.Vendor,
	method string,
	target *url.URL,
	status int,
	err error,
) {
	fields := map[string]any{"vendor": string(vendor), "method": method, "status_code": status}
	if target != nil {
		fields["host"] = target.Hostname()
	}
	s.ops.Observe(ctx, startedAt, operation, err, fields)
	if target == nil {
		return
	}
	outcome := core.ActivityOutcomeSuccess
	textCode := ""
	if err != nil {
		textCode = core.MapError(err).TextCode
		outcome = core.ActivityOutcomeRejected
		if textCode == core.ErrorUpstreamUnreachable {
			outcome = core.ActivityOutcomeUnreachable
		}
	}
	entry := core.ActivityEntry{
		Vendor:     vendor,
		Operation:  strings.ReplaceAll(operation, " ", "_"),
		Method:     method,
		Host:       target.Hostname(),
		Path:       target.Path,
		StatusCode: status,
		Outcome:    outcome,
		Duration:   time.Since(startedAt),
		TextCode:   textCode,
		OccurredAt: startedAt.UTC(),
	}
	if recordErr := s.activity.Record(context.WithoutCancel(ctx), entry); recordErr != nil {
		s.ops.Warn(ctx, "activity record failed", map[string]any{"error": recordErr.Error()})
	}
}
