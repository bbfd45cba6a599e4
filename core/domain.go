package core

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

type Vendor string

const (
	// VendorAccounts is the OAuth/token service.
	VendorAccounts Vendor = "accounts"
	// VendorWorkDrive is the document-storage JSON:API.
	VendorWorkDrive Vendor = "workdrive"
	// VendorWorkDriveDownload serves binary file content.
	VendorWorkDriveDownload Vendor = "workdrive_download"
	// VendorCreator is the low-code database service.
	VendorCreator Vendor = "creator"
	// VendorApollo is the people/organization enrichment service.
	VendorApollo Vendor = "apollo"
)

func (v Vendor) String() string {
	return string(v)
}

func ParseVendor(value string) (Vendor, bool) {
	switch Vendor(strings.TrimSpace(strings.ToLower(value))) {
	case VendorAccounts:
		return VendorAccounts, true
	case VendorWorkDrive:
		return VendorWorkDrive, true
	case VendorWorkDriveDownload:
		return VendorWorkDriveDownload, true
	case VendorCreator:
		return VendorCreator, true
	case VendorApollo:
		return VendorApollo, true
	default:
		return "", false
	}
}

type Datacenter string

const (
	DatacenterCOM   Datacenter = "com"
	DatacenterEU    Datacenter = "eu"
	DatacenterIN    Datacenter = "in"
	DatacenterAE    Datacenter = "ae"
	DatacenterCOMAU Datacenter = "com.au"
	DatacenterCOMCN Datacenter = "com.cn"

	DefaultDatacenter = DatacenterCOM
)

// Datacenters lists the supported codes in a stable order.
func Datacenters() []Datacenter {
	return []Datacenter{
		DatacenterCOM,
		DatacenterEU,
		DatacenterIN,
		DatacenterAE,
		DatacenterCOMAU,
		DatacenterCOMCN,
	}
}

// ParseDatacenter reports whether value is one of the supported codes.
func ParseDatacenter(value string) (Datacenter, bool) {
	normalized := Datacenter(strings.TrimSpace(strings.ToLower(value)))
	for _, dc := range Datacenters() {
		if dc == normalized {
			return dc, true
		}
	}
	return "", false
}

func (d Datacenter) String() string {
	return string(d)
}

type HTTPMethod string

const (
	MethodGet    HTTPMethod = http.MethodGet
	MethodPost   HTTPMethod = http.MethodPost
	MethodPatch  HTTPMethod = http.MethodPatch
	MethodPut    HTTPMethod = http.MethodPut
	MethodDelete HTTPMethod = http.MethodDelete
)

// ParseHTTPMethod defaults to GET for an empty value.
func ParseHTTPMethod(value string) (HTTPMethod, bool) {
	switch HTTPMethod(strings.TrimSpace(strings.ToUpper(value))) {
	case "", MethodGet:
		return MethodGet, true
	case MethodPost:
		return MethodPost, true
	case MethodPatch:
		return MethodPatch, true
	case MethodPut:
		return MethodPut, true
	case MethodDelete:
		return MethodDelete, true
	default:
		return "", false
	}
}

// CarriesBody reports whether the method forwards a request body.
func (m HTTPMethod) CarriesBody() bool {
	switch m {
	case MethodPost, MethodPatch, MethodPut:
		return true
	default:
		return false
	}
}

type VendorRequest struct {
	TargetURL string
	Method    HTTPMethod
	Headers   map[string]string
	Body      []byte
}

type VendorResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

// Success reports a 2xx vendor status.
func (r VendorResponse) Success() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

type CredentialKind string

const (
	CredentialKindAPIKey     CredentialKind = "api_key"
	CredentialKindOAuthToken CredentialKind = "oauth_token"
)

type VendorCredential struct {
	Vendor       Vendor
	Kind         CredentialKind
	Value        string
	Datacenter   Datacenter
	RefreshToken string
	ExpiresAt    *time.Time
}

// Refreshable is false for API keys and for OAuth tokens without a refresh token.
func (c VendorCredential) Refreshable() bool {
	return c.Kind == CredentialKindOAuthToken && strings.TrimSpace(c.RefreshToken) != ""
}

type TokenExchangeResult struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ExpiresInSeconds int64  `json:"expires_in,omitempty"`
	APIDomain        string `json:"api_domain,omitempty"`
	TokenType        string `json:"token_type,omitempty"`
	// Rotated is true only when the vendor returned a refresh token.
	Rotated bool `json:"-"`
}

type NormalizedLead struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Name       string  `json:"name"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Title      string  `json:"title"`
	Company    string  `json:"company"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Location   string  `json:"location"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Country    string  `json:"country"`
	Industry   string  `json:"industry"`
	Seniority  string  `json:"seniority"`
	LinkedIn   *string `json:"linkedin_url"`
	Website    *string `json:"website"`
	PhotoURL   *string `json:"photo_url"`
	Status     string  `json:"status"`
	Score      int     `json:"score"`
	EmailState string  `json:"email_status"`
}

type NormalizedCompany struct {
	ID            string   `json:"id"`
	Source        string   `json:"source"`
	Name          string   `json:"name"`
	Domain        string   `json:"domain"`
	Website       *string  `json:"website"`
	Industry      string   `json:"industry"`
	EmployeeCount *int     `json:"employee_count"`
	Revenue       string   `json:"revenue"`
	FoundedYear   *int     `json:"founded_year"`
	Location      string   `json:"location"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	Country       string   `json:"country"`
	Phone         string   `json:"phone"`
	LinkedIn      *string  `json:"linkedin_url"`
	LogoURL       *string  `json:"logo_url"`
	Keywords      []string `json:"keywords"`
}

type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
	TotalPages   int `json:"total_pages"`
}

type UploadResult struct {
	StatusCode int             `json:"-"`
	Body       json.RawMessage `json:"body"`
}

// DownloadResult streams vendor bytes; the caller must close Body.
type DownloadResult struct {
	Body          io.ReadCloser
	Filename      string
	ContentType   string
	ContentLength int64
}

// AccountRef holds the default owner/app/workspace identifiers sourced from
// configuration.
type AccountRef struct {
	Owner       string `json:"owner"`
	AppName     string `json:"app_name"`
	WorkspaceID string `json:"workspace_id"`
}
