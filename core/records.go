package core

import (
	"context"
	"time"
)

const (
	DefaultRecordsPerPage = 25
	MaxRecordsPerPage     = 200
)

// SavedLead is a normalized lead a user chose to keep.
type SavedLead struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	ExternalID string         `json:"external_id"`
	Lead       NormalizedLead `json:"lead"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type SavedCompany struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	ExternalID string            `json:"external_id"`
	Company    NormalizedCompany `json:"company"`
	Notes      string            `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type SaveLeadInput struct {
	Lead  NormalizedLead `json:"lead"`
	Notes string         `json:"notes"`
}

type SaveCompanyInput struct {
	Company NormalizedCompany `json:"company"`
	Notes   string            `json:"notes"`
}

// RecordFilter matches Query against name, email and company columns.
type RecordFilter struct {
	Query   string
	Page    int
	PerPage int
}

// Bounds returns page and per-page values clamped to the allowed range.
func (f RecordFilter) Bounds() (page int, perPage int) {
	return PageBounds(f.Page, f.PerPage)
}

func PageBounds(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultRecordsPerPage
	}
	if perPage > MaxRecordsPerPage {
		perPage = MaxRecordsPerPage
	}
	return page, perPage
}

// NewPagination derives total pages from the row count.
func NewPagination(page, perPage, total int) Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, TotalEntries: total, TotalPages: pages}
}

type SavedLeadPage struct {
	Items      []SavedLead `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

type SavedCompanyPage struct {
	Items      []SavedCompany `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

type ActivityFilter struct {
	Vendor  Vendor
	Outcome ActivityOutcome
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

// ActivityRecord is a stored ActivityEntry.
type ActivityRecord struct {
	ID         string          `json:"id"`
	Vendor     Vendor          `json:"vendor"`
	Operation  string          `json:"operation"`
	Method     string          `json:"method"`
	Host       string          `json:"host"`
	Path       string          `json:"path"`
	StatusCode int             `json:"status_code"`
	Outcome    ActivityOutcome `json:"outcome"`
	DurationMS int64           `json:"duration_ms"`
	TextCode   string          `json:"text_code,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type ActivityPage struct {
	Items      []ActivityRecord `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// ActivityRetentionPolicy bounds the activity log by age and row count.
// Zero values disable the corresponding limit.
type ActivityRetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

type LeadStore interface {
	SaveLead(ctx context.Context, in SaveLeadInput) (SavedLead, error)
	GetLead(ctx context.Context, id string) (SavedLead, error)
	ListLeads(ctx context.Context, filter RecordFilter) (SavedLeadPage, error)
	DeleteLead(ctx context.Context, id string) error
}

type CompanyStore interface {
	SaveCompany(ctx context.Context, in SaveCompanyInput) (SavedCompany, error)
	GetCompany(ctx context.Context, id string) (SavedCompany, error)
	ListCompanies(ctx context.Context, filter RecordFilter) (SavedCompanyPage, error)
	DeleteCompany(ctx context.Context, id string) error
}

type ActivityLog interface {
	ActivityRecorder
	ListActivity(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
	Prune(ctx context.Context, policy ActivityRetentionPolicy) (int, error)
}
