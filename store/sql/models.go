package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/uptrace/bun"
)

type leadRecord struct {
	bun.BaseModel `bun:"table:saved_leads,alias:sl"`

	ID         string              `bun:"id,pk"`
	Source     string              `bun:"source,notnull"`
	ExternalID string              `bun:"external_id,notnull"`
	Name       string              `bun:"name,notnull"`
	Email      string              `bun:"email,notnull"`
	Company    string              `bun:"company,notnull"`
	Title      string              `bun:"title,notnull"`
	Status     string              `bun:"status,notnull"`
	Score      int                 `bun:"score,notnull"`
	Payload    core.NormalizedLead `bun:"payload,type:jsonb,notnull"`
	Notes      string              `bun:"notes,notnull"`
	CreatedAt  time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type companyRecord struct {
	bun.BaseModel `bun:"table:saved_companies,alias:sco"`

	ID         string                 `bun:"id,pk"`
	Source     string                 `bun:"source,notnull"`
	ExternalID string                 `bun:"external_id,notnull"`
	Name       string                 `bun:"name,notnull"`
	Domain     string                 `bun:"domain,notnull"`
	Industry   string                 `bun:"industry,notnull"`
	Payload    core.NormalizedCompany `bun:"payload,type:jsonb,notnull"`
	Notes      string                 `bun:"notes,notnull"`
	CreatedAt  time.Time              `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time              `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type activityRecord struct {
	bun.BaseModel `bun:"table:vendor_activity,alias:va"`

	ID         string         `bun:"id,pk"`
	Vendor     string         `bun:"vendor,notnull"`
	Operation  string         `bun:"operation,notnull"`
	Method     string         `bun:"method,notnull"`
	Host       string         `bun:"host,notnull"`
	Path       string         `bun:"path,notnull"`
	StatusCode int            `bun:"status_code,notnull"`
	Outcome    string         `bun:"outcome,notnull"`
	DurationMS int64          `bun:"duration_ms,notnull"`
	TextCode   string         `bun:"text_code,notnull"`
	Metadata   map[string]any `bun:"metadata,type:jsonb,notnull"`
	OccurredAt time.Time      `bun:"occurred_at,nullzero,notnull,default:current_timestamp"`
}

func (r *leadRecord) toDomain() core.SavedLead {
	if r == nil {
		return core.SavedLead{}
	}
	return core.SavedLead{
		ID:         r.ID,
		Source:     r.Source,
		ExternalID: r.ExternalID,
		Lead:       r.Payload,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

// apply copies searchable columns out of the payload.
func (r *leadRecord) apply(lead core.NormalizedLead, notes string) {
	r.Payload = lead
	r.Name = strings.TrimSpace(lead.Name)
	r.Email = strings.TrimSpace(lead.Email)
	r.Company = strings.TrimSpace(lead.Company)
	r.Title = strings.TrimSpace(lead.Title)
	r.Status = strings.TrimSpace(lead.Status)
	r.Score = lead.Score
	r.Notes = strings.TrimSpace(notes)
}

func (r *companyRecord) toDomain() core.SavedCompany {
	if r == nil {
		return core.SavedCompany{}
	}
	company := r.Payload
	company.Keywords = append([]string(nil), company.Keywords...)
	return core.SavedCompany{
		ID:         r.ID,
		Source:     r.Source,
		ExternalID: r.ExternalID,
		Company:    company,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (r *companyRecord) apply(company core.NormalizedCompany, notes string) {
	company.Keywords = append([]string(nil), company.Keywords...)
	r.Payload = company
	r.Name = strings.TrimSpace(company.Name)
	r.Domain = strings.TrimSpace(company.Domain)
	r.Industry = strings.TrimSpace(company.Industry)
	r.Notes = strings.TrimSpace(notes)
}

func (r *activityRecord) toDomain() core.ActivityRecord {
	if r == nil {
		return core.ActivityRecord{}
	}
	return core.ActivityRecord{
		ID:         r.ID,
		Vendor:     core.Vendor(r.Vendor),
		Operation:  r.Operation,
		Method:     r.Method,
		Host:       r.Host,
		Path:       r.Path,
		StatusCode: r.StatusCode,
		Outcome:    core.ActivityOutcome(r.Outcome),
		DurationMS: r.DurationMS,
		TextCode:   r.TextCode,
		Metadata:   copyAnyMap(r.Metadata),
		OccurredAt: r.OccurredAt.UTC(),
	}
}

func copyAnyMap(source map[string]any) map[string]any {
	out := make(map[string]any, len(source))
	for key, value := range source {
		out[key] = value
	}
	return out
}
