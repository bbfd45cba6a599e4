// Package normalize reshapes enrichment vendor person and organization
// records into the stable lead and company models.
//
// Missing display strings become "N/A"; missing links and numbers become nil.
// Every call returns fresh values and never mutates its input.
package normalize

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-vendorgate/core"
)

const (
	NotAvailable = "N/A"
	UnknownName  = "Unknown"
	SourceApollo = "apollo"
)

const (
	StatusVerified    = "Verified"
	StatusLikelyValid = "Likely Valid"
	StatusUnverified  = "Unverified"

	ScoreVerified    = 95
	ScoreLikelyValid = 75
	ScoreUnverified  = 50
)

// Record is one decoded vendor JSON object.
type Record = map[string]any

type LeadPage struct {
	Leads      []core.NormalizedLead `json:"leads"`
	Pagination core.Pagination       `json:"pagination"`
}

type CompanyPage struct {
	Companies  []core.NormalizedCompany `json:"companies"`
	Pagination core.Pagination          `json:"pagination"`
}

// Person maps one vendor person (or contact) record.
func Person(record Record) core.NormalizedLead {
	first := text(record, "first_name")
	last := text(record, "last_name")
	org := nested(record, "organization")
	city := text(record, "city")
	state := text(record, "state")
	country := text(record, "country")
	email := text(record, "email")
	emailState := strings.ToLower(text(record, "email_status"))

	status, score := Confidence(email, emailState)

	lead := core.NormalizedLead{
		ID:         text(record, "id"),
		Source:     SourceApollo,
		Name:       DisplayName(first, last),
		FirstName:  orNA(first),
		LastName:   orNA(last),
		Title:      orNA(text(record, "title", "headline")),
		Company:    orNA(firstNonEmpty(text(org, "name"), text(record, "organization_name"))),
		Email:      orNA(email),
		Phone:      orNA(personPhone(record)),
		Location:   orNA(Location(city, state, country)),
		City:       orNA(city),
		State:      orNA(state),
		Country:    orNA(country),
		Industry:   orNA(firstNonEmpty(text(org, "industry"), text(record, "industry"))),
		Seniority:  orNA(text(record, "seniority")),
		LinkedIn:   link(record, "linkedin_url"),
		Website:    link(org, "website_url"),
		PhotoURL:   link(record, "photo_url"),
		Status:     status,
		Score:      score,
		EmailState: orNA(emailState),
	}
	return lead
}

// Organization maps one vendor organization (or account) record.
func Organization(record Record) core.NormalizedCompany {
	city := text(record, "city")
	state := text(record, "state")
	country := text(record, "country")
	return core.NormalizedCompany{
		ID:            text(record, "id"),
		Source:        SourceApollo,
		Name:          orNA(text(record, "name")),
		Domain:        orNA(text(record, "primary_domain", "domain")),
		Website:       link(record, "website_url"),
		Industry:      orNA(text(record, "industry")),
		EmployeeCount: integer(record, "estimated_num_employees"),
		Revenue:       orNA(text(record, "annual_revenue_printed", "organization_revenue_printed")),
		FoundedYear:   integer(record, "founded_year"),
		Location:      orNA(Location(city, state, country)),
		City:          orNA(city),
		State:         orNA(state),
		Country:       orNA(country),
		Phone:         orNA(firstNonEmpty(text(nested(record, "primary_phone"), "number"), text(record, "phone"))),
		LinkedIn:      link(record, "linkedin_url"),
		LogoURL:       link(record, "logo_url"),
		Keywords:      stringList(record, "keywords"),
	}
}

// People decodes a person search payload. Records are read from "people"
// followed by "contacts".
func People(payload []byte) (LeadPage, error) {
	doc, err := decode(payload)
	if err != nil {
		return LeadPage{}, err
	}
	items := append(records(doc, "people"), records(doc, "contacts")...)
	leads := make([]core.NormalizedLead, 0, len(items))
	for _, record := range items {
		leads = append(leads, Person(record))
	}
	return LeadPage{Leads: leads, Pagination: pagination(doc, len(leads))}, nil
}

// Organizations decodes an organization search payload. Records are read
// from "organizations" followed by "accounts".
func Organizations(payload []byte) (CompanyPage, error) {
	doc, err := decode(payload)
	if err != nil {
		return CompanyPage{}, err
	}
	items := append(records(doc, "organizations"), records(doc, "accounts")...)
	companies := make([]core.NormalizedCompany, 0, len(items))
	for _, record := range items {
		companies = append(companies, Organization(record))
	}
	return CompanyPage{Companies: companies, Pagination: pagination(doc, len(companies))}, nil
}

// DisplayName joins first and last name, or returns "Unknown".
func DisplayName(first, last string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return UnknownName
	}
	return name
}

// Location joins the non-empty parts with ", ".
func Location(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}

// Confidence derives the status/score pair from the email verification flag.
func Confidence(email, emailStatus string) (string, int) {
	switch {
	case strings.EqualFold(strings.TrimSpace(emailStatus), "verified"):
		return StatusVerified, ScoreVerified
	case strings.TrimSpace(email) != "":
		return StatusLikelyValid, ScoreLikelyValid
	default:
		return StatusUnverified, ScoreUnverified
	}
}

func decode(payload []byte) (Record, error) {
	var doc Record
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, core.VendorRejectedError(core.VendorApollo, http.StatusBadGateway, payload, "application/json")
	}
	if doc == nil {
		doc = Record{}
	}
	return doc, nil
}

func records(doc Record, key string) []Record {
	items, _ := doc[key].([]any)
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if record, ok := item.(map[string]any); ok {
			out = append(out, record)
		}
	}
	return out
}

func pagination(doc Record, count int) core.Pagination {
	raw := nested(doc, "pagination")
	page := core.Pagination{Page: 1, PerPage: count, TotalEntries: count}
	if value := integer(raw, "page"); value != nil && *value > 0 {
		page.Page = *value
	}
	if value := integer(raw, "per_page"); value != nil && *value > 0 {
		page.PerPage = *value
	}
	if value := integer(raw, "total_entries"); value != nil && *value >= 0 {
		page.TotalEntries = *value
	}
	if value := integer(raw, "total_pages"); value != nil && *value >= 0 {
		page.TotalPages = *value
	} else if page.PerPage > 0 {
		page.TotalPages = int(math.Ceil(float64(page.TotalEntries) / float64(page.PerPage)))
	}
	return page
}

func personPhone(record Record) string {
	if numbers, ok := record["phone_numbers"].([]any); ok {
		for _, item := range numbers {
			entry, _ := item.(map[string]any)
			if number := text(entry, "sanitized_number", "raw_number"); number != "" {
				return number
			}
		}
	}
	return text(record, "phone", "sanitized_phone")
}

func nested(record Record, key string) Record {
	if record == nil {
		return nil
	}
	value, _ := record[key].(map[string]any)
	return value
}

// text returns the first non-empty value among keys, formatting numbers.
func text(record Record, keys ...string) string {
	for _, key := range keys {
		switch typed := record[key].(type) {
		case string:
			if value := strings.TrimSpace(typed); value != "" {
				return value
			}
		case float64:
			return strconv.FormatFloat(typed, 'f', -1, 64)
		case json.Number:
			return typed.String()
		}
	}
	return ""
}

func integer(record Record, key string) *int {
	switch typed := record[key].(type) {
	case float64:
		value := int(typed)
		return &value
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

func link(record Record, key string) *string {
	value := text(record, key)
	if value == "" {
		return nil
	}
	return &value
}

func stringList(record Record, key string) []string {
	items, _ := record[key].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if value, ok := item.(string); ok && strings.TrimSpace(value) != "" {
			out = append(out, strings.TrimSpace(value))
		}
	}
	return out
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return NotAvailable
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
