// Package search runs people and organization searches against the
// enrichment vendor and caches normalized pages.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/normalize"
	"github.com/goliatone/go-vendorgate/transport"
)

const cacheKeyPrefix = "go-vendorgate::search::v1"

const (
	peoplePath        = "/api/v1/mixed_people/search"
	organizationsPath = "/api/v1/mixed_companies/search"
)

// VendorCaller is satisfied by *transport.Proxy.
type VendorCaller interface {
	Handle(ctx context.Context, req transport.ProxyRequest) (core.VendorResponse, error)
}

type PeopleQuery struct {
	Keywords            string   `json:"q_keywords,omitempty"`
	Titles              []string `json:"person_titles,omitempty"`
	Seniorities         []string `json:"person_seniorities,omitempty"`
	Locations           []string `json:"person_locations,omitempty"`
	OrganizationDomains []string `json:"q_organization_domains_list,omitempty"`
	Page                int      `json:"page"`
	PerPage             int      `json:"per_page"`
}

type OrganizationQuery struct {
	Name           string   `json:"q_organization_name,omitempty"`
	Keywords       []string `json:"q_organization_keyword_tags,omitempty"`
	Locations      []string `json:"organization_locations,omitempty"`
	Domains        []string `json:"q_organization_domains_list,omitempty"`
	EmployeeRanges []string `json:"organization_num_employees_ranges,omitempty"`
	Page           int      `json:"page"`
	PerPage        int      `json:"per_page"`
}

type ServiceConfig struct {
	Router         core.BaseURLResolver
	Caller         VendorCaller
	Cache          repositorycache.CacheService
	DefaultPerPage int
	MaxPerPage     int
	Logger         core.Logger
}

type Service struct {
	router         core.BaseURLResolver
	caller         VendorCaller
	cache          repositorycache.CacheService
	defaultPerPage int
	maxPerPage     int
	ops            core.OperationLogger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Router == nil {
		return nil, fmt.Errorf("search: router is required")
	}
	if cfg.Caller == nil {
		return nil, fmt.Errorf("search: vendor caller is required")
	}
	defaults := core.DefaultConfig().Search
	perPage := cfg.DefaultPerPage
	if perPage <= 0 {
		perPage = defaults.DefaultPerPage
	}
	maxPerPage := cfg.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = defaults.MaxPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return &Service{
		router:         cfg.Router,
		caller:         cfg.Caller,
		cache:          cfg.Cache,
		defaultPerPage: perPage,
		maxPerPage:     maxPerPage,
		ops:            core.NewOperationLogger(cfg.Logger),
	}, nil
}

// NewCacheService builds the page cache with the given TTL.
func NewCacheService(ttl time.Duration) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	if ttl > 0 {
		config.TTL = ttl
	}
	return repositorycache.NewCacheService(config)
}

func (s *Service) People(ctx context.Context, query PeopleQuery) (page normalize.LeadPage, err error) {
	startedAt := time.Now()
	defer func() {
		s.ops.Observe(ctx, startedAt, "search people", err, map[string]any{
			"vendor":   string(core.VendorApollo),
			"page":     query.Page,
			"per_page": query.PerPage,
			"results":  len(page.Leads),
		})
	}()

	query.Titles = cleanList(query.Titles)
	query.Seniorities = cleanList(query.Seniorities)
	query.Locations = cleanList(query.Locations)
	query.OrganizationDomains = cleanList(query.OrganizationDomains)
	query.Keywords = strings.TrimSpace(query.Keywords)
	query.Page, query.PerPage = s.bounds(query.Page, query.PerPage)

	body, err := json.Marshal(query)
	if err != nil {
		return normalize.LeadPage{}, core.InternalError("encode people query", err)
	}
	fetch := func(ctx context.Context) (normalize.LeadPage, error) {
		payload, err := s.call(ctx, peoplePath, body)
		if err != nil {
			return normalize.LeadPage{}, err
		}
		return normalize.People(payload)
	}
	if s.cache == nil {
		return fetch(ctx)
	}
	cached, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey("people", body), fetch)
	if err != nil {
		return normalize.LeadPage{}, err
	}
	return cloneLeadPage(cached), nil
}

func (s *Service) Organizations(ctx context.Context, query OrganizationQuery) (page normalize.CompanyPage, err error) {
	startedAt := time.Now()
	defer func() {
		s.ops.Observe(ctx, startedAt, "search organizations", err, map[string]any{
			"vendor":   string(core.VendorApollo),
			"page":     query.Page,
			"per_page": query.PerPage,
			"results":  len(page.Companies),
		})
	}()

	query.Name = strings.TrimSpace(query.Name)
	query.Keywords = cleanList(query.Keywords)
	query.Locations = cleanList(query.Locations)
	query.Domains = cleanList(query.Domains)
	query.EmployeeRanges = cleanList(query.EmployeeRanges)
	query.Page, query.PerPage = s.bounds(query.Page, query.PerPage)

	body, err := json.Marshal(query)
	if err != nil {
		return normalize.CompanyPage{}, core.InternalError("encode organization query", err)
	}
	fetch := func(ctx context.Context) (normalize.CompanyPage, error) {
		payload, err := s.call(ctx, organizationsPath, body)
		if err != nil {
			return normalize.CompanyPage{}, err
		}
		return normalize.Organizations(payload)
	}
	if s.cache == nil {
		return fetch(ctx)
	}
	cached, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey("organizations", body), fetch)
	if err != nil {
		return normalize.CompanyPage{}, err
	}
	return cloneCompanyPage(cached), nil
}

func (s *Service) call(ctx context.Context, path string, body []byte) ([]byte, error) {
	base, err := s.router.ResolveBaseURL(core.VendorApollo, core.DefaultDatacenter)
	if err != nil {
		return nil, err
	}
	response, err := s.caller.Handle(ctx, transport.ProxyRequest{
		URL:     base + path,
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	if !response.Success() {
		return nil, core.VendorRejectedError(
			core.VendorApollo,
			response.StatusCode,
			response.Body,
			transport.HeaderValue(response.Headers, "Content-Type"),
		)
	}
	return response.Body, nil
}

func (s *Service) bounds(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.defaultPerPage
	}
	if perPage > s.maxPerPage {
		perPage = s.maxPerPage
	}
	return page, perPage
}

// cacheKey hashes the encoded query so keys stay bounded and carry no raw
// search terms.
func cacheKey(kind string, body []byte) string {
	sum := sha256.Sum256(body)
	return strings.Join([]string{cacheKeyPrefix, kind, hex.EncodeToString(sum[:])}, "::")
}

func cleanList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneLeadPage(page normalize.LeadPage) normalize.LeadPage {
	page.Leads = append([]core.NormalizedLead(nil), page.Leads...)
	if page.Leads == nil {
		page.Leads = []core.NormalizedLead{}
	}
	return page
}

func cloneCompanyPage(page normalize.CompanyPage) normalize.CompanyPage {
	companies := make([]core.NormalizedCompany, len(page.Companies))
	for i, company := range page.Companies {
		company.Keywords = append([]string(nil), company.Keywords...)
		companies[i] = company
	}
	page.Companies = companies
	return page
}
