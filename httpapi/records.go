package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-vendorgate/assistant"
	"github.com/goliatone/go-vendorgate/command"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/query"
	"github.com/goliatone/go-vendorgate/search"
)

type validatable interface {
	Validate() error
}

// execute validates msg, runs cmd and returns the stored result, if any.
func execute[M validatable, R any](ctx context.Context, cmd gocmd.Commander[M], msg M) (R, error) {
	var zero R
	if err := msg.Validate(); err != nil {
		return zero, err
	}
	collector := gocmd.NewResult[R]()
	if err := cmd.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, err
	}
	out, _ := collector.Load()
	return out, nil
}

func ask[M validatable, R any](ctx context.Context, qry gocmd.Querier[M, R], msg M) (R, error) {
	var zero R
	if err := msg.Validate(); err != nil {
		return zero, err
	}
	return qry.Query(ctx, msg)
}

func recordFilter(r *http.Request) core.RecordFilter {
	return core.RecordFilter{
		Query:   strings.TrimSpace(r.URL.Query().Get("q")),
		Page:    queryInt(r, "page", 0),
		PerPage: queryInt(r, "per_page", 0),
	}
}

func (s *Server) leadsReady(w http.ResponseWriter) bool {
	if s.deps.Leads == nil {
		writeError(w, core.InternalError("lead store is not configured", nil))
		return false
	}
	return true
}

func (s *Server) companiesReady(w http.ResponseWriter) bool {
	if s.deps.Companies == nil {
		writeError(w, core.InternalError("company store is not configured", nil))
		return false
	}
	return true
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	if !s.leadsReady(w) {
		return
	}
	page, err := ask[query.ListLeadsMessage, core.SavedLeadPage](r.Context(), query.NewListLeadsQuery(s.deps.Leads), query.ListLeadsMessage{Filter: recordFilter(r)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	if !s.leadsReady(w) {
		return
	}
	lead, err := ask[query.GetLeadMessage, core.SavedLead](r.Context(), query.NewGetLeadQuery(s.deps.Leads), query.GetLeadMessage{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) saveLead(w http.ResponseWriter, r *http.Request) {
	if !s.leadsReady(w) {
		return
	}
	var input core.SaveLeadInput
	if err := decodeJSON(w, r, &input, s.maxBodyBytes); err != nil {
		writeError(w, err)
		return
	}
	saved, err := execute[command.SaveLeadMessage, core.SavedLead](
		r.Context(), command.NewSaveLeadCommand(s.deps.Leads), command.SaveLeadMessage{Input: input},
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) deleteLead(w http.ResponseWriter, r *http.Request) {
	if !s.leadsReady(w) {
		return
	}
	_, err := execute[command.DeleteLeadMessage, struct{}](
		r.Context(), command.NewDeleteLeadCommand(s.deps.Leads), command.DeleteLeadMessage{ID: chi.URLParam(r, "id")},
	)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	if !s.companiesReady(w) {
		return
	}
	page, err := ask[query.ListCompaniesMessage, core.SavedCompanyPage](r.Context(), query.NewListCompaniesQuery(s.deps.Companies), query.ListCompaniesMessage{Filter: recordFilter(r)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	if !s.companiesReady(w) {
		return
	}
	company, err := ask[query.GetCompanyMessage, core.SavedCompany](r.Context(), query.NewGetCompanyQuery(s.deps.Companies), query.GetCompanyMessage{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) saveCompany(w http.ResponseWriter, r *http.Request) {
	if !s.companiesReady(w) {
		return
	}
	var input core.SaveCompanyInput
	if err := decodeJSON(w, r, &input, s.maxBodyBytes); err != nil {
		writeError(w, err)
		return
	}
	saved, err := execute[command.SaveCompanyMessage, core.SavedCompany](
		r.Context(), command.NewSaveCompanyCommand(s.deps.Companies), command.SaveCompanyMessage{Input: input},
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) deleteCompany(w http.ResponseWriter, r *http.Request) {
	if !s.companiesReady(w) {
		return
	}
	_, err := execute[command.DeleteCompanyMessage, struct{}](
		r.Context(), command.NewDeleteCompanyCommand(s.deps.Companies), command.DeleteCompanyMessage{ID: chi.URLParam(r, "id")},
	)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	if s.deps.Activity == nil {
		writeError(w, core.InternalError("activity log is not configured", nil))
		return
	}
	values := r.URL.Query()
	filter := core.ActivityFilter{
		Vendor:  core.Vendor(strings.TrimSpace(strings.ToLower(values.Get("vendor")))),
		Outcome: core.ActivityOutcome(strings.TrimSpace(strings.ToLower(values.Get("outcome")))),
		Page:    queryInt(r, "page", 0),
		PerPage: queryInt(r, "per_page", 0),
	}
	for name, target := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, core.BadRequestError(name+" must be an RFC 3339 timestamp", nil))
			return
		}
		parsed = parsed.UTC()
		*target = &parsed
	}
	page, err := ask[query.ListActivityMessage, core.ActivityPage](r.Context(), query.NewListActivityQuery(s.deps.Activity), query.ListActivityMessage{Filter: filter})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) searchPeople(w http.ResponseWriter, r *http.Request) {
	if s.deps.Search == nil {
		writeError(w, core.InternalError("search is not configured", nil))
		return
	}
	var q search.PeopleQuery
	if err := decodeJSON(w, r, &q, s.maxBodyBytes); err != nil {
		writeError(w, err)
		return
	}
	page, err := s.deps.Search.People(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) searchOrganizations(w http.ResponseWriter, r *http.Request) {
	if s.deps.Search == nil {
		writeError(w, core.InternalError("search is not configured", nil))
		return
	}
	var q search.OrganizationQuery
	if err := decodeJSON(w, r, &q, s.maxBodyBytes); err != nil {
		writeError(w, err)
		return
	}
	page, err := s.deps.Search.Organizations(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) assistantChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		writeError(w, core.MissingCredentialError(core.Vendor(s.deps.Config.Assistant.Provider), core.EnvAssistantAPIKey))
		return
	}
	var req assistant.ChatRequest
	if err := decodeJSON(w, r, &req, s.maxBodyBytes); err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.deps.Assistant.Chat(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
