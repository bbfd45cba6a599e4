package query

import (
	"context"

	"github.com/goliatone/go-vendorgate/core"
)

type LeadReader interface {
	GetLead(ctx context.Context, id string) (core.SavedLead, error)
	ListLeads(ctx context.Context, filter core.RecordFilter) (core.SavedLeadPage, error)
}

type CompanyReader interface {
	GetCompany(ctx context.Context, id string) (core.SavedCompany, error)
	ListCompanies(ctx context.Context, filter core.RecordFilter) (core.SavedCompanyPage, error)
}

type ActivityReader interface {
	ListActivity(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error)
}

type GetLeadQuery struct {
	reader LeadReader
}

func NewGetLeadQuery(reader LeadReader) *GetLeadQuery {
	return &GetLeadQuery{reader: reader}
}

func (q *GetLeadQuery) Query(ctx context.Context, msg GetLeadMessage) (core.SavedLead, error) {
	if q == nil || q.reader == nil {
		return core.SavedLead{}, queryDependencyError("query: lead reader is required")
	}
	return q.reader.GetLead(ctx, msg.ID)
}

type ListLeadsQuery struct {
	reader LeadReader
}

func NewListLeadsQuery(reader LeadReader) *ListLeadsQuery {
	return &ListLeadsQuery{reader: reader}
}

func (q *ListLeadsQuery) Query(ctx context.Context, msg ListLeadsMessage) (core.SavedLeadPage, error) {
	if q == nil || q.reader == nil {
		return core.SavedLeadPage{}, queryDependencyError("query: lead reader is required")
	}
	return q.reader.ListLeads(ctx, msg.Filter)
}

type GetCompanyQuery struct {
	reader CompanyReader
}

func NewGetCompanyQuery(reader CompanyReader) *GetCompanyQuery {
	return &GetCompanyQuery{reader: reader}
}

func (q *GetCompanyQuery) Query(ctx context.Context, msg GetCompanyMessage) (core.SavedCompany, error) {
	if q == nil || q.reader == nil {
		return core.SavedCompany{}, queryDependencyError("query: company reader is required")
	}
	return q.reader.GetCompany(ctx, msg.ID)
}

type ListCompaniesQuery struct {
	reader CompanyReader
}

func NewListCompaniesQuery(reader CompanyReader) *ListCompaniesQuery {
	return &ListCompaniesQuery{reader: reader}
}

func (q *ListCompaniesQuery) Query(ctx context.Context, msg ListCompaniesMessage) (core.SavedCompanyPage, error) {
	if q == nil || q.reader == nil {
		return core.SavedCompanyPage{}, queryDependencyError("query: company reader is required")
	}
	return q.reader.ListCompanies(ctx, msg.Filter)
}

type ListActivityQuery struct {
	reader ActivityReader
}

func NewListActivityQuery(reader ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) (core.ActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.ActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	return q.reader.ListActivity(ctx, msg.Filter)
}
