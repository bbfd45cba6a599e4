package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-vendorgate/core"
)

var (
	_ gocmd.Querier[GetLeadMessage, core.SavedLead]              = (*GetLeadQuery)(nil)
	_ gocmd.Querier[ListLeadsMessage, core.SavedLeadPage]        = (*ListLeadsQuery)(nil)
	_ gocmd.Querier[GetCompanyMessage, core.SavedCompany]        = (*GetCompanyQuery)(nil)
	_ gocmd.Querier[ListCompaniesMessage, core.SavedCompanyPage] = (*ListCompaniesQuery)(nil)
	_ gocmd.Querier[ListActivityMessage, core.ActivityPage]      = (*ListActivityQuery)(nil)
)
