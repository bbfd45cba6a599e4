package query

import (
	"strings"

	"github.com/goliatone/go-vendorgate/core"
)

const (
	TypeGetLead       = "vendorgate.query.lead.get"
	TypeListLeads     = "vendorgate.query.lead.list"
	TypeGetCompany    = "vendorgate.query.company.get"
	TypeListCompanies = "vendorgate.query.company.list"
	TypeListActivity  = "vendorgate.query.activity.list"
)

type GetLeadMessage struct {
	ID string
}

func (GetLeadMessage) Type() string { return TypeGetLead }

func (m GetLeadMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return queryValidationError("id", "lead id is required")
	}
	return nil
}

type ListLeadsMessage struct {
	Filter core.RecordFilter
}

func (ListLeadsMessage) Type() string { return TypeListLeads }

func (m ListLeadsMessage) Validate() error {
	return validatePage(m.Filter.Page, m.Filter.PerPage)
}

type GetCompanyMessage struct {
	ID string
}

func (GetCompanyMessage) Type() string { return TypeGetCompany }

func (m GetCompanyMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return queryValidationError("id", "company id is required")
	}
	return nil
}

type ListCompaniesMessage struct {
	Filter core.RecordFilter
}

func (ListCompaniesMessage) Type() string { return TypeListCompanies }

func (m ListCompaniesMessage) Validate() error {
	return validatePage(m.Filter.Page, m.Filter.PerPage)
}

type ListActivityMessage struct {
	Filter core.ActivityFilter
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if err := validatePage(m.Filter.Page, m.Filter.PerPage); err != nil {
		return err
	}
	if vendor := strings.TrimSpace(string(m.Filter.Vendor)); vendor != "" {
		if _, ok := core.ParseVendor(vendor); !ok {
			return queryValidationError("vendor", "unknown vendor")
		}
	}
	if m.Filter.From != nil && m.Filter.To != nil && m.Filter.To.Before(*m.Filter.From) {
		return queryValidationError("to", "must not be before from")
	}
	return nil
}

func validatePage(page, perPage int) error {
	if page < 0 {
		return queryValidationError("page", "must be >= 0")
	}
	if perPage < 0 {
		return queryValidationError("per_page", "must be >= 0")
	}
	return nil
}
