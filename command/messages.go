package command

import (
	"strings"

	"github.com/goliatone/go-vendorgate/core"
)

const (
	TypeSaveLead      = "vendorgate.command.lead.save"
	TypeDeleteLead    = "vendorgate.command.lead.delete"
	TypeSaveCompany   = "vendorgate.command.company.save"
	TypeDeleteCompany = "vendorgate.command.company.delete"
	TypePruneActivity = "vendorgate.command.activity.prune"
)

type SaveLeadMessage struct {
	Input core.SaveLeadInput
}

func (SaveLeadMessage) Type() string { return TypeSaveLead }

func (m SaveLeadMessage) Validate() error {
	lead := m.Input.Lead
	if isBlank(lead.Name) && isBlank(lead.Email) && isBlank(lead.ID) {
		return commandValidationError("lead", "a name, email or vendor id is required")
	}
	return nil
}

type DeleteLeadMessage struct {
	ID string
}

func (DeleteLeadMessage) Type() string { return TypeDeleteLead }

func (m DeleteLeadMessage) Validate() error {
	if isBlank(m.ID) {
		return commandValidationError("id", "lead id is required")
	}
	return nil
}

type SaveCompanyMessage struct {
	Input core.SaveCompanyInput
}

func (SaveCompanyMessage) Type() string { return TypeSaveCompany }

func (m SaveCompanyMessage) Validate() error {
	company := m.Input.Company
	if isBlank(company.Name) && isBlank(company.Domain) && isBlank(company.ID) {
		return commandValidationError("company", "a name, domain or vendor id is required")
	}
	return nil
}

type DeleteCompanyMessage struct {
	ID string
}

func (DeleteCompanyMessage) Type() string { return TypeDeleteCompany }

func (m DeleteCompanyMessage) Validate() error {
	if isBlank(m.ID) {
		return commandValidationError("id", "company id is required")
	}
	return nil
}

type PruneActivityMessage struct {
	Policy core.ActivityRetentionPolicy
}

func (PruneActivityMessage) Type() string { return TypePruneActivity }

func (m PruneActivityMessage) Validate() error {
	if m.Policy.TTL < 0 {
		return commandValidationError("ttl", "ttl must not be negative")
	}
	if m.Policy.RowCap < 0 {
		return commandValidationError("row_cap", "row cap must not be negative")
	}
	if m.Policy.TTL == 0 && m.Policy.RowCap == 0 {
		return commandValidationError("policy", "ttl or row cap is required")
	}
	return nil
}

// isBlank treats the normalizer's placeholder as empty.
func isBlank(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == "N/A"
}
