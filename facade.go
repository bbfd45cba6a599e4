package vendorgate

import (
	"fmt"

	"github.com/goliatone/go-vendorgate/command"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/query"
)

// RecordService is the saved-record storage behind the facade.
type RecordService interface {
	core.LeadStore
	core.CompanyStore
}

type Commands struct {
	SaveLead      *command.SaveLeadCommand
	DeleteLead    *command.DeleteLeadCommand
	SaveCompany   *command.SaveCompanyCommand
	DeleteCompany *command.DeleteCompanyCommand
	PruneActivity *command.PruneActivityCommand
}

type Queries struct {
	GetLead       *query.GetLeadQuery
	ListLeads     *query.ListLeadsQuery
	GetCompany    *query.GetCompanyQuery
	ListCompanies *query.ListCompaniesQuery
	ListActivity  *query.ListActivityQuery
}

type Facade struct {
	service  RecordService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	activity core.ActivityLog
}

func WithActivityLog(log core.ActivityLog) FacadeOption {
	return func(options *facadeOptions) {
		options.activity = log
	}
}

// NewFacade builds the record command and query handlers over service. The
// activity handlers use WithActivityLog, or service itself when it also
// keeps the activity log.
func NewFacade(service RecordService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("vendorgate: record service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	activity := cfg.activity
	if activity == nil {
		activity, _ = service.(core.ActivityLog)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		SaveLead:      command.NewSaveLeadCommand(service),
		DeleteLead:    command.NewDeleteLeadCommand(service),
		SaveCompany:   command.NewSaveCompanyCommand(service),
		DeleteCompany: command.NewDeleteCompanyCommand(service),
	}
	facade.queries = Queries{
		GetLead:       query.NewGetLeadQuery(service),
		ListLeads:     query.NewListLeadsQuery(service),
		GetCompany:    query.NewGetCompanyQuery(service),
		ListCompanies: query.NewListCompaniesQuery(service),
	}
	if activity != nil {
		facade.commands.PruneActivity = command.NewPruneActivityCommand(activity)
		facade.queries.ListActivity = query.NewListActivityQuery(activity)
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() RecordService {
	if f == nil {
		return nil
	}
	return f.service
}
