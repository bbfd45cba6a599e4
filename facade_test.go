package vendorgate

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-vendorgate/command"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(&stubRecordService{}, WithActivityLog(&stubActivityLog{}))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.SaveLead == nil || commands.DeleteCompany == nil || commands.PruneActivity == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.ListLeads == nil || queries.GetCompany == nil || queries.ListActivity == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubRecordService{}
	activity := &stubActivityLog{}
	facade, err := NewFacade(svc, WithActivityLog(activity))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	if err := facade.Commands().DeleteLead.Execute(context.Background(), command.DeleteLeadMessage{ID: "lead_1"}); err != nil {
		t.Fatalf("execute delete lead: %v", err)
	}
	if svc.lastDeletedLead != "lead_1" {
		t.Fatalf("unexpected delete delegation: %q", svc.lastDeletedLead)
	}

	if err := facade.Commands().PruneActivity.Execute(context.Background(), command.PruneActivityMessage{
		Policy: core.ActivityRetentionPolicy{TTL: 24 * time.Hour},
	}); err != nil {
		t.Fatalf("execute prune: %v", err)
	}
	if activity.lastPolicy.TTL != 24*time.Hour {
		t.Fatalf("unexpected prune policy: %+v", activity.lastPolicy)
	}

	lead, err := facade.Queries().GetLead.Query(context.Background(), query.GetLeadMessage{ID: "lead_1"})
	if err != nil {
		t.Fatalf("query get lead: %v", err)
	}
	if lead.ID != "lead_1" {
		t.Fatalf("unexpected lead result: %#v", lead)
	}

	page, err := facade.Queries().ListActivity.Query(context.Background(), query.ListActivityMessage{
		Filter: core.ActivityFilter{Vendor: core.VendorApollo, Page: 1, PerPage: 20},
	})
	if err != nil {
		t.Fatalf("query list activity: %v", err)
	}
	if page.Pagination.TotalEntries != 1 || activity.lastFilter.Vendor != core.VendorApollo {
		t.Fatalf("unexpected activity page result: %#v", page)
	}
}

func TestNewFacade_UsesServiceAsActivityLog(t *testing.T) {
	facade, err := NewFacade(&stubRecordAndActivityService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	if facade.Queries().ListActivity == nil || facade.Commands().PruneActivity == nil {
		t.Fatalf("expected activity handlers resolved from service")
	}
}

func TestNewFacade_WithoutActivityLogLeavesActivityHandlersUnset(t *testing.T) {
	facade, err := NewFacade(&stubRecordService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	if facade.Queries().ListActivity != nil || facade.Commands().PruneActivity != nil {
		t.Fatalf("expected activity handlers to stay nil")
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

func TestNilFacadeAccessors(t *testing.T) {
	var facade *Facade
	if facade.Service() != nil {
		t.Fatalf("expected nil service")
	}
	if facade.Commands().SaveLead != nil || facade.Queries().ListLeads != nil {
		t.Fatalf("expected empty handler sets")
	}
}

type stubRecordService struct {
	lastDeletedLead string
}

func (s *stubRecordService) SaveLead(_ context.Context, in core.SaveLeadInput) (core.SavedLead, error) {
	return core.SavedLead{ID: "lead_1", Lead: in.Lead}, nil
}

func (s *stubRecordService) GetLead(_ context.Context, id string) (core.SavedLead, error) {
	return core.SavedLead{ID: id}, nil
}

func (s *stubRecordService) ListLeads(context.Context, core.RecordFilter) (core.SavedLeadPage, error) {
	return core.SavedLeadPage{}, nil
}

func (s *stubRecordService) DeleteLead(_ context.Context, id string) error {
	s.lastDeletedLead = id
	return nil
}

func (s *stubRecordService) SaveCompany(_ context.Context, in core.SaveCompanyInput) (core.SavedCompany, error) {
	return core.SavedCompany{ID: "company_1", Company: in.Company}, nil
}

func (s *stubRecordService) GetCompany(_ context.Context, id string) (core.SavedCompany, error) {
	return core.SavedCompany{ID: id}, nil
}

func (s *stubRecordService) ListCompanies(context.Context, core.RecordFilter) (core.SavedCompanyPage, error) {
	return core.SavedCompanyPage{}, nil
}

func (s *stubRecordService) DeleteCompany(context.Context, string) error {
	return nil
}

type stubActivityLog struct {
	lastPolicy core.ActivityRetentionPolicy
	lastFilter core.ActivityFilter
}

func (s *stubActivityLog) Record(context.Context, core.ActivityEntry) error {
	return nil
}

func (s *stubActivityLog) ListActivity(_ context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	s.lastFilter = filter
	return core.ActivityPage{
		Items:      []core.ActivityRecord{{Vendor: filter.Vendor}},
		Pagination: core.Pagination{Page: 1, PerPage: 20, TotalEntries: 1, TotalPages: 1},
	}, nil
}

func (s *stubActivityLog) Prune(_ context.Context, policy core.ActivityRetentionPolicy) (int, error) {
	s.lastPolicy = policy
	return 3, nil
}

type stubRecordAndActivityService struct {
	stubRecordService
	stubActivityLog
}
