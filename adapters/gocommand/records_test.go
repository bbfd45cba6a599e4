package gocommand

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-vendorgate/command"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/query"
)

func TestRegisterRecordHandlers_DispatchesAndQueries(t *testing.T) {
	stores := &memoryStores{}
	subs, err := RegisterRecordHandlers(NewRegistryAdapter(gocmd.NewRegistry()), RecordStores{
		Leads:     stores,
		Companies: stores,
		Activity:  stores,
	})
	if err != nil {
		t.Fatalf("register record handlers: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)
	if len(subs) != 10 {
		t.Fatalf("expected 10 subscriptions, got %d", len(subs))
	}

	collector := gocmd.NewResult[core.SavedLead]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	err = Dispatch(ctx, command.SaveLeadMessage{Input: core.SaveLeadInput{Lead: core.NormalizedLead{Name: "Ada"}}})
	if err != nil {
		t.Fatalf("dispatch save lead: %v", err)
	}
	saved, ok := collector.Load()
	if !ok || saved.ID != "lead-1" {
		t.Fatalf("expected saved lead result, got %#v", saved)
	}

	page, err := Query[query.ListLeadsMessage, core.SavedLeadPage](context.Background(), query.ListLeadsMessage{})
	if err != nil {
		t.Fatalf("query leads: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Lead.Name != "Ada" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestRegisterRecordHandlers_RequiresStores(t *testing.T) {
	if _, err := RegisterRecordHandlers(NewRegistryAdapter(nil), RecordStores{}); err == nil {
		t.Fatalf("expected missing stores to fail")
	}
}

type memoryStores struct {
	leads []core.SavedLead
}

func (m *memoryStores) SaveLead(_ context.Context, in core.SaveLeadInput) (core.SavedLead, error) {
	lead := core.SavedLead{ID: "lead-1", Lead: in.Lead, Notes: in.Notes}
	m.leads = append(m.leads, lead)
	return lead, nil
}

func (m *memoryStores) GetLead(context.Context, string) (core.SavedLead, error) {
	return core.SavedLead{}, core.NotFoundError("lead not found", nil)
}

func (m *memoryStores) ListLeads(context.Context, core.RecordFilter) (core.SavedLeadPage, error) {
	return core.SavedLeadPage{Items: append([]core.SavedLead(nil), m.leads...)}, nil
}

func (m *memoryStores) DeleteLead(context.Context, string) error { return nil }

func (m *memoryStores) SaveCompany(context.Context, core.SaveCompanyInput) (core.SavedCompany, error) {
	return core.SavedCompany{}, nil
}

func (m *memoryStores) GetCompany(context.Context, string) (core.SavedCompany, error) {
	return core.SavedCompany{}, nil
}

func (m *memoryStores) ListCompanies(context.Context, core.RecordFilter) (core.SavedCompanyPage, error) {
	return core.SavedCompanyPage{}, nil
}

func (m *memoryStores) DeleteCompany(context.Context, string) error { return nil }

func (m *memoryStores) Record(context.Context, core.ActivityEntry) error { return nil }

func (m *memoryStores) ListActivity(context.Context, core.ActivityFilter) (core.ActivityPage, error) {
	return core.ActivityPage{}, nil
}

func (m *memoryStores) Prune(context.Context, core.ActivityRetentionPolicy) (int, error) {
	return 0, nil
}
