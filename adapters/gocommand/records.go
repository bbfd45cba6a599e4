package gocommand

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-vendorgate/command"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/query"
)

// RecordStores are the stores behind the saved-record bus.
type RecordStores struct {
	Leads     core.LeadStore
	Companies core.CompanyStore
	Activity  core.ActivityLog
}

// Subscriptions tracks dispatcher subscriptions so they can be released together.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, sub := range s {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
}

// RegisterRecordHandlers registers and subscribes every saved-record command
// and query. On failure, subscriptions made so far are released.
func RegisterRecordHandlers(adapter *RegistryAdapter, stores RecordStores) (Subscriptions, error) {
	if stores.Leads == nil || stores.Companies == nil || stores.Activity == nil {
		return nil, fmt.Errorf("gocommand: lead, company and activity stores are required")
	}

	var subs Subscriptions
	track := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			return err
		}
		subs = append(subs, sub)
		return nil
	}

	steps := []func() error{
		func() error { return track(RegisterAndSubscribe(adapter, command.NewSaveLeadCommand(stores.Leads))) },
		func() error { return track(RegisterAndSubscribe(adapter, command.NewDeleteLeadCommand(stores.Leads))) },
		func() error {
			return track(RegisterAndSubscribe(adapter, command.NewSaveCompanyCommand(stores.Companies)))
		},
		func() error {
			return track(RegisterAndSubscribe(adapter, command.NewDeleteCompanyCommand(stores.Companies)))
		},
		func() error {
			return track(RegisterAndSubscribe(adapter, command.NewPruneActivityCommand(stores.Activity)))
		},
		func() error { return track(RegisterAndSubscribeQuery(adapter, query.NewGetLeadQuery(stores.Leads))) },
		func() error { return track(RegisterAndSubscribeQuery(adapter, query.NewListLeadsQuery(stores.Leads))) },
		func() error {
			return track(RegisterAndSubscribeQuery(adapter, query.NewGetCompanyQuery(stores.Companies)))
		},
		func() error {
			return track(RegisterAndSubscribeQuery(adapter, query.NewListCompaniesQuery(stores.Companies)))
		},
		func() error {
			return track(RegisterAndSubscribeQuery(adapter, query.NewListActivityQuery(stores.Activity)))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			subs.Unsubscribe()
			return nil, err
		}
	}
	return subs, nil
}
