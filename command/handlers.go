package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-vendorgate/core"
)

// ActivityPruner trims the vendor activity log.
type ActivityPruner interface {
	Prune(ctx context.Context, policy core.ActivityRetentionPolicy) (int, error)
}

// PruneResult reports how many activity rows were removed.
type PruneResult struct {
	Deleted int `json:"deleted"`
}

type SaveLeadCommand struct {
	store core.LeadStore
}

func NewSaveLeadCommand(store core.LeadStore) *SaveLeadCommand {
	return &SaveLeadCommand{store: store}
}

func (c *SaveLeadCommand) Execute(ctx context.Context, msg SaveLeadMessage) error {
	if c == nil || c.store == nil {
		return commandDependencyError("command: lead store is required")
	}
	out, err := c.store.SaveLead(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteLeadCommand struct {
	store core.LeadStore
}

func NewDeleteLeadCommand(store core.LeadStore) *DeleteLeadCommand {
	return &DeleteLeadCommand{store: store}
}

func (c *DeleteLeadCommand) Execute(ctx context.Context, msg DeleteLeadMessage) error {
	if c == nil || c.store == nil {
		return commandDependencyError("command: lead store is required")
	}
	return c.store.DeleteLead(ctx, msg.ID)
}

type SaveCompanyCommand struct {
	store core.CompanyStore
}

func NewSaveCompanyCommand(store core.CompanyStore) *SaveCompanyCommand {
	return &SaveCompanyCommand{store: store}
}

func (c *SaveCompanyCommand) Execute(ctx context.Context, msg SaveCompanyMessage) error {
	if c == nil || c.store == nil {
		return commandDependencyError("command: company store is required")
	}
	out, err := c.store.SaveCompany(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteCompanyCommand struct {
	store core.CompanyStore
}

func NewDeleteCompanyCommand(store core.CompanyStore) *DeleteCompanyCommand {
	return &DeleteCompanyCommand{store: store}
}

func (c *DeleteCompanyCommand) Execute(ctx context.Context, msg DeleteCompanyMessage) error {
	if c == nil || c.store == nil {
		return commandDependencyError("command: company store is required")
	}
	return c.store.DeleteCompany(ctx, msg.ID)
}

type PruneActivityCommand struct {
	pruner ActivityPruner
}

func NewPruneActivityCommand(pruner ActivityPruner) *PruneActivityCommand {
	return &PruneActivityCommand{pruner: pruner}
}

func (c *PruneActivityCommand) Execute(ctx context.Context, msg PruneActivityMessage) error {
	if c == nil || c.pruner == nil {
		return commandDependencyError("command: activity pruner is required")
	}
	deleted, err := c.pruner.Prune(ctx, msg.Policy)
	if err != nil {
		return err
	}
	storeResult(ctx, PruneResult{Deleted: deleted})
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
