package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-vendorgate"
	gocommandadapter "github.com/goliatone/go-vendorgate/adapters/gocommand"
	"github.com/goliatone/go-vendorgate/command"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/gateway"
	"github.com/goliatone/go-vendorgate/query"
	sqlstore "github.com/goliatone/go-vendorgate/store/sql"
	"github.com/spf13/cobra"
)

func newActivityCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Inspect and trim the vendor activity log",
	}
	cmd.AddCommand(newActivityListCmd(c), newActivityPruneCmd(c))
	return cmd
}

func newActivityListCmd(c *cli) *cobra.Command {
	var (
		vendor  string
		outcome string
		perPage int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the most recent activity rows as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := c.openGateway(cmd.Context())
			if err != nil {
				return err
			}
			defer gw.Close()

			facade, err := recordFacade(gw)
			if err != nil {
				return err
			}
			msg := query.ListActivityMessage{Filter: core.ActivityFilter{
				Vendor:  core.Vendor(strings.ToLower(strings.TrimSpace(vendor))),
				Outcome: core.ActivityOutcome(strings.ToLower(strings.TrimSpace(outcome))),
				Page:    1,
				PerPage: perPage,
			}}
			if err := msg.Validate(); err != nil {
				return err
			}
			page, err := facade.Queries().ListActivity.Query(cmd.Context(), msg)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(page)
		},
	}
	cmd.Flags().StringVar(&vendor, "vendor", "", "only rows for this vendor")
	cmd.Flags().StringVar(&outcome, "outcome", "", "only rows with this outcome")
	cmd.Flags().IntVar(&perPage, "limit", 50, "rows to print")
	return cmd
}

func newActivityPruneCmd(c *cli) *cobra.Command {
	var (
		ttl     time.Duration
		maxRows int
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete activity rows older than --ttl or beyond --max-rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := c.openGateway(cmd.Context())
			if err != nil {
				return err
			}
			defer gw.Close()

			deleted, err := pruneActivity(cmd.Context(), core.ActivityRetentionPolicy{TTL: ttl, RowCap: maxRows})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d activity rows\n", deleted)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "maximum row age, e.g. 720h")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "maximum rows kept")
	return cmd
}

// pruneActivity dispatches through the command bus populated by the gateway.
func pruneActivity(ctx context.Context, policy core.ActivityRetentionPolicy) (int, error) {
	msg := command.PruneActivityMessage{Policy: policy}
	if err := msg.Validate(); err != nil {
		return 0, err
	}
	collector := gocmd.NewResult[command.PruneResult]()
	if err := gocommandadapter.Dispatch(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return 0, err
	}
	result, _ := collector.Load()
	return result.Deleted, nil
}

type sqlRecords struct {
	*sqlstore.LeadStore
	*sqlstore.CompanyStore
}

func recordFacade(gw *gateway.Gateway) (*vendorgate.Facade, error) {
	stores := gw.Stores()
	return vendorgate.NewFacade(
		sqlRecords{LeadStore: stores.LeadStore(), CompanyStore: stores.CompanyStore()},
		vendorgate.WithActivityLog(stores.ActivityStore()),
	)
}
