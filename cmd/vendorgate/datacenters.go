package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/datacenter"
	"github.com/spf13/cobra"
)

var listedVendors = []core.Vendor{
	core.VendorAccounts,
	core.VendorWorkDrive,
	core.VendorWorkDriveDownload,
	core.VendorCreator,
}

func newDatacentersCmd(_ *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "datacenters",
		Short: "Print the base URL of every vendor per datacenter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			router := datacenter.NewRouter()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprint(w, "DC")
			for _, vendor := range listedVendors {
				fmt.Fprintf(w, "\t%s", vendor)
			}
			fmt.Fprintln(w)
			for _, dc := range core.Datacenters() {
				fmt.Fprint(w, dc)
				for _, vendor := range listedVendors {
					base, err := router.ResolveBaseURL(vendor, dc)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "\t%s", base)
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}
}
