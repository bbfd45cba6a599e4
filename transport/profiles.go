package transport

import "github.com/goliatone/go-vendorgate/core"

// Profile carries the per-vendor request dialect.
type Profile struct {
	Vendor         core.Vendor
	DefaultHeaders map[string]string
}

var profiles = map[core.Vendor]Profile{
	core.VendorAccounts: {
		Vendor:         core.VendorAccounts,
		DefaultHeaders: map[string]string{"Accept": "application/json"},
	},
	core.VendorWorkDrive: {
		Vendor:         core.VendorWorkDrive,
		DefaultHeaders: map[string]string{"Accept": "application/vnd.api+json"},
	},
	core.VendorWorkDriveDownload: {
		Vendor:         core.VendorWorkDriveDownload,
		DefaultHeaders: map[string]string{},
	},
	core.VendorCreator: {
		Vendor:         core.VendorCreator,
		DefaultHeaders: map[string]string{"Accept": "application/json"},
	},
	core.VendorApollo: {
		Vendor: core.VendorApollo,
		DefaultHeaders: map[string]string{
			"Accept":        "application/json",
			"Cache-Control": "no-cache",
		},
	},
}

// ProfileFor returns the vendor profile or an empty one for extra hosts.
func ProfileFor(vendor core.Vendor) Profile {
	profile, ok := profiles[vendor]
	if !ok {
		return Profile{Vendor: vendor, DefaultHeaders: map[string]string{}}
	}
	return Profile{Vendor: profile.Vendor, DefaultHeaders: cloneHeaders(profile.DefaultHeaders)}
}

func cloneHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}
