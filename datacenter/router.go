// Package datacenter maps a vendor and a regional datacenter code to the
// vendor's base URL. Codes come from a fixed set; the router never builds a
// host from free-form input.
package datacenter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-vendorgate/core"
)

// table holds base URLs keyed by datacenter. Single-host vendors use one
// entry under the default code.
type table map[core.Datacenter]string

func regional(pattern string) table {
	out := table{}
	for _, dc := range core.Datacenters() {
		out[dc] = strings.ReplaceAll(pattern, "{dc}", string(dc))
	}
	return out
}

// Router is immutable after construction and safe for concurrent use.
type Router struct {
	tables map[core.Vendor]table
	hosts  map[string]core.Vendor
}

// NewRouter builds the default vendor tables.
func NewRouter() *Router {
	tables := map[core.Vendor]table{
		core.VendorAccounts:          regional("https://accounts.zoho.{dc}"),
		core.VendorWorkDrive:         regional("https://www.zohoapis.{dc}/workdrive/api/v1"),
		core.VendorWorkDriveDownload: regional("https://download.zoho.{dc}/v1/workdrive"),
		core.VendorCreator:           regional("https://www.zohoapis.{dc}/creator/v2.1"),
		core.VendorApollo:            {core.DefaultDatacenter: "https://api.apollo.io"},
	}
	return newRouter(tables)
}

// NewRouterWithOverrides replaces the base URL of a vendor for every
// datacenter. It is used to point the gateway at local mock vendors.
func NewRouterWithOverrides(overrides map[core.Vendor]string) *Router {
	router := NewRouter()
	if len(overrides) == 0 {
		return router
	}
	tables := make(map[core.Vendor]table, len(router.tables))
	for vendor, entries := range router.tables {
		tables[vendor] = entries
	}
	for vendor, base := range overrides {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" {
			continue
		}
		tables[vendor] = table{core.DefaultDatacenter: base}
	}
	return newRouter(tables)
}

var vendorOrder = []core.Vendor{
	core.VendorAccounts,
	core.VendorWorkDrive,
	core.VendorWorkDriveDownload,
	core.VendorCreator,
	core.VendorApollo,
}

func newRouter(tables map[core.Vendor]table) *Router {
	hosts := map[string]core.Vendor{}
	for _, vendor := range vendorOrder {
		for _, base := range tables[vendor] {
			host := hostOf(base)
			if host == "" {
				continue
			}
			if _, taken := hosts[host]; !taken {
				hosts[host] = vendor
			}
		}
	}
	return &Router{tables: tables, hosts: hosts}
}

// Normalize maps unknown or empty codes to the default datacenter.
func Normalize(code string) core.Datacenter {
	if dc, ok := core.ParseDatacenter(code); ok {
		return dc
	}
	return core.DefaultDatacenter
}

// Codes lists the supported datacenter codes.
func Codes() []core.Datacenter {
	return core.Datacenters()
}

// ResolveBaseURL returns the base URL for vendor in dc. Unknown codes fall
// back to the default datacenter; unknown vendors are a BadRequest.
func (r *Router) ResolveBaseURL(vendor core.Vendor, dc core.Datacenter) (string, error) {
	entries, ok := r.tables[vendor]
	if !ok {
		return "", core.BadRequestError("unknown vendor", map[string]any{"vendor": string(vendor)})
	}
	if base, found := entries[Normalize(string(dc))]; found {
		return base, nil
	}
	return entries[core.DefaultDatacenter], nil
}

// Resolve accepts a raw code, as read from a query parameter.
func (r *Router) Resolve(vendor core.Vendor, code string) (string, error) {
	return r.ResolveBaseURL(vendor, Normalize(code))
}

// Hosts returns every host the router can produce, sorted.
func (r *Router) Hosts() []string {
	out := make([]string, 0, len(r.hosts))
	for host := range r.hosts {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

// VendorForHost reports which vendor owns host. Hosts shared by several
// vendors resolve to the first one in vendorOrder; use VendorForURL when the
// path is known.
func (r *Router) VendorForHost(host string) (core.Vendor, bool) {
	vendor, ok := r.hosts[strings.ToLower(strings.TrimSpace(host))]
	return vendor, ok
}

// VendorForURL matches both host and base path, so vendors sharing an API
// host are told apart.
func (r *Router) VendorForURL(target *url.URL) (core.Vendor, bool) {
	if target == nil {
		return "", false
	}
	host := strings.ToLower(target.Hostname())
	for _, vendor := range vendorOrder {
		for _, base := range r.tables[vendor] {
			parsed, err := url.Parse(base)
			if err != nil || strings.ToLower(parsed.Hostname()) != host {
				continue
			}
			prefix := strings.TrimRight(parsed.Path, "/")
			if prefix == "" || target.Path == prefix || strings.HasPrefix(target.Path, prefix+"/") {
				return vendor, true
			}
		}
	}
	return r.VendorForHost(host)
}

func hostOf(base string) string {
	parsed, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

var _ core.BaseURLResolver = (*Router)(nil)
