package transport

import (
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-vendorgate/core"
)

// AllowList is the set of hosts the proxy may reach. It is immutable after
// construction.
type AllowList struct {
	hosts map[string]struct{}
}

func NewAllowList(groups ...[]string) *AllowList {
	hosts := map[string]struct{}{}
	for _, group := range groups {
		for _, host := range group {
			host = strings.ToLower(strings.TrimSpace(host))
			if host == "" {
				continue
			}
			hosts[host] = struct{}{}
		}
	}
	return &AllowList{hosts: hosts}
}

func (a *AllowList) Allows(host string) bool {
	if a == nil {
		return false
	}
	_, ok := a.hosts[strings.ToLower(strings.TrimSpace(host))]
	return ok
}

func (a *AllowList) Hosts() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.hosts))
	for host := range a.hosts {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

// ParseTarget validates raw as an absolute URL on an allowed host. Plain
// http is accepted only for loopback hosts.
func (a *AllowList) ParseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, core.BadRequestError("url is required", nil)
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, core.BadRequestError("url is not valid", nil)
	}
	if !target.IsAbs() || target.Host == "" {
		return nil, core.BadRequestError("url must be absolute", nil)
	}
	if target.User != nil {
		return nil, core.BadRequestError("url must not carry user info", nil)
	}
	host := strings.ToLower(target.Hostname())
	switch strings.ToLower(target.Scheme) {
	case "https":
	case "http":
		if !isLoopback(host) {
			return nil, core.BadRequestError("url must use https", nil)
		}
	default:
		return nil, core.BadRequestError("url scheme is not supported", nil)
	}
	if !a.Allows(host) {
		return nil, core.BadRequestError("url host is not an allowed vendor host", map[string]any{"host": host})
	}
	return target, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
