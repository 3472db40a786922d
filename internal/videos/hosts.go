package videos

import (
	"net/url"
	"strings"
)

// DefaultAllowedHosts lists the external video hosts accepted for new videos.
var DefaultAllowedHosts = []string{"youtube.com", "youtu.be", "iframe.mediadelivery.net"}

// HostAllowList accepts URLs whose host is a listed domain or one of its subdomains.
type HostAllowList struct {
	hosts []string
}

// NewHostAllowList builds an allow-list from the defaults plus any extra hosts.
func NewHostAllowList(extra ...string) HostAllowList {
	seen := make(map[string]struct{})
	var hosts []string
	for _, host := range append(append([]string{}, DefaultAllowedHosts...), extra...) {
		host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), ".")
		if host == "" {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		hosts = append(hosts, host)
	}
	return HostAllowList{hosts: hosts}
}

// Hosts returns the allowed domains.
func (l HostAllowList) Hosts() []string {
	return append([]string(nil), l.hosts...)
}

// Validate returns ErrInvalidURL unless raw is an absolute http(s) URL on an allowed host.
func (l HostAllowList) Validate(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return ErrInvalidURL
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if host == "" {
		return ErrInvalidURL
	}

	for _, allowed := range l.hosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return ErrInvalidURL
}
