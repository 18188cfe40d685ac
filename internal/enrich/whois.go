// Package enrich adds advisory context to borderline verdicts. It never
// changes the model's own score; the pipeline decides what to do with the
// extra signals.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/linkshield/linkshield-go/internal/netguard"
)

// youngDomainDays is the registration age below which a domain counts as
// newly registered, a common trait of phishing infrastructure.
const youngDomainDays = 90

// DomainInfo is the result of a WHOIS lookup for a registered domain.
type DomainInfo struct {
	Domain    string    `json:"domain"`
	Registrar string    `json:"registrar,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	AgeDays   int       `json:"age_days"`
}

// Young reports whether the domain was registered recently enough to be a
// suspicion signal.
func (d *DomainInfo) Young() bool {
	return !d.CreatedAt.IsZero() && d.AgeDays < youngDomainDays
}

// Whois looks up registration data for host. Returns nil (not an error) when
// the host is an IP literal, internal, or WHOIS data is unavailable — the
// pipeline treats a nil result as "no extra signal".
func Whois(ctx context.Context, host string, logger *slog.Logger) *DomainInfo {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" || netguard.HostIsInternal(ctx, host) {
		return nil
	}

	info := lookup(host)
	if info == nil {
		// Registries often have no record for subdomains; retry on the
		// parent (e.g. login.example.com -> example.com).
		if parts := strings.SplitN(host, ".", 2); len(parts) == 2 && strings.Contains(parts[1], ".") {
			info = lookup(parts[1])
		}
	}
	if info == nil {
		logger.Debug("whois: no usable record", "host", host)
	}
	return info
}

func lookup(domain string) *DomainInfo {
	raw, err := whois.Whois(domain)
	if err != nil {
		return nil
	}
	parsed, err := whoisparser.Parse(raw)
	if err != nil || parsed.Domain == nil {
		return nil
	}

	info := &DomainInfo{Domain: domain}
	if parsed.Registrar != nil {
		info.Registrar = parsed.Registrar.Name
	}
	if created := parseWhoisTime(parsed.Domain.CreatedDate); !created.IsZero() {
		info.CreatedAt = created
		info.AgeDays = int(time.Since(created).Hours() / 24)
	}
	return info
}

// parseWhoisTime tries the date layouts registries actually emit.
func parseWhoisTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02-Jan-2006",
		"2006.01.02",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
