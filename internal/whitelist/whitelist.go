// Package whitelist decides which report senders are trusted.
package whitelist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker matches sender addresses against trusted domains. A trusted
// domain also covers its subdomains.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new checker for the given domains
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}

	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 {
		logger.Info("Initialized trusted sender domains", zap.Strings("domains", normalized))
	}

	return &Checker{domains: normalized, logger: logger}
}

// IsTrusted reports whether the sender's domain is trusted. from may be a
// bare address or a full "Name <addr>" header value.
func (c *Checker) IsTrusted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := senderDomain(from)
	if domain == "" {
		return false
	}

	for _, trusted := range c.domains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			c.logger.Debug("Sender domain is trusted",
				zap.String("domain", domain),
				zap.String("sender", from))
			return true
		}
	}
	return false
}

func senderDomain(from string) string {
	addr := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}

	at := strings.LastIndexByte(addr, '@')
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.Trim(addr[at+1:], ". >"))
}
