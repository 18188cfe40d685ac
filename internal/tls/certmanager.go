package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/caddyserver/certmagic"
)

// CertManager provisions TLS certificates via certmagic for the configured
// public domain(s).
type CertManager struct {
	domains []string
	logger  *slog.Logger
	cfg     *certmagic.Config
}

// NewCertManager creates a CertManager for the comma-separated domain list
// in LINKSHIELD_DOMAIN. Returns nil when no domain is configured; the caller
// then serves plain HTTP.
func NewCertManager(logger *slog.Logger) *CertManager {
	raw := os.Getenv("LINKSHIELD_DOMAIN")
	if raw == "" {
		return nil
	}

	var domains []string
	for _, d := range strings.Split(raw, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		return nil
	}

	certmagic.DefaultACME.Email = os.Getenv("ACME_EMAIL")
	certmagic.DefaultACME.Agreed = true
	if os.Getenv("LINKSHIELD_ENV") != "production" {
		certmagic.DefaultACME.CA = certmagic.LetsEncryptStagingCA
	}

	cfg := certmagic.NewDefault()
	cm := &CertManager{domains: domains, logger: logger, cfg: cfg}

	cfg.OnDemand = &certmagic.OnDemandConfig{DecisionFunc: cm.allowCert}
	return cm
}

// allowCert only provisions certificates for the configured domains.
func (cm *CertManager) allowCert(ctx context.Context, name string) error {
	for _, d := range cm.domains {
		if strings.EqualFold(name, d) {
			return nil
		}
	}
	return fmt.Errorf("unknown domain: %s", name)
}

// ListenAndServe starts an HTTPS server using certmagic's TLS configuration.
func (cm *CertManager) ListenAndServe(handler http.Handler) error {
	cm.logger.Info("starting TLS server", "domains", cm.domains)

	if err := cm.cfg.ManageSync(context.Background(), cm.domains); err != nil {
		return fmt.Errorf("manage domains: %w", err)
	}

	ln, err := tls.Listen("tcp", fmt.Sprintf(":%d", certmagic.HTTPSPort), cm.cfg.TLSConfig())
	if err != nil {
		return fmt.Errorf("tls listen: %w", err)
	}

	cm.logger.Info("serving HTTPS", "port", certmagic.HTTPSPort)
	return http.Serve(ln, handler)
}
