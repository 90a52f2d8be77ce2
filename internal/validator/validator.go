// Package validator decides whether a discovered URL may enter the crawl.
// Checks run cheapest-first: length and scheme, then cached domain policy,
// then cached DNS resolution with loopback/private IP filtering.
package validator

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sneakyhydra/sneakdex/crawler/internal/urlutil"
)

const (
	defaultMaxURLLength = 2048
	defaultDNSCacheTTL  = 5 * time.Minute
)

// Options configures a URLValidator.
type Options struct {
	Whitelist       []string
	Blacklist       []string
	AllowPrivateIPs bool
	AllowLoopback   bool
	SkipDNSCheck    bool
	DNSCacheTTL     time.Duration
	MaxURLLength    int
}

// URLValidator validates URLs with cached domain decisions and DNS lookups.
type URLValidator struct {
	whitelist []string
	blacklist []string
	log       *logrus.Logger

	dnsCache    sync.Map // map[string]dnsResult
	dnsCacheTTL time.Duration

	domainCache sync.Map // map[string]bool

	allowPrivateIPs bool
	allowLoopback   bool
	skipDNSCheck    bool
	maxURLLength    int
}

// New creates a URLValidator from the given options.
func New(opts Options, log *logrus.Logger) *URLValidator {
	if opts.DNSCacheTTL <= 0 {
		opts.DNSCacheTTL = defaultDNSCacheTTL
	}
	if opts.MaxURLLength <= 0 {
		opts.MaxURLLength = defaultMaxURLLength
	}
	return &URLValidator{
		whitelist:       lowercaseAll(opts.Whitelist),
		blacklist:       lowercaseAll(opts.Blacklist),
		log:             log,
		dnsCacheTTL:     opts.DNSCacheTTL,
		allowPrivateIPs: opts.AllowPrivateIPs,
		allowLoopback:   opts.AllowLoopback,
		skipDNSCheck:    opts.SkipDNSCheck,
		maxURLLength:    opts.MaxURLLength,
	}
}

// IsValidURL checks a raw URL against all rules and returns its canonical
// form together with the verdict. Rejections are logged once at debug level.
func (v *URLValidator) IsValidURL(rawURL string) (string, bool) {
	// Quick checks first (cheapest operations)
	if rawURL == "" || len(rawURL) > v.maxURLLength {
		return "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		v.log.WithFields(logrus.Fields{"url": rawURL, "error": err}).Debug("Invalid URL format")
		return "", false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	if parsed.Host == "" {
		return "", false
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimSuffix(host, ".")

	// Domain-based filtering before the expensive DNS lookup
	if !v.isDomainAllowed(host) {
		return "", false
	}

	if !v.skipDNSCheck && !v.isIPValid(host) {
		return "", false
	}

	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		v.log.WithFields(logrus.Fields{"url": rawURL, "error": err}).Debug("Failed to normalize URL")
		return "", false
	}

	return normalized, true
}

// ClearCache drops all cached domain and DNS results.
func (v *URLValidator) ClearCache() {
	v.dnsCache = sync.Map{}
	v.domainCache = sync.Map{}
}

func lowercaseAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
