package validator_test

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/sneakyhydra/sneakdex/crawler/internal/validator"
)

func newTestValidator(opts validator.Options) *validator.URLValidator {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	// DNS is skipped in unit tests unless a case provides raw IP literals,
	// which bypass resolution entirely.
	return validator.New(opts, log)
}

func TestIsValidURLBasics(t *testing.T) {
	v := newTestValidator(validator.Options{SkipDNSCheck: true})

	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{"plain https", "https://example.com/page", true},
		{"plain http", "http://example.com", true},
		{"empty", "", false},
		{"ftp scheme", "ftp://example.com/file", false},
		{"no host", "https:///path", false},
		{"relative", "/just/a/path", false},
		{"too long", "https://example.com/" + strings.Repeat("a", 2048), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := v.IsValidURL(tt.url)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestIsValidURLReturnsNormalized(t *testing.T) {
	v := newTestValidator(validator.Options{SkipDNSCheck: true})

	normalized, ok := v.IsValidURL("HTTPS://Example.COM/Page/?q=1#frag")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/Page", normalized)
}

func TestBlacklist(t *testing.T) {
	v := newTestValidator(validator.Options{
		SkipDNSCheck: true,
		Blacklist:    []string{"evil.test"},
	})

	_, ok := v.IsValidURL("https://evil.test/x")
	assert.False(t, ok, "exact blacklist match")

	_, ok = v.IsValidURL("https://sub.evil.test/x")
	assert.False(t, ok, "subdomain blacklist match")

	_, ok = v.IsValidURL("https://notevil.test/x")
	assert.True(t, ok, "unrelated host passes")
}

func TestBlacklistWildcard(t *testing.T) {
	v := newTestValidator(validator.Options{
		SkipDNSCheck: true,
		Blacklist:    []string{"*.ads.test"},
	})

	_, ok := v.IsValidURL("https://tracker.ads.test/pixel")
	assert.False(t, ok)

	_, ok = v.IsValidURL("https://ads.test/")
	assert.False(t, ok, "wildcard also covers the bare domain")
}

func TestWhitelist(t *testing.T) {
	v := newTestValidator(validator.Options{
		SkipDNSCheck: true,
		Whitelist:    []string{"good.test"},
	})

	_, ok := v.IsValidURL("https://good.test/a")
	assert.True(t, ok)

	_, ok = v.IsValidURL("https://docs.good.test/a")
	assert.True(t, ok, "subdomains of whitelisted domains pass")

	_, ok = v.IsValidURL("https://other.test/a")
	assert.False(t, ok, "non-whitelisted host rejected when whitelist set")
}

func TestBlacklistWinsOverWhitelist(t *testing.T) {
	v := newTestValidator(validator.Options{
		SkipDNSCheck: true,
		Whitelist:    []string{"good.test"},
		Blacklist:    []string{"bad.good.test"},
	})

	_, ok := v.IsValidURL("https://bad.good.test/a")
	assert.False(t, ok)
}

func TestUpdateRulesClearsCache(t *testing.T) {
	v := newTestValidator(validator.Options{SkipDNSCheck: true})

	_, ok := v.IsValidURL("https://soon-blocked.test/")
	assert.True(t, ok)

	v.UpdateBlacklist([]string{"soon-blocked.test"})
	_, ok = v.IsValidURL("https://soon-blocked.test/")
	assert.False(t, ok, "cached allow decision must be invalidated on rule change")
}

func TestIPLiteralFiltering(t *testing.T) {
	v := newTestValidator(validator.Options{})

	_, ok := v.IsValidURL("http://127.0.0.1/admin")
	assert.False(t, ok, "loopback rejected by default")

	_, ok = v.IsValidURL("http://10.0.0.8/internal")
	assert.False(t, ok, "private range rejected by default")

	_, ok = v.IsValidURL("http://8.8.8.8/")
	assert.True(t, ok, "public IP literal passes without DNS")
}

func TestIPLiteralAllowances(t *testing.T) {
	v := newTestValidator(validator.Options{
		AllowLoopback:   true,
		AllowPrivateIPs: true,
	})

	_, ok := v.IsValidURL("http://127.0.0.1:8080/")
	assert.True(t, ok)

	_, ok = v.IsValidURL("http://192.168.1.5/")
	assert.True(t, ok)
}

func TestTrailingDotHost(t *testing.T) {
	v := newTestValidator(validator.Options{
		SkipDNSCheck: true,
		Blacklist:    []string{"evil.test"},
	})

	_, ok := v.IsValidURL("https://evil.test./x")
	assert.False(t, ok, "trailing-dot host must match domain rules")
}
