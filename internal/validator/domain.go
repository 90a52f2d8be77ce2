package validator

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// isDomainAllowed checks whitelist and blacklist rules with caching.
func (v *URLValidator) isDomainAllowed(host string) bool {
	if cached, exists := v.domainCache.Load(host); exists {
		if allowed, ok := cached.(bool); ok {
			return allowed
		}
	}

	allowed := v.checkDomainRules(host)
	v.domainCache.Store(host, allowed)
	return allowed
}

// checkDomainRules performs the actual domain filtering logic.
func (v *URLValidator) checkDomainRules(host string) bool {
	// Blacklist first (fail fast)
	for _, blocked := range v.blacklist {
		if matchesDomain(host, blocked) {
			v.log.WithFields(logrus.Fields{"host": host, "blocked_by": blocked}).Debug("Host blocked by blacklist")
			return false
		}
	}

	// Whitelist, when configured, is exhaustive
	if len(v.whitelist) > 0 {
		for _, allowedDomain := range v.whitelist {
			if matchesDomain(host, allowedDomain) {
				return true
			}
		}
		v.log.WithFields(logrus.Fields{"host": host}).Debug("Host not in whitelist")
		return false
	}

	return true
}

// matchesDomain checks a host against one rule: exact, subdomain, or a
// "*.domain" wildcard pattern.
func matchesDomain(host, domain string) bool {
	if bare, ok := strings.CutPrefix(domain, "*."); ok {
		return host == bare || strings.HasSuffix(host, "."+bare)
	}
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

// UpdateWhitelist replaces the whitelist and clears the domain cache.
func (v *URLValidator) UpdateWhitelist(whitelist []string) {
	v.whitelist = lowercaseAll(whitelist)
	v.domainCache = sync.Map{}
}

// UpdateBlacklist replaces the blacklist and clears the domain cache.
func (v *URLValidator) UpdateBlacklist(blacklist []string) {
	v.blacklist = lowercaseAll(blacklist)
	v.domainCache = sync.Map{}
}
