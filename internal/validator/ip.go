package validator

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// dnsResult caches one DNS resolution, successful or not.
type dnsResult struct {
	ips       []net.IP
	timestamp time.Time
	valid     bool
}

// isIPValid resolves a host to IPs (with caching) and checks whether any of
// them is allowed. Raw IP literals bypass DNS but are still class-filtered.
func (v *URLValidator) isIPValid(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return v.isIPAllowed(ip)
	}

	if cached, exists := v.dnsCache.Load(host); exists {
		if result, ok := cached.(dnsResult); ok {
			if time.Since(result.timestamp) < v.dnsCacheTTL {
				if !result.valid {
					v.log.WithFields(logrus.Fields{"host": host}).Debug("Using cached failed DNS result")
					return false
				}
				return v.areIPsAllowed(result.ips)
			}
			// Expired entry is overwritten below
		} else {
			v.log.WithFields(logrus.Fields{"host": host}).Warn("Invalid DNS cache entry; ignoring and refreshing")
			v.dnsCache.Delete(host)
		}
	}

	ips, err := net.LookupIP(host)

	// Cache the result regardless of success so repeated failures stay cheap
	v.dnsCache.Store(host, dnsResult{
		ips:       ips,
		timestamp: time.Now(),
		valid:     err == nil,
	})

	if err != nil {
		v.log.WithFields(logrus.Fields{"host": host, "error": err}).Debug("DNS resolution failed")
		return false
	}

	return v.areIPsAllowed(ips)
}

// areIPsAllowed returns true if any of the resolved IPs passes the filters.
func (v *URLValidator) areIPsAllowed(ips []net.IP) bool {
	for _, ip := range ips {
		if v.isIPAllowed(ip) {
			return true
		}
	}
	return false
}

// isIPAllowed checks a single IP against the loopback and private-range
// rules.
func (v *URLValidator) isIPAllowed(ip net.IP) bool {
	if ip == nil {
		return false
	}

	if !v.allowLoopback && ip.IsLoopback() {
		v.log.WithFields(logrus.Fields{"ip": ip.String()}).Debug("Blocked loopback IP")
		return false
	}

	if !v.allowPrivateIPs && ip.IsPrivate() {
		v.log.WithFields(logrus.Fields{"ip": ip.String()}).Debug("Blocked private IP")
		return false
	}

	return true
}
