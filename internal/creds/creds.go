// Package creds provides credential lookup for source collectors.
// Providers are constructed once during command wiring and injected into
// each collector; nothing in this codebase reads credentials ambiently.
package creds

import (
	"os"
	"strings"
)

// Provider resolves a credential for a named service. ok is false when the
// credential is not configured; callers treat that as a per-source abort,
// never a crash.
type Provider interface {
	Get(service, key string) (value string, ok bool)
}

// Static serves credentials from an in-memory map, keyed service → key.
type Static map[string]map[string]string

// Get implements Provider.
func (s Static) Get(service, key string) (string, bool) {
	keys, ok := s[service]
	if !ok {
		return "", false
	}
	v, ok := keys[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Env resolves credentials from environment variables named
// <Prefix>_<SERVICE>_<KEY>, upper-cased.
type Env struct {
	Prefix string
}

// Get implements Provider.
func (e Env) Get(service, key string) (string, bool) {
	name := strings.ToUpper(e.Prefix + "_" + service + "_" + key)
	name = strings.ReplaceAll(name, "-", "_")
	v := os.Getenv(name)
	return v, v != ""
}

// Chain tries each provider in order and returns the first hit.
type Chain []Provider

// Get implements Provider.
func (c Chain) Get(service, key string) (string, bool) {
	for _, p := range c {
		if v, ok := p.Get(service, key); ok {
			return v, true
		}
	}
	return "", false
}
