package sessionkit

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by sessionkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Service    ServiceConfig
	Credential CredentialConfig
	MFA        MFAConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
SERVICE CONFIG
====================================
*/

// ServiceConfig defines a public type used by sessionkit APIs.
//
// ServiceConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ServiceConfig struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig defines a public type used by sessionkit APIs.
//
// CredentialConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CredentialConfig struct {
	SlotKey      string
	SlotTTL      time.Duration
	RefreshAhead time.Duration // 0 disables pre-emptive refresh
}

/*
====================================
MFA CONFIG
====================================
*/

// MFAConfig defines a public type used by sessionkit APIs.
//
// MFAConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MFAConfig struct {
	CodeDigits int
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by sessionkit APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by sessionkit APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			UserAgent:      "sessionkit/1",
			RequestTimeout: 15 * time.Second,
		},
		Credential: CredentialConfig{
			SlotKey:      "session",
			SlotTTL:      12 * time.Hour,
			RefreshAhead: 0,
		},
		MFA: MFAConfig{
			CodeDigits: 6,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Service
	if c.Service.BaseURL == "" {
		return errors.New("Service BaseURL is required")
	}
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Service BaseURL must be an absolute URL")
	}
	if c.Service.RequestTimeout <= 0 {
		return errors.New("Service RequestTimeout must be > 0")
	}

	// Credential
	if c.Credential.SlotKey == "" {
		return errors.New("Credential SlotKey is required")
	}
	if c.Credential.SlotTTL <= 0 {
		return errors.New("Credential SlotTTL must be > 0")
	}
	if c.Credential.RefreshAhead < 0 {
		return errors.New("Credential RefreshAhead must be >= 0")
	}

	// MFA
	if c.MFA.CodeDigits != 6 && c.MFA.CodeDigits != 8 {
		return errors.New("MFA CodeDigits must be 6 or 8")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
