package sessionkit

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

/*
====================================
CONFIG LINT
====================================
*/

// LintSeverity ranks configuration findings from advisory to dangerous.
type LintSeverity int

// Severity levels assigned by [Config.Lint].
const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

// String returns the uppercase severity name.
func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Warning is a single configuration finding produced by [Config.Lint].
type Warning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// Warnings is the ordered set of findings from one [Config.Lint] pass.
type Warnings []Warning

// Codes returns the finding codes in report order.
func (ws Warnings) Codes() []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns the findings at or above min.
func (ws Warnings) BySeverity(min LintSeverity) Warnings {
	var out Warnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError collapses the findings at or above min into a single error, or
// returns nil when none reach the threshold.
func (ws Warnings) AsError(min LintSeverity) error {
	flagged := ws.BySeverity(min)
	if len(flagged) == 0 {
		return nil
	}
	return fmt.Errorf("config lint: %s", strings.Join(flagged.Codes(), ", "))
}

// Lint describes the lint operation and its observable behavior.
//
// Lint reports advisory findings that [Config.Validate] accepts but an
// operator should review before production use. It never mutates the
// receiver and an empty result means no finding, not a validated config.
func (c *Config) Lint() Warnings {
	var ws Warnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, Warning{Code: code, Severity: sev, Message: msg})
	}

	if u, err := url.Parse(c.Service.BaseURL); err == nil && u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			add("insecure_base_url", LintHigh,
				"BaseURL uses cleartext HTTP; credentials and refresh cookies would cross the wire unencrypted")
		}
	}
	if c.Service.RequestTimeout > time.Minute {
		add("request_timeout_long", LintWarn,
			"RequestTimeout exceeds 1m; interactive session calls should fail fast")
	}
	if c.Credential.SlotTTL > 30*24*time.Hour {
		add("slot_ttl_long", LintWarn,
			"SlotTTL exceeds 30 days; a stale credential can sit in shared storage for the whole window")
	}
	if c.Credential.RefreshAhead > 5*time.Minute {
		add("refresh_ahead_large", LintWarn,
			"RefreshAhead is wider than a typical credential lifetime, so every call lands in the early-refresh window")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo,
			"session transitions will not reach an audit sink")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", LintWarn,
			"a stalled audit sink backpressures login and refresh paths when DropIfFull is off")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		add("histograms_without_metrics", LintWarn,
			"EnableLatencyHistograms has no effect while Metrics.Enabled is false")
	}

	return ws
}
