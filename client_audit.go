package sessionkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterFailure      = "register_failure"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLoginMFARequired     = "login_mfa_required"
	auditEventMFALoginSuccess      = "mfa_login_success"
	auditEventMFALoginFailure      = "mfa_login_failure"
	auditEventMFARecoveryUsed      = "mfa_recovery_used"
	auditEventMFASetupRequested    = "mfa_setup_requested"
	auditEventMFAEnabled           = "mfa_enabled"
	auditEventMFADisabled          = "mfa_disabled"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventRequestReplayed      = "request_replayed"
	auditEventRequestUnauthorized  = "request_unauthorized"
	auditEventSessionExpired       = "session_expired"
	auditEventSessionResumed       = "session_resumed"
	auditEventLogout               = "logout"
	auditEventTenantContextLoaded  = "tenant_context_loaded"
	auditEventTenantContextFailure = "tenant_context_failure"
	auditEventTenantSwitch         = "tenant_switch"
	auditEventPasswordChanged      = "password_changed"
	auditEventPasswordChangeFailed = "password_change_failed"
)

// AuditErrorCode defines a public type used by sessionkit APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthenticated     AuditErrorCode = "unauthenticated"
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrSessionExpired      AuditErrorCode = "session_expired"
	auditErrInviteInvalid       AuditErrorCode = "invite_invalid"
	auditErrRegistrationInvalid AuditErrorCode = "registration_invalid"
	auditErrPasswordMismatch    AuditErrorCode = "password_mismatch"
	auditErrPasswordPolicy      AuditErrorCode = "password_policy"
	auditErrMFACodeMalformed    AuditErrorCode = "mfa_code_malformed"
	auditErrMFACodeInvalid      AuditErrorCode = "mfa_code_invalid"
	auditErrMFAExpired          AuditErrorCode = "mfa_challenge_expired"
	auditErrMFANotEnabled       AuditErrorCode = "mfa_not_enabled"
	auditErrMFASetupNotPending  AuditErrorCode = "mfa_setup_not_pending"
	auditErrNotMember           AuditErrorCode = "not_member"
	auditErrPermissionDenied    AuditErrorCode = "permission_denied"
	auditErrStateConflict       AuditErrorCode = "session_state_conflict"
	auditErrClientClosed        AuditErrorCode = "client_closed"
	auditErrUnavailable         AuditErrorCode = "platform_unavailable"
	auditErrTransport           AuditErrorCode = "transport_error"
)

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	tenantID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}
	if userID == "" || tenantID == "" {
		hintUser, hintTenant := c.identityHint()
		if userID == "" {
			userID = hintUser
		}
		if tenantID == "" {
			tenantID = hintTenant
		}
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		TenantID:  tenantID,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func (c *Client) identityHint() (userID, tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil {
		userID = c.user.ID
	}
	if c.tenant != nil {
		tenantID = c.tenant.ID
	}
	return userID, tenantID
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrInviteInvalid):
		return auditErrInviteInvalid
	case errors.Is(err, ErrInvalidRegistration):
		return auditErrRegistrationInvalid
	case errors.Is(err, ErrPasswordMismatch):
		return auditErrPasswordMismatch
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrMFACodeMalformed),
		errors.Is(err, ErrBackupCodeMalformed):
		return auditErrMFACodeMalformed
	case errors.Is(err, ErrMFACodeInvalid):
		return auditErrMFACodeInvalid
	case errors.Is(err, ErrMFAChallengeExpired):
		return auditErrMFAExpired
	case errors.Is(err, ErrMFANotEnabled):
		return auditErrMFANotEnabled
	case errors.Is(err, ErrMFASetupNotPending):
		return auditErrMFASetupNotPending
	case errors.Is(err, ErrNotMember):
		return auditErrNotMember
	case errors.Is(err, ErrPermissionDenied):
		return auditErrPermissionDenied
	case errors.Is(err, ErrAlreadyAuthenticated),
		errors.Is(err, ErrLoginPending),
		errors.Is(err, ErrNoPendingLogin):
		return auditErrStateConflict
	case errors.Is(err, ErrClientClosed):
		return auditErrClientClosed
	case errors.Is(err, ErrServiceUnavailable):
		return auditErrUnavailable
	default:
		return auditErrTransport
	}
}
