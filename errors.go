package sessionkit

import "errors"

var (
	// ErrClientClosed is an exported constant or variable used by the session client.
	ErrClientClosed = errors.New("client closed")
	// ErrUnauthenticated is an exported constant or variable used by the session client.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrAlreadyAuthenticated is an exported constant or variable used by the session client.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrLoginPending is an exported constant or variable used by the session client.
	ErrLoginPending = errors.New("login awaiting second factor")
	// ErrNoPendingLogin is an exported constant or variable used by the session client.
	ErrNoPendingLogin = errors.New("no login awaiting second factor")
	// ErrSessionExpired is an exported constant or variable used by the session client.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidCredentials is an exported constant or variable used by the session client.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRegistration is an exported constant or variable used by the session client.
	ErrInvalidRegistration = errors.New("invalid registration request")
	// ErrInviteInvalid is an exported constant or variable used by the session client.
	ErrInviteInvalid = errors.New("invitation token invalid or expired")
	// ErrPasswordMismatch is an exported constant or variable used by the session client.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrPasswordPolicy is an exported constant or variable used by the session client.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrMFACodeMalformed is an exported constant or variable used by the session client.
	ErrMFACodeMalformed = errors.New("malformed mfa code")
	// ErrMFACodeInvalid is an exported constant or variable used by the session client.
	ErrMFACodeInvalid = errors.New("invalid mfa code")
	// ErrMFAChallengeExpired is an exported constant or variable used by the session client.
	ErrMFAChallengeExpired = errors.New("mfa challenge expired")
	// ErrMFANotEnabled is an exported constant or variable used by the session client.
	ErrMFANotEnabled = errors.New("mfa not enabled")
	// ErrMFASetupNotPending is an exported constant or variable used by the session client.
	ErrMFASetupNotPending = errors.New("no mfa setup pending")
	// ErrBackupCodeMalformed is an exported constant or variable used by the session client.
	ErrBackupCodeMalformed = errors.New("malformed backup code")
	// ErrNotMember is an exported constant or variable used by the session client.
	ErrNotMember = errors.New("not a member of tenant")
	// ErrPermissionDenied is an exported constant or variable used by the session client.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrServiceUnavailable is an exported constant or variable used by the session client.
	ErrServiceUnavailable = errors.New("platform unavailable")
)
