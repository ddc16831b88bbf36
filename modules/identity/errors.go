package identity

import "errors"

// Operational errors: expected failures surfaced to the caller with a
// specific status and message. Anything not in this list is treated as
// internal, logged in full, and reported generically.
var (
	// ErrNotAuthenticated means no credential was presented at all.
	ErrNotAuthenticated = errors.New("you are not logged in, please log in to get access")

	// ErrInvalidToken means a credential was presented but failed
	// cryptographic or structural verification.
	ErrInvalidToken = errors.New("invalid token, please log in again")

	// ErrExpiredToken means the credential verified but its validity window elapsed.
	ErrExpiredToken = errors.New("your token has expired, please log in again")

	// ErrStaleIdentity means the token references an identity that no longer exists.
	ErrStaleIdentity = errors.New("the user belonging to this token no longer exists")

	// ErrPasswordChanged means the password was changed after the token was issued.
	ErrPasswordChanged = errors.New("password was recently changed, please log in again")

	// ErrForbidden means the identity is authenticated but its role is not allowed.
	ErrForbidden = errors.New("you do not have permission to perform this action")

	// ErrInvalidCredentials covers login and password-change mismatches. One
	// undifferentiated message for unknown email and wrong password prevents
	// account enumeration at login.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrResetTokenInvalid covers both unknown and expired reset tokens.
	ErrResetTokenInvalid = errors.New("token is invalid or has expired")

	// ErrNotFound is returned by forgot-password for an unknown email. This
	// deliberately differs from the uniform login message; see the service
	// docs for the inherited enumeration caveat.
	ErrNotFound = errors.New("no user found with this email address")

	// ErrDeliveryFailed means the reset notification could not be delivered
	// and the just-issued reset token was rolled back.
	ErrDeliveryFailed = errors.New("there was an error sending the email, please try again later")

	// ErrEmailAlreadyExists rejects signup or email change to a taken address.
	ErrEmailAlreadyExists = errors.New("email address is already in use")

	// ErrPasswordFieldNotAllowed rejects password data on the profile path,
	// which would bypass hashing and change tracking.
	ErrPasswordFieldNotAllowed = errors.New("this route is not for password updates, please use /update-password")
)
