package errors

import "errors"

// Sentinels shared across package boundaries so the HTTP layer can map
// collector and client failures to statuses. Session and MFA errors live in
// the auth package next to the coordinator that produces them.
var (
	ErrNoAccessToken     = errors.New("no access token")
	ErrNoAccounts        = errors.New("no accounts found")
	ErrNoElectricAccount = errors.New("no electricity account with 15-minute resolution found")
	ErrUnknownUtility    = errors.New("unknown utility")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
