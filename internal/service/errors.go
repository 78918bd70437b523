package service

import "errors"

var (
	// ErrDuplicateAccount indicates the student number is already registered.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrInvalidCredentials is the uniform login failure; it never reveals whether the account exists.
	ErrInvalidCredentials = errors.New("invalid student number or password")
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrBirthdayMissing indicates the account has no birthday to derive a default password from.
	ErrBirthdayMissing = errors.New("birthday not found for account")
	// ErrInvalidBirthday indicates the birthday contained no digits.
	ErrInvalidBirthday = errors.New("birthday must contain digits")
	// ErrCorruptCredential indicates the stored key or IV fails the length invariant.
	ErrCorruptCredential = errors.New("stored credential material is corrupted")
	// ErrConsentAlreadyExists indicates the student already submitted a consent form.
	ErrConsentAlreadyExists = errors.New("consent form already filled")
	// ErrCatalogUnavailable indicates the external catalog could not be reached or parsed.
	ErrCatalogUnavailable = errors.New("yearbook catalog unavailable")
	// ErrYearbookNotFound indicates the catalog has no item with the requested id.
	ErrYearbookNotFound = errors.New("yearbook not found")
)
