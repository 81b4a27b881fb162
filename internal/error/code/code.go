package code

// HTTP status codes.
const (
	// StatusOK - 200: success.
	StatusOK = 200
	// StatusBadRequest - 400: invalid input.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: not authenticated.
	StatusUnauthorized = 401
	// StatusNotFound - 404: resource does not exist.
	StatusNotFound = 404
	// StatusConflict - 409: resource state conflict.
	StatusConflict = 409
	// StatusInternalServerError - 500: internal error.
	StatusInternalServerError = 500
	// StatusServiceUnavailable - 503: backing store unreachable.
	StatusServiceUnavailable = 503
)

// Common codes (100xxx).
const (
	// ErrSuccess - 200: success.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: unknown error.
	ErrUnknown
	// ErrValidation - 400: input validation failed.
	ErrValidation
	// ErrConflict - 409: concurrent modification, retry.
	ErrConflict
)

// User codes (101xxx).
const (
	// ErrUserNotFound - 404: user does not exist.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 409: user id already taken.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: credentials rejected.
	ErrUserPasswordIncorrect
	// ErrUsernameTaken - 409: username already registered.
	ErrUsernameTaken
	// ErrEmailTaken - 409: email already registered.
	ErrEmailTaken
)

// Household codes (102xxx).
const (
	// ErrHouseholdNotFound - 404: household does not exist.
	ErrHouseholdNotFound int = iota + 102000
	// ErrHouseholdAlreadyExist - 409: household id already taken.
	ErrHouseholdAlreadyExist
	// ErrHouseholdHasResidents - 409: household still referenced by residents.
	ErrHouseholdHasResidents
)

// Resident codes (103xxx).
const (
	// ErrResidentNotFound - 404: resident does not exist.
	ErrResidentNotFound int = iota + 103000
	// ErrResidentAlreadyExist - 409: resident id already taken.
	ErrResidentAlreadyExist
	// ErrResidentHouseholdMissing - 400: referenced household does not exist.
	ErrResidentHouseholdMissing
)

// Store codes (105xxx).
const (
	// ErrStoreUnavailable - 503: key-value store unreachable.
	ErrStoreUnavailable int = iota + 105000
	// ErrRecordNotFound - 404: record does not exist.
	ErrRecordNotFound
	// ErrCommitUnknown - 503: batch outcome unknown.
	ErrCommitUnknown
)
