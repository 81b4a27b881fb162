package code

// code to message
var codeMessageMap = map[int]string{
	// common
	ErrSuccess:    "success",
	ErrUnknown:    "unknown error",
	ErrValidation: "validation failed",
	ErrConflict:   "record was modified concurrently, retry",

	// users
	ErrUserNotFound:          "user not found",
	ErrUserAlreadyExist:      "user already exists",
	ErrUserPasswordIncorrect: "invalid username or password",
	ErrUsernameTaken:         "username is already taken",
	ErrEmailTaken:            "email is already registered",

	// households
	ErrHouseholdNotFound:     "household not found",
	ErrHouseholdAlreadyExist: "household already exists",
	ErrHouseholdHasResidents: "household still has residents",

	// residents
	ErrResidentNotFound:         "resident not found",
	ErrResidentAlreadyExist:     "resident already exists",
	ErrResidentHouseholdMissing: "referenced household does not exist",

	// store
	ErrStoreUnavailable: "store unavailable",
	ErrRecordNotFound:   "record not found",
	ErrCommitUnknown:    "store failed during commit, outcome unknown",
}

// code to HTTP status
var codeStatusMap = map[int]int{
	// common
	ErrSuccess:    StatusOK,
	ErrUnknown:    StatusInternalServerError,
	ErrValidation: StatusBadRequest,
	ErrConflict:   StatusConflict,

	// users
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusConflict,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrUsernameTaken:         StatusConflict,
	ErrEmailTaken:            StatusConflict,

	// households
	ErrHouseholdNotFound:     StatusNotFound,
	ErrHouseholdAlreadyExist: StatusConflict,
	ErrHouseholdHasResidents: StatusConflict,

	// residents
	ErrResidentNotFound:         StatusNotFound,
	ErrResidentAlreadyExist:     StatusConflict,
	ErrResidentHouseholdMissing: StatusBadRequest,

	// store
	ErrStoreUnavailable: StatusServiceUnavailable,
	ErrRecordNotFound:   StatusNotFound,
	ErrCommitUnknown:    StatusServiceUnavailable,
}

// GetMessage returns the message for a code
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return codeMessageMap[ErrUnknown]
}

// GetStatus returns the HTTP status for a code
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
