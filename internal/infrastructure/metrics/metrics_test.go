package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/error/code"
)

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultNotFound, Result(apperr.NotFound(code.ErrHouseholdNotFound, "household", "hh:1")))
	assert.Equal(t, ResultConflict, Result(apperr.Conflict(code.ErrUsernameTaken, "user", "", "taken")))
	assert.Equal(t, ResultValidation, Result(apperr.Validation("resident", nil, "bad")))
	assert.Equal(t, ResultError, Result(errors.New("plain")))
}

func TestObserveCounts(t *testing.T) {
	before := testutil.ToFloat64(operationTotal.WithLabelValues("household", "get", ResultOK))
	Observe("household", "get", time.Now(), nil)
	after := testutil.ToFloat64(operationTotal.WithLabelValues("household", "get", ResultOK))
	assert.Equal(t, before+1, after)
}
