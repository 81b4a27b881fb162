package services

import (
	"errors"
	"log/slog"
	"time"

	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/infrastructure/config"
	"barangay-registry/internal/infrastructure/metrics"
	"barangay-registry/pkg/logger"
	"barangay-registry/utils"
)

const (
	entityHousehold = "household"
	entityResident  = "resident"
	entityUser      = "user"
	entitySearch    = "search"
	entityStats     = "stats"
)

// Household defaults applied on create
const (
	DefaultCity     = "Default City"
	DefaultProvince = "Default Province"
	DefaultBarangay = "Kabacsanan"
)

// Options holds the settings shared by the registry services
type Options struct {
	// Barangay is stamped on every household
	Barangay string
	// ValidateHouseholdRef rejects resident writes naming a missing household
	ValidateHouseholdRef bool
	PasswordScheme       string
	// Now is the clock; tests replace it
	Now func() time.Time
}

// OptionsFromConfig maps the process configuration to service options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Barangay:             cfg.Barangay,
		ValidateHouseholdRef: cfg.ValidateHouseholdRef,
		PasswordScheme:       cfg.PasswordScheme,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Barangay == "" {
		o.Barangay = DefaultBarangay
	}
	if o.PasswordScheme == "" {
		o.PasswordScheme = utils.SchemePBKDF2
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// now truncates to the stored millisecond precision
func (o Options) now() time.Time {
	return o.Now().UTC().Truncate(time.Millisecond)
}

// observe records metrics for an operation and logs store failures
func observe(entity, op, id string, start time.Time, err error) {
	metrics.Observe(entity, op, start, err)
	if err != nil && errors.Is(err, apperr.ErrStoreUnavailable) {
		logger.L().Error("store operation failed",
			slog.String("entity", entity),
			slog.String("op", op),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}
