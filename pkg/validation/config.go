package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// ValidateLogLevel accepts the zap level names used in configuration files.
// Matching is case-insensitive; empty means the default level.
func ValidateLogLevel(level string) error {
	if level == "" {
		return nil
	}
	for _, l := range logLevels {
		if strings.EqualFold(level, l) {
			return nil
		}
	}
	return fmt.Errorf("expected log level of %s, got %s", strings.Join(logLevels, ", "), level)
}

// ValidateCacheType checks a cache backend name; empty means memory.
func ValidateCacheType(cacheType string) error {
	switch cacheType {
	case "", constants.CacheTypeMemory, constants.CacheTypeRedis, constants.CacheTypeNone:
		return nil
	default:
		return fmt.Errorf("expected cache type of %s, %s or %s, got %s",
			constants.CacheTypeMemory, constants.CacheTypeRedis, constants.CacheTypeNone, cacheType)
	}
}

// ValidateBaseSalary rejects negative or non-finite salaries. Zero is allowed
// and yields a zero pay mix.
func ValidateBaseSalary(salary float64) error {
	if salary < 0 || !mathutil.IsFinite(salary) {
		return fmt.Errorf("base salary must be a finite amount of at least 0, got %g", salary)
	}
	return nil
}
