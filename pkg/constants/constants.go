// Package constants provides shared constants for the payout-elasticity application.
package constants

// Calendar layout of a compensation year.
const (
	// MonthsPerYear is the number of monthly sales periods in a plan year
	MonthsPerYear = 12

	// QuartersPerYear is the number of quarterly achievement periods in a plan year
	QuartersPerYear = 4

	// MonthsPerQuarter maps month indexes onto quarters (0..2 -> Q1, ...)
	MonthsPerQuarter = 3

	// RollingAverageWindow is the number of months in the commission rolling average
	RollingAverageWindow = 3

	// SeedMonths is the number of pre-year sales values seeding the rolling average
	SeedMonths = 2
)

// Tier counts used by persisted payout structures.
const (
	CommissionTierCount = 3
	QuarterlyTierCount  = 5
	ContinuityTierCount = 4
)

// Achievement sweep bounds, in integer percent.
const (
	MinAchievement = 0
	MaxAchievement = 200

	// TargetAchievement is on-target performance
	TargetAchievement = 100
)

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyPlaces is the number of decimal places used for euro amounts
	CurrencyPlaces = 2

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CommissionFTEFloor is the FTE at or below which no commission is paid
	CommissionFTEFloor = 0.7
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatJSON is the machine-readable output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Cache defaults
const (
	CacheTypeNone   = "none"
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"

	// DefaultCacheMaxSize is the default number of memoized analyses kept in memory
	DefaultCacheMaxSize = 512

	// DefaultCacheTTLSeconds is the default lifetime of a memoized analysis
	DefaultCacheTTLSeconds = 600
)
