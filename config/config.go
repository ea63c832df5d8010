package config

import (
	"os"
	"strconv"
	"time"

	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Google Sheets sink
	SpreadsheetID   string
	CredentialsFile string
	SheetName       string

	// External services
	GoogleMapsAPIKey string
	OpenAIAPIKey     string
	OpenAIModel      string

	// Otodom source
	SearchURL        string
	OfferBaseURL     string
	PriceMin         int
	PriceMax         int
	RoomsNumber      string
	DaysSinceCreated int
	PageLimit        int

	// Pipeline behavior
	RequestDelay       time.Duration
	MaxMetroDistanceKm float64

	// Rate-limit block cache (optional)
	MemcacheAddr string
	BlockTime    time.Duration

	// New-offer notification stream (optional)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Lister output
	OutputDir         string
	CurrentOffersFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	priceMin, _ := strconv.Atoi(getEnv("PRICE_MIN", "3000"))
	priceMax, _ := strconv.Atoi(getEnv("PRICE_MAX", "6000"))
	daysSinceCreated, _ := strconv.Atoi(getEnv("DAYS_SINCE_CREATED", "1"))
	pageLimit, _ := strconv.Atoi(getEnv("PAGE_LIMIT", "36"))
	requestDelay, _ := strconv.Atoi(getEnv("REQUEST_DELAY_SECONDS", "2"))
	maxMetroDistance, _ := strconv.ParseFloat(getEnv("MAX_METRO_DISTANCE_KM", "1.0"), 64)
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "300"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))

	return &Config{
		SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
		CredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "service_account.json"),
		SheetName:       getEnv("SHEET_NAME", "Sheet1"),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		SearchURL:        getEnv("SEARCH_URL", "https://www.otodom.pl/pl/wyniki/wynajem/mieszkanie/mazowieckie/warszawa/warszawa/warszawa"),
		OfferBaseURL:     getEnv("OFFER_BASE_URL", "https://www.otodom.pl/pl/oferta/"),
		PriceMin:         priceMin,
		PriceMax:         priceMax,
		RoomsNumber:      getEnv("ROOMS_NUMBER", "[TWO,THREE]"),
		DaysSinceCreated: daysSinceCreated,
		PageLimit:        pageLimit,

		RequestDelay:       time.Duration(requestDelay) * time.Second,
		MaxMetroDistanceKm: maxMetroDistance,

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),
		BlockTime:    time.Duration(blockTime) * time.Second,

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "nest:offers"),
		RedisStreamMaxLength: redisStreamMaxLength,

		OutputDir:         getEnv("OUTPUT_DIR", "output"),
		CurrentOffersFile: getEnv("CURRENT_OFFERS_FILE", "current_offers.csv"),

		Environment: getEnv("NEST_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration every command needs: both the lister and
// the batch driver talk to the spreadsheet.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return apperrors.NewConfiguration("SPREADSHEET_ID is not set", nil)
	}
	if _, err := os.Stat(c.CredentialsFile); err != nil {
		return apperrors.NewConfiguration("service account credentials file not found: "+c.CredentialsFile, err)
	}
	return nil
}

// ValidatePipeline additionally checks the API keys the per-offer pipeline needs
func (c *Config) ValidatePipeline() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.GoogleMapsAPIKey == "" {
		return apperrors.NewConfiguration("GOOGLE_MAPS_API_KEY is not set", nil)
	}
	if c.OpenAIAPIKey == "" {
		return apperrors.NewConfiguration("OPENAI_API_KEY is not set", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
