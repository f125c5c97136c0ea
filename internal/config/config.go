package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Operation names a class of explorer requests. Each class can carry its own
// API key pool so one hot path cannot starve the others.
type Operation string

const (
	OpAuthorization Operation = "AUTHORIZATION"
	OpDeposits      Operation = "DEPOSITS"
	OpSubscription  Operation = "SUBSCRIPTION"
)

type Config struct {
	AccountsPath string

	APIURL         string
	APIKeys        map[Operation][]string
	RateLimitRPS   int
	RetryAttempts  int
	RetryBackoff   time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration

	AccessAddress string
	SystemAddress string

	DailyCostUSDT   string
	MinPaymentUSDT  string
	MaxPaymentUSDT  string
	Tolerance       string
	CheckInterval   time.Duration
	WarningDays     int
	WatchPoll       time.Duration
	WatchTimeout    time.Duration
}

type Account struct {
	PrivateKey string `json:"pk"`
}

func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using default values")
	}

	keys := map[Operation][]string{}
	for _, op := range []Operation{OpAuthorization, OpDeposits, OpSubscription} {
		raw := os.Getenv("BSCSCAN_API_KEY_" + string(op))
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys[op] = append(keys[op], k)
			}
		}
	}

	return Config{
		AccountsPath: "configs/accounts.json",

		APIURL:         envWithDefault("BSCSCAN_API_URL", BSCMainnet.APIURL),
		APIKeys:        keys,
		RateLimitRPS:   parseIntWithDefault(os.Getenv("BSCSCAN_RATE_LIMIT"), 5),
		RetryAttempts:  parseIntWithDefault(os.Getenv("BSCSCAN_RETRY_ATTEMPTS"), 3),
		RetryBackoff:   time.Second,
		RequestTimeout: secondsWithDefault("BSCSCAN_TIMEOUT_SECONDS", 10),
		CacheTTL:       secondsWithDefault("BSCSCAN_CACHE_TTL_SECONDS", 300),

		AccessAddress: envWithDefault("ACCESS_ADDRESS", DefaultAccessAddress),
		SystemAddress: envWithDefault("SYSTEM_ADDRESS", DefaultSystemAddress),

		DailyCostUSDT:  envWithDefault("ACCESS_DAILY_COST_USDT", "1"),
		MinPaymentUSDT: envWithDefault("ACCESS_MIN_PAYMENT_USDT", "10"),
		MaxPaymentUSDT: envWithDefault("ACCESS_MAX_PAYMENT_USDT", "100"),
		Tolerance:      envWithDefault("ACCESS_PAYMENT_TOLERANCE", "0.05"),
		CheckInterval:  secondsWithDefault("ACCESS_CHECK_INTERVAL_SECONDS", 60),
		WarningDays:    parseIntWithDefault(os.Getenv("ACCESS_WARNING_DAYS"), 3),
		WatchPoll:      secondsWithDefault("PAYMENT_WATCH_INTERVAL_SECONDS", 30),
		WatchTimeout:   secondsWithDefault("PAYMENT_WATCH_TIMEOUT_SECONDS", 600),
	}
}

func envWithDefault(name, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return defaultVal
}

func parseIntWithDefault(value string, defaultVal int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(value); err == nil && v >= 0 {
		return v
	}
	return defaultVal
}

func secondsWithDefault(name string, defaultSeconds int) time.Duration {
	return time.Duration(parseIntWithDefault(os.Getenv(name), defaultSeconds)) * time.Second
}

func (c Config) Validate() error {
	total := 0
	for _, ks := range c.APIKeys {
		total += len(ks)
	}
	if total == 0 {
		return errors.New("explorer API key required (provide BSCSCAN_API_KEY_SUBSCRIPTION or a sibling)")
	}
	if strings.TrimSpace(c.AccessAddress) == "" {
		return errors.New("access collection address required")
	}
	return nil
}

func (c Config) LoadAccounts() ([]Account, error) {
	b, err := os.ReadFile(c.AccountsPath)
	if err != nil {
		return nil, err
	}

	var rawAccounts []string
	if err := json.Unmarshal(b, &rawAccounts); err == nil {
		accounts := make([]Account, 0, len(rawAccounts))
		for idx, entry := range rawAccounts {
			pk := strings.TrimSpace(entry)
			if pk == "" {
				return nil, fmt.Errorf("invalid account input: empty private key at index %d", idx)
			}
			accounts = append(accounts, Account{PrivateKey: pk})
		}
		return accounts, nil
	}

	var accounts []Account
	if err := json.Unmarshal(b, &accounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
	}

	return accounts, nil
}
