package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/genesislabs/genesis-access-bot/internal/config"
	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
	"github.com/genesislabs/genesis-access-bot/internal/platform/logger"
	"github.com/genesislabs/genesis-access-bot/pkg/utils"
)

const (
	endBlockLatest = 99_999_999
	tagLatest      = "latest"
)

type Options struct {
	APIURL         string
	APIKeys        map[config.Operation][]string
	RateLimitRPS   int
	MaxRetries     int
	RetryBackoff   time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	HTTPClient     *http.Client
}

// Stats counts what the client has done since start; the dashboard reads it.
type Stats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	CacheHits          int
	RateLimitHits      int
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type cacheEntry struct {
	resp    apiResponse
	savedAt time.Time
}

// Client talks to a BscScan/Etherscan-compatible JSON API. One instance is
// shared by every caller in the process so the rate limiter and cache are
// actually effective.
type Client struct {
	apiURL         string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBackoff   time.Duration
	requestTimeout time.Duration
	cacheTTL       time.Duration
	log            *logger.ClassLogger

	mu     sync.Mutex
	keys   map[config.Operation][]string
	keyIdx map[config.Operation]int
	cache  map[string]cacheEntry
	stats  Stats
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIURL) == "" {
		return nil, fmt.Errorf("explorer api url is required")
	}
	total := 0
	for _, ks := range opts.APIKeys {
		total += len(ks)
	}
	if total == 0 {
		return nil, fmt.Errorf("at least one explorer api key is required")
	}

	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 5
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.RequestTimeout}
	}

	c := &Client{
		apiURL:         opts.APIURL,
		httpClient:     httpClient,
		limiter:        rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1),
		maxRetries:     opts.MaxRetries,
		retryBackoff:   opts.RetryBackoff,
		requestTimeout: opts.RequestTimeout,
		cacheTTL:       opts.CacheTTL,
		keys:           opts.APIKeys,
		keyIdx:         make(map[config.Operation]int),
		cache:          make(map[string]cacheEntry),
	}
	c.log = logger.NewLogger(c, nil)
	return c, nil
}

// TokenTransfers returns the token transfer history of an address for one
// contract, newest first. An address with no transfers is an empty slice,
// not an error.
func (c *Client) TokenTransfers(ctx context.Context, address, contract string) ([]model.TransferRecord, error) {
	resp, err := c.request(ctx, config.OpSubscription, tokenTxParams{
		Module:          "account",
		Action:          "tokentx",
		Address:         address,
		ContractAddress: contract,
		StartBlock:      0,
		EndBlock:        endBlockLatest,
		Sort:            "desc",
	})
	if err != nil {
		return nil, err
	}

	var transfers []model.TransferRecord
	if err := json.Unmarshal(resp.Result, &transfers); err != nil {
		// "No transactions found" style responses carry status 0 with a
		// non-array result; treat them as an empty history.
		if resp.Status == "0" {
			return nil, nil
		}
		return nil, &GatewayError{Operation: "tokentx", Message: "unexpected result schema", Err: err}
	}
	return transfers, nil
}

// TokenBalance returns the current balance of a token for an address, decoded
// with the token's decimals.
func (c *Client) TokenBalance(ctx context.Context, address string, token config.Token) (decimal.Decimal, error) {
	resp, err := c.request(ctx, config.OpAuthorization, tokenBalanceParams{
		Module:          "account",
		Action:          "tokenbalance",
		ContractAddress: token.Address,
		Address:         address,
		Tag:             tagLatest,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return decodeRawAmount(resp.Result, token.Decimals, "tokenbalance")
}

// NativeBalance returns the BNB balance of an address.
func (c *Client) NativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	resp, err := c.request(ctx, config.OpAuthorization, balanceParams{
		Module:  "account",
		Action:  "balance",
		Address: address,
		Tag:     tagLatest,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return decodeRawAmount(resp.Result, 18, "balance")
}

func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func decodeRawAmount(result json.RawMessage, decimals int32, op string) (decimal.Decimal, error) {
	var raw string
	if err := json.Unmarshal(result, &raw); err != nil {
		return decimal.Zero, &GatewayError{Operation: op, Message: "unexpected result schema", Err: err}
	}
	amount, err := utils.DecimalFromRaw(raw, decimals)
	if err != nil {
		return decimal.Zero, &GatewayError{Operation: op, Message: "unexpected result value", Err: err}
	}
	return amount, nil
}

func (c *Client) request(ctx context.Context, op config.Operation, params interface{}) (*apiResponse, error) {
	qs, err := utils.EncodeURLParams(params)
	if err != nil {
		return nil, &GatewayError{Operation: string(op), Message: "encode params", Err: err}
	}

	if resp, ok := c.fromCache(qs); ok {
		c.bump(func(s *Stats) { s.CacheHits++ })
		return resp, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff between attempts; key rotation retries are
			// dispatched by the caller loop the same way, the fresh key
			// just makes the wait moot.
			select {
			case <-ctx.Done():
				return nil, &GatewayError{Operation: string(op), Message: "request cancelled", Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * c.retryBackoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &GatewayError{Operation: string(op), Message: "rate limiter wait", Err: err}
		}

		c.bump(func(s *Stats) { s.TotalRequests++ })

		resp, err := c.fetch(ctx, op, qs)
		if err != nil {
			lastErr = err
			c.log.JustLog(fmt.Sprintf("%s attempt %d/%d failed: %v", op, attempt+1, c.maxRetries+1, err))
			continue
		}

		if resp.Status == "0" && resp.Message == "NOTOK" {
			if isRateLimited(resp.Result) {
				c.bump(func(s *Stats) { s.RateLimitHits++ })
				c.rotateKey(op)
				lastErr = &GatewayError{Operation: string(op), Message: "rate limit reached"}
				continue
			}
			lastErr = &GatewayError{Operation: string(op), Message: resultMessage(resp.Result)}
			continue
		}

		c.bump(func(s *Stats) { s.SuccessfulRequests++ })
		c.saveCache(qs, resp)
		return resp, nil
	}

	c.bump(func(s *Stats) { s.FailedRequests++ })
	if gwErr, ok := lastErr.(*GatewayError); ok {
		return nil, gwErr
	}
	return nil, &GatewayError{Operation: string(op), Message: "request failed", Err: lastErr}
}

func (c *Client) fetch(ctx context.Context, op config.Operation, qs string) (*apiResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s?%s&apikey=%s", c.apiURL, qs, c.keyFor(op))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "GENESIS-access-bot/1.0")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &GatewayError{Operation: string(op), StatusCode: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// keyFor returns the current key for an operation class, falling back to any
// configured pool when the class has none of its own.
func (c *Client) keyFor(op config.Operation) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	pool := c.keys[op]
	if len(pool) == 0 {
		for _, ks := range c.keys {
			if len(ks) > 0 {
				pool = ks
				break
			}
		}
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[c.keyIdx[op]%len(pool)]
}

func (c *Client) rotateKey(op config.Operation) {
	c.mu.Lock()
	c.keyIdx[op]++
	c.mu.Unlock()
}

func (c *Client) fromCache(key string) (*apiResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.savedAt) > c.cacheTTL {
		delete(c.cache, key)
		return nil, false
	}
	resp := entry.resp
	return &resp, true
}

func (c *Client) saveCache(key string, resp *apiResponse) {
	c.mu.Lock()
	c.cache[key] = cacheEntry{resp: *resp, savedAt: time.Now()}
	c.mu.Unlock()
}

func (c *Client) bump(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

func isRateLimited(result json.RawMessage) bool {
	return strings.Contains(strings.ToLower(resultMessage(result)), "rate limit")
}

func resultMessage(result json.RawMessage) string {
	var msg string
	if err := json.Unmarshal(result, &msg); err != nil {
		return string(result)
	}
	return msg
}
