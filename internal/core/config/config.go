package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the retry policy of remote catalog and data requests.
const (
	DefaultNumRetries       = 200
	DefaultRetryBackoffBase = 1.001
	DefaultRetryBackoffMax  = 40 * time.Millisecond
)

const (
	DefaultEndpointURL            = "https://archive.opensearch.ceda.ac.uk/opensearch/request"
	DefaultEndpointDescriptionURL = "https://archive.opensearch.ceda.ac.uk/opensearch/description.xml?parentIdentifier=cci"
	DefaultZarrEndpointURL        = "https://cci-ke-o.s3-ext.jc.rl.ac.uk:8443"
	DefaultZarrBucket             = "esacci"
)

type ChunkCacheCfg struct {
	MaxBytes  int64
	RedisAddr string
	TTL       time.Duration
	OpTimeout time.Duration
}

type Config struct {
	EndpointURL            string
	EndpointDescriptionURL string
	ZarrEndpointURL        string
	ZarrBucket             string
	LogLevel               string
	EnableWarnings         bool
	NumRetries             int
	RetryBackoffBase       float64
	RetryBackoffMax        time.Duration
	RequestTimeout         time.Duration
	ChunkCache             ChunkCacheCfg
}

func FromEnv() Config {
	base := getfloat("CCI_RETRY_BACKOFF_BASE", DefaultRetryBackoffBase)
	if base <= 1.0 {
		base = DefaultRetryBackoffBase
	}
	retries := getint("CCI_NUM_RETRIES", DefaultNumRetries)
	if retries < 0 {
		retries = 0
	}

	return Config{
		EndpointURL:            getenv("CCI_ENDPOINT_URL", DefaultEndpointURL),
		EndpointDescriptionURL: getenv("CCI_ENDPOINT_DESCRIPTION_URL", DefaultEndpointDescriptionURL),
		ZarrEndpointURL:        getenv("CCI_ZARR_ENDPOINT_URL", DefaultZarrEndpointURL),
		ZarrBucket:             getenv("CCI_ZARR_BUCKET", DefaultZarrBucket),
		LogLevel:               getenv("LOG_LEVEL", "info"),
		EnableWarnings:         getbool("CCI_ENABLE_WARNINGS", false),
		NumRetries:             retries,
		RetryBackoffBase:       base,
		RetryBackoffMax:        getduration("CCI_RETRY_BACKOFF_MAX", DefaultRetryBackoffMax),
		RequestTimeout:         getduration("CCI_REQUEST_TIMEOUT", 30*time.Second),
		ChunkCache: ChunkCacheCfg{
			MaxBytes:  getint64("CCI_CHUNK_CACHE_BYTES", 1<<30),
			RedisAddr: getenv("CCI_CHUNK_CACHE_REDIS_ADDR", ""),
			TTL:       getduration("CCI_CHUNK_CACHE_TTL", time.Hour),
			OpTimeout: getduration("CCI_CHUNK_CACHE_OP_TIMEOUT", 250*time.Millisecond),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
