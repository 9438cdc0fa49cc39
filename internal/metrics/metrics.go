// README: StatsD metrics client shared by the HTTP layer and the fare service.
package metrics

import (
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

const (
	APIRequestCount   = "api_request_count"
	APIRequestLatency = "api_request_latency"
	PredictionCount   = "prediction_count"
	InferenceLatency  = "inference_latency"

	TagPath       = "path"
	TagMethod     = "method"
	TagStatusCode = "http_status_code"
	TagOutcome    = "outcome"
)

type Config struct {
	Address      string
	SamplingRate float64
	AppName      string
	Env          string
}

var (
	mu sync.RWMutex
	// statsd.Client is safe for concurrent use.
	client       statsd.ClientInterface = &statsd.NoOpClient{}
	samplingRate                        = 1.0
)

// Init replaces the no-op client with a real one. On failure metrics stay
// disabled and the service keeps running.
func Init(cfg Config) {
	c, err := statsd.New(cfg.Address, statsd.WithTags([]string{
		"env:" + cfg.Env,
		"service:" + cfg.AppName,
	}))
	if err != nil {
		log.Error().Err(err).Str("address", cfg.Address).Msg("statsd client initialization failed, metrics disabled")
		return
	}
	mu.Lock()
	client = c
	samplingRate = cfg.SamplingRate
	mu.Unlock()
	log.Info().Str("address", cfg.Address).Float64("sampling_rate", cfg.SamplingRate).Msg("metrics client initialized")
}

// Close flushes and closes the client.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if err := client.Close(); err != nil {
		log.Warn().Err(err).Msg("closing statsd client")
	}
	client = &statsd.NoOpClient{}
}

// Tag builds a "key:value" statsd tag.
func Tag(key, value string) string {
	return key + ":" + value
}

func Incr(name string, tags ...string) {
	mu.RLock()
	defer mu.RUnlock()
	if err := client.Incr(name, tags, samplingRate); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("statsd incr")
	}
}

func Timing(name string, d time.Duration, tags ...string) {
	mu.RLock()
	defer mu.RUnlock()
	if err := client.Timing(name, d, tags, samplingRate); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("statsd timing")
	}
}
