// README: Fare service runs normalize -> encode -> infer -> format for one trip.
package fare

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"farcal/internal/inference"
	"farcal/internal/metrics"
)

// Engine is the part of inference.Engine the service needs.
type Engine interface {
	NewBatch() *inference.Batch
	Run(ctx context.Context, b *inference.Batch) (float64, error)
}

type Service struct {
	engine Engine
}

func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

// Estimate returns a full estimate or an error, never a partial result.
func (s *Service) Estimate(ctx context.Context, raw RawFeatures) (PriceEstimate, error) {
	canonical, err := Normalize(raw)
	if err != nil {
		metrics.Incr(metrics.PredictionCount, metrics.Tag(metrics.TagOutcome, "invalid_input"))
		return PriceEstimate{}, err
	}

	start := time.Now()
	scalar, err := s.infer(ctx, canonical)
	metrics.Timing(metrics.InferenceLatency, time.Since(start))
	if err != nil {
		metrics.Incr(metrics.PredictionCount, metrics.Tag(metrics.TagOutcome, "error"))
		return PriceEstimate{}, err
	}

	est := FormatEstimate(scalar, canonical)
	metrics.Incr(metrics.PredictionCount, metrics.Tag(metrics.TagOutcome, "ok"))
	log.Debug().
		Float64("raw", scalar).
		Int64("price", est.Price.Amount).
		Bool("unknown_places", est.UnknownPlaces).
		Msg("fare estimated")
	return est, nil
}

func (s *Service) infer(ctx context.Context, c CanonicalFeatures) (float64, error) {
	batch := s.engine.NewBatch()
	defer func() {
		if err := batch.Release(); err != nil {
			log.Error().Err(err).Msg("releasing input tensors")
		}
	}()

	if err := Encode(c, batch); err != nil {
		return 0, err
	}
	return s.engine.Run(ctx, batch)
}
