package export

import (
	"context"
	"iter"
	"time"

	"energystats/pkg/myenergi"
	"energystats/pkg/octopus"
)

// OctopusSource reads consumption for the meter selected by Query
type OctopusSource struct {
	Client *octopus.Client
	// Query selects the meter; its Start and End are ignored
	Query octopus.ConsumptionQuery
}

// Records implements Source
func (s *OctopusSource) Records(ctx context.Context, start, end time.Time) iter.Seq2[octopus.ConsumptionRecord, error] {
	q := s.Query
	q.Start = start
	q.End = end
	return s.Client.Consumption(ctx, q)
}

// ZappiSource reads per-minute Zappi usage, connecting on first use
type ZappiSource struct {
	Client *myenergi.Client
	// Lookback bounds a full export, which would otherwise need one request
	// per day since the epoch
	Lookback time.Duration
}

// DefaultZappiLookback is the history read by a full Zappi export
const DefaultZappiLookback = 365 * 24 * time.Hour

// Records implements Source
func (s *ZappiSource) Records(ctx context.Context, start, end time.Time) iter.Seq2[myenergi.UsageRecord, error] {
	return func(yield func(myenergi.UsageRecord, error) bool) {
		if !s.Client.Connected() {
			if err := s.Client.Connect(ctx); err != nil {
				yield(myenergi.UsageRecord{}, err)
				return
			}
		}

		if start.IsZero() {
			lookback := s.Lookback
			if lookback <= 0 {
				lookback = DefaultZappiLookback
			}
			start = end.Add(-lookback)
		}

		for record, err := range s.Client.UsageByMinute(ctx, start, end) {
			if !yield(record, err) {
				return
			}
		}
	}
}
