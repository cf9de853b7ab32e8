package export

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"time"

	"energystats/pkg/checkpoint"
	errs "energystats/pkg/errors"
	"energystats/pkg/logger"
	"energystats/pkg/storage"
)

// Record is anything with an interval start
type Record interface {
	Start() time.Time
}

// Source produces the records of a vendor with start <= Start() < end,
// oldest first. A zero start asks for the full history.
type Source[R Record] interface {
	Records(ctx context.Context, start, end time.Time) iter.Seq2[R, error]
}

// Encoder converts a record into the row written to storage
type Encoder[R Record] func(record R, loc *time.Location) any

// Options configures an Exporter
type Options[R Record] struct {
	// Vendor labels log lines
	Vendor   string
	Source   Source[R]
	Store    storage.Store
	Location *time.Location
	Encode   Encoder[R]
	Now      func() time.Time
	Logger   logger.Logger
	// History bounds a full export to the local days since now minus
	// History. Zero leaves the range to the source.
	History time.Duration
}

// Summary describes a finished export
type Summary struct {
	// Start is the requested start; zero when the whole history was requested
	Start      time.Time
	Records    int
	Partitions []string
	// Replaced lists the earlier entries superseded by a rewritten day
	Replaced []string
}

// Exporter writes a vendor's records into day partitions, resuming after the
// latest partition entry unless a full export is requested
type Exporter[R Record] struct {
	vendor   string
	source   Source[R]
	store    storage.Store
	resolver *checkpoint.Resolver
	loc      *time.Location
	encode   Encoder[R]
	now      func() time.Time
	history  time.Duration
	logger   logger.Logger
}

// New creates an exporter
func New[R Record](opts Options[R]) (*Exporter[R], error) {
	if opts.Source == nil || opts.Store == nil || opts.Encode == nil {
		return nil, errs.New(errs.ErrorTypeInvalidArgument, "source, store and encoder are required")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("vendor", opts.Vendor)

	return &Exporter[R]{
		vendor:   opts.Vendor,
		source:   opts.Source,
		store:    opts.Store,
		resolver: checkpoint.NewResolver(opts.Store, log),
		loc:      loc,
		encode:   opts.Encode,
		now:      now,
		history:  opts.History,
		logger:   log,
	}, nil
}

// NextStart returns where an incremental export resumes: one minute after
// the checkpoint, matching the minute resolution of entry names. A checkpoint
// in the hour repeated when clocks go back resumes after its earlier reading.
// ok is false when no checkpoint exists.
func (e *Exporter[R]) NextStart() (time.Time, bool, error) {
	latest, ok, err := e.resolver.Resolve(e.now().UTC(), e.loc)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	earliest, _ := wallClockInstants(latest)
	return earliest.Add(time.Minute), true, nil
}

// Export reads records from the source and writes one entry per local day.
// Batches are only written once complete, so a failure part way leaves the
// checkpoint at the last fully written day. A batch that covers its day from
// local midnight replaces the day's earlier entries it supersedes.
func (e *Exporter[R]) Export(ctx context.Context, full bool) (Summary, error) {
	var summary Summary

	incremental := false
	if !full {
		start, ok, err := e.NextStart()
		if err != nil {
			return summary, fmt.Errorf("failed to resolve checkpoint: %w", err)
		}
		if ok {
			summary.Start, incremental = start, true
		} else {
			e.logger.Info("No previous export found, running full export")
		}
	}

	end := e.now()
	if !incremental && e.history > 0 {
		summary.Start = startOfDay(end.Add(-e.history).In(e.loc))
	}
	e.logger.InfoWithFields("Starting export", map[string]interface{}{
		"start": summary.Start,
		"end":   end,
		"full":  !incremental,
	})

	var (
		batch   []R
		current string
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		entry, latest, err := e.write(batch)
		if err != nil {
			return err
		}
		if !summary.Start.After(startOfDay(latest)) {
			replaced, err := e.replaceSuperseded(entry, latest)
			summary.Replaced = append(summary.Replaced, replaced...)
			if err != nil {
				return err
			}
		}
		summary.Records += len(batch)
		summary.Partitions = append(summary.Partitions, entry)
		logger.LogExportProgress(e.logger, e.vendor, entry, len(batch), summary.Records)
		batch = batch[:0]
		return nil
	}

	for record, err := range e.source.Records(ctx, summary.Start, end) {
		if err != nil {
			return summary, fmt.Errorf("failed to read records: %w", err)
		}
		day := checkpoint.DirKey(record.Start().In(e.loc))
		if day != current {
			if err := flush(); err != nil {
				return summary, err
			}
			current = day
		}
		batch = append(batch, record)
	}
	if err := flush(); err != nil {
		return summary, err
	}

	e.logger.InfoWithFields("Export complete", map[string]interface{}{
		"records":    summary.Records,
		"partitions": len(summary.Partitions),
		"replaced":   len(summary.Replaced),
	})
	return summary, nil
}

// write stores a single day's batch under the local time of its latest record
// and returns the entry name and that record's start in the export location
func (e *Exporter[R]) write(batch []R) (string, time.Time, error) {
	latest := batch[0].Start()
	rows := make([]any, 0, len(batch))
	for _, record := range batch {
		if record.Start().After(latest) {
			latest = record.Start()
		}
		rows = append(rows, e.encode(record, e.loc))
	}
	latest = latest.In(e.loc)

	data, err := json.Marshal(rows)
	if err != nil {
		return "", time.Time{}, errs.Wrap(errs.ErrorTypeParsing, err, "failed to encode rows")
	}

	entry := checkpoint.EntryName(latest)
	if err := e.store.Write(entry, data); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to write %s: %w", entry, err)
	}
	return entry, latest, nil
}

// replaceSuperseded removes the entries in entry's partition whose latest
// record is no later than latest, the newest record written to entry. Only
// call it for a batch that holds every record of its day up to latest.
// Unparsable names are left alone.
func (e *Exporter[R]) replaceSuperseded(entry string, latest time.Time) ([]string, error) {
	existing, err := e.store.List(checkpoint.DirKey(latest))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", checkpoint.DirKey(latest), err)
	}
	slices.Sort(existing)

	var replaced []string
	for _, other := range existing {
		if other == entry {
			continue
		}
		ts, err := checkpoint.ParseEntry(other, e.loc)
		if err != nil {
			continue
		}
		if _, last := wallClockInstants(ts); last.After(latest) {
			continue
		}
		if err := e.store.Remove(other); err != nil {
			return replaced, fmt.Errorf("failed to remove superseded %s: %w", other, err)
		}
		e.logger.InfoWithFields("Replaced superseded entry", map[string]interface{}{
			"entry":       other,
			"replaced_by": entry,
		})
		replaced = append(replaced, other)
	}
	return replaced, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// wallClockInstants returns the earliest and latest instants showing the same
// wall clock as t in its location. They differ only within the hour that is
// repeated when clocks go back.
func wallClockInstants(t time.Time) (earliest, latest time.Time) {
	earliest, latest = t, t
	_, offset := t.Zone()
	for _, near := range []time.Time{t.Add(-24 * time.Hour), t.Add(24 * time.Hour)} {
		_, other := near.Zone()
		if other == offset {
			continue
		}
		alt := t.Add(time.Duration(offset-other) * time.Second)
		if alt.Format(wallClock) != t.Format(wallClock) {
			continue
		}
		if alt.Before(earliest) {
			earliest = alt
		}
		if alt.After(latest) {
			latest = alt
		}
	}
	return earliest, latest
}

const wallClock = "2006-01-02 15:04"
