package checkpoint

import (
	"fmt"
	"time"

	"energystats/pkg/logger"
	"energystats/pkg/storage"
)

// Resolver finds the most recent fully exported timestamp in a partition store.
type Resolver struct {
	listing storage.Listing
	logger  logger.Logger
}

// NewResolver creates a resolver over listing. A nil log uses the global logger.
func NewResolver(listing storage.Listing, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{listing: listing, logger: log}
}

// Resolve returns the latest processed timestamp, scanning back day by day from
// the UTC date of nowUTC and stopping after one year. ok is false when no day
// in that window holds a usable entry. Listing errors are returned as is.
func (r *Resolver) Resolve(nowUTC time.Time, loc *time.Location) (latest time.Time, ok bool, err error) {
	nowUTC = nowUTC.UTC()
	today := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(-1, 0, 0)

	scanned := 0
	for day := today; day.After(cutoff); day = day.AddDate(0, 0, -1) {
		scanned++
		latest, ok, err = r.LatestProcessed(day, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("failed to resolve checkpoint at %s: %w", DirKey(day), err)
		}
		if ok {
			r.logger.DebugWithFields("Checkpoint resolved", map[string]interface{}{
				"checkpoint":   latest,
				"days_scanned": scanned,
			})
			return latest, true, nil
		}
	}

	r.logger.DebugWithFields("No checkpoint in lookback window", map[string]interface{}{
		"days_scanned": scanned,
		"cutoff":       DirKey(cutoff),
	})
	return time.Time{}, false, nil
}

// LatestProcessed returns the latest entry timestamp in the partition for day,
// with loc attached. ok is false when the partition is empty or none of its
// entry names parse.
func (r *Resolver) LatestProcessed(day time.Time, loc *time.Location) (time.Time, bool, error) {
	dir := DirKey(day)
	entries, err := r.listing.List(dir)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}

	latest := sentinel
	for _, entry := range entries {
		ts, err := ParseEntry(entry, loc)
		if err != nil {
			r.logger.WarnWithFields("Unparsable partition entry", map[string]interface{}{
				"dir":   dir,
				"entry": entry,
			})
			ts = sentinel
		}
		if ts.After(latest) {
			latest = ts
		}
	}

	if latest.Equal(sentinel) {
		return time.Time{}, false, nil
	}
	return latest, true, nil
}

// sentinel stands in for entries whose names do not parse. It is the zero
// time, earlier than any real export.
var sentinel = time.Time{}
