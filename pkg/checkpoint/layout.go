package checkpoint

import "time"

const (
	// dirLayout names a day partition.
	dirLayout = "2006/01/02"
	// entryLayout names a processed file within a partition.
	entryLayout = "2006/01/02/15-04"
)

// DirKey returns the partition directory for the calendar date of day.
func DirKey(day time.Time) string {
	return day.Format(dirLayout)
}

// EntryName returns the processed-file path for a record timestamp, using the
// wall clock of t in its own location.
func EntryName(t time.Time) string {
	return t.Format(entryLayout)
}

// ParseEntry parses a processed-file path as a wall-clock time in loc.
func ParseEntry(entry string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(entryLayout, entry, loc)
}
