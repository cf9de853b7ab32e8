package export

import (
	"time"

	"energystats/pkg/myenergi"
	"energystats/pkg/octopus"
)

// localLayout renders wall clock times without an offset
const localLayout = "2006-01-02T15:04:05"

// OctopusRow is the stored form of a half-hourly consumption reading
type OctopusRow struct {
	StartUTC         time.Time `json:"start_utc"`
	EndUTC           time.Time `json:"end_utc"`
	TotalConsumedKWh float64   `json:"total_consumed_kwh"`
	StartLocal       string    `json:"start_local"`
	EndLocal         string    `json:"end_local"`
	// Offsets and duration are in seconds
	StartUTCOffset int    `json:"start_utc_offset"`
	EndUTCOffset   int    `json:"end_utc_offset"`
	Duration       int64  `json:"duration"`
	DateLocal      string `json:"date_local"`
	DayOfYearLocal int    `json:"dayofyear_local"`
	// DayOfWeekLocal counts from Monday as 0
	DayOfWeekLocal int `json:"dayofweek_local"`
	HourOfDayLocal int `json:"hourofday_local"`
}

// EncodeOctopus converts a consumption record to an OctopusRow
func EncodeOctopus(record octopus.ConsumptionRecord, loc *time.Location) any {
	start := record.IntervalStart.In(loc)
	end := record.IntervalEnd.In(loc)
	_, startOffset := start.Zone()
	_, endOffset := end.Zone()

	return OctopusRow{
		StartUTC:         record.IntervalStart.UTC(),
		EndUTC:           record.IntervalEnd.UTC(),
		TotalConsumedKWh: record.Consumption,
		StartLocal:       start.Format(localLayout),
		EndLocal:         end.Format(localLayout),
		StartUTCOffset:   startOffset,
		EndUTCOffset:     endOffset,
		Duration:         int64(record.IntervalEnd.Sub(record.IntervalStart) / time.Second),
		DateLocal:        start.Format(time.DateOnly),
		DayOfYearLocal:   start.YearDay(),
		DayOfWeekLocal:   (int(start.Weekday()) + 6) % 7,
		HourOfDayLocal:   start.Hour(),
	}
}

// ZappiRow is the stored form of a minute of Zappi usage
type ZappiRow struct {
	StartUTC time.Time `json:"start_utc"`
	Imp      int64     `json:"imp"`
	Gep      int64     `json:"gep"`
	Exp      int64     `json:"exp"`
	H1b      int64     `json:"h1b"`
	H2b      int64     `json:"h2b"`
	H3b      int64     `json:"h3b"`
	H1d      int64     `json:"h1d"`
	H2d      int64     `json:"h2d"`
	H3d      int64     `json:"h3d"`
	V1       int64     `json:"v1"`
	V2       int64     `json:"v2"`
	V3       int64     `json:"v3"`
	Frq      int64     `json:"frq"`
}

// EncodeZappi converts a usage record to a ZappiRow
func EncodeZappi(record myenergi.UsageRecord, _ *time.Location) any {
	return ZappiRow{
		StartUTC: record.IntervalStart.UTC(),
		Imp:      record.Imp,
		Gep:      record.Gep,
		Exp:      record.Exp,
		H1b:      record.H1b,
		H2b:      record.H2b,
		H3b:      record.H3b,
		H1d:      record.H1d,
		H2d:      record.H2d,
		H3d:      record.H3d,
		V1:       record.V1,
		V2:       record.V2,
		V3:       record.V3,
		Frq:      record.Frq,
	}
}
