package myenergi

import "time"

// UsageRecord is one minute of Zappi usage. Energy counters are in joules,
// voltages in decivolts and frequency in centihertz.
type UsageRecord struct {
	// IntervalStart is the start of the minute, in UTC
	IntervalStart time.Time
	Imp           int64 // imported
	Gep           int64 // generated
	Exp           int64 // exported
	H1b           int64 // imported, phase 1
	H2b           int64 // imported, phase 2
	H3b           int64 // imported, phase 3
	H1d           int64 // diverted, phase 1
	H2d           int64 // diverted, phase 2
	H3d           int64 // diverted, phase 3
	V1            int64
	V2            int64
	V3            int64
	Frq           int64
}

// Start returns the start of the minute
func (r UsageRecord) Start() time.Time {
	return r.IntervalStart
}

// rawUsage is the wire form of a minute record; absent fields decode as 0
type rawUsage struct {
	Yr  int   `json:"yr"`
	Mon int   `json:"mon"`
	Dom int   `json:"dom"`
	Hr  int   `json:"hr"`
	Min int   `json:"min"`
	Imp int64 `json:"imp"`
	Gep int64 `json:"gep"`
	Exp int64 `json:"exp"`
	H1b int64 `json:"h1b"`
	H2b int64 `json:"h2b"`
	H3b int64 `json:"h3b"`
	H1d int64 `json:"h1d"`
	H2d int64 `json:"h2d"`
	H3d int64 `json:"h3d"`
	V1  int64 `json:"v1"`
	V2  int64 `json:"v2"`
	V3  int64 `json:"v3"`
	Frq int64 `json:"frq"`
}

func (r rawUsage) record() UsageRecord {
	return UsageRecord{
		IntervalStart: time.Date(r.Yr, time.Month(r.Mon), r.Dom, r.Hr, r.Min, 0, 0, time.UTC),
		Imp:           r.Imp,
		Gep:           r.Gep,
		Exp:           r.Exp,
		H1b:           r.H1b,
		H2b:           r.H2b,
		H3b:           r.H3b,
		H1d:           r.H1d,
		H2d:           r.H2d,
		H3d:           r.H3d,
		V1:            r.V1,
		V2:            r.V2,
		V3:            r.V3,
		Frq:           r.Frq,
	}
}
