// Package checkpoint works out where an incremental export should resume.
//
// Exports are written to day partitions named YYYY/MM/DD, each holding entries
// named HH-MM after the local time of the latest record they contain, e.g.
//
//	2023/12/01/20-00
//
// The Resolver scans partitions backwards from today, one day at a time for at
// most a year, and returns the latest entry timestamp of the first day that has
// a usable one. No result means no prior export exists and the caller should
// run a full export.
//
// Entry names that do not parse are treated as the zero time, so they never
// win the maximum; a partition holding only such names counts as empty.
package checkpoint
