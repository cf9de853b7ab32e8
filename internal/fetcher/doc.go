// Package fetcher fans fetches out over a bounded worker pool while keeping
// results in submission order, e.g. one request per day of a date range.
package fetcher
