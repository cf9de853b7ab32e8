// Package export drives incremental vendor exports into a partitioned store.
//
// Each run resolves the checkpoint with pkg/checkpoint, reads the records
// after it, groups them by local calendar day and writes every group as a
// JSON array to YYYY/MM/DD/HH-MM, named after its latest record. Running an
// export twice in a row writes nothing the second time.
//
// A group read from local midnight holds the whole day so far, so it replaces
// the entries of that day whose latest record is no later than its own. A
// full export therefore rewrites split days instead of adding to them.
package export
