// Package storage provides the partition store that exports are written to
// and that the checkpoint resolver scans.
//
// Two implementations satisfy the same Store interface:
//   - FileStore keeps entries as files under a base directory
//   - MemoryStore keeps entries in a map, for tests and dry runs
//
// All paths are slash-separated and relative to the store root, for example
// "2023/12/01/20-00". Passing an absolute path, or one that climbs out of the
// root with "..", fails with an invalid_argument error; reading or removing a
// missing entry fails with not_found.
//
// Usage:
//
//	store, err := storage.NewFileStore("./data/octopus")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	entries, err := store.List("2023/12/01")
//	// entries: ["2023/12/01/20-00"]
//
//	err = store.Write("2023/12/02/23-30", rows)
package storage
