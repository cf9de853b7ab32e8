package storage

// Listing is the read-only view of a store used by the checkpoint resolver.
type Listing interface {
	// List returns the relative paths of entries under dir. It returns an
	// empty slice, not an error, when nothing matches. Order is unspecified.
	List(dir string) ([]string, error)

	// ReadContents returns the raw contents of the entry at path.
	ReadContents(path string) (string, error)
}

// Writer persists entries.
type Writer interface {
	// Write stores data at path, replacing any existing entry.
	Write(path string, data []byte) error

	// Remove deletes the entry at path. A missing entry is a NotFound error.
	Remove(path string) error
}

// Store is a Listing that can also be written to.
type Store interface {
	Listing
	Writer
}
