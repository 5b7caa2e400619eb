package tokenstore

// Store is the narrow persistence capability the session manager depends
// on. Implementations must make every Set/Clear immediately visible to
// subsequent Get calls; there is no caching layer above the store.
//
// The backing medium can be swapped (file-based for the CLI, in-memory
// for tests) without touching session logic.
type Store interface {
	// Get returns the persisted session, or (nil, false) when absent or
	// the medium is unavailable.
	Get() (*Session, bool)

	// Set overwrites the persisted session atomically.
	Set(session *Session) error

	// Clear removes all session data.
	Clear() error
}
