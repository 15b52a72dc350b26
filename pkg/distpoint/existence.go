package distpoint

// Existence is the tri-state result of a file-existence query.
//
// Mounted and cloud backends answer authoritatively and only ever return
// ExistencePresent or ExistenceAbsent. The legacy upload backend stores
// payloads in a database with no documented query API; the best it can do is
// match catalog records, which proves a record exists but not that the binary
// payload has finished propagating. Undeterminable existence is an expected
// outcome there, so it is modeled as a value, not an error.
type Existence int

const (
	// ExistenceAbsent means the backend authoritatively reports the file is
	// not present (or, for the legacy backend, no catalog record matches).
	ExistenceAbsent Existence = iota

	// ExistencePresent means the backend confirms the file is present.
	ExistencePresent

	// ExistenceUnknown means the backend cannot determine whether the
	// payload is present. Callers must not coerce this to a boolean.
	ExistenceUnknown
)

func (e Existence) String() string {
	switch e {
	case ExistenceAbsent:
		return "absent"
	case ExistencePresent:
		return "present"
	default:
		return "unknown"
	}
}
