package library

// Outcome is the result of ensuring a movie is in the library: AlreadyPresent,
// Added or Failed.
type Outcome interface {
	isOutcome()
}

// AlreadyPresent means the library already tracked the movie.
type AlreadyPresent struct {
	LibraryID int64 `json:"library_id"`
}

// Added means the movie was created by this call.
type Added struct {
	LibraryID int64 `json:"library_id"`
}

// Failed carries the reason the library could not be updated. Cause is marked
// with services.ErrLibraryUnavailable.
type Failed struct {
	Cause error `json:"-"`
}

func (AlreadyPresent) isOutcome() {}
func (Added) isOutcome()          {}
func (Failed) isOutcome()         {}

// Label names the outcome variant.
func Label(o Outcome) string {
	switch o.(type) {
	case AlreadyPresent:
		return "already_present"
	case Added:
		return "added"
	case Failed:
		return "failed"
	default:
		return "none"
	}
}
