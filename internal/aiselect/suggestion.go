package aiselect

// Suggestion is the adapter's reading of the model reply. It is one of Picked,
// NoMatch, Unavailable or Invalid.
type Suggestion interface {
	isSuggestion()
}

// Picked names one submitted candidate by its position in the request.
type Picked struct {
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// NoMatch means the model judged none of the candidates correct.
type NoMatch struct {
	Rationale string `json:"rationale,omitempty"`
}

// Unavailable means the model could not be reached.
type Unavailable struct {
	Cause error `json:"-"`
}

// Invalid means the model replied with something that violates the schema.
type Invalid struct {
	Cause error  `json:"-"`
	Raw   string `json:"raw,omitempty"`
}

func (Picked) isSuggestion()      {}
func (NoMatch) isSuggestion()     {}
func (Unavailable) isSuggestion() {}
func (Invalid) isSuggestion()     {}

// Label names the suggestion variant for logs and audit records.
func Label(s Suggestion) string {
	switch s.(type) {
	case Picked:
		return "picked"
	case NoMatch:
		return "no_match"
	case Unavailable:
		return "unavailable"
	case Invalid:
		return "invalid"
	default:
		return "none"
	}
}
