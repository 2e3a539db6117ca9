package aiselect

// SelectionPrompt is the system prompt sent with every selection request.
const SelectionPrompt = `You match a movie file name to one entry of a movie catalog.

You receive the original file name and a numbered list of catalog candidates.
Each candidate has an index, catalog id, title, original title, release year,
original language, popularity and a deterministic match score between 0 and 1.

Release names are often in the original language of the film while the
catalog title is localized, and re-releases can shift the year by one.
Scene tags (resolution, codec, source, group names) are not part of the title.

Choose the candidate that is the same film as the file. If none is, say so.
Do not invent candidates.

Respond ONLY with JSON:
{"index": <candidate index, or null when no candidate matches>, "confidence": 0.0-1.0, "rationale": "brief explanation"}`

type promptCandidate struct {
	Index         int     `json:"index"`
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	Year          int     `json:"year,omitempty"`
	Language      string  `json:"language,omitempty"`
	Popularity    float64 `json:"popularity"`
	Score         float64 `json:"score"`
}

type promptPayload struct {
	Filename   string            `json:"filename"`
	Candidates []promptCandidate `json:"candidates"`
}
