package domain

// DiscoverQuery describes a remote discover listing. Zero values are omitted
// from the upstream request.
type DiscoverQuery struct {
	Kind              MediaKind
	Page              int
	Language          string
	SortBy            string
	WatchRegion       string
	OriginalLanguages []string
	ReleaseTypes      []int
	Networks          []int
	Genres            []int
	WithoutGenres     []int
	MinVoteCount      int
	MinVoteAverage    float64
	ReleasedFrom      string
	ReleasedTo        string
	Year              int
	IncludeAdult      bool
}

// Credits is the combined cast and crew filmography of a person.
type Credits struct {
	Cast []MediaItem `json:"cast"`
	Crew []MediaItem `json:"crew"`
}
