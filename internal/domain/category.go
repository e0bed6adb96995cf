package domain

type CategoryID string

const (
	CategoryTrending       CategoryID = "trending"
	CategoryTopRated       CategoryID = "top-rated"
	CategoryInCinema       CategoryID = "in-cinema"
	CategoryGenreSpotlight CategoryID = "genre-spotlight"
	CategoryClassics       CategoryID = "classics"
	CategoryTopSeries      CategoryID = "top-series"
)

type Category struct {
	ID   CategoryID `json:"id"`
	Name string     `json:"name"`
}

// HomeCategories lists the home carousels in load order.
var HomeCategories = []Category{
	{ID: CategoryTrending, Name: "Trending Now"},
	{ID: CategoryTopRated, Name: "Top Rated"},
	{ID: CategoryInCinema, Name: "In Cinema"},
	{ID: CategoryGenreSpotlight, Name: "Genre"},
	{ID: CategoryClassics, Name: "Classic Collections"},
	{ID: CategoryTopSeries, Name: "Top Series"},
}

// CategoryResultSet maps a category to its ranked items.
type CategoryResultSet map[CategoryID][]MediaItem

func (s CategoryResultSet) Clone() CategoryResultSet {
	if s == nil {
		return nil
	}
	cloned := make(CategoryResultSet, len(s))
	for id, items := range s {
		cloned[id] = CloneItems(items)
	}
	return cloned
}

// HomeResult is one full home load.
type HomeResult struct {
	Categories    CategoryResultSet `json:"categories"`
	SpotlightID   int               `json:"spotlightGenreId"`
	SpotlightName string            `json:"spotlightGenre"`
}

func (h HomeResult) Clone() HomeResult {
	cloned := h
	cloned.Categories = h.Categories.Clone()
	return cloned
}
