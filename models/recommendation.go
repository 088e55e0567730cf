package models

// RecommendationMethod tags how a batch was produced.
type RecommendationMethod string

const (
	MethodPersonalized    RecommendationMethod = "personalized"
	MethodPopularFallback RecommendationMethod = "popular_fallback"
)

// Strategy names reported in a batch's basedOn metadata.
const (
	StrategySimilarToRated = "similar_to_rated"
	StrategyGenreDiscovery = "genre_discovery"
	StrategyTrending       = "trending"
	StrategyPopular        = "popular"
)

// RecommendationBasis describes the inputs a personalized batch was built
// from. TopGenres is empty in popularity-fallback mode.
type RecommendationBasis struct {
	HighRatedCount int      `json:"highRatedCount"`
	TopGenres      []int64  `json:"topGenres"`
	StrategiesUsed []string `json:"strategiesUsed"`
}

// RecommendationBatch is the transient result of one batch build. It is never
// persisted server-side; the client holds it and mutates it through the
// replacement protocol until the next full fetch.
type RecommendationBatch struct {
	Recommendations []ContentItem        `json:"recommendations"`
	Buffer          []ContentItem        `json:"buffer"`
	Method          RecommendationMethod `json:"method"`
	BasedOn         *RecommendationBasis `json:"basedOn,omitempty"`
}

// Contains reports whether the visible recommendation list holds ref.
func (b RecommendationBatch) Contains(ref ContentRef) bool {
	for _, item := range b.Recommendations {
		if item.Ref() == ref {
			return true
		}
	}
	return false
}

// SingleRecommendation is the response body of the single-item fetch used by
// the replacement service once its buffer is exhausted.
type SingleRecommendation struct {
	Recommendation *ContentItem `json:"recommendation"`
}
