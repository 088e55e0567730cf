package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/text/language"

	"lifeboard/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// Optimized image sizes instead of "original" to keep payloads small.
	tmdbPosterSize   = "w500"
	tmdbBackdropSize = "w1280"

	// Discovery thresholds: skip obscure or poorly voted titles.
	discoverMinVoteAverage = 6.0
	discoverMinVoteCount   = 100
)

var errTMDBNotConfigured = errors.New("tmdb api key not configured")

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, lang string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    lang,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs a rate-limited HTTP GET with retry on transient failures.
// 4xx responses other than 429 abort immediately.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	q := req.URL.Query()
	for key, values := range query {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	q.Set("api_key", c.apiKey)
	q.Set("language", normalizeLanguage(c.language))
	req.URL.RawQuery = q.Encode()

	return retry.Do(
		func() error {
			c.throttleMu.Lock()
			since := time.Since(c.lastRequest)
			if since < c.minInterval {
				time.Sleep(c.minInterval - since)
			}
			c.lastRequest = time.Now()
			c.throttleMu.Unlock()

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("tmdb request failed: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Printf("[tmdb] retrying %s (attempt %d/3): %v", req.URL.Path, attempt+1, err)
		}),
	)
}

type tmdbListResponse struct {
	Page         int              `json:"page"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
	Results      []tmdbListResult `json:"results"`
}

type tmdbListResult struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int64 `json:"genre_ids"`
	FirstAirDate string  `json:"first_air_date"`
	ReleaseDate  string  `json:"release_date"`
	MediaType    string  `json:"media_type"`
}

// toContentItem assigns the tagged kind exactly once, at ingestion. The kind
// comes from the endpoint that produced the row, or from the row's own
// media_type field for mixed listings.
func (r tmdbListResult) toContentItem(kind models.MediaKind) models.ContentItem {
	item := models.ContentItem{
		ID:         r.ID,
		Kind:       kind,
		Overview:   r.Overview,
		Rating:     r.VoteAverage,
		Popularity: r.Popularity,
		GenreIDs:   r.GenreIDs,
	}
	if kind == models.MediaKindMovie {
		item.Title = r.Title
		item.ReleaseDate = r.ReleaseDate
	} else {
		item.Title = r.Name
		item.ReleaseDate = r.FirstAirDate
	}
	if poster := buildTMDBImage(r.PosterPath, tmdbPosterSize); poster != "" {
		item.PosterURL = poster
	}
	if backdrop := buildTMDBImage(r.BackdropPath, tmdbBackdropSize); backdrop != "" {
		item.BackdropURL = backdrop
	}
	return item
}

func collectItems(results []tmdbListResult, kind models.MediaKind) []models.ContentItem {
	items := make([]models.ContentItem, 0, len(results))
	for _, r := range results {
		if r.ID == 0 {
			continue
		}
		items = append(items, r.toContentItem(kind))
	}
	return items
}

// popular returns globally popular titles of one kind.
func (c *tmdbClient) popular(ctx context.Context, kind models.MediaKind, page int) ([]models.ContentItem, error) {
	if !c.isConfigured() {
		return nil, errTMDBNotConfigured
	}

	endpoint, err := url.JoinPath(tmdbBaseURL, string(kind), "popular")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, query, &payload); err != nil {
		return nil, err
	}
	return collectItems(payload.Results, kind), nil
}

// trending returns the weekly trending window for one kind.
func (c *tmdbClient) trending(ctx context.Context, kind models.MediaKind) ([]models.ContentItem, error) {
	if !c.isConfigured() {
		return nil, errTMDBNotConfigured
	}

	endpoint, err := url.JoinPath(tmdbBaseURL, "trending", string(kind), "week")
	if err != nil {
		return nil, err
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return collectItems(payload.Results, kind), nil
}

// discover queries the discovery endpoint filtered to the given genres,
// sorted by popularity descending with minimum rating/vote thresholds.
func (c *tmdbClient) discover(ctx context.Context, kind models.MediaKind, genreIDs []int64) ([]models.ContentItem, error) {
	if !c.isConfigured() {
		return nil, errTMDBNotConfigured
	}

	endpoint, err := url.JoinPath(tmdbBaseURL, "discover", string(kind))
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("sort_by", "popularity.desc")
	query.Set("vote_average.gte", strconv.FormatFloat(discoverMinVoteAverage, 'f', 1, 64))
	query.Set("vote_count.gte", strconv.Itoa(discoverMinVoteCount))
	if len(genreIDs) > 0 {
		parts := make([]string, len(genreIDs))
		for i, id := range genreIDs {
			parts[i] = strconv.FormatInt(id, 10)
		}
		query.Set("with_genres", strings.Join(parts, "|"))
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, query, &payload); err != nil {
		return nil, err
	}
	return collectItems(payload.Results, kind), nil
}

// recommendations returns the provider's recommended-from-seed list.
func (c *tmdbClient) recommendations(ctx context.Context, kind models.MediaKind, seedID int64) ([]models.ContentItem, error) {
	if !c.isConfigured() {
		return nil, errTMDBNotConfigured
	}

	endpoint, err := url.JoinPath(tmdbBaseURL, string(kind), strconv.FormatInt(seedID, 10), "recommendations")
	if err != nil {
		return nil, err
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	// The recommendations endpoint mixes kinds; trust each row's own tag.
	items := make([]models.ContentItem, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.ID == 0 {
			continue
		}
		rowKind := kind
		if parsed, err := models.ParseMediaKind(r.MediaType); err == nil {
			rowKind = parsed
		}
		items = append(items, r.toContentItem(rowKind))
	}
	return items, nil
}

// search looks up titles by free-text query.
func (c *tmdbClient) search(ctx context.Context, kind models.MediaKind, text string, page int) ([]models.ContentItem, error) {
	if !c.isConfigured() {
		return nil, errTMDBNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("search query is required")
	}

	endpoint, err := url.JoinPath(tmdbBaseURL, "search", string(kind))
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("query", text)
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, query, &payload); err != nil {
		return nil, err
	}

	items := collectItems(payload.Results, kind)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Popularity > items[j].Popularity
	})
	return items, nil
}

func buildTMDBImage(imagePath, size string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	fullPath := path.Join(size, strings.TrimPrefix(trimmed, "/"))
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, fullPath)
}

func normalizeLanguage(lang string) string {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
	if err != nil {
		return "en-US"
	}
	return tag.String()
}
