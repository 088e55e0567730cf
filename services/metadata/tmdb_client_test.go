package metadata

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"lifeboard/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}, nil
}

func TestTMDBClientTagsKindAtIngestion(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/3/tv/popular" {
				t.Fatalf("unexpected request path: %s", req.URL.Path)
			}
			return jsonResponse(http.StatusOK, `{"page":1,"results":[
				{"id":1399,"name":"Game of Thrones","first_air_date":"2011-04-17","vote_average":8.4},
				{"id":0,"name":"ghost row"}
			]}`)
		}),
	}

	client := newTMDBClient("apikey", "en-US", httpc)
	client.minInterval = 0

	items, err := client.popular(context.Background(), models.MediaKindTV, 1)
	if err != nil {
		t.Fatalf("popular failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item (zero-id row dropped), got %d", len(items))
	}
	if items[0].Kind != models.MediaKindTV {
		t.Fatalf("expected kind tv, got %q", items[0].Kind)
	}
	if items[0].Title != "Game of Thrones" {
		t.Fatalf("expected TV title from name field, got %q", items[0].Title)
	}
	if items[0].ReleaseDate != "2011-04-17" {
		t.Fatalf("expected release date from first_air_date, got %q", items[0].ReleaseDate)
	}
}

func TestTMDBClientRecommendationsTrustRowMediaType(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/3/movie/603/recommendations" {
				t.Fatalf("unexpected request path: %s", req.URL.Path)
			}
			return jsonResponse(http.StatusOK, `{"results":[
				{"id":604,"title":"The Matrix Reloaded","media_type":"movie"},
				{"id":2085,"name":"Animatrix","media_type":"tv"}
			]}`)
		}),
	}

	client := newTMDBClient("apikey", "en-US", httpc)
	client.minInterval = 0

	items, err := client.recommendations(context.Background(), models.MediaKindMovie, 603)
	if err != nil {
		t.Fatalf("recommendations failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Kind != models.MediaKindMovie || items[1].Kind != models.MediaKindTV {
		t.Fatalf("expected row media_type to win, got %q and %q", items[0].Kind, items[1].Kind)
	}
	if items[1].Title != "Animatrix" {
		t.Fatalf("expected tv row to use name field, got %q", items[1].Title)
	}
}

func TestTMDBClientDoesNotRetryClientErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)

	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return jsonResponse(http.StatusNotFound, `{"status_message":"not found"}`)
		}),
	}

	client := newTMDBClient("apikey", "en-US", httpc)
	client.minInterval = 0

	if _, err := client.trending(context.Background(), models.MediaKindMovie); err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt for a 4xx, got %d", calls)
	}
}

func TestTMDBClientRetriesServerErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)

	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			calls++
			attempt := calls
			mu.Unlock()
			if attempt == 1 {
				return jsonResponse(http.StatusInternalServerError, `{}`)
			}
			return jsonResponse(http.StatusOK, `{"results":[{"id":27205,"title":"Inception"}]}`)
		}),
	}

	client := newTMDBClient("apikey", "en-US", httpc)
	client.minInterval = 0

	items, err := client.trending(context.Background(), models.MediaKindMovie)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if len(items) != 1 || items[0].Title != "Inception" {
		t.Fatalf("unexpected items after retry: %+v", items)
	}
}

func TestTMDBClientNormalizesLanguageParam(t *testing.T) {
	var captured string

	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = req.URL.Query().Get("language")
			if req.URL.Query().Get("api_key") != "apikey" {
				t.Fatalf("expected api_key query parameter")
			}
			return jsonResponse(http.StatusOK, `{"results":[]}`)
		}),
	}

	client := newTMDBClient("apikey", "pt_BR", httpc)
	client.minInterval = 0

	if _, err := client.popular(context.Background(), models.MediaKindMovie, 1); err != nil {
		t.Fatalf("popular failed: %v", err)
	}
	if captured != "pt-BR" {
		t.Fatalf("expected normalized language pt-BR, got %q", captured)
	}
}

func TestTMDBClientRequiresAPIKey(t *testing.T) {
	client := newTMDBClient("", "en-US", nil)
	if _, err := client.popular(context.Background(), models.MediaKindMovie, 1); err != errTMDBNotConfigured {
		t.Fatalf("expected errTMDBNotConfigured, got %v", err)
	}
}
