package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return &Client{
		APIKey:     "test-key",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}, srv
}

func TestGetBusinessDetails(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("place_id"); got != "place_1" {
			t.Fatalf("expected place_id query param, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"name":"Cafe Test","formatted_address":"1 Main St","user_ratings_total":42,"rating":4.5}}`))
	})
	defer srv.Close()

	details, err := client.GetBusinessDetails(context.Background(), "place_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Name != "Cafe Test" || details.ReviewCount != 42 || details.Rating != 4.5 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestGetBusinessDetailsMissingName(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{}}`))
	})
	defer srv.Close()

	if _, err := client.GetBusinessDetails(context.Background(), "place_1"); err == nil {
		t.Fatalf("expected error for response without business name")
	}
}

func TestGetReviews(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"reviews":[
			{"author_name":"Alice","profile_photo_url":"http://img/a.png","author_url":"http://g/review/1","rating":5,"text":"Great","time":1700000000},
			{"author_name":"Bob","rating":2,"text":"Meh","time":1700000100}
		]}}`))
	})
	defer srv.Close()

	reviews, err := client.GetReviews(context.Background(), "place_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].AuthorName != "Alice" || reviews[0].Rating != 5 || reviews[0].Time != 1700000000 {
		t.Fatalf("unexpected first review: %+v", reviews[0])
	}
}

func TestGetRequiresAPIKey(t *testing.T) {
	client := &Client{APIBaseURL: "http://unused", HTTPClient: http.DefaultClient}
	if _, err := client.GetReviews(context.Background(), "place_1"); err == nil {
		t.Fatalf("expected error when API key is missing")
	}
}

func TestGetNonOKStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	defer srv.Close()

	if _, err := client.GetReviews(context.Background(), "place_1"); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}
