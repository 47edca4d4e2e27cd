package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDuckDuckGoSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang" {
			t.Errorf("query = %q", got)
		}
		w.Write([]byte(`{
			"Heading": "Go",
			"AbstractText": "Go is a programming language.",
			"AbstractURL": "https://go.dev",
			"Results": [{"Text": "Official site", "FirstURL": "https://go.dev/doc"}],
			"RelatedTopics": [
				{"Text": "Goroutines", "FirstURL": "https://go.dev/tour"},
				{"Topics": [{"Text": "Nested", "FirstURL": "https://example.com/nested"}]}
			]
		}`))
	}))
	defer server.Close()

	p := NewDuckDuckGoProvider(server.URL, "", 5*time.Second)
	resp, err := p.Search(context.Background(), "golang", 3)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}

	if resp.Provider != "duckduckgo" || resp.Query != "golang" {
		t.Errorf("resp meta = %+v", resp)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("len(results) = %d, want limit 3", len(resp.Results))
	}
	if resp.Results[0].URL != "https://go.dev" {
		t.Errorf("abstract should rank first: %+v", resp.Results[0])
	}
}

func TestDuckDuckGoEmptyQuery(t *testing.T) {
	p := NewDuckDuckGoProvider("", "", 0)
	if _, err := p.Search(context.Background(), "   ", 5); err == nil {
		t.Error("empty query should fail")
	}
}

func TestSearXNGSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("apikey"); got != "secret" {
			t.Errorf("apikey = %q", got)
		}
		w.Write([]byte(`{
			"query": "golang",
			"results": [
				{"title": "Go", "url": "https://go.dev", "content": "The Go language"},
				{"title": "Tour", "url": "https://go.dev/tour", "content": "Take the tour"}
			]
		}`))
	}))
	defer server.Close()

	p := NewSearXNGProvider(server.URL, "", "secret", 5*time.Second)
	resp, err := p.Search(context.Background(), "golang", 1)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}

	if len(resp.Results) != 1 {
		t.Fatalf("len(results) = %d, want limit 1", len(resp.Results))
	}
	if resp.Results[0].Source != "searxng" {
		t.Errorf("source = %q", resp.Results[0].Source)
	}
}

func TestSearXNGErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	p := NewSearXNGProvider(server.URL, "", "", 5*time.Second)
	if _, err := p.Search(context.Background(), "golang", 5); err == nil {
		t.Error("non-2xx should fail")
	}
}
