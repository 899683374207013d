package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchSitemapParsesURLSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<urlset><url><loc>https://example.com/a</loc></url><url><loc>https://example.com/b</loc></url></urlset>`))
	}))
	defer srv.Close()

	urls := FetchSitemap(context.Background(), srv.URL)
	assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, urls)
}

func TestFetchSitemapFollowsIndex(t *testing.T) {
	var childURL string
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	childURL = srv.URL + "/child.xml"

	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><sitemapindex><sitemap><loc>` + childURL + `</loc></sitemap></sitemapindex>`))
	})
	mux.HandleFunc("/child.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><urlset><url><loc>https://example.com/c</loc></url></urlset>`))
	})

	urls := FetchSitemap(context.Background(), srv.URL+"/index.xml")
	assert.Equal(t, []string{"https://example.com/c"}, urls)
}

func TestFetchSitemapReturnsEmptyOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.Empty(t, FetchSitemap(context.Background(), srv.URL))
}
