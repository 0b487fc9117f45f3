package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurtureapp/nurture-api/internal/domain"
)

func TestPerenualSearch(t *testing.T) {
	var gotKey, gotQuery string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/species-list", r.URL.Path)
		gotKey = r.URL.Query().Get("key")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"id":42,"common_name":"Rose","scientific_name":["Rosa rubiginosa"],"other_name":["sweet briar"],"default_image":{"thumbnail":"https://img/rose_t.jpg"}},
			{"id":7,"common_name":"Fern","scientific_name":["Dryopteris"],"other_name":[],"default_image":null}
		]}`))
	}))
	defer srv.Close()

	c := NewPerenualClient(srv.URL, "test-key", NewMemoryCache(), time.Minute, nil)
	results, err := c.Search(context.Background(), "rose")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "rose", gotQuery)
	require.Len(t, results, 2)
	assert.Equal(t, 42, results[0].ID)
	assert.Equal(t, "Rose", results[0].CommonName)
	assert.Equal(t, "https://img/rose_t.jpg", results[0].Thumbnail)
	assert.Empty(t, results[1].Thumbnail)

	// second identical search is served from cache
	_, err = c.Search(context.Background(), "rose")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPerenualDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/species/details/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":42,"common_name":"Rose","scientific_name":["Rosa rubiginosa"],"other_name":[],
			"type":"shrub","cycle":"Perennial","watering":"Average",
			"watering_general_benchmark":{"value":"5-7","unit":"days"},
			"sunlight":["full sun"],"care_level":"Medium","maintenance":"Low",
			"dimensions":{"min_value":1,"max_value":3,"unit":"meters"},
			"indoor":false,"flowers":true,"flowering_season":"Spring",
			"hardiness":{"min":"5","max":"9"},"propagation":["cutting"],
			"description":"A rose.","default_image":{"thumbnail":"t.jpg","regular_url":"r.jpg"}
		}`))
	}))
	defer srv.Close()

	c := NewPerenualClient(srv.URL, "k", NewMemoryCache(), time.Minute, nil)
	d, err := c.Details(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, "Rose", d.CommonName)
	require.NotNil(t, d.Watering.Benchmark)
	assert.Equal(t, "5-7 days", *d.Watering.Benchmark)
	require.NotNil(t, d.Flowering.Season)
	assert.Equal(t, "Spring", *d.Flowering.Season)
	assert.Equal(t, 3.0, d.Dimensions.MaxHeight)
	assert.Equal(t, "t.jpg", d.Thumbnail)
	assert.Equal(t, "r.jpg", d.Image)
}

func TestPerenualUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewPerenualClient(srv.URL, "k", NewMemoryCache(), time.Minute, nil)
	_, err := c.Search(context.Background(), "rose")
	require.Error(t, err)
	assert.True(t, domain.IsUpstreamError(err))
}

func TestPerenualCircuitFastFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewPerenualClient(srv.URL, "k", NewMemoryCache(), time.Minute, nil)
	for i := 0; i < 5; i++ {
		_, err := c.Search(context.Background(), "rose")
		require.Error(t, err)
	}

	srv.Close()
	// circuit is open now; the request fails without reaching the (closed) server
	_, err := c.Search(context.Background(), "rose")
	require.Error(t, err)
	assert.True(t, domain.IsUpstreamError(err))
	assert.Contains(t, err.Error(), "circuit open")
}
