package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurtureapp/nurture-api/internal/domain"
)

func TestPlantNetIdentify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/identify/all", r.URL.Path)
		require.Equal(t, "k", r.URL.Query().Get("api-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("images")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "leaf.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"score":0.41,"species":{"scientificNameWithoutAuthor":"Ficus lyrata","scientificName":"Ficus lyrata Warb.","commonNames":["Fiddle-leaf fig"],"family":{"scientificName":"Moraceae"}},"gbif":{"id":"5361903"}},
			{"score":0.87,"species":{"scientificNameWithoutAuthor":"Monstera deliciosa","scientificName":"Monstera deliciosa Liebm.","commonNames":["Swiss cheese plant"],"family":{"scientificName":"Araceae"}},"gbif":{"id":"2868241"}}
		]}`))
	}))
	defer srv.Close()

	c := NewPlantNetClient(srv.URL, "k", nil)
	matches, err := c.Identify(context.Background(), "leaf.jpg", []byte("fake-image"))
	require.NoError(t, err)

	require.Len(t, matches, 2)
	// best score first
	assert.Equal(t, "Monstera deliciosa", matches[0].ScientificName)
	assert.Equal(t, 0.87, matches[0].Score)
	assert.Equal(t, []string{"Swiss cheese plant"}, matches[0].CommonNames)
	assert.Equal(t, "Araceae", matches[0].Family)
	assert.Equal(t, "2868241", matches[0].GBIFID)
}

func TestPlantNetIdentifyNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewPlantNetClient(srv.URL, "k", nil)
	matches, err := c.Identify(context.Background(), "leaf.jpg", []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPlantNetIdentifyUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewPlantNetClient(srv.URL, "k", nil)
	_, err := c.Identify(context.Background(), "leaf.jpg", []byte("x"))
	require.Error(t, err)
	assert.True(t, domain.IsUpstreamError(err))
}

func TestPlantNetSpeciesSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/species", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "en", q.Get("lang"))
		assert.Equal(t, "kt", q.Get("type"))
		assert.Equal(t, "Monst", q.Get("prefix"))
		assert.Equal(t, "k", q.Get("api-key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"2868241","scientificNameWithoutAuthor":"Monstera deliciosa","scientificNameAuthorship":"Liebm.","commonNames":["Swiss cheese plant"],"gbifId":"2868241","powoId":"urn:lsid:ipni.org:names:87484-1","iucnCategory":null},
			{"id":"2868242","scientificNameWithoutAuthor":"Monstera adansonii","scientificNameAuthorship":"Schott","commonNames":[],"gbifId":"2868242","powoId":"urn:lsid:ipni.org:names:87466-1","iucnCategory":"LC"}
		]`))
	}))
	defer srv.Close()

	c := NewPlantNetClient(srv.URL, "k", nil)
	results, err := c.SpeciesSearch(context.Background(), "Monst")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Monstera deliciosa", results[0].ScientificName)
	assert.Equal(t, "Liebm.", results[0].Authorship)
	assert.Equal(t, []string{"Swiss cheese plant"}, results[0].CommonNames)
	assert.Equal(t, "2868241", results[0].GBIFID)
	assert.Equal(t, "urn:lsid:ipni.org:names:87484-1", results[0].POWOID)
	assert.Nil(t, results[0].IUCNCategory)

	require.NotNil(t, results[1].IUCNCategory)
	assert.Equal(t, "LC", *results[1].IUCNCategory)
}

func TestPlantNetSpeciesSearchUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewPlantNetClient(srv.URL, "k", nil)
	_, err := c.SpeciesSearch(context.Background(), "Monst")
	assert.True(t, domain.IsUpstreamError(err))
}
