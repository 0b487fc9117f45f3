package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurtureapp/nurture-api/internal/catalog"
	"github.com/nurtureapp/nurture-api/internal/domain"
)

type fakePlantNet struct {
	matches []catalog.Match
	species []catalog.SpeciesResult
	err     error
}

func (f *fakePlantNet) Identify(_ context.Context, _ string, _ []byte) ([]catalog.Match, error) {
	return f.matches, f.err
}

func (f *fakePlantNet) SpeciesSearch(_ context.Context, _ string) ([]catalog.SpeciesResult, error) {
	return f.species, f.err
}

func TestSearchRequiresQuery(t *testing.T) {
	s := NewCatalogService(&fakeCatalog{}, &fakePlantNet{}, nil)

	_, err := s.Search(context.Background(), "")
	assert.True(t, domain.IsValidationError(err))

	_, err = s.Search(context.Background(), "   ")
	assert.True(t, domain.IsValidationError(err))
}

func TestSearchPassesThrough(t *testing.T) {
	cat := &fakeCatalog{results: map[string][]catalog.Summary{
		"rose": {{ID: 42, CommonName: "Rose"}},
	}}
	s := NewCatalogService(cat, &fakePlantNet{}, nil)

	results, err := s.Search(context.Background(), "rose")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 42, results[0].ID)
}

func TestSpeciesRequiresPrefix(t *testing.T) {
	s := NewCatalogService(&fakeCatalog{}, &fakePlantNet{}, nil)

	_, err := s.Species(context.Background(), "")
	assert.True(t, domain.IsValidationError(err))

	_, err = s.Species(context.Background(), "  ")
	assert.True(t, domain.IsValidationError(err))
}

func TestSpeciesPassesThrough(t *testing.T) {
	pn := &fakePlantNet{species: []catalog.SpeciesResult{
		{ID: "sp-1", ScientificName: "Monstera deliciosa", CommonNames: []string{"Swiss cheese plant"}},
	}}
	s := NewCatalogService(&fakeCatalog{}, pn, nil)

	results, err := s.Species(context.Background(), "Monst")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Monstera deliciosa", results[0].ScientificName)
}

func TestSpeciesUpstreamFailure(t *testing.T) {
	pn := &fakePlantNet{err: &domain.UpstreamError{Provider: "plantnet", Status: 502}}
	s := NewCatalogService(&fakeCatalog{}, pn, nil)

	_, err := s.Species(context.Background(), "Monst")
	assert.True(t, domain.IsUpstreamError(err))
}

func TestIdentifyRequiresImage(t *testing.T) {
	s := NewCatalogService(&fakeCatalog{}, &fakePlantNet{}, nil)
	_, err := s.Identify(context.Background(), "leaf.jpg", nil)
	assert.True(t, domain.IsValidationError(err))
}

func TestIdentifyNoMatch(t *testing.T) {
	s := NewCatalogService(&fakeCatalog{}, &fakePlantNet{matches: []catalog.Match{}}, nil)
	_, err := s.Identify(context.Background(), "leaf.jpg", []byte("img"))
	assert.True(t, domain.IsNotFoundError(err))
}

func TestIdentifyResolvesByScientificName(t *testing.T) {
	cat := &fakeCatalog{results: map[string][]catalog.Summary{
		"Monstera deliciosa": {{ID: 9, CommonName: "Monstera"}},
	}}
	id := &fakePlantNet{matches: []catalog.Match{
		{Score: 0.9, ScientificName: "Monstera deliciosa", CommonNames: []string{"Swiss cheese plant"}},
	}}
	s := NewCatalogService(cat, id, nil)

	got, err := s.Identify(context.Background(), "leaf.jpg", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, 9, got.ID)
}

func TestIdentifyFallsBackToCommonName(t *testing.T) {
	cat := &fakeCatalog{results: map[string][]catalog.Summary{
		"Swiss cheese plant": {{ID: 9, CommonName: "Monstera"}},
	}}
	id := &fakePlantNet{matches: []catalog.Match{
		{Score: 0.9, ScientificName: "Monstera deliciosa", CommonNames: []string{"Swiss cheese plant"}},
	}}
	s := NewCatalogService(cat, id, nil)

	got, err := s.Identify(context.Background(), "leaf.jpg", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, 9, got.ID)
}

func TestIdentifyNothingResolves(t *testing.T) {
	id := &fakePlantNet{matches: []catalog.Match{
		{Score: 0.9, ScientificName: "Monstera deliciosa", CommonNames: []string{"Swiss cheese plant"}},
	}}
	s := NewCatalogService(&fakeCatalog{results: map[string][]catalog.Summary{}}, id, nil)

	_, err := s.Identify(context.Background(), "leaf.jpg", []byte("img"))
	assert.True(t, domain.IsNotFoundError(err))
}

func TestIdentifyUpstreamFailure(t *testing.T) {
	id := &fakePlantNet{err: &domain.UpstreamError{Provider: "plantnet", Status: 502}}
	s := NewCatalogService(&fakeCatalog{}, id, nil)

	_, err := s.Identify(context.Background(), "leaf.jpg", []byte("img"))
	assert.True(t, domain.IsUpstreamError(err))
}
