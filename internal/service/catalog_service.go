package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nurtureapp/nurture-api/internal/catalog"
	"github.com/nurtureapp/nurture-api/internal/domain"
)

// PlantNetGateway is the slice of the PlantNet adapter the catalog service
// needs.
type PlantNetGateway interface {
	Identify(ctx context.Context, filename string, image []byte) ([]catalog.Match, error)
	SpeciesSearch(ctx context.Context, prefix string) ([]catalog.SpeciesResult, error)
}

// CatalogService exposes catalog search, species detail, prefix search, and
// photo identification to the request layer.
type CatalogService struct {
	species  SpeciesCatalog
	plantNet PlantNetGateway
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(species SpeciesCatalog, plantNet PlantNetGateway, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		species:  species,
		plantNet: plantNet,
		logger:   logger,
	}
}

// Search looks up species by name.
func (s *CatalogService) Search(ctx context.Context, query string) ([]catalog.Summary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query is required")
	}
	return s.species.Search(ctx, query)
}

// Info fetches the full species record for a catalog id.
func (s *CatalogService) Info(ctx context.Context, catalogID int) (*catalog.Detail, error) {
	return s.species.Details(ctx, catalogID)
}

// Species resolves a scientific-name prefix to candidate species.
func (s *CatalogService) Species(ctx context.Context, prefix string) ([]catalog.SpeciesResult, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, domain.NewValidationError("prefix is required")
	}
	return s.plantNet.SpeciesSearch(ctx, prefix)
}

// Identify resolves a photo to a catalog entry: the best-scoring species
// match is searched by scientific name, falling back to its first common
// name before giving up with a not-found.
func (s *CatalogService) Identify(ctx context.Context, filename string, image []byte) (*catalog.Summary, error) {
	if len(image) == 0 {
		return nil, domain.NewValidationError("image is required")
	}

	matches, err := s.plantNet.Identify(ctx, filename, image)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, domain.NewNotFoundError("match")
	}

	best := matches[0]
	s.logger.Debug("photo identified",
		slog.String("species", best.ScientificName),
		slog.Float64("score", best.Score),
	)

	if best.ScientificName != "" {
		results, err := s.species.Search(ctx, best.ScientificName)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return &results[0], nil
		}
	}

	if len(best.CommonNames) > 0 {
		results, err := s.species.Search(ctx, best.CommonNames[0])
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return &results[0], nil
		}
	}

	return nil, domain.NewNotFoundError("match")
}
