package catalog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nurtureapp/nurture-api/internal/domain"
	"github.com/nurtureapp/nurture-api/internal/observability/metrics"
	"github.com/nurtureapp/nurture-api/internal/reliability/circuitbreaker"
)

const plantNetProvider = "plantnet"

type plantNetTaxon struct {
	ScientificName string `json:"scientificName"`
}

type plantNetSpecies struct {
	ScientificNameWithoutAuthor string        `json:"scientificNameWithoutAuthor"`
	ScientificName              string        `json:"scientificName"`
	CommonNames                 []string      `json:"commonNames"`
	Family                      plantNetTaxon `json:"family"`
}

type plantNetResult struct {
	Score   float64         `json:"score"`
	Species plantNetSpecies `json:"species"`
	GBIF    struct {
		ID string `json:"id"`
	} `json:"gbif"`
}

type plantNetIdentifyResponse struct {
	Results []plantNetResult `json:"results"`
}

type plantNetSpeciesRow struct {
	ID                          string   `json:"id"`
	ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor"`
	ScientificNameAuthorship    string   `json:"scientificNameAuthorship"`
	CommonNames                 []string `json:"commonNames"`
	GBIFID                      string   `json:"gbifId"`
	POWOID                      string   `json:"powoId"`
	IUCNCategory                *string  `json:"iucnCategory"`
}

// PlantNetClient talks to the PlantNet identification API. Like the Perenual
// adapter it fast-fails through a circuit breaker and never retries.
type PlantNetClient struct {
	client  *resty.Client
	key     string
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewPlantNetClient creates a PlantNet adapter.
func NewPlantNetClient(baseURL, apiKey string, logger *slog.Logger) *PlantNetClient {
	if logger == nil {
		logger = slog.Default()
	}
	pc := &PlantNetClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second),
		key:     apiKey,
		breaker: circuitbreaker.New(5, 30*time.Second),
		logger:  logger,
	}
	pc.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warn("plantnet circuit state change",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return pc
}

// Identify submits an image and returns species candidates, best score
// first. An empty slice means the provider found no match.
func (c *PlantNetClient) Identify(ctx context.Context, filename string, image []byte) ([]Match, error) {
	if !c.breaker.Allow() {
		metrics.ObserveCatalogRequest(plantNetProvider, "fast_fail")
		return nil, &domain.UpstreamError{Provider: plantNetProvider, Err: errors.New("circuit open")}
	}

	var body plantNetIdentifyResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("api-key", c.key).
		SetFileReader("images", filename, bytes.NewReader(image)).
		SetResult(&body).
		Post("/v2/identify/all")
	if err != nil {
		c.breaker.Failure()
		metrics.ObserveCatalogRequest(plantNetProvider, "error")
		return nil, &domain.UpstreamError{Provider: plantNetProvider, Err: err}
	}
	// PlantNet reports "no species matched" as a 404, which is a valid answer
	// rather than a provider failure.
	if resp.StatusCode() == 404 {
		c.breaker.Success()
		metrics.ObserveCatalogRequest(plantNetProvider, "no_match")
		return []Match{}, nil
	}
	if resp.IsError() {
		c.breaker.Failure()
		metrics.ObserveCatalogRequest(plantNetProvider, "error")
		return nil, &domain.UpstreamError{Provider: plantNetProvider, Status: resp.StatusCode()}
	}

	c.breaker.Success()
	metrics.ObserveCatalogRequest(plantNetProvider, "ok")

	matches := make([]Match, 0, len(body.Results))
	for _, r := range body.Results {
		name := r.Species.ScientificNameWithoutAuthor
		if name == "" {
			name = r.Species.ScientificName
		}
		matches = append(matches, Match{
			Score:          r.Score,
			ScientificName: name,
			CommonNames:    r.Species.CommonNames,
			Family:         r.Species.Family.ScientificName,
			GBIFID:         r.GBIF.ID,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

// SpeciesSearch looks species up by scientific-name prefix against the
// PlantNet species index.
func (c *PlantNetClient) SpeciesSearch(ctx context.Context, prefix string) ([]SpeciesResult, error) {
	if !c.breaker.Allow() {
		metrics.ObserveCatalogRequest(plantNetProvider, "fast_fail")
		return nil, &domain.UpstreamError{Provider: plantNetProvider, Err: errors.New("circuit open")}
	}

	var body []plantNetSpeciesRow
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lang":    "en",
			"type":    "kt",
			"prefix":  prefix,
			"api-key": c.key,
		}).
		SetResult(&body).
		Get("/v2/species")
	if err != nil {
		c.breaker.Failure()
		metrics.ObserveCatalogRequest(plantNetProvider, "error")
		return nil, &domain.UpstreamError{Provider: plantNetProvider, Err: err}
	}
	if resp.IsError() {
		c.breaker.Failure()
		metrics.ObserveCatalogRequest(plantNetProvider, "error")
		return nil, &domain.UpstreamError{Provider: plantNetProvider, Status: resp.StatusCode()}
	}

	c.breaker.Success()
	metrics.ObserveCatalogRequest(plantNetProvider, "ok")

	results := make([]SpeciesResult, 0, len(body))
	for _, row := range body {
		results = append(results, SpeciesResult{
			ID:             row.ID,
			ScientificName: row.ScientificNameWithoutAuthor,
			Authorship:     row.ScientificNameAuthorship,
			CommonNames:    row.CommonNames,
			GBIFID:         row.GBIFID,
			POWOID:         row.POWOID,
			IUCNCategory:   row.IUCNCategory,
		})
	}
	return results, nil
}
