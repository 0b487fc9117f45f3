package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nurtureapp/nurture-api/internal/domain"
	"github.com/nurtureapp/nurture-api/internal/observability/metrics"
	"github.com/nurtureapp/nurture-api/internal/reliability/circuitbreaker"
)

const perenualProvider = "perenual"

// Perenual wire format, only the fields we normalize.
type perenualImage struct {
	Thumbnail  string `json:"thumbnail"`
	RegularURL string `json:"regular_url"`
}

type perenualSummary struct {
	ID             int            `json:"id"`
	CommonName     string         `json:"common_name"`
	ScientificName []string       `json:"scientific_name"`
	OtherName      []string       `json:"other_name"`
	DefaultImage   *perenualImage `json:"default_image"`
}

type perenualBenchmark struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

type perenualDimensions struct {
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
	Unit     string  `json:"unit"`
}

type perenualHardiness struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

type perenualDetail struct {
	ID              int                `json:"id"`
	CommonName      string             `json:"common_name"`
	ScientificName  []string           `json:"scientific_name"`
	OtherName       []string           `json:"other_name"`
	Type            string             `json:"type"`
	Cycle           string             `json:"cycle"`
	Watering        string             `json:"watering"`
	WateringGeneral perenualBenchmark  `json:"watering_general_benchmark"`
	Sunlight        []string           `json:"sunlight"`
	CareLevel       string             `json:"care_level"`
	Maintenance     string             `json:"maintenance"`
	Dimensions      perenualDimensions `json:"dimensions"`
	Indoor          bool               `json:"indoor"`
	Flowers         bool               `json:"flowers"`
	FloweringSeason string             `json:"flowering_season"`
	Hardiness       perenualHardiness  `json:"hardiness"`
	Propagation     []string           `json:"propagation"`
	Description     string             `json:"description"`
	DefaultImage    *perenualImage     `json:"default_image"`
}

// PerenualClient talks to the Perenual species API. Responses are cached and
// the client fast-fails through a circuit breaker while the provider is
// down. Requests are never retried.
type PerenualClient struct {
	client  *resty.Client
	key     string
	cache   Cache
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewPerenualClient creates a Perenual adapter.
func NewPerenualClient(baseURL, apiKey string, c Cache, ttl time.Duration, logger *slog.Logger) *PerenualClient {
	if logger == nil {
		logger = slog.Default()
	}
	pc := &PerenualClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15 * time.Second),
		key:     apiKey,
		cache:   c,
		ttl:     ttl,
		breaker: circuitbreaker.New(5, 30*time.Second),
		logger:  logger,
	}
	pc.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warn("perenual circuit state change",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return pc
}

// Search looks up species by name.
func (c *PerenualClient) Search(ctx context.Context, query string) ([]Summary, error) {
	cacheKey := "perenual:search:" + url.QueryEscape(query)
	if payload, ok := c.cache.Get(ctx, cacheKey); ok {
		var out []Summary
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
	}

	var body struct {
		Data []perenualSummary `json:"data"`
	}
	if err := c.get(ctx, "/species-list", map[string]string{"q": query}, &body); err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(body.Data))
	for _, p := range body.Data {
		s := Summary{
			ID:              p.ID,
			CommonName:      p.CommonName,
			ScientificNames: p.ScientificName,
			OtherNames:      p.OtherName,
		}
		if p.DefaultImage != nil {
			s.Thumbnail = p.DefaultImage.Thumbnail
		}
		out = append(out, s)
	}

	if payload, err := json.Marshal(out); err == nil {
		c.cache.Set(ctx, cacheKey, payload, c.ttl)
	}
	return out, nil
}

// Details fetches the full species record by catalog id.
func (c *PerenualClient) Details(ctx context.Context, id int) (*Detail, error) {
	cacheKey := fmt.Sprintf("perenual:detail:%d", id)
	if payload, ok := c.cache.Get(ctx, cacheKey); ok {
		var out Detail
		if err := json.Unmarshal(payload, &out); err == nil {
			return &out, nil
		}
	}

	var raw perenualDetail
	if err := c.get(ctx, fmt.Sprintf("/species/details/%d", id), nil, &raw); err != nil {
		return nil, err
	}

	out := normalizeDetail(raw)
	if payload, err := json.Marshal(out); err == nil {
		c.cache.Set(ctx, cacheKey, payload, c.ttl)
	}
	return out, nil
}

func (c *PerenualClient) get(ctx context.Context, path string, params map[string]string, result any) error {
	if !c.breaker.Allow() {
		metrics.ObserveCatalogRequest(perenualProvider, "fast_fail")
		return &domain.UpstreamError{Provider: perenualProvider, Err: errors.New("circuit open")}
	}

	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.key).
		SetResult(result)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(path)
	if err != nil {
		c.breaker.Failure()
		metrics.ObserveCatalogRequest(perenualProvider, "error")
		return &domain.UpstreamError{Provider: perenualProvider, Err: err}
	}
	if resp.IsError() {
		c.breaker.Failure()
		metrics.ObserveCatalogRequest(perenualProvider, "error")
		return &domain.UpstreamError{Provider: perenualProvider, Status: resp.StatusCode()}
	}

	c.breaker.Success()
	metrics.ObserveCatalogRequest(perenualProvider, "ok")
	return nil
}

func normalizeDetail(raw perenualDetail) *Detail {
	d := &Detail{
		ID:              raw.ID,
		CommonName:      raw.CommonName,
		ScientificNames: raw.ScientificName,
		OtherNames:      raw.OtherName,
		Type:            raw.Type,
		Cycle:           raw.Cycle,
		Watering:        Watering{Frequency: raw.Watering},
		Sunlight:        raw.Sunlight,
		Care:            Care{Level: raw.CareLevel, Maintenance: raw.Maintenance},
		Dimensions: Dimensions{
			MinHeight: raw.Dimensions.MinValue,
			MaxHeight: raw.Dimensions.MaxValue,
			Unit:      raw.Dimensions.Unit,
		},
		Indoor:      raw.Indoor,
		Flowering:   Flowering{HasFlowers: raw.Flowers},
		Hardiness:   Hardiness{Min: raw.Hardiness.Min, Max: raw.Hardiness.Max},
		Propagation: raw.Propagation,
		Description: raw.Description,
	}
	if raw.WateringGeneral.Value != "" {
		benchmark := raw.WateringGeneral.Value + " " + raw.WateringGeneral.Unit
		d.Watering.Benchmark = &benchmark
	}
	if raw.FloweringSeason != "" {
		season := raw.FloweringSeason
		d.Flowering.Season = &season
	}
	if raw.DefaultImage != nil {
		d.Thumbnail = raw.DefaultImage.Thumbnail
		d.Image = raw.DefaultImage.RegularURL
	}
	return d
}
