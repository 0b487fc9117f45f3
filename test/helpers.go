package test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nurtureapp/nurture-api/internal/catalog"
	"github.com/nurtureapp/nurture-api/internal/domain"
	"github.com/nurtureapp/nurture-api/internal/handler"
	"github.com/nurtureapp/nurture-api/internal/infrastructure/logger"
	"github.com/nurtureapp/nurture-api/internal/security/audit"
	"github.com/nurtureapp/nurture-api/internal/security/auth"
	"github.com/nurtureapp/nurture-api/internal/security/middleware"
	"github.com/nurtureapp/nurture-api/internal/security/ratelimit"
	"github.com/nurtureapp/nurture-api/internal/service"
)

const testJWTSecret = "integration-test-secret"

// TestServerHelper runs the full API stack against in-memory storage and
// httptest upstreams, so the whole request path including auth middleware
// is exercised without external services.
type TestServerHelper struct {
	Server   *httptest.Server
	Perenual *httptest.Server
	PlantNet *httptest.Server
	Logger   *slog.Logger

	tokens      *auth.TokenManager
	rateLimiter *ratelimit.Limiter
}

func NewTestServer(t *testing.T) *TestServerHelper {
	log := logger.NewLogger("debug")

	perenualUpstream := newPerenualUpstream()
	plantnetUpstream := newPlantNetUpstream()

	perenual := catalog.NewPerenualClient(perenualUpstream.URL, "test-key", catalog.NewMemoryCache(), time.Minute, log)
	plantnet := catalog.NewPlantNetClient(plantnetUpstream.URL, "test-key", log)

	plantRepo := newStubPlantRepo()
	deviceRepo := newStubDeviceRepo()

	plantService := service.NewPlantService(plantRepo, perenual, log)
	catalogService := service.NewCatalogService(perenual, plantnet, log)

	routes := handler.Routes{
		Plants:    handler.NewPlantsHandler(plantService, log),
		Reminders: handler.NewRemindersHandler(plantService, log),
		Catalog:   handler.NewCatalogHandler(catalogService, log),
		Devices:   handler.NewDevicesHandler(deviceRepo, log),
	}
	mux := routes.Mux()

	tokens := auth.NewTokenManager(testJWTSecret, "nurture-test")
	rateLimiter := ratelimit.NewLimiter(1000, time.Minute)
	auditLogger := audit.NewLogger(log)

	root := middleware.JWTMiddleware(tokens, log)(
		middleware.RateLimitMiddleware(rateLimiter, log)(
			middleware.AuditMiddleware(auditLogger)(
				middleware.ValidateJSONContentType(log)(mux),
			),
		),
	)

	server := httptest.NewServer(root)

	return &TestServerHelper{
		Server:      server,
		Perenual:    perenualUpstream,
		PlantNet:    plantnetUpstream,
		Logger:      log,
		tokens:      tokens,
		rateLimiter: rateLimiter,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
	h.Perenual.Close()
	h.PlantNet.Close()
	h.rateLimiter.Stop()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// TokenFor mints a token the test server accepts for the given user.
func (h *TestServerHelper) TokenFor(t *testing.T, userID string) string {
	token, err := h.tokens.GenerateToken(userID, userID+"@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}

// newPerenualUpstream serves canned Perenual wire-format responses.
func newPerenualUpstream() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/species-list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":7,"common_name":"Monstera","scientific_name":["Monstera deliciosa"]}]}`))
	})
	mux.HandleFunc("/species/details/7", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7,"common_name":"Monstera","scientific_name":["Monstera deliciosa"],"watering":"Average","watering_general_benchmark":{"value":"5-7","unit":"days"}}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

// newPlantNetUpstream serves canned identification and species-search
// results.
func newPlantNetUpstream() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/identify/all", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"score":0.91,"species":{"scientificNameWithoutAuthor":"Monstera deliciosa","commonNames":["Swiss cheese plant"],"family":{"scientificName":"Araceae"}}}]}`))
	})
	mux.HandleFunc("/v2/species", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("prefix") == "" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"id":"2868241","scientificNameWithoutAuthor":"Monstera deliciosa","scientificNameAuthorship":"Liebm.","commonNames":["Swiss cheese plant"],"gbifId":"2868241","powoId":"urn:lsid:ipni.org:names:87484-1","iucnCategory":null}]`))
	})
	return httptest.NewServer(mux)
}

// stubPlantRepo is the in-memory PlantRepository behind the test server.
type stubPlantRepo struct {
	mu     sync.Mutex
	plants map[string]*domain.Plant
	nextID int
}

func newStubPlantRepo() *stubPlantRepo {
	return &stubPlantRepo{plants: map[string]*domain.Plant{}}
}

func (s *stubPlantRepo) FindByOwner(_ context.Context, owner string) ([]domain.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Plant{}
	for _, p := range s.plants {
		if p.Owner == owner {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPlantRepo) FindOne(_ context.Context, id, owner string) (*domain.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[id]
	if !ok || p.Owner != owner {
		return nil, domain.NewNotFoundError("plant")
	}
	cp := *p
	cp.Reminders = append([]domain.Reminder{}, p.Reminders...)
	return &cp, nil
}

func (s *stubPlantRepo) Insert(_ context.Context, plant *domain.Plant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if plant.ID == "" {
		s.nextID++
		plant.ID = fmt.Sprintf("p-%d", s.nextID)
	}
	cp := *plant
	s.plants[plant.ID] = &cp
	return nil
}

func (s *stubPlantRepo) UpdatePartial(_ context.Context, id, owner string, mut domain.PlantMutation) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[id]
	if !ok || p.Owner != owner {
		return 0, 0, nil
	}
	var modified int64
	if mut.SetName != nil {
		p.Name = *mut.SetName
	}
	removeSet := map[string]bool{}
	for _, rid := range mut.RemoveReminderIDs {
		removeSet[rid] = true
	}
	if len(removeSet) > 0 {
		keep := p.Reminders[:0:0]
		for _, rem := range p.Reminders {
			if removeSet[rem.ID] {
				modified++
				continue
			}
			keep = append(keep, rem)
		}
		p.Reminders = keep
	}
	for _, rem := range mut.AddReminders {
		p.Reminders = append(p.Reminders, rem)
		modified++
	}
	for _, rem := range mut.UpdateReminders {
		for i := range p.Reminders {
			if p.Reminders[i].ID == rem.ID {
				p.Reminders[i] = rem
				modified++
			}
		}
	}
	return 1, modified, nil
}

func (s *stubPlantRepo) Delete(_ context.Context, id, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[id]
	if !ok || p.Owner != owner {
		return 0, nil
	}
	delete(s.plants, id)
	return 1, nil
}

func (s *stubPlantRepo) FindDue(_ context.Context, _ time.Time) ([]domain.DueReminder, error) {
	return nil, nil
}

type stubDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]domain.Device
}

func newStubDeviceRepo() *stubDeviceRepo {
	return &stubDeviceRepo{devices: map[string]domain.Device{}}
}

func (s *stubDeviceRepo) Register(_ context.Context, d *domain.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.CreatedAt = time.Now()
	s.devices[d.Token] = *d
	return nil
}

func (s *stubDeviceRepo) ListByOwner(_ context.Context, owner string) ([]domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Device{}
	for _, d := range s.devices {
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *stubDeviceRepo) Remove(_ context.Context, owner, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[token]
	if !ok || d.Owner != owner {
		return 0, nil
	}
	delete(s.devices, token)
	return 1, nil
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType helper function
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	if ct := resp.Header.Get("Content-Type"); ct != expected {
		t.Errorf("Expected Content-Type %s, got %s", expected, ct)
	}
}
