package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/domain/srs"
	"github.com/phrazzld/brainace/internal/due"
	"github.com/phrazzld/brainace/internal/mocks"
	"github.com/phrazzld/brainace/internal/service"
	"github.com/stretchr/testify/require"
)

var (
	testNow       = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	testClock     = domain.ClockFunc(func() time.Time { return testNow })
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// testServer wires the handlers to an in-memory garden.
type testServer struct {
	router    http.Handler
	garden    *mocks.Garden
	scheduler *mocks.MockScheduler
	registry  *SessionRegistry
}

func newTestServer(t *testing.T, maxSessions int) *testServer {
	t.Helper()

	g := mocks.NewGarden()
	scheduler := &mocks.MockScheduler{}
	gardenSvc, err := service.NewGardenService(service.GardenStores{
		Collections: g.Collections(),
		Sections:    g.Sections(),
		SubSections: g.SubSections(),
		Items:       g.Items(),
	}, testClock, discardLogger)
	require.NoError(t, err)
	reviewSvc, err := service.NewReviewService(g.Collections(), g.Items(), srs.NewService(scheduler), testClock, nil, discardLogger)
	require.NoError(t, err)

	registry := NewSessionRegistry(maxSessions, testClock)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewGardenHandler(gardenSvc, discardLogger).RegisterRoutes(r)
		NewSessionHandler(gardenSvc, reviewSvc, registry, due.FilterToday, discardLogger).RegisterRoutes(r)
	})

	return &testServer{router: r, garden: g, scheduler: scheduler, registry: registry}
}

// do sends a request with body encoded as JSON. A string body is sent verbatim.
func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

// seededOwner is the fixture built by seed: one section "Maths" with the
// sub-sections "Constants" {pi, e} and "Trig" {sin}.
type seededOwner struct {
	ownerID     uuid.UUID
	sectionID   uuid.UUID
	constantsID uuid.UUID
	trigID      uuid.UUID
	itemIDs     []uuid.UUID
}

func (s *testServer) seed(t *testing.T) seededOwner {
	t.Helper()
	o := seededOwner{ownerID: uuid.New()}
	base := "/api/owners/" + o.ownerID.String()

	rr := s.do(t, http.MethodPost, "/api/collections", CreateCollectionRequest{OwnerID: o.ownerID, Name: "Default"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPost, base+"/sections", NameRequest{Name: "Maths"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	o.sectionID = decodeBody[domain.Section](t, rr).ID

	for _, name := range []string{"Constants", "Trig"} {
		rr = s.do(t, http.MethodPost, base+"/sections/"+o.sectionID.String()+"/subsections", NameRequest{Name: name})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		id := decodeBody[domain.SubSection](t, rr).ID
		if name == "Constants" {
			o.constantsID = id
		} else {
			o.trigID = id
		}
	}

	for _, it := range []struct {
		sub         uuid.UUID
		front, back string
	}{
		{o.constantsID, "pi", "3.14159"},
		{o.constantsID, "e", "2.71828"},
		{o.trigID, "sin", "opposite / hypotenuse"},
	} {
		rr = s.do(t, http.MethodPost, base+"/subsections/"+it.sub.String()+"/items", ItemRequest{Front: it.front, Back: it.back})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		o.itemIDs = append(o.itemIDs, decodeBody[domain.Item](t, rr).ID)
	}
	return o
}
