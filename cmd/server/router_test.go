package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/api"
	apiMiddleware "github.com/phrazzld/brainace/internal/api/middleware"
	"github.com/phrazzld/brainace/internal/config"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/mocks"
	"github.com/phrazzld/brainace/internal/platform/logger"
	"github.com/phrazzld/brainace/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "debug"},
		Database: config.DatabaseConfig{URL: "postgres://localhost/brainace", MaxOpenConns: 4},
		Scheduler: config.SchedulerConfig{
			RequestRetention: 0.9,
			MaximumInterval:  36500,
			EnableShortTerm:  true,
		},
		Review: config.ReviewConfig{
			DefaultFilter:      "today",
			MaxSessions:        10,
			SessionIdleTimeout: time.Minute,
		},
	}
}

func newTestApp(t *testing.T) (*application, *logger.TestLogBuffer) {
	t.Helper()
	logs, log := logger.NewTestLogger(t)

	g := mocks.NewGarden()
	app, err := wireApplication(testConfig(), log, service.GardenStores{
		Collections: g.Collections(),
		Sections:    g.Sections(),
		SubSections: g.SubSections(),
		Items:       g.Items(),
	}, domain.ClockFunc(func() time.Time { return testNow }))
	require.NoError(t, err)
	return app, logs
}

func send(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	app, _ := newTestApp(t)
	rr := send(t, app.setupRouter(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(apiMiddleware.TraceHeader))
}

func TestRouter_ReviewEndToEnd(t *testing.T) {
	app, logs := newTestApp(t)
	router := app.setupRouter()
	owner := uuid.New()
	base := "/api/owners/" + owner.String()

	rr := send(t, router, http.MethodPost, "/api/collections", api.CreateCollectionRequest{OwnerID: owner, Name: "Default"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = send(t, router, http.MethodPost, base+"/sections", api.NameRequest{Name: "Spanish"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var section domain.Section
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &section))

	rr = send(t, router, http.MethodPost, base+"/sections/"+section.ID.String()+"/subsections", api.NameRequest{Name: "Verbs"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var sub domain.SubSection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sub))

	rr = send(t, router, http.MethodPost, base+"/subsections/"+sub.ID.String()+"/items", api.ItemRequest{Front: "hablar", Back: "to speak"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var item domain.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))

	rr = send(t, router, http.MethodPost, base+"/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var sess api.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sess))
	require.Equal(t, 1, sess.Total)

	path := "/api/sessions/" + sess.SessionID.String() + "/transitions"
	rr = send(t, router, http.MethodPost, path, api.TransitionRequest{Type: "reveal"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = send(t, router, http.MethodPost, path, api.TransitionRequest{Type: "rate", Rating: domain.RatingGood})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sess))
	assert.True(t, sess.Completed)

	rr = send(t, router, http.MethodGet, base+"/collection", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var tree api.CollectionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tree))
	stored := tree.Sections[0].SubSections[0].Items[0]
	assert.Equal(t, item.ID, stored.ID)
	assert.Equal(t, int64(2), stored.Version)
	assert.NotEqual(t, domain.StateNew, stored.Card.State)
	assert.True(t, stored.Card.Due.After(testNow))
	require.NotNil(t, stored.Card.LastReview)
	assert.True(t, stored.Card.LastReview.Equal(testNow))

	var completed int
	for _, e := range logs.FindEntries(t, "review session event") {
		if e["event_type"] == "session.completed" {
			completed++
			assert.Equal(t, sess.SessionID.String(), e["session_id"])
		}
	}
	assert.Equal(t, 1, completed, "session events reach the log handler")
}

func TestSweepSessions_StopsWithContext(t *testing.T) {
	app, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.sweepSessions(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
