package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/domain/srs"
	"github.com/phrazzld/brainace/internal/due"
	"github.com/phrazzld/brainace/internal/events"
	"github.com/phrazzld/brainace/internal/mocks"
	"github.com/phrazzld/brainace/internal/service"
	"github.com/phrazzld/brainace/internal/session"
	"github.com/phrazzld/brainace/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReviewService(t *testing.T, g *mocks.Garden, emitter events.EventEmitter) (service.ReviewService, *mocks.MockScheduler) {
	t.Helper()
	scheduler := &mocks.MockScheduler{}
	svc, err := service.NewReviewService(g.Collections(), g.Items(), srs.NewService(scheduler), testClock, emitter, discardLogger)
	require.NoError(t, err)
	return svc, scheduler
}

func rate(t *testing.T, ctx context.Context, e *session.Engine, r domain.Rating) (session.View, error) {
	t.Helper()
	_, err := e.Apply(ctx, session.Reveal{})
	require.NoError(t, err)
	return e.Apply(ctx, session.Rate{Rating: r})
}

func TestNewReviewService_RequiresDependencies(t *testing.T) {
	_, err := service.NewReviewService(nil, mocks.NewGarden().Items(), srs.NewService(&mocks.MockScheduler{}), nil, nil, nil)
	require.Error(t, err)

	_, err = service.NewReviewService(mocks.NewGarden().Collections(), nil, srs.NewService(&mocks.MockScheduler{}), nil, nil, nil)
	require.Error(t, err)

	_, err = service.NewReviewService(mocks.NewGarden().Collections(), mocks.NewGarden().Items(), nil, nil, nil, nil)
	require.Error(t, err)
}

func TestReviewService_RatingsPersistAndLeaveTheDueSet(t *testing.T) {
	g := mocks.NewGarden()
	owner := uuid.New()
	tree := buildGarden(t, newGardenService(t, g), owner)
	recorder := &events.Recorder{}
	emitter := events.NewInMemoryEventEmitter(discardLogger)
	emitter.RegisterHandler(recorder)
	svc, scheduler := newReviewService(t, g, emitter)
	ctx := context.Background()

	engine, err := svc.StartSession(ctx, tree, due.FilterToday)
	require.NoError(t, err)
	_, total := engine.Progress()
	require.Equal(t, 3, total)

	_, err = rate(t, ctx, engine, domain.RatingGood)
	require.NoError(t, err)
	_, err = engine.Apply(ctx, session.Skip{})
	require.NoError(t, err)
	view, err := rate(t, ctx, engine, domain.RatingEasy)
	require.NoError(t, err)
	assert.True(t, view.Completed)
	assert.Equal(t, 2, scheduler.Calls())
	assert.Equal(t, session.Summary{Reviewed: 2, Skipped: 1, Ratings: session.RatingCounts{Good: 1, Easy: 1}}, engine.Summary())

	// Storage and the session's tree agree on the rated cards.
	first := tree.AllItems()[0]
	stored, err := g.Items().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, stored.Version, first.Version)
	assert.Equal(t, domain.StateReview, stored.Card.State)
	assert.True(t, stored.Card.Due.After(testNow))

	// A restart selects again: only the skipped item is still due.
	view, err = engine.Apply(ctx, session.Restart{})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Total)
	require.NotNil(t, view.Item)
	assert.Equal(t, "e", view.Item.Front)

	assert.Equal(t, events.SessionStarted, recorder.Types()[0])
	assert.Contains(t, recorder.Types(), events.SessionCompleted)
}

func TestReviewService_ConcurrentRatingConflicts(t *testing.T) {
	g := mocks.NewGarden()
	owner := uuid.New()
	gardens := newGardenService(t, g)
	_ = buildGarden(t, gardens, owner)
	svc, _ := newReviewService(t, g, nil)
	ctx := context.Background()

	treeA, err := gardens.Load(ctx, owner)
	require.NoError(t, err)
	treeB, err := gardens.Load(ctx, owner)
	require.NoError(t, err)

	a, err := svc.StartSession(ctx, treeA, due.FilterAll)
	require.NoError(t, err)
	b, err := svc.StartSession(ctx, treeB, due.FilterAll)
	require.NoError(t, err)

	_, err = rate(t, ctx, a, domain.RatingGood)
	require.NoError(t, err)

	view, err := rate(t, ctx, b, domain.RatingAgain)
	assert.ErrorIs(t, err, session.ErrCollaboratorFailed)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 0, view.Index, "the losing session does not advance")
	assert.True(t, view.Revealed)

	stored, err := g.Items().GetByID(ctx, treeA.AllItems()[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	require.Len(t, stored.Card.Log, 0)
	assert.Equal(t, 1, stored.Card.Reps, "only the first rating landed")
}

func TestReviewService_RestartAfterConflictReadsStorage(t *testing.T) {
	g := mocks.NewGarden()
	owner := uuid.New()
	gardens := newGardenService(t, g)
	_ = buildGarden(t, gardens, owner)
	svc, _ := newReviewService(t, g, nil)
	ctx := context.Background()

	treeA, err := gardens.Load(ctx, owner)
	require.NoError(t, err)
	treeB, err := gardens.Load(ctx, owner)
	require.NoError(t, err)
	a, err := svc.StartSession(ctx, treeA, due.FilterAll)
	require.NoError(t, err)
	b, err := svc.StartSession(ctx, treeB, due.FilterAll)
	require.NoError(t, err)

	_, err = rate(t, ctx, a, domain.RatingGood)
	require.NoError(t, err)
	_, err = rate(t, ctx, b, domain.RatingAgain)
	require.ErrorIs(t, err, store.ErrConflict)

	view, err := b.Apply(ctx, session.Restart{})
	require.NoError(t, err)
	require.NotNil(t, view.Item)
	assert.Equal(t, "pi", view.Item.Front)
	assert.Equal(t, int64(2), view.Item.Version, "the restart picks up the winning write")

	_, err = rate(t, ctx, b, domain.RatingAgain)
	require.NoError(t, err)

	stored, err := g.Items().GetByID(ctx, view.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.Version)
	assert.Equal(t, 2, stored.Card.Reps)
}

func TestReviewService_RestartDropsItemsRatedElsewhere(t *testing.T) {
	g := mocks.NewGarden()
	owner := uuid.New()
	gardens := newGardenService(t, g)
	_ = buildGarden(t, gardens, owner)
	svc, _ := newReviewService(t, g, nil)
	ctx := context.Background()

	treeA, err := gardens.Load(ctx, owner)
	require.NoError(t, err)
	treeB, err := gardens.Load(ctx, owner)
	require.NoError(t, err)
	a, err := svc.StartSession(ctx, treeA, due.FilterToday)
	require.NoError(t, err)
	b, err := svc.StartSession(ctx, treeB, due.FilterToday)
	require.NoError(t, err)

	_, err = rate(t, ctx, a, domain.RatingGood)
	require.NoError(t, err)

	view, err := b.Apply(ctx, session.Restart{})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Total)
	require.NotNil(t, view.Item)
	assert.Equal(t, "e", view.Item.Front)
}

func TestReviewService_RestartFailureLeavesSessionUnchanged(t *testing.T) {
	g := mocks.NewGarden()
	owner := uuid.New()
	gardens := newGardenService(t, g)
	tree := buildGarden(t, gardens, owner)
	svc, _ := newReviewService(t, g, nil)
	ctx := context.Background()

	engine, err := svc.StartSession(ctx, tree, due.FilterAll)
	require.NoError(t, err)
	_, err = engine.Apply(ctx, session.Skip{})
	require.NoError(t, err)

	g.CorruptItem(tree.AllItems()[2].ID)
	view, err := engine.Apply(ctx, session.Restart{})
	assert.ErrorIs(t, err, session.ErrCollaboratorFailed)
	assert.ErrorIs(t, err, store.ErrCorruptData)
	assert.Equal(t, 1, view.Index)
	assert.Equal(t, 3, view.Total)
}

func TestReviewService_EmptyDueSetCompletesImmediately(t *testing.T) {
	g := mocks.NewGarden()
	tree, err := newGardenService(t, g).CreateCollection(context.Background(), nil, "Empty")
	require.NoError(t, err)
	svc, _ := newReviewService(t, g, nil)

	engine, err := svc.StartSession(context.Background(), tree, due.FilterNow)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseCompleted, engine.Phase())
	assert.Nil(t, engine.View().Item)
}

func TestReviewService_FilterValidation(t *testing.T) {
	g := mocks.NewGarden()
	tree := buildGarden(t, newGardenService(t, g), uuid.New())
	svc, _ := newReviewService(t, g, nil)

	engine, err := svc.StartSession(context.Background(), tree, due.Filter("NOW"))
	require.NoError(t, err)
	_, total := engine.Progress()
	assert.Equal(t, 3, total)

	_, err = svc.StartSession(context.Background(), tree, due.Filter("tomorrow"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.StartSession(context.Background(), nil, due.FilterAll)
	assert.ErrorIs(t, err, service.ErrNilTree)
}
