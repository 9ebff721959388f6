package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/hierarchy"
	"github.com/phrazzld/brainace/internal/mocks"
	"github.com/phrazzld/brainace/internal/service"
	"github.com/phrazzld/brainace/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow       = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	testClock     = domain.ClockFunc(func() time.Time { return testNow })
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func gardenStores(g *mocks.Garden) service.GardenStores {
	return service.GardenStores{
		Collections: g.Collections(),
		Sections:    g.Sections(),
		SubSections: g.SubSections(),
		Items:       g.Items(),
	}
}

func newGardenService(t *testing.T, g *mocks.Garden) service.GardenService {
	t.Helper()
	svc, err := service.NewGardenService(gardenStores(g), testClock, discardLogger)
	require.NoError(t, err)
	return svc
}

// buildGarden stores maths/constants{pi, e} and maths/trig{sin} for owner.
func buildGarden(t *testing.T, svc service.GardenService, owner uuid.UUID) *hierarchy.Tree {
	t.Helper()
	ctx := context.Background()

	tree, err := svc.CreateCollection(ctx, &owner, "Default")
	require.NoError(t, err)
	maths, err := svc.AddSection(ctx, tree, "Maths")
	require.NoError(t, err)
	constants, err := svc.AddSubSection(ctx, tree, maths.ID, "Constants")
	require.NoError(t, err)
	trig, err := svc.AddSubSection(ctx, tree, maths.ID, "Trig")
	require.NoError(t, err)
	for _, front := range []string{"pi", "e"} {
		_, err := svc.AddItem(ctx, tree, constants.ID, front, "")
		require.NoError(t, err)
	}
	_, err = svc.AddItem(ctx, tree, trig.ID, "sin", "opposite / hypotenuse")
	require.NoError(t, err)
	return tree
}

func TestNewGardenService_RequiresStores(t *testing.T) {
	g := mocks.NewGarden()
	stores := gardenStores(g)
	stores.Items = nil

	_, err := service.NewGardenService(stores, nil, nil)
	var serr *service.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "create_service", serr.Operation)
}

func TestGardenService_LoadMatchesInMemoryTree(t *testing.T) {
	g := mocks.NewGarden()
	svc := newGardenService(t, g)
	owner := uuid.New()
	tree := buildGarden(t, svc, owner)

	loaded, err := svc.Load(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, tree.Collection(), loaded.Collection())
	assert.Equal(t, tree.Sections(), loaded.Sections())
	assert.Equal(t, tree.AllSubSections(), loaded.AllSubSections())
	assert.Equal(t, tree.AllItems(), loaded.AllItems())

	fronts := []string{}
	for _, it := range loaded.AllItems() {
		fronts = append(fronts, it.Front)
	}
	assert.Equal(t, []string{"pi", "e", "sin"}, fronts)
}

func TestGardenService_LoadUnknownOwner(t *testing.T) {
	svc := newGardenService(t, mocks.NewGarden())

	_, err := svc.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)
}

func TestGardenService_LoadCorruptCard(t *testing.T) {
	g := mocks.NewGarden()
	svc := newGardenService(t, g)
	owner := uuid.New()
	tree := buildGarden(t, svc, owner)
	g.CorruptItem(tree.AllItems()[0].ID)

	_, err := svc.Load(context.Background(), owner)
	assert.ErrorIs(t, err, store.ErrCorruptData)

	// The garden is still usable.
	_, err = svc.AddSection(context.Background(), tree, "History")
	assert.NoError(t, err)
}

func TestGardenService_AddValidation(t *testing.T) {
	g := mocks.NewGarden()
	svc := newGardenService(t, g)
	ctx := context.Background()
	tree := buildGarden(t, svc, uuid.New())

	_, err := svc.AddSection(ctx, tree, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AddSubSection(ctx, tree, uuid.New(), "Nowhere")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.AddItem(ctx, tree, uuid.New(), "q", "a")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.AddSection(ctx, nil, "Maths")
	assert.ErrorIs(t, err, service.ErrNilTree)

	_, _, _, items := g.Counts()
	assert.Equal(t, 3, items)
}

func TestGardenService_NewItemIsDueAndNew(t *testing.T) {
	svc := newGardenService(t, mocks.NewGarden())
	tree := buildGarden(t, svc, uuid.New())

	stats := svc.Stats(tree)
	assert.Equal(t, 1, stats.Sections)
	assert.Equal(t, 2, stats.SubSections)
	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, 3, stats.DueToday)
	assert.Equal(t, 3, stats.DueNow)
	assert.Equal(t, 3, stats.States.New)
	assert.Equal(t, 3, stats.States.Total())

	assert.Equal(t, service.Stats{}, svc.Stats(nil))
}

func TestGardenService_Renames(t *testing.T) {
	g := mocks.NewGarden()
	svc := newGardenService(t, g)
	ctx := context.Background()
	owner := uuid.New()
	tree := buildGarden(t, svc, owner)
	maths := tree.Sections()[0]
	trig := tree.SubSections(maths.ID)[1]

	require.NoError(t, svc.RenameCollection(ctx, tree, "  Study  "))
	require.NoError(t, svc.RenameSection(ctx, tree, maths.ID, "Mathematics"))
	require.NoError(t, svc.RenameSubSection(ctx, tree, trig.ID, "Trigonometry"))

	assert.ErrorIs(t, svc.RenameSection(ctx, tree, maths.ID, ""), domain.ErrValidation)
	assert.ErrorIs(t, svc.RenameSubSection(ctx, tree, uuid.New(), "x"), service.ErrNotFound)

	loaded, err := svc.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Study", loaded.Collection().Name)
	assert.Equal(t, "Mathematics", loaded.Sections()[0].Name)
	assert.Equal(t, "Trigonometry", loaded.SubSections(maths.ID)[1].Name)
	assert.Equal(t, tree.Collection(), loaded.Collection())
}

func TestGardenService_EditItemKeepsCard(t *testing.T) {
	svc := newGardenService(t, mocks.NewGarden())
	ctx := context.Background()
	tree := buildGarden(t, svc, uuid.New())
	before := tree.AllItems()[0]

	edited, err := svc.EditItem(ctx, tree, before.ID, "pi", "3.14159")
	require.NoError(t, err)
	assert.Equal(t, before.ID, edited.ID)
	assert.Equal(t, "3.14159", edited.Back)
	assert.Equal(t, before.Card, edited.Card)
	assert.Equal(t, before.Version, edited.Version)

	_, err = svc.EditItem(ctx, tree, uuid.New(), "", "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGardenService_DeleteSectionCascades(t *testing.T) {
	g := mocks.NewGarden()
	svc := newGardenService(t, g)
	ctx := context.Background()
	owner := uuid.New()
	tree := buildGarden(t, svc, owner)
	maths := tree.Sections()[0]

	removed, err := svc.DeleteSection(ctx, tree, maths.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, removed, "one section, two sub-sections and three items")
	assert.Empty(t, tree.AllItems())

	_, sections, subSections, items := g.Counts()
	assert.Zero(t, sections+subSections+items)

	_, err = svc.DeleteSection(ctx, tree, maths.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	loaded, err := svc.Load(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, loaded.Sections())
}

func TestGardenService_DeleteSubSectionAndItem(t *testing.T) {
	g := mocks.NewGarden()
	svc := newGardenService(t, g)
	ctx := context.Background()
	tree := buildGarden(t, svc, uuid.New())
	maths := tree.Sections()[0]
	constants := tree.SubSections(maths.ID)[0]
	sin := tree.AllItems()[2]

	removed, err := svc.DeleteSubSection(ctx, tree, constants.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	removed, err = svc.DeleteItem(ctx, tree, sin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = svc.DeleteItem(ctx, tree, sin.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, _, subSections, items := g.Counts()
	assert.Equal(t, 1, subSections)
	assert.Zero(t, items)
}

func TestGardenService_StorageFailureLeavesTreeUnchanged(t *testing.T) {
	g := mocks.NewGarden()
	svc := newGardenService(t, g)
	ctx := context.Background()
	tree := buildGarden(t, svc, uuid.New())
	maths := tree.Sections()[0]

	boom := errors.New("connection reset")
	g.Sections().DeleteFn = func(context.Context, uuid.UUID) error { return boom }
	g.Items().CreateFn = func(context.Context, *domain.Item) error { return boom }

	_, err := svc.DeleteSection(ctx, tree, maths.ID)
	assert.ErrorIs(t, err, boom)
	_, found := tree.FindSection(maths.ID)
	assert.True(t, found)

	_, err = svc.AddItem(ctx, tree, tree.SubSections(maths.ID)[0].ID, "tau", "")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, tree.AllItems(), 3)
}

func TestGardenService_OneCollectionPerOwner(t *testing.T) {
	svc := newGardenService(t, mocks.NewGarden())
	owner := uuid.New()
	_ = buildGarden(t, svc, owner)

	_, err := svc.CreateCollection(context.Background(), &owner, "Again")
	assert.ErrorIs(t, err, store.ErrCollectionExists)
}
