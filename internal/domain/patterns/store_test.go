package patterns

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamp/internal/domain/models"
	"scamp/pkg/logger"
)

type fakeRepo struct {
	seeded   []*models.Pattern
	saved    []*models.Pattern
	saveErr  error
	loadPats []*models.Pattern
	loadVer  int64
}

func (f *fakeRepo) LoadAll(context.Context) ([]*models.Pattern, int64, error) {
	return f.loadPats, f.loadVer, nil
}

func (f *fakeRepo) Seed(_ context.Context, pats []*models.Pattern, _ int64) error {
	f.seeded = pats
	return nil
}

func (f *fakeRepo) Save(_ context.Context, p *models.Pattern, _ int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, p)
	return nil
}

func newTestStore(t *testing.T, repo Repository) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), repo, Bounds{Min: 0.05, Max: 0.95}, logger.NewDefault())
	require.NoError(t, err)
	return s
}

func TestNewStoreSeedsDefaults(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestStore(t, repo)

	snap := s.Snapshot()
	assert.Equal(t, int64(1), snap.Version)
	assert.NotEmpty(t, snap.Patterns)
	assert.NotEmpty(t, repo.seeded)

	// Regexes carried by the taxonomy compile at snapshot build time.
	assert.NotNil(t, snap.Regex(`within\s+\d+\s+(minutes|hours)`))
}

func TestNewStoreLoadsExisting(t *testing.T) {
	repo := &fakeRepo{
		loadPats: []*models.Pattern{{ID: "p1", Type: models.SignalUrgency, Kind: models.MatcherKeyword, BaseWeight: 0.3}},
		loadVer:  7,
	}
	s := newTestStore(t, repo)

	assert.Equal(t, int64(7), s.Version())
	assert.Nil(t, repo.seeded)
	require.NotNil(t, s.Snapshot().Pattern("p1"))
}

func TestApplyDeltaPublishesNewSnapshot(t *testing.T) {
	s := newTestStore(t, nil)
	before := s.Snapshot()
	baseline := before.Pattern("urg-001").Weight(models.Locale{})

	got, err := s.ApplyDelta(context.Background(), "urg-001", "", "", 0.1)
	require.NoError(t, err)
	assert.InDelta(t, baseline+0.1, got, 1e-9)

	// The snapshot taken before the delta never changes.
	assert.InDelta(t, baseline, before.Pattern("urg-001").Weight(models.Locale{}), 1e-9)

	after := s.Snapshot()
	assert.Equal(t, before.Version+1, after.Version)
	assert.InDelta(t, baseline+0.1, after.Pattern("urg-001").Weight(models.Locale{}), 1e-9)
}

func TestApplyDeltaScopesOverrides(t *testing.T) {
	s := newTestStore(t, nil)
	baseBefore := s.Snapshot().Pattern("urg-001").BaseWeight

	_, err := s.ApplyDelta(context.Background(), "urg-001", "IN", "hi", 0.05)
	require.NoError(t, err)

	// Only the most specific scope moves.
	p := s.Snapshot().Pattern("urg-001")
	assert.InDelta(t, baseBefore, p.BaseWeight, 1e-9)
	assert.Contains(t, p.LanguageOverrides, "hi")
	assert.Empty(t, p.RegionOverrides)

	// A region-only delta moves the region override, not the base weight.
	_, err = s.ApplyDelta(context.Background(), "thr-001", "IN", "", 0.05)
	require.NoError(t, err)
	p = s.Snapshot().Pattern("thr-001")
	assert.Contains(t, p.RegionOverrides, "IN")
	assert.Empty(t, p.LanguageOverrides)
}

func TestApplyDeltaLeavesSiblingOverridesAlone(t *testing.T) {
	s := newTestStore(t, nil)

	// thr-002 ships with a regional override. A language-scoped nudge starts
	// from the locale's effective weight but must not rewrite the regional
	// override along the way.
	regionBefore := s.Snapshot().Pattern("thr-002").RegionOverrides["IN"]

	got, err := s.ApplyDelta(context.Background(), "thr-002", "IN", "hi", 0.05)
	require.NoError(t, err)
	assert.InDelta(t, regionBefore+0.05, got, 1e-9)

	p := s.Snapshot().Pattern("thr-002")
	assert.InDelta(t, regionBefore, p.RegionOverrides["IN"], 1e-9)
	assert.InDelta(t, regionBefore+0.05, p.LanguageOverrides["hi"], 1e-9)
}

func TestApplyDeltaClampsToBounds(t *testing.T) {
	s := newTestStore(t, nil)

	got, err := s.ApplyDelta(context.Background(), "urg-001", "", "", 10)
	require.NoError(t, err)
	assert.Equal(t, 0.95, got)

	got, err = s.ApplyDelta(context.Background(), "urg-001", "", "", -10)
	require.NoError(t, err)
	assert.Equal(t, 0.05, got)
}

func TestApplyDeltaUnknownPattern(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.ApplyDelta(context.Background(), "nope", "", "", 0.1)
	assert.Error(t, err)
}

func TestApplyDeltaPersistFailureLeavesStoreUntouched(t *testing.T) {
	repo := &fakeRepo{saveErr: errors.New("db down")}
	s := newTestStore(t, repo)
	before := s.Version()
	weight := s.Snapshot().Pattern("urg-001").Weight(models.Locale{})

	_, err := s.ApplyDelta(context.Background(), "urg-001", "", "", 0.1)
	require.Error(t, err)

	assert.Equal(t, before, s.Version())
	assert.InDelta(t, weight, s.Snapshot().Pattern("urg-001").Weight(models.Locale{}), 1e-9)
}
