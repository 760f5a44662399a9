package timetable

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverPeriods(t *testing.T) {
	f := newFixture()
	periods, err := f.discovery().DiscoverPeriods(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 2)

	autumn := periods[0]
	assert.Equal(t, 1, autumn.ID)
	assert.Equal(t, "25/26-R", autumn.Code)
	assert.Equal(t, "2025/2026", autumn.AcademicYear)
	assert.Equal(t, SeasonAutumn, autumn.Season)
	assert.True(t, autumn.IsSelected)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, testLoc), autumn.StartDate)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, testLoc), autumn.EndDate)

	assert.Equal(t, SeasonSpring, periods[1].Season)
	assert.False(t, periods[1].IsSelected)
}

func TestDiscoverPeriodsMetadataFailureUsesNow(t *testing.T) {
	f := newFixture()
	f.catalog.metaErr = map[int]error{2: errors.New("boom")}

	periods, err := f.discovery().DiscoverPeriods(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.True(t, periods[1].StartDate.Equal(fixedNow))
	assert.True(t, periods[1].EndDate.Equal(fixedNow))
}

func TestDiscoverPeriodsCatalogFailure(t *testing.T) {
	f := newFixture()
	f.catalog.err = errors.New("connection refused")

	_, err := f.discovery().DiscoverPeriods(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDiscovery)
	assert.ErrorContains(t, err, "connection refused")
}

func TestDiscoverPeriodsConcurrentColdCallsShareOneFetch(t *testing.T) {
	f := newFixture()
	f.catalog.started = make(chan struct{})
	f.catalog.gate = make(chan struct{})
	d := f.discovery()

	var wg sync.WaitGroup
	results := make([][]Period, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = d.DiscoverPeriods(context.Background())
		}()
	}

	<-f.catalog.started
	time.Sleep(20 * time.Millisecond)
	close(f.catalog.gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, 1, f.catalog.Calls())
}

func TestDiscoverPeriodsCancelledCallerDoesNotFailOthers(t *testing.T) {
	f := newFixture()
	f.catalog.started = make(chan struct{})
	f.catalog.gate = make(chan struct{})
	d := f.discovery()

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := d.DiscoverPeriods(ctx)
		first <- err
	}()
	<-f.catalog.started

	var periods []Period
	second := make(chan error, 1)
	go func() {
		var err error
		periods, err = d.DiscoverPeriods(context.Background())
		second <- err
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(f.catalog.gate)

	require.NoError(t, <-second)
	assert.Len(t, periods, 2)
	assert.Equal(t, 1, f.catalog.Calls())
}

func TestDiscoverPeriodsIsCached(t *testing.T) {
	f := newFixture()
	d := f.discovery()

	_, err := d.DiscoverPeriods(context.Background())
	require.NoError(t, err)
	_, err = d.DiscoverPeriods(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.catalog.Calls())

	d.ClearCache()
	_, err = d.DiscoverPeriods(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.catalog.Calls())
}

func TestDiscoverPeriodsReturnsCopies(t *testing.T) {
	d := newFixture().discovery()
	first, err := d.DiscoverPeriods(context.Background())
	require.NoError(t, err)
	first[0].Name = "changed"

	second, err := d.DiscoverPeriods(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "changed", second[0].Name)
}

func TestDiscoverPrograms(t *testing.T) {
	d := newFixture().discovery()
	programs, err := d.DiscoverPrograms(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, programs, 2)

	p := programs[0]
	assert.Equal(t, 100, p.ID)
	assert.Equal(t, "RDBD0", p.Code)
	assert.Equal(t, "Datorsistēmas", p.Name)
	assert.Equal(t, "Datorsistēmas (RDBD0)", p.FullName)
	assert.Equal(t, "DITEF", p.Faculty.Code)
	assert.Equal(t, "Datorzinātnes, informācijas tehnoloģijas un enerģētikas fakultāte", p.Faculty.Name)
}

func TestDiscoverProgramsRejectsBadPeriod(t *testing.T) {
	f := newFixture()
	_, err := f.discovery().DiscoverPrograms(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Zero(t, f.catalog.Calls())
}

func TestDiscoverCurrentPeriod(t *testing.T) {
	f := newFixture()
	current, err := f.discovery().DiscoverCurrentPeriod(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, 1, current.ID)

	f = newFixture()
	f.parser.semesters[0].Selected = false
	current, err = f.discovery().DiscoverCurrentPeriod(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, 1, current.ID, "falls back to the first period")

	f = newFixture()
	f.parser.semesters = nil
	current, err = f.discovery().DiscoverCurrentPeriod(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}
