package timetable

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/cache"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/logger"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/scraper"
)

// CatalogSource downloads the catalog markup and semester date ranges.
type CatalogSource interface {
	FetchCatalog(ctx context.Context, semesterID int) (string, error)
	FetchSemesterMetadata(ctx context.Context, semesterID int) (scraper.SemesterMetadata, error)
}

// CatalogParser turns catalog markup into raw records. Implementations must
// return empty lists rather than fail on malformed markup.
type CatalogParser interface {
	ParseSemesters(markup string) []scraper.RawSemester
	ParsePrograms(markup string) []scraper.RawFaculty
}

// Discovery lists the periods and programs of the catalog, caching both.
type Discovery struct {
	source   CatalogSource
	parser   CatalogParser
	periods  *cache.Cache[[]Period]
	programs *cache.Cache[[]Program]
	loc      *time.Location
	now      func() time.Time
	log      logger.Logger
}

// NewDiscovery creates a Discovery whose caches live for opts.DiscoveryTTL.
func NewDiscovery(source CatalogSource, parser CatalogParser, opts Options) *Discovery {
	opts = opts.withDefaults()
	cacheOpts := []cache.Option{cache.WithClock(opts.Now), cache.WithLogger(opts.Logger), cache.WithMetrics(opts.Metrics)}
	return &Discovery{
		source:   source,
		parser:   parser,
		periods:  cache.New[[]Period]("periods", opts.DiscoveryTTL, cacheOpts...),
		programs: cache.New[[]Program]("programs", opts.DiscoveryTTL, cacheOpts...),
		loc:      opts.Location,
		now:      opts.Now,
		log:      opts.Logger,
	}
}

// DiscoverPeriods returns every period of the catalog in site order.
func (d *Discovery) DiscoverPeriods(ctx context.Context) ([]Period, error) {
	periods, err := d.periods.Get(ctx, "periods", d.fetchPeriods)
	if err != nil {
		return nil, err
	}
	return slices.Clone(periods), nil
}

func (d *Discovery) fetchPeriods(ctx context.Context) ([]Period, error) {
	markup, err := d.source.FetchCatalog(ctx, 0)
	if err != nil {
		return nil, discoveryError("fetch periods", err)
	}

	raw := d.parser.ParseSemesters(markup)
	periods := make([]Period, 0, len(raw))
	for _, s := range raw {
		meta, err := d.source.FetchSemesterMetadata(ctx, s.ID)
		if err != nil {
			d.log.Warnf("period %d: no start/end dates, using today: %v", s.ID, err)
			meta = scraper.SemesterMetadata{}
		}
		periods = append(periods, d.toPeriod(s, meta))
	}
	d.log.Debugf("discovered %d periods", len(periods))
	return periods, nil
}

func (d *Discovery) toPeriod(s scraper.RawSemester, meta scraper.SemesterMetadata) Period {
	_, code := splitTrailingCode(s.Name)
	now := d.now().In(d.loc)
	start, end := now, now
	if !meta.IsEmpty() {
		if t := meta.Start(); !t.IsZero() {
			start = t.In(d.loc)
		}
		if t := meta.End(); !t.IsZero() {
			end = t.In(d.loc)
		}
	}
	if end.Before(start) {
		start, end = end, start
	}
	return Period{
		ID:           s.ID,
		Name:         s.Name,
		Code:         code,
		AcademicYear: academicYear(s.Name),
		Season:       periodSeason(s.Name, code),
		StartDate:    start,
		EndDate:      end,
		IsSelected:   s.Selected,
	}
}

// DiscoverPrograms returns the programs offered in a period, flattened out of
// their faculties.
func (d *Discovery) DiscoverPrograms(ctx context.Context, periodID int) ([]Program, error) {
	if periodID <= 0 {
		return nil, invalidOptions("period id must be positive, got %d", periodID)
	}
	programs, err := d.programs.Get(ctx, "programs:"+strconv.Itoa(periodID), func(ctx context.Context) ([]Program, error) {
		markup, err := d.source.FetchCatalog(ctx, periodID)
		if err != nil {
			return nil, discoveryError("fetch programs", err)
		}
		var programs []Program
		for _, f := range d.parser.ParsePrograms(markup) {
			facultyName, facultyCode := splitTrailingCode(f.Name)
			faculty := Faculty{Name: facultyName, Code: facultyCode}
			for _, p := range f.Programs {
				name, code := splitTrailingCode(p.Name)
				programs = append(programs, Program{
					ID:       p.ID,
					Code:     code,
					Name:     name,
					FullName: p.Name,
					Faculty:  faculty,
					Tokens:   p.Tokens,
				})
			}
		}
		d.log.Debugf("discovered %d programs for period %d", len(programs), periodID)
		return programs, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(programs), nil
}

// DiscoverCurrentPeriod returns the period the site preselects, else the
// first one, else nil.
func (d *Discovery) DiscoverCurrentPeriod(ctx context.Context) (*Period, error) {
	periods, err := d.DiscoverPeriods(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := find(periods, func(p Period) bool { return p.IsSelected }); ok {
		return &p, nil
	}
	if len(periods) > 0 {
		return &periods[0], nil
	}
	return nil, nil
}

// ClearCache drops the cached periods and programs.
func (d *Discovery) ClearCache() {
	d.periods.Clear()
	d.programs.Clear()
}
