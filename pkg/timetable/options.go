package timetable

import (
	"time"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/logger"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/metrics"
)

// DefaultDiscoveryTTL is how long catalog data is reused.
const DefaultDiscoveryTTL = time.Hour

// Options configures Discovery and Service. Zero fields take defaults.
type Options struct {
	// Location is the time zone event dates and windows are computed in.
	Location     *time.Location
	DiscoveryTTL time.Duration
	Logger       logger.Logger
	Metrics      metrics.Recorder
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.DiscoveryTTL == 0 {
		o.DiscoveryTTL = DefaultDiscoveryTTL
	}
	if o.Logger == nil {
		o.Logger = logger.NopLogger{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NopRecorder{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
