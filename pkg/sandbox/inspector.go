package sandbox

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultInspectorSize is the number of reports an Inspector keeps by default
const DefaultInspectorSize = 64

// Inspector caches inspection reports by image digest and contract.
// Concurrent inspections of the same content parse once. Safe for concurrent use.
type Inspector struct {
	cache   *lru.LRU[string, *Report]
	group   singleflight.Group
	metrics *observability.PluginMetrics
	log     *logrus.Logger
	parse   func(*Source, string) (*Report, error)
}

// NewInspector creates an inspector holding up to size reports. A zero ttl
// keeps entries until they are evicted.
func NewInspector(size int, ttl time.Duration, log *logrus.Logger) *Inspector {
	if size < 1 {
		size = DefaultInspectorSize
	}
	if log == nil {
		log = logrus.New()
	}

	return &Inspector{
		cache: lru.NewLRU[string, *Report](size, nil, ttl),
		log:   log,
		parse: inspectSource,
	}
}

// SetMetrics sets the metrics used to count cache hits and misses. Call it
// before the inspector is shared.
func (i *Inspector) SetMetrics(metrics *observability.PluginMetrics) {
	i.metrics = metrics
}

// Inspect returns the report for src. Parse failures are not cached.
func (i *Inspector) Inspect(src *Source, contract string) (*Report, error) {
	key := src.Digest + ":" + contract

	if report, ok := i.cache.Get(key); ok {
		i.metrics.ObserveInspection(true, false)
		return report, nil
	}

	// only the leader's closure runs; every other caller joined its parse
	led := false
	v, err, _ := i.group.Do(key, func() (interface{}, error) {
		led = true
		if report, ok := i.cache.Get(key); ok {
			return cachedReport{report: report, hit: true}, nil
		}

		start := time.Now()
		report, err := i.parse(src, contract)
		if err != nil {
			return nil, err
		}

		i.log.WithField("module", report.Module).
			WithField("digest", shortDigest(src.Digest)).
			Debugf("Inspected %d files in %v", len(src.Files), time.Since(start))
		i.cache.Add(key, report)
		return cachedReport{report: report}, nil
	})
	if err != nil {
		i.metrics.ObserveInspection(false, !led)
		return nil, err
	}

	result := v.(cachedReport)
	i.metrics.ObserveInspection(led && result.hit, !led)
	return result.report, nil
}

type cachedReport struct {
	report *Report
	hit    bool
}

// Len returns the number of cached reports
func (i *Inspector) Len() int {
	return i.cache.Len()
}

// Purge drops every cached report
func (i *Inspector) Purge() {
	i.cache.Purge()
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
