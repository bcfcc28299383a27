package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/onflow/certstore/module"
)

type CacheCollector struct {
	entries  *prometheus.GaugeVec
	hits     *prometheus.CounterVec
	notFound *prometheus.CounterVec
	misses   *prometheus.CounterVec
}

var _ module.CacheMetrics = (*CacheCollector)(nil)

func NewCacheCollector(registerer prometheus.Registerer) *CacheCollector {
	cc := &CacheCollector{
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "entries_total",
			Namespace: namespaceConsensus,
			Subsystem: subsystemCommittee,
			Help:      "the number of entries in the cache",
		}, []string{LabelResource}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "hits_total",
			Namespace: namespaceConsensus,
			Subsystem: subsystemCommittee,
			Help:      "the number of hits for the cache",
		}, []string{LabelResource}),
		notFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "notfound_total",
			Namespace: namespaceConsensus,
			Subsystem: subsystemCommittee,
			Help:      "the number of times the queried item was not found in either cache or source",
		}, []string{LabelResource}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "misses_total",
			Namespace: namespaceConsensus,
			Subsystem: subsystemCommittee,
			Help:      "the number of times the queried item was not found in the cache, but found in the source",
		}, []string{LabelResource}),
	}
	registerer.MustRegister(cc.entries, cc.hits, cc.notFound, cc.misses)
	return cc
}

// CacheEntries records the size of the cache for the given resource.
func (cc *CacheCollector) CacheEntries(resource string, entries uint) {
	cc.entries.With(prometheus.Labels{LabelResource: resource}).Set(float64(entries))
}

// CacheHit records the number of hits in the cache.
func (cc *CacheCollector) CacheHit(resource string) {
	cc.hits.With(prometheus.Labels{LabelResource: resource}).Inc()
}

// CacheNotFound records the number of times the queried item was not found in either cache or source.
func (cc *CacheCollector) CacheNotFound(resource string) {
	cc.notFound.With(prometheus.Labels{LabelResource: resource}).Inc()
}

// CacheMiss records the number of queries that missed the cache.
func (cc *CacheCollector) CacheMiss(resource string) {
	cc.misses.With(prometheus.Labels{LabelResource: resource}).Inc()
}
