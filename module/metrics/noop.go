package metrics

import (
	"time"

	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/module"
)

type NoopCollector struct{}

var _ module.ConsensusStorageMetrics = (*NoopCollector)(nil)
var _ module.CacheMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) CacheEntries(resource string, entries uint)                      {}
func (nc *NoopCollector) CacheHit(resource string)                                        {}
func (nc *NoopCollector) CacheNotFound(resource string)                                   {}
func (nc *NoopCollector) CacheMiss(resource string)                                       {}
func (nc *NoopCollector) OperationCompleted(operation string, _ time.Duration, _ error)   {}
func (nc *NoopCollector) InjectedFault(operation string)                                  {}
func (nc *NoopCollector) HighQCUpdated(slot string, view consensus.View)                  {}
func (nc *NoopCollector) LastActionedUpdated(view consensus.View, epoch *consensus.Epoch) {}
func (nc *NoopCollector) ProposalsMigrated(count int)                                     {}
func (nc *NoopCollector) StateLoaded(duration time.Duration)                              {}
