package module

import (
	"time"

	"github.com/onflow/certstore/model/consensus"
)

// CacheMetrics reports the usage of an in-memory cache in front of a slower source.
type CacheMetrics interface {
	// CacheEntries report the total number of cached items
	CacheEntries(resource string, entries uint)
	// CacheHit report the number of times the queried item is found in the cache
	CacheHit(resource string)
	// CacheNotFound records the number of times the queried item was not found in either cache or source.
	CacheNotFound(resource string)
	// CacheMiss report the number of times the queried item is not found in the cache, but found in the source.
	CacheMiss(resource string)
}

// ConsensusStorageMetrics reports the activity of the consensus storage engine.
type ConsensusStorageMetrics interface {
	// OperationCompleted is called once per storage operation, with the time spent
	// holding the lock and the result of the operation.
	OperationCompleted(operation string, duration time.Duration, err error)

	// InjectedFault is called whenever a configured fault makes an operation fail.
	InjectedFault(operation string)

	// HighQCUpdated is called when one of the high QC slots advanced.
	HighQCUpdated(slot string, view consensus.View)

	// LastActionedUpdated is called when the anti-equivocation mark moved.
	LastActionedUpdated(view consensus.View, epoch *consensus.Epoch)

	// ProposalsMigrated reports the number of proposals copied into the revised generation.
	ProposalsMigrated(count int)

	// StateLoaded reports the time it took to load the persisted state at startup.
	StateLoaded(duration time.Duration)
}
