package committee

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/onflow/certstore/consensus/qc"
	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/model/stake"
	"github.com/onflow/certstore/module"
	"github.com/onflow/certstore/module/metrics"
	"github.com/onflow/certstore/utils/logging"
)

// ErrEpochUnknown is returned when the stake snapshot of an epoch is not known (yet).
var ErrEpochUnknown = errors.New("stake table of epoch is unknown")

// StakeTableSupplier provides the stake snapshot of each epoch. Snapshots are immutable:
// once a supplier returned the snapshot of an epoch, it must always return the same one.
type StakeTableSupplier interface {
	// StakeTable returns the ordered stake entries of the epoch and the stake required
	// to form a QC.
	// Error returns:
	//   - ErrEpochUnknown if the snapshot of the epoch is not available
	StakeTable(epoch consensus.Epoch) (stake.Table, uint256.Int, error)
}

// DefaultCacheSize is the number of epochs whose parameters are kept in memory.
const DefaultCacheSize = 16

// Committee provides the QC parameters of each epoch and checks certificates against them.
// Parameters are assembled from the supplier's snapshot once and cached afterwards.
// All methods are safe for concurrent use.
type Committee struct {
	log      zerolog.Logger
	supplier StakeTableSupplier
	pp       qc.PublicParams
	verifier *qc.Verifier
	metrics  module.CacheMetrics
	cache    *lru.Cache[consensus.Epoch, qc.Params]
}

// NewCommittee creates a committee over the given supplier. The aggregate-signature public
// parameters pp are shared by all epochs.
func NewCommittee(log zerolog.Logger, collector module.CacheMetrics, supplier StakeTableSupplier, verifier *qc.Verifier, pp qc.PublicParams, cacheSize int) (*Committee, error) {
	cache, err := lru.New[consensus.Epoch, qc.Params](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create params cache: %w", err)
	}
	c := &Committee{
		log:      log.With().Str("component", "committee").Logger(),
		supplier: supplier,
		pp:       pp,
		verifier: verifier,
		metrics:  collector,
		cache:    cache,
	}
	c.metrics.CacheEntries(metrics.ResourceQCParams, uint(c.cache.Len()))
	return c, nil
}

// Params returns the QC parameters of the epoch. The returned value is a copy that the
// caller may modify.
// Error returns:
//   - ErrEpochUnknown if the supplier does not know the epoch
//   - qc.ParameterError if the supplied snapshot is unusable
func (c *Committee) Params(epoch consensus.Epoch) (qc.Params, error) {
	params, cached := c.cache.Get(epoch)
	if cached {
		c.metrics.CacheHit(metrics.ResourceQCParams)
		return params.Clone(), nil
	}

	entries, threshold, err := c.supplier.StakeTable(epoch)
	if err != nil {
		if errors.Is(err, ErrEpochUnknown) {
			c.metrics.CacheNotFound(metrics.ResourceQCParams)
		}
		return qc.Params{}, fmt.Errorf("could not get stake table of epoch %d: %w", epoch, err)
	}
	c.metrics.CacheMiss(metrics.ResourceQCParams)

	params, err = assembleParams(entries, threshold, c.pp)
	if err != nil {
		return qc.Params{}, fmt.Errorf("invalid stake table of epoch %d: %w", epoch, err)
	}

	// cache the params and eject least recently used one if we reached limit
	evicted := c.cache.Add(epoch, params)
	if !evicted {
		c.metrics.CacheEntries(metrics.ResourceQCParams, uint(c.cache.Len()))
	}
	c.log.Debug().
		Uint64("epoch", uint64(epoch)).
		Int("validators", len(params.StakeEntries)).
		Str("threshold", params.Threshold.Dec()).
		Msg("qc params assembled")

	return params.Clone(), nil
}

// assembleParams validates a snapshot and turns it into QC parameters. The threshold must
// lie between the honest-majority bound and the total stake: below it, a QC could be
// formed without any honest signer; above it, no QC could be formed at all.
func assembleParams(entries stake.Table, threshold uint256.Int, pp qc.PublicParams) (qc.Params, error) {
	total, err := entries.TotalStake()
	if err != nil {
		return qc.Params{}, qc.NewParameterError(err)
	}
	if threshold.IsZero() {
		return qc.Params{}, qc.NewParameterErrorf("threshold must be positive")
	}
	if minimum := stake.HonestMajorityThreshold(total); threshold.Lt(&minimum) {
		return qc.Params{}, qc.NewParameterErrorf("threshold %s is below the honest-majority bound %s", threshold.Dec(), minimum.Dec())
	}
	if threshold.Gt(&total) {
		return qc.Params{}, qc.NewParameterErrorf("threshold %s exceeds total stake %s", threshold.Dec(), total.Dec())
	}
	return qc.Params{
		StakeEntries: entries.Clone(),
		Threshold:    threshold,
		AggSigParams: pp,
	}, nil
}

// Check verifies a QC formed in the given epoch and returns the stake that signed it.
func (c *Committee) Check(epoch consensus.Epoch, msg qc.Message, cert *qc.QuorumCertificate) (uint256.Int, error) {
	params, err := c.Params(epoch)
	if err != nil {
		return uint256.Int{}, err
	}
	return c.verifier.Check(params, msg, cert)
}

// Trace verifies a QC formed in the given epoch and returns the verification keys of its signers.
func (c *Committee) Trace(epoch consensus.Epoch, msg qc.Message, cert *qc.QuorumCertificate) ([][]byte, error) {
	params, err := c.Params(epoch)
	if err != nil {
		return nil, err
	}
	signers, err := c.verifier.Trace(params, msg, cert)
	if err != nil {
		return nil, err
	}
	c.log.Debug().
		Uint64("epoch", uint64(epoch)).
		Strs("signers", logging.Keys(signers)).
		Msg("qc signers traced")
	return signers, nil
}
