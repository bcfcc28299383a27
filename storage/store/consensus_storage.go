package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/module"
	"github.com/onflow/certstore/module/irrecoverable"
	"github.com/onflow/certstore/module/metrics"
	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/storage/operation"
)

type (
	daProposal            = consensus.Proposal[consensus.DAProposal]
	daProposal2           = consensus.Proposal[consensus.DAProposal2]
	quorumProposal        = consensus.Proposal[consensus.QuorumProposal]
	quorumProposal2       = consensus.Proposal[consensus.QuorumProposal2]
	quorumProposalWrapper = consensus.Proposal[consensus.QuorumProposalWrapper]
	vidShare              = consensus.Proposal[consensus.VIDDisperseShare]
	vidShare2             = consensus.Proposal[consensus.VIDDisperseShare2]
)

// consensusState is the in-memory replica state. Values are owned by the state: they are
// cloned on the way in and on the way out.
type consensusState struct {
	daProposals      *orderedMap[consensus.View, daProposal]
	daProposals2     *orderedMap[consensus.View, daProposal2]
	quorumProposals  *orderedMap[consensus.View, quorumProposal]
	quorumProposals2 *orderedMap[consensus.View, quorumProposal2]
	proposalWrappers *orderedMap[consensus.View, quorumProposalWrapper]

	// shares by view, then by hex-encoded recipient key
	vidShares  *orderedMap[consensus.View, map[string]vidShare]
	vidShares2 *orderedMap[consensus.View, map[string]vidShare2]

	highQC           *consensus.QuorumCertificate
	highQC2          *consensus.QuorumCertificate2
	nextEpochHighQC2 *consensus.NextEpochQuorumCertificate2
	lastActioned     consensus.ActionMark
	decidedUpgrade   *consensus.UpgradeCertificate

	stateCerts *orderedMap[consensus.Epoch, consensus.LightClientStateUpdateCertificate]
	drbResults *orderedMap[consensus.Epoch, consensus.DRBResult]
	epochRoots *orderedMap[consensus.Epoch, consensus.BlockHeader]
}

func newConsensusState() *consensusState {
	return &consensusState{
		daProposals:      newOrderedMap[consensus.View, daProposal](),
		daProposals2:     newOrderedMap[consensus.View, daProposal2](),
		quorumProposals:  newOrderedMap[consensus.View, quorumProposal](),
		quorumProposals2: newOrderedMap[consensus.View, quorumProposal2](),
		proposalWrappers: newOrderedMap[consensus.View, quorumProposalWrapper](),
		vidShares:        newOrderedMap[consensus.View, map[string]vidShare](),
		vidShares2:       newOrderedMap[consensus.View, map[string]vidShare2](),
		stateCerts:       newOrderedMap[consensus.Epoch, consensus.LightClientStateUpdateCertificate](),
		drbResults:       newOrderedMap[consensus.Epoch, consensus.DRBResult](),
		epochRoots:       newOrderedMap[consensus.Epoch, consensus.BlockHeader](),
	}
}

// ConsensusStorage is the consensus storage engine. It keeps the whole replica state in
// memory behind a single RW lock. If a database is given, every change is written to the
// database before it is applied in memory, and the state is loaded from the database at
// construction.
type ConsensusStorage struct {
	log     zerolog.Logger
	metrics module.ConsensusStorageMetrics
	faults  *FaultPolicy
	db      storage.DB // nil for an in-memory engine

	mu    sync.RWMutex
	state *consensusState
}

var _ storage.ConsensusStorage = (*ConsensusStorage)(nil)

// NewConsensusStorage creates the engine on top of db, which may be nil. The persisted
// state is loaded before the function returns.
// No errors are expected during normal operation.
func NewConsensusStorage(db storage.DB, opts ...Option) (*ConsensusStorage, error) {
	cfg := DefaultConfig()
	for _, apply := range opts {
		apply(&cfg)
	}

	s := &ConsensusStorage{
		log:     cfg.Log.With().Str("component", "consensus_storage").Logger(),
		metrics: cfg.Metrics,
		faults:  cfg.Faults,
		db:      db,
		state:   newConsensusState(),
	}
	if db == nil {
		return s, nil
	}

	base := cfg.LoadBackoff
	if base <= 0 {
		base = time.Millisecond
	}
	start := time.Now()
	backoff := retry.WithMaxRetries(cfg.LoadRetries, retry.NewExponential(base))
	attempts := 0
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		attempts++
		state, err := loadConsensusState(db.Reader())
		if err != nil {
			// corrupted values do not heal by retrying
			if irrecoverable.IsException(err) {
				return err
			}
			s.log.Warn().Err(err).Int("attempt", attempts).Msg("could not load consensus state, retrying")
			return retry.RetryableError(err)
		}
		s.state = state
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not load consensus state: %w", err)
	}

	duration := time.Since(start)
	s.metrics.StateLoaded(duration)
	s.log.Info().
		Dur("duration", duration).
		Uint64("last_actioned_view", uint64(s.state.lastActioned.View)).
		Int("quorum_proposals", s.state.quorumProposals.Len()).
		Int("quorum_proposals2", s.state.quorumProposals2.Len()).
		Msg("consensus state loaded")

	return s, nil
}

// loadConsensusState reads every key space of the persisted state.
func loadConsensusState(r storage.Reader) (*consensusState, error) {
	state := newConsensusState()

	das, err := operation.RetrieveDAProposals(r)
	if err != nil {
		return nil, fmt.Errorf("could not load da proposals: %w", err)
	}
	for _, p := range das {
		state.daProposals.Put(p.View(), p)
	}

	das2, err := operation.RetrieveDAProposals2(r)
	if err != nil {
		return nil, fmt.Errorf("could not load da proposals2: %w", err)
	}
	for _, p := range das2 {
		state.daProposals2.Put(p.View(), p)
	}

	qps, err := operation.RetrieveQuorumProposals(r)
	if err != nil {
		return nil, fmt.Errorf("could not load quorum proposals: %w", err)
	}
	for _, p := range qps {
		state.quorumProposals.Put(p.View(), p)
	}

	qps2, err := operation.RetrieveQuorumProposals2(r)
	if err != nil {
		return nil, fmt.Errorf("could not load quorum proposals2: %w", err)
	}
	for _, p := range qps2 {
		state.quorumProposals2.Put(p.View(), p)
	}

	wrappers, err := operation.RetrieveQuorumProposalWrappers(r)
	if err != nil {
		return nil, fmt.Errorf("could not load quorum proposal wrappers: %w", err)
	}
	for _, p := range wrappers {
		state.proposalWrappers.Put(p.View(), p)
	}

	shares, err := operation.RetrieveVIDShares(r)
	if err != nil {
		return nil, fmt.Errorf("could not load vid shares: %w", err)
	}
	for _, s := range shares {
		putShare(state.vidShares, s.View(), s.Data.RecipientKey, s)
	}

	shares2, err := operation.RetrieveVIDShares2(r)
	if err != nil {
		return nil, fmt.Errorf("could not load vid shares2: %w", err)
	}
	for _, s := range shares2 {
		putShare(state.vidShares2, s.View(), s.Data.RecipientKey, s)
	}

	var highQC consensus.QuorumCertificate
	err = operation.RetrieveHighQC(r, &highQC)
	if err == nil {
		state.highQC = &highQC
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("could not load high qc: %w", err)
	}

	var highQC2 consensus.QuorumCertificate2
	err = operation.RetrieveHighQC2(r, &highQC2)
	if err == nil {
		state.highQC2 = &highQC2
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("could not load high qc2: %w", err)
	}

	var nextEpochHighQC2 consensus.NextEpochQuorumCertificate2
	err = operation.RetrieveNextEpochHighQC2(r, &nextEpochHighQC2)
	if err == nil {
		state.nextEpochHighQC2 = &nextEpochHighQC2
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("could not load next epoch high qc2: %w", err)
	}

	err = operation.RetrieveLastActioned(r, &state.lastActioned)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("could not load last actioned mark: %w", err)
	}

	state.decidedUpgrade, err = operation.RetrieveDecidedUpgradeCertificate(r)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("could not load decided upgrade certificate: %w", err)
	}

	certs, err := operation.RetrieveStateCerts(r)
	if err != nil {
		return nil, fmt.Errorf("could not load state certificates: %w", err)
	}
	for epoch, cert := range certs {
		state.stateCerts.Put(epoch, cert)
	}

	drbs, err := operation.RetrieveDRBResults(r)
	if err != nil {
		return nil, fmt.Errorf("could not load drb results: %w", err)
	}
	for epoch, drb := range drbs {
		state.drbResults.Put(epoch, drb)
	}

	roots, err := operation.RetrieveEpochRoots(r)
	if err != nil {
		return nil, fmt.Errorf("could not load epoch roots: %w", err)
	}
	for epoch, root := range roots {
		state.epochRoots.Put(epoch, root)
	}

	return state, nil
}

func putShare[T consensus.Payload[T]](shares *orderedMap[consensus.View, map[string]consensus.Proposal[T]], view consensus.View, recipient []byte, share consensus.Proposal[T]) {
	byRecipient, ok := shares.Get(view)
	if !ok {
		byRecipient = make(map[string]consensus.Proposal[T])
		shares.Put(view, byRecipient)
	}
	byRecipient[hex.EncodeToString(recipient)] = share
}

// update runs fn under the write lock, after consulting the fault policy.
func (s *ConsensusStorage) update(op Operation, fn func() error) error {
	start := time.Now()
	err := s.injectFault(op)
	if err != nil {
		s.metrics.OperationCompleted(op.String(), time.Since(start), err)
		return err
	}

	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.metrics.OperationCompleted(op.String(), time.Since(start), err)
	}()
	s.faults.delay(op)

	err = fn()
	return err
}

// view runs fn under the read lock, after consulting the fault policy.
func (s *ConsensusStorage) view(op Operation, fn func() error) error {
	start := time.Now()
	err := s.injectFault(op)
	if err != nil {
		s.metrics.OperationCompleted(op.String(), time.Since(start), err)
		return err
	}

	s.mu.RLock()
	defer func() {
		s.mu.RUnlock()
		s.metrics.OperationCompleted(op.String(), time.Since(start), err)
	}()
	s.faults.delay(op)

	err = fn()
	return err
}

func (s *ConsensusStorage) injectFault(op Operation) error {
	err := s.faults.check(op)
	if err != nil {
		s.log.Warn().Str("operation", op.String()).Msg("injecting storage fault")
		s.metrics.InjectedFault(op.String())
	}
	return err
}

// persist writes a batch to the database, if there is one. Must be called with the write
// lock held, before the in-memory state is changed.
func (s *ConsensusStorage) persist(fn func(storage.Writer) error) error {
	if s.db == nil {
		return nil
	}
	write := storage.OnlyWriter(fn)
	err := s.db.WithReaderBatchWriter(func(rw storage.ReaderBatchWriter) error {
		rw.AddCallback(func(err error) {
			if err != nil {
				s.log.Warn().Err(err).Msg("consensus state batch discarded")
			}
		})
		return write(rw)
	})
	if err != nil {
		return fmt.Errorf("could not persist consensus state: %w", err)
	}
	return nil
}

func (s *ConsensusStorage) AppendDA(proposal daProposal) error {
	p := proposal.Clone()
	return s.update(OpAppendDA, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertDAProposal(w, p)
		})
		if err != nil {
			return err
		}
		s.state.daProposals.Put(p.View(), p)
		return nil
	})
}

func (s *ConsensusStorage) AppendDA2(proposal daProposal2) error {
	p := proposal.Clone()
	return s.update(OpAppendDA2, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertDAProposal2(w, p)
		})
		if err != nil {
			return err
		}
		s.state.daProposals2.Put(p.View(), p)
		return nil
	})
}

func (s *ConsensusStorage) AppendProposal(proposal quorumProposal) error {
	p := proposal.Clone()
	return s.update(OpAppendProposal, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertQuorumProposal(w, p)
		})
		if err != nil {
			return err
		}
		s.state.quorumProposals.Put(p.View(), p)
		return nil
	})
}

func (s *ConsensusStorage) AppendProposal2(proposal quorumProposal2) error {
	p := proposal.Clone()
	return s.update(OpAppendProposal2, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertQuorumProposal2(w, p)
		})
		if err != nil {
			return err
		}
		s.state.quorumProposals2.Put(p.View(), p)
		return nil
	})
}

func (s *ConsensusStorage) AppendProposalWrapper(proposal quorumProposalWrapper) error {
	p := proposal.Clone()
	return s.update(OpAppendProposalWrapper, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertQuorumProposalWrapper(w, p)
		})
		if err != nil {
			return err
		}
		s.state.proposalWrappers.Put(p.View(), p)
		return nil
	})
}

func (s *ConsensusStorage) AppendVID(share vidShare) error {
	sh := share.Clone()
	return s.update(OpAppendVID, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertVIDShare(w, sh)
		})
		if err != nil {
			return err
		}
		putShare(s.state.vidShares, sh.View(), sh.Data.RecipientKey, sh)
		return nil
	})
}

func (s *ConsensusStorage) AppendVID2(share vidShare2) error {
	sh := share.Clone()
	return s.update(OpAppendVID2, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertVIDShare2(w, sh)
		})
		if err != nil {
			return err
		}
		putShare(s.state.vidShares2, sh.View(), sh.Data.RecipientKey, sh)
		return nil
	})
}

// RecordAction advances the anti-equivocation mark for votes and proposals. Other
// actions are accepted without effect.
func (s *ConsensusStorage) RecordAction(view consensus.View, epoch *consensus.Epoch, action consensus.Action) error {
	epoch = consensus.CopyEpoch(epoch)
	return s.update(OpRecordAction, func() error {
		if !action.AdvancesMark() {
			return nil
		}
		current := s.state.lastActioned
		next := current.Advance(view, epoch)
		if next.View == current.View && consensus.CompareEpochs(next.Epoch, current.Epoch) == 0 {
			return nil
		}

		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertLastActioned(w, next)
		})
		if err != nil {
			return err
		}
		s.state.lastActioned = next
		s.metrics.LastActionedUpdated(next.View, next.Epoch)
		s.log.Debug().
			Str("action", action.String()).
			Uint64("view", uint64(next.View)).
			Str("epoch", consensus.EpochString(next.Epoch)).
			Msg("last actioned mark advanced")
		return nil
	})
}

func (s *ConsensusStorage) UpdateHighQC(qc consensus.QuorumCertificate) error {
	qc = qc.Clone()
	return s.update(OpUpdateHighQC, func() error {
		if s.state.highQC != nil && qc.View() <= s.state.highQC.View() {
			return nil
		}
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertHighQC(w, qc)
		})
		if err != nil {
			return err
		}
		s.state.highQC = &qc
		s.highQCAdvanced(metrics.SlotHighQC, qc.View())
		return nil
	})
}

func (s *ConsensusStorage) UpdateHighQC2(qc consensus.QuorumCertificate2) error {
	qc = qc.Clone()
	return s.update(OpUpdateHighQC2, func() error {
		if s.state.highQC2 != nil && qc.View() <= s.state.highQC2.View() {
			return nil
		}
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertHighQC2(w, qc)
		})
		if err != nil {
			return err
		}
		s.state.highQC2 = &qc
		s.highQCAdvanced(metrics.SlotHighQC2, qc.View())
		return nil
	})
}

func (s *ConsensusStorage) UpdateNextEpochHighQC2(qc consensus.NextEpochQuorumCertificate2) error {
	qc = qc.Clone()
	return s.update(OpUpdateNextEpochHighQC2, func() error {
		if s.state.nextEpochHighQC2 != nil && qc.View() <= s.state.nextEpochHighQC2.View() {
			return nil
		}
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertNextEpochHighQC2(w, qc)
		})
		if err != nil {
			return err
		}
		s.state.nextEpochHighQC2 = &qc
		s.highQCAdvanced(metrics.SlotNextEpochHighQC2, qc.View())
		return nil
	})
}

func (s *ConsensusStorage) highQCAdvanced(slot string, view consensus.View) {
	s.metrics.HighQCUpdated(slot, view)
	s.log.Debug().Str("slot", slot).Uint64("view", uint64(view)).Msg("high qc advanced")
}

func (s *ConsensusStorage) UpdateStateCert(cert consensus.LightClientStateUpdateCertificate) error {
	cert = cert.Clone()
	return s.update(OpUpdateStateCert, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertStateCert(w, cert)
		})
		if err != nil {
			return err
		}
		s.state.stateCerts.Put(cert.Epoch, cert)
		return nil
	})
}

func (s *ConsensusStorage) UpdateDecidedUpgradeCertificate(cert *consensus.UpgradeCertificate) error {
	var dup *consensus.UpgradeCertificate
	if cert != nil {
		c := cert.Clone()
		dup = &c
	}
	return s.update(OpUpdateDecidedUpgradeCertificate, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertDecidedUpgradeCertificate(w, dup)
		})
		if err != nil {
			return err
		}
		s.state.decidedUpgrade = dup
		return nil
	})
}

// MigrateConsensus converts every original-generation quorum proposal into the revised
// generation. A revised proposal of the same view is overwritten by the conversion.
func (s *ConsensusStorage) MigrateConsensus() error {
	return s.update(OpMigrateConsensus, func() error {
		converted := make([]quorumProposal2, 0, s.state.quorumProposals.Len())
		s.state.quorumProposals.Ascend(func(_ consensus.View, p quorumProposal) {
			converted = append(converted, consensus.ConvertProposal(p))
		})

		err := s.persist(func(w storage.Writer) error {
			for _, p := range converted {
				err := operation.UpsertQuorumProposal2(w, p)
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, p := range converted {
			s.state.quorumProposals2.Put(p.View(), p)
		}
		s.metrics.ProposalsMigrated(len(converted))
		s.log.Info().Int("proposals", len(converted)).Msg("migrated quorum proposals")
		return nil
	})
}

func (s *ConsensusStorage) AddDRBResult(epoch consensus.Epoch, result consensus.DRBResult) error {
	return s.update(OpAddDRBResult, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertDRBResult(w, epoch, result)
		})
		if err != nil {
			return err
		}
		s.state.drbResults.Put(epoch, result)
		return nil
	})
}

func (s *ConsensusStorage) AddEpochRoot(epoch consensus.Epoch, header consensus.BlockHeader) error {
	header = header.Clone()
	return s.update(OpAddEpochRoot, func() error {
		err := s.persist(func(w storage.Writer) error {
			return operation.UpsertEpochRoot(w, epoch, header)
		})
		if err != nil {
			return err
		}
		s.state.epochRoots.Put(epoch, header)
		return nil
	})
}

// cloneAll returns deep copies of all values of m.
func cloneAll[T consensus.Payload[T]](m *orderedMap[consensus.View, consensus.Proposal[T]]) map[consensus.View]consensus.Proposal[T] {
	out := make(map[consensus.View]consensus.Proposal[T], m.Len())
	m.Ascend(func(view consensus.View, p consensus.Proposal[T]) {
		out[view] = p.Clone()
	})
	return out
}

func cloneShares[T consensus.Payload[T]](m *orderedMap[consensus.View, map[string]consensus.Proposal[T]]) map[consensus.View]map[string]consensus.Proposal[T] {
	out := make(map[consensus.View]map[string]consensus.Proposal[T], m.Len())
	m.Ascend(func(view consensus.View, byRecipient map[string]consensus.Proposal[T]) {
		dup := make(map[string]consensus.Proposal[T], len(byRecipient))
		for recipient, share := range byRecipient {
			dup[recipient] = share.Clone()
		}
		out[view] = dup
	})
	return out
}

func (s *ConsensusStorage) DAProposals() (map[consensus.View]daProposal, error) {
	var out map[consensus.View]daProposal
	err := s.view(OpDAProposals, func() error {
		out = cloneAll(s.state.daProposals)
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) DAProposals2() (map[consensus.View]daProposal2, error) {
	var out map[consensus.View]daProposal2
	err := s.view(OpDAProposals2, func() error {
		out = cloneAll(s.state.daProposals2)
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) QuorumProposals() (map[consensus.View]quorumProposal, error) {
	var out map[consensus.View]quorumProposal
	err := s.view(OpQuorumProposals, func() error {
		out = cloneAll(s.state.quorumProposals)
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) QuorumProposals2() (map[consensus.View]quorumProposal2, error) {
	var out map[consensus.View]quorumProposal2
	err := s.view(OpQuorumProposals2, func() error {
		out = cloneAll(s.state.quorumProposals2)
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) QuorumProposalWrappers() (map[consensus.View]quorumProposalWrapper, error) {
	var out map[consensus.View]quorumProposalWrapper
	err := s.view(OpQuorumProposalWrappers, func() error {
		out = cloneAll(s.state.proposalWrappers)
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) QuorumProposalWrappersInRange(from, to consensus.View) ([]quorumProposalWrapper, error) {
	var out []quorumProposalWrapper
	err := s.view(OpQuorumProposalWrappersInRange, func() error {
		s.state.proposalWrappers.AscendRange(from, to, func(_ consensus.View, p quorumProposalWrapper) {
			out = append(out, p.Clone())
		})
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) VIDShares() (map[consensus.View]map[string]vidShare, error) {
	var out map[consensus.View]map[string]vidShare
	err := s.view(OpVIDShares, func() error {
		out = cloneShares(s.state.vidShares)
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) VIDShares2() (map[consensus.View]map[string]vidShare2, error) {
	var out map[consensus.View]map[string]vidShare2
	err := s.view(OpVIDShares2, func() error {
		out = cloneShares(s.state.vidShares2)
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) HighQC() (*consensus.QuorumCertificate, error) {
	var out *consensus.QuorumCertificate
	err := s.view(OpHighQC, func() error {
		if s.state.highQC != nil {
			qc := s.state.highQC.Clone()
			out = &qc
		}
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) HighQC2() (*consensus.QuorumCertificate2, error) {
	var out *consensus.QuorumCertificate2
	err := s.view(OpHighQC2, func() error {
		if s.state.highQC2 != nil {
			qc := s.state.highQC2.Clone()
			out = &qc
		}
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) NextEpochHighQC2() (*consensus.NextEpochQuorumCertificate2, error) {
	var out *consensus.NextEpochQuorumCertificate2
	err := s.view(OpNextEpochHighQC2, func() error {
		if s.state.nextEpochHighQC2 != nil {
			qc := s.state.nextEpochHighQC2.Clone()
			out = &qc
		}
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) LastActioned() (consensus.View, *consensus.Epoch, error) {
	var mark consensus.ActionMark
	err := s.view(OpLastActioned, func() error {
		mark = consensus.ActionMark{
			View:  s.state.lastActioned.View,
			Epoch: consensus.CopyEpoch(s.state.lastActioned.Epoch),
		}
		return nil
	})
	return mark.View, mark.Epoch, err
}

func (s *ConsensusStorage) LatestStateCert() (*consensus.LightClientStateUpdateCertificate, error) {
	var out *consensus.LightClientStateUpdateCertificate
	err := s.view(OpLatestStateCert, func() error {
		_, cert, ok := s.state.stateCerts.Max()
		if ok {
			dup := cert.Clone()
			out = &dup
		}
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) StateCert(epoch consensus.Epoch) (consensus.LightClientStateUpdateCertificate, error) {
	var out consensus.LightClientStateUpdateCertificate
	err := s.view(OpStateCert, func() error {
		cert, ok := s.state.stateCerts.Get(epoch)
		if !ok {
			return fmt.Errorf("no state certificate for epoch %d: %w", epoch, storage.ErrNotFound)
		}
		out = cert.Clone()
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) DRBResult(epoch consensus.Epoch) (consensus.DRBResult, error) {
	var out consensus.DRBResult
	err := s.view(OpDRBResult, func() error {
		result, ok := s.state.drbResults.Get(epoch)
		if !ok {
			return fmt.Errorf("no drb result for epoch %d: %w", epoch, storage.ErrNotFound)
		}
		out = result
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) DRBResults() (map[consensus.Epoch]consensus.DRBResult, error) {
	var out map[consensus.Epoch]consensus.DRBResult
	err := s.view(OpDRBResults, func() error {
		out = make(map[consensus.Epoch]consensus.DRBResult, s.state.drbResults.Len())
		s.state.drbResults.Ascend(func(epoch consensus.Epoch, result consensus.DRBResult) {
			out[epoch] = result
		})
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) EpochRoot(epoch consensus.Epoch) (consensus.BlockHeader, error) {
	var out consensus.BlockHeader
	err := s.view(OpEpochRoot, func() error {
		header, ok := s.state.epochRoots.Get(epoch)
		if !ok {
			return fmt.Errorf("no root block for epoch %d: %w", epoch, storage.ErrNotFound)
		}
		out = header.Clone()
		return nil
	})
	return out, err
}

func (s *ConsensusStorage) DecidedUpgradeCertificate() (*consensus.UpgradeCertificate, error) {
	var out *consensus.UpgradeCertificate
	err := s.view(OpDecidedUpgradeCertificate, func() error {
		if s.state.decidedUpgrade != nil {
			cert := s.state.decidedUpgrade.Clone()
			out = &cert
		}
		return nil
	})
	return out, err
}
