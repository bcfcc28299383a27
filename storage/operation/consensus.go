package operation

import (
	"fmt"

	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/storage"
)

// retrieveAll decodes every value stored under the given prefix, in key order.
func retrieveAll[T any](r storage.Reader, prefix []byte) ([]T, error) {
	var entities []T
	err := TraverseByPrefix(r, prefix, func(_ []byte, getValue func(destVal any) error) (bool, error) {
		var entity T
		err := getValue(&entity)
		if err != nil {
			return true, err
		}
		entities = append(entities, entity)
		return false, nil
	}, storage.DefaultIteratorOptions())
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// retrieveAllByEpoch decodes every value stored under the given epoch-keyed prefix code.
func retrieveAllByEpoch[T any](r storage.Reader, code byte) (map[consensus.Epoch]T, error) {
	entities := make(map[consensus.Epoch]T)
	err := TraverseByPrefix(r, MakePrefix(code), func(key []byte, getValue func(destVal any) error) (bool, error) {
		epoch, err := DecodeUint64KeyPart(key, 1)
		if err != nil {
			return true, fmt.Errorf("malformed epoch key %x: %w", key, err)
		}
		var entity T
		err = getValue(&entity)
		if err != nil {
			return true, err
		}
		entities[consensus.Epoch(epoch)] = entity
		return false, nil
	}, storage.DefaultIteratorOptions())
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// UpsertDAProposal stores a data-availability proposal under its view.
// No errors are expected during normal operation.
func UpsertDAProposal(w storage.Writer, p consensus.Proposal[consensus.DAProposal]) error {
	return UpsertByKey(w, MakePrefix(codeDAProposal, p.View()), p)
}

// RetrieveDAProposals returns all data-availability proposals in ascending view order.
func RetrieveDAProposals(r storage.Reader) ([]consensus.Proposal[consensus.DAProposal], error) {
	return retrieveAll[consensus.Proposal[consensus.DAProposal]](r, MakePrefix(codeDAProposal))
}

func UpsertDAProposal2(w storage.Writer, p consensus.Proposal[consensus.DAProposal2]) error {
	return UpsertByKey(w, MakePrefix(codeDAProposal2, p.View()), p)
}

func RetrieveDAProposals2(r storage.Reader) ([]consensus.Proposal[consensus.DAProposal2], error) {
	return retrieveAll[consensus.Proposal[consensus.DAProposal2]](r, MakePrefix(codeDAProposal2))
}

// UpsertQuorumProposal stores an original-generation quorum proposal under its view.
// No errors are expected during normal operation.
func UpsertQuorumProposal(w storage.Writer, p consensus.Proposal[consensus.QuorumProposal]) error {
	return UpsertByKey(w, MakePrefix(codeQuorumProposal, p.View()), p)
}

func RetrieveQuorumProposals(r storage.Reader) ([]consensus.Proposal[consensus.QuorumProposal], error) {
	return retrieveAll[consensus.Proposal[consensus.QuorumProposal]](r, MakePrefix(codeQuorumProposal))
}

func UpsertQuorumProposal2(w storage.Writer, p consensus.Proposal[consensus.QuorumProposal2]) error {
	return UpsertByKey(w, MakePrefix(codeQuorumProposal2, p.View()), p)
}

func RetrieveQuorumProposals2(r storage.Reader) ([]consensus.Proposal[consensus.QuorumProposal2], error) {
	return retrieveAll[consensus.Proposal[consensus.QuorumProposal2]](r, MakePrefix(codeQuorumProposal2))
}

func UpsertQuorumProposalWrapper(w storage.Writer, p consensus.Proposal[consensus.QuorumProposalWrapper]) error {
	return UpsertByKey(w, MakePrefix(codeQuorumProposalWrapper, p.View()), p)
}

func RetrieveQuorumProposalWrappers(r storage.Reader) ([]consensus.Proposal[consensus.QuorumProposalWrapper], error) {
	return retrieveAll[consensus.Proposal[consensus.QuorumProposalWrapper]](r, MakePrefix(codeQuorumProposalWrapper))
}

// UpsertVIDShare stores a dispersal share under its view and recipient key.
// No errors are expected during normal operation.
func UpsertVIDShare(w storage.Writer, s consensus.Proposal[consensus.VIDDisperseShare]) error {
	return UpsertByKey(w, MakePrefix(codeVIDShare, s.View(), s.Data.RecipientKey), s)
}

// RetrieveVIDShares returns all dispersal shares in ascending (view, recipient key) order.
func RetrieveVIDShares(r storage.Reader) ([]consensus.Proposal[consensus.VIDDisperseShare], error) {
	return retrieveAll[consensus.Proposal[consensus.VIDDisperseShare]](r, MakePrefix(codeVIDShare))
}

func UpsertVIDShare2(w storage.Writer, s consensus.Proposal[consensus.VIDDisperseShare2]) error {
	return UpsertByKey(w, MakePrefix(codeVIDShare2, s.View(), s.Data.RecipientKey), s)
}

func RetrieveVIDShares2(r storage.Reader) ([]consensus.Proposal[consensus.VIDDisperseShare2], error) {
	return retrieveAll[consensus.Proposal[consensus.VIDDisperseShare2]](r, MakePrefix(codeVIDShare2))
}

// UpsertHighQC overwrites the stored high QC. Enforcing that the high QC only advances
// is the caller's responsibility.
func UpsertHighQC(w storage.Writer, qc consensus.QuorumCertificate) error {
	return UpsertByKey(w, MakePrefix(codeHighQC), qc)
}

// RetrieveHighQC reads the stored high QC.
// Error returns:
//   - storage.ErrNotFound if no high QC was stored yet
func RetrieveHighQC(r storage.Reader, qc *consensus.QuorumCertificate) error {
	return RetrieveByKey(r, MakePrefix(codeHighQC), qc)
}

func UpsertHighQC2(w storage.Writer, qc consensus.QuorumCertificate2) error {
	return UpsertByKey(w, MakePrefix(codeHighQC2), qc)
}

func RetrieveHighQC2(r storage.Reader, qc *consensus.QuorumCertificate2) error {
	return RetrieveByKey(r, MakePrefix(codeHighQC2), qc)
}

func UpsertNextEpochHighQC2(w storage.Writer, qc consensus.NextEpochQuorumCertificate2) error {
	return UpsertByKey(w, MakePrefix(codeNextEpochHighQC2), qc)
}

func RetrieveNextEpochHighQC2(r storage.Reader, qc *consensus.NextEpochQuorumCertificate2) error {
	return RetrieveByKey(r, MakePrefix(codeNextEpochHighQC2), qc)
}

// UpsertLastActioned overwrites the anti-equivocation mark.
func UpsertLastActioned(w storage.Writer, mark consensus.ActionMark) error {
	return UpsertByKey(w, MakePrefix(codeLastActioned), mark)
}

// RetrieveLastActioned reads the anti-equivocation mark.
// Error returns:
//   - storage.ErrNotFound if the replica never voted or proposed
func RetrieveLastActioned(r storage.Reader, mark *consensus.ActionMark) error {
	return RetrieveByKey(r, MakePrefix(codeLastActioned), mark)
}

// decidedUpgradeCertificate distinguishes a cleared certificate from one never stored.
type decidedUpgradeCertificate struct {
	Certificate *consensus.UpgradeCertificate
}

// UpsertDecidedUpgradeCertificate overwrites the decided upgrade certificate; nil clears it.
func UpsertDecidedUpgradeCertificate(w storage.Writer, cert *consensus.UpgradeCertificate) error {
	return UpsertByKey(w, MakePrefix(codeDecidedUpgradeCertificate), decidedUpgradeCertificate{Certificate: cert})
}

// RetrieveDecidedUpgradeCertificate reads the decided upgrade certificate, which is nil if cleared.
// Error returns:
//   - storage.ErrNotFound if no certificate was ever stored
func RetrieveDecidedUpgradeCertificate(r storage.Reader) (*consensus.UpgradeCertificate, error) {
	var stored decidedUpgradeCertificate
	err := RetrieveByKey(r, MakePrefix(codeDecidedUpgradeCertificate), &stored)
	if err != nil {
		return nil, err
	}
	return stored.Certificate, nil
}

// UpsertStateCert stores a light client state certificate under its epoch.
func UpsertStateCert(w storage.Writer, cert consensus.LightClientStateUpdateCertificate) error {
	return UpsertByKey(w, MakePrefix(codeStateCert, cert.Epoch), cert)
}

// RetrieveStateCerts returns all state certificates by epoch.
func RetrieveStateCerts(r storage.Reader) (map[consensus.Epoch]consensus.LightClientStateUpdateCertificate, error) {
	return retrieveAllByEpoch[consensus.LightClientStateUpdateCertificate](r, codeStateCert)
}

// UpsertDRBResult stores the random beacon result of an epoch.
func UpsertDRBResult(w storage.Writer, epoch consensus.Epoch, result consensus.DRBResult) error {
	return UpsertByKey(w, MakePrefix(codeDRBResult, epoch), result)
}

// RetrieveDRBResult reads the random beacon result of an epoch.
// Error returns:
//   - storage.ErrNotFound if no result is stored for the epoch
func RetrieveDRBResult(r storage.Reader, epoch consensus.Epoch, result *consensus.DRBResult) error {
	return RetrieveByKey(r, MakePrefix(codeDRBResult, epoch), result)
}

func RetrieveDRBResults(r storage.Reader) (map[consensus.Epoch]consensus.DRBResult, error) {
	return retrieveAllByEpoch[consensus.DRBResult](r, codeDRBResult)
}

// UpsertEpochRoot stores the root block header of an epoch.
func UpsertEpochRoot(w storage.Writer, epoch consensus.Epoch, header consensus.BlockHeader) error {
	return UpsertByKey(w, MakePrefix(codeEpochRoot, epoch), header)
}

func RetrieveEpochRoots(r storage.Reader) (map[consensus.Epoch]consensus.BlockHeader, error) {
	return retrieveAllByEpoch[consensus.BlockHeader](r, codeEpochRoot)
}
