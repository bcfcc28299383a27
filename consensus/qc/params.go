package qc

import (
	"bytes"
	"io"

	"github.com/holiman/uint256"

	"github.com/onflow/certstore/model/stake"
)

// MessageLength is the length of the message a QC certifies.
const MessageLength = 32

// Message is the fixed-length opaque byte sequence certified by a QC.
type Message [MessageLength]byte

// Signature is an encoded partial or aggregated signature of the underlying aggregate-signature scheme.
type Signature []byte

// PublicParams are the public parameters of the underlying aggregate-signature scheme.
type PublicParams []byte

// AggregateScheme is the aggregate-signature primitive a QC is built on.
// Implementations must be safe for concurrent use.
type AggregateScheme interface {
	// Sign produces the partial signature of sk over msg.
	Sign(pp PublicParams, sk []byte, msg []byte, rng io.Reader) (Signature, error)

	// Aggregate combines the partial signatures of the given verification keys into
	// one aggregated signature. vks and sigs are index-aligned.
	Aggregate(pp PublicParams, vks [][]byte, sigs []Signature) (Signature, error)

	// MultiSigVerify verifies an aggregated signature over msg by all given verification keys.
	MultiSigVerify(pp PublicParams, vks [][]byte, msg []byte, sig Signature) error
}

// Params binds QCs to one stake snapshot. The order of StakeEntries is fixed for the
// lifetime of the snapshot and defines the index-to-validator mapping of signer bitmaps.
type Params struct {
	StakeEntries stake.Table  `cbor:"1,keyasint"`
	Threshold    uint256.Int  `cbor:"2,keyasint"`
	AggSigParams PublicParams `cbor:"3,keyasint"`
}

// NewParams returns QC parameters for the given snapshot with the super-majority threshold
// of its total stake.
func NewParams(entries stake.Table, pp PublicParams) (Params, error) {
	total, err := entries.TotalStake()
	if err != nil {
		return Params{}, NewParameterError(err)
	}
	return Params{
		StakeEntries: entries,
		Threshold:    stake.SuperMajorityThreshold(total),
		AggSigParams: pp,
	}, nil
}

// Clone returns a deep copy of the parameters.
func (p Params) Clone() Params {
	return Params{
		StakeEntries: p.StakeEntries.Clone(),
		Threshold:    p.Threshold,
		AggSigParams: bytes.Clone(p.AggSigParams),
	}
}

// QuorumCertificate is an aggregated signature together with the bitmap of validators
// whose partial signatures it contains. It is immutable once assembled.
type QuorumCertificate struct {
	Signature Signature    `cbor:"1,keyasint" msgpack:"signature"`
	Signers   SignerBitmap `cbor:"2,keyasint" msgpack:"signers"`
}

// Clone returns a deep copy of the certificate.
func (q *QuorumCertificate) Clone() *QuorumCertificate {
	if q == nil {
		return nil
	}
	return &QuorumCertificate{
		Signature: bytes.Clone(q.Signature),
		Signers:   q.Signers.Clone(),
	}
}
