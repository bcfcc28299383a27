package consensus

import (
	"bytes"
)

// BlockHeader is the header of a proposed block. Epoch roots are block headers.
type BlockHeader struct {
	Height            uint64
	Timestamp         uint64
	PayloadCommitment Commitment
	BuilderCommitment Commitment
	Metadata          []byte
}

// Commit returns the commitment to the header.
func (h BlockHeader) Commit() Commitment {
	return newCommitmentBuilder("BLOCK_HEADER").
		Uint64("height", h.Height).
		Uint64("timestamp", h.Timestamp).
		Field("payload_commitment", h.PayloadCommitment).
		Field("builder_commitment", h.BuilderCommitment).
		Bytes("metadata", h.Metadata).
		Finalize()
}

// Clone returns a deep copy of the header.
func (h BlockHeader) Clone() BlockHeader {
	dup := h
	dup.Metadata = bytes.Clone(h.Metadata)
	return dup
}
