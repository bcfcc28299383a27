package consensus

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/sha3"
)

// commitmentBuilder hashes a tagged sequence of length-prefixed fields with SHA3-256.
// Field names are part of the hash, so that reordering fields changes the commitment.
type commitmentBuilder struct {
	h hash.Hash
}

func newCommitmentBuilder(tag string) *commitmentBuilder {
	b := &commitmentBuilder{h: sha3.New256()}
	b.bytes([]byte(tag))
	return b
}

func (b *commitmentBuilder) bytes(v []byte) {
	var l [8]byte
	binary.BigEndian.PutUint64(l[:], uint64(len(v)))
	_, _ = b.h.Write(l[:])
	_, _ = b.h.Write(v)
}

func (b *commitmentBuilder) Bytes(name string, v []byte) *commitmentBuilder {
	b.bytes([]byte(name))
	b.bytes(v)
	return b
}

func (b *commitmentBuilder) Field(name string, c Commitment) *commitmentBuilder {
	return b.Bytes(name, c[:])
}

func (b *commitmentBuilder) Uint64(name string, v uint64) *commitmentBuilder {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return b.Bytes(name, buf[:])
}

// OptionalEpoch commits to the absence of an epoch differently from epoch 0.
func (b *commitmentBuilder) OptionalEpoch(name string, e *Epoch) *commitmentBuilder {
	if e == nil {
		return b.Bytes(name, nil)
	}
	var buf [9]byte
	buf[0] = 1
	binary.BigEndian.PutUint64(buf[1:], uint64(*e))
	return b.Bytes(name, buf[:])
}

func (b *commitmentBuilder) Finalize() Commitment {
	var c Commitment
	copy(c[:], b.h.Sum(nil))
	return c
}
