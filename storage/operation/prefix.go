package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/onflow/certstore/model/consensus"
)

const (
	// codes for proposals and shares, keyed by view (and recipient for shares)
	codeDAProposal            = 10
	codeDAProposal2           = 11
	codeQuorumProposal        = 12
	codeQuorumProposal2       = 13
	codeQuorumProposalWrapper = 14
	codeVIDShare              = 15
	codeVIDShare2             = 16

	// codes for single-value slots
	codeHighQC                    = 20
	codeHighQC2                   = 21
	codeNextEpochHighQC2          = 22
	codeLastActioned              = 23
	codeDecidedUpgradeCertificate = 24

	// codes for epoch-scoped artifacts, keyed by epoch
	codeStateCert = 30
	codeDRBResult = 31
	codeEpochRoot = 32
)

// MakePrefix returns the key with the given code followed by the encoding of all keys.
func MakePrefix(code byte, keys ...any) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, EncodeKeyPart(key)...)
	}
	return prefix
}

// EncodeKeyPart encodes a key component. Integers are encoded big-endian, so that the
// lexicographic key order matches the numeric order.
func EncodeKeyPart(v any) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case consensus.View:
		return EncodeKeyPart(uint64(i))
	case consensus.Epoch:
		return EncodeKeyPart(uint64(i))
	case string:
		return []byte(i)
	case []byte:
		return i
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}

// DecodeUint64KeyPart decodes the big-endian integer that starts at offset of key.
func DecodeUint64KeyPart(key []byte, offset int) (uint64, error) {
	if len(key) < offset+8 {
		return 0, fmt.Errorf("key of length %d has no integer at offset %d", len(key), offset)
	}
	return binary.BigEndian.Uint64(key[offset : offset+8]), nil
}
