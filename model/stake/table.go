package stake

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrStakeOverflow is returned when summing stake amounts exceeds 256 bits.
var ErrStakeOverflow = errors.New("stake sum overflows 256 bits")

// Entry is one validator of a stake snapshot: its aggregate-signature verification key
// and the stake backing it. Entries are immutable once they are part of a Table.
type Entry struct {
	VerificationKey []byte
	Amount          uint256.Int
}

// NewEntry is a convenience constructor for small stake amounts.
func NewEntry(key []byte, amount uint64) Entry {
	return Entry{
		VerificationKey: key,
		Amount:          *uint256.NewInt(amount),
	}
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	return Entry{
		VerificationKey: bytes.Clone(e.VerificationKey),
		Amount:          e.Amount,
	}
}

// Table is the ordered stake snapshot of one epoch. The position of an entry is the
// index used by signer bitmaps, hence the order must never change for the lifetime
// of the snapshot.
type Table []Entry

// TotalStake returns the sum of all stake amounts.
// Returns ErrStakeOverflow if the sum does not fit into 256 bits.
func (t Table) TotalStake() (uint256.Int, error) {
	var total uint256.Int
	for i := range t {
		_, overflow := total.AddOverflow(&total, &t[i].Amount)
		if overflow {
			return uint256.Int{}, fmt.Errorf("summing stake of entry %d: %w", i, ErrStakeOverflow)
		}
	}
	return total, nil
}

// Keys returns the verification keys in snapshot order.
func (t Table) Keys() [][]byte {
	keys := make([][]byte, 0, len(t))
	for _, e := range t {
		keys = append(keys, e.VerificationKey)
	}
	return keys
}

// Index returns the snapshot position of the given key, or -1 if the key is not part
// of the table.
func (t Table) Index(key []byte) int {
	for i, e := range t {
		if bytes.Equal(e.VerificationKey, key) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	dup := make(Table, 0, len(t))
	for _, e := range t {
		dup = append(dup, e.Clone())
	}
	return dup
}
