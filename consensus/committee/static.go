package committee

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/model/stake"
)

// StaticSupplier serves a fixed set of stake snapshots, with the super-majority threshold
// of each snapshot's total stake.
type StaticSupplier struct {
	tables     map[consensus.Epoch]stake.Table
	thresholds map[consensus.Epoch]uint256.Int
}

var _ StakeTableSupplier = (*StaticSupplier)(nil)

func NewStaticSupplier(tables map[consensus.Epoch]stake.Table) (*StaticSupplier, error) {
	s := &StaticSupplier{
		tables:     make(map[consensus.Epoch]stake.Table, len(tables)),
		thresholds: make(map[consensus.Epoch]uint256.Int, len(tables)),
	}
	for epoch, table := range tables {
		total, err := table.TotalStake()
		if err != nil {
			return nil, fmt.Errorf("invalid stake table of epoch %d: %w", epoch, err)
		}
		s.tables[epoch] = table.Clone()
		s.thresholds[epoch] = stake.SuperMajorityThreshold(total)
	}
	return s, nil
}

func (s *StaticSupplier) StakeTable(epoch consensus.Epoch) (stake.Table, uint256.Int, error) {
	table, ok := s.tables[epoch]
	if !ok {
		return nil, uint256.Int{}, fmt.Errorf("no stake table for epoch %d: %w", epoch, ErrEpochUnknown)
	}
	return table.Clone(), s.thresholds[epoch], nil
}
