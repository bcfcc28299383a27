package stake

import (
	"github.com/holiman/uint256"
)

// SuperMajorityThreshold returns the stake that is minimally required for building a QC.
func SuperMajorityThreshold(totalStake uint256.Int) uint256.Int {
	// Given totalStake, we need the smallest integer t such that 2 * totalStake / 3 < t
	// Formally, the minimally required stake is: 2 * Floor(totalStake/3) + max(1, totalStake mod 3)
	var floorOneThird, divRemainder uint256.Int
	floorOneThird.DivMod(&totalStake, uint256.NewInt(3), &divRemainder)
	var res uint256.Int
	res.Lsh(&floorOneThird, 1) // 2 * Floor(totalStake/3) <= totalStake, cannot overflow
	if divRemainder.LtUint64(2) {
		res.AddUint64(&res, 1)
	} else {
		res.Add(&res, &divRemainder)
	}
	return res
}

// HonestMajorityThreshold returns the stake that is minimally required for reaching honest majority.
func HonestMajorityThreshold(totalStake uint256.Int) uint256.Int {
	// smallest integer t such that totalStake / 3 < t, i.e. Floor(totalStake/3) + 1
	var res uint256.Int
	res.Div(&totalStake, uint256.NewInt(3))
	res.AddUint64(&res, 1)
	return res
}
