package logging

import (
	"encoding/hex"
)

// Keys hex encodes a list of keys for log fields and reports.
func Keys(keys [][]byte) []string {
	ss := make([]string, 0, len(keys))
	for _, key := range keys {
		ss = append(ss, hex.EncodeToString(key))
	}
	return ss
}
