package consensus

import (
	"encoding/hex"
	"fmt"
)

// View is the round counter of the consensus protocol.
type View uint64

// Epoch indexes a span of views sharing one stake snapshot. Where an epoch is optional
// it is modelled as *Epoch, nil meaning "no epoch", which orders below every epoch.
type Epoch uint64

// EpochPtr returns a pointer to a copy of e.
func EpochPtr(e Epoch) *Epoch {
	return &e
}

// CopyEpoch returns an independent copy of an optional epoch.
func CopyEpoch(e *Epoch) *Epoch {
	if e == nil {
		return nil
	}
	dup := *e
	return &dup
}

// CompareEpochs orders optional epochs, nil being lower than any epoch.
// It returns -1, 0 or +1.
func CompareEpochs(a, b *Epoch) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// EpochString formats an optional epoch for logs.
func EpochString(e *Epoch) string {
	if e == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *e)
}

// Commitment is a SHA3-256 binding commitment to a value.
type Commitment [32]byte

func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// DRBResult is the output of the distributed random beacon for one epoch.
type DRBResult [32]byte

// Action is a kind of message a replica signs. Only Vote and Propose move the
// anti-equivocation mark.
type Action uint8

const (
	ActionVote Action = iota
	ActionPropose
	ActionTimeoutVote
	ActionViewSyncVote
	ActionDAPropose
	ActionDAVote
	ActionUpgradeVote
	ActionUpgradePropose
)

// AdvancesMark returns true for the actions after which the replica must never sign
// again at or below the acted-upon view.
func (a Action) AdvancesMark() bool {
	return a == ActionVote || a == ActionPropose
}

func (a Action) String() string {
	switch a {
	case ActionVote:
		return "vote"
	case ActionPropose:
		return "propose"
	case ActionTimeoutVote:
		return "timeout_vote"
	case ActionViewSyncVote:
		return "view_sync_vote"
	case ActionDAPropose:
		return "da_propose"
	case ActionDAVote:
		return "da_vote"
	case ActionUpgradeVote:
		return "upgrade_vote"
	case ActionUpgradePropose:
		return "upgrade_propose"
	default:
		return fmt.Sprintf("unknown_action_%d", uint8(a))
	}
}

// ActionMark is the anti-equivocation high-water mark: the highest view and epoch in
// which the replica voted or proposed.
type ActionMark struct {
	View  View
	Epoch *Epoch
}

// Advance returns the mark moved forward to (view, epoch). Each component only
// ever increases.
func (m ActionMark) Advance(view View, epoch *Epoch) ActionMark {
	next := ActionMark{View: m.View, Epoch: CopyEpoch(m.Epoch)}
	if view > next.View {
		next.View = view
	}
	if CompareEpochs(epoch, next.Epoch) > 0 {
		next.Epoch = CopyEpoch(epoch)
	}
	return next
}
