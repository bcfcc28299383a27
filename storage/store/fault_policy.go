package store

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/atomic"
	"gopkg.in/yaml.v2"

	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/utils/rand"
)

// Operation identifies an operation of the consensus storage engine.
type Operation uint8

const (
	OpAppendDA Operation = iota
	OpAppendDA2
	OpAppendProposal
	OpAppendProposal2
	OpAppendProposalWrapper
	OpAppendVID
	OpAppendVID2
	OpRecordAction
	OpUpdateHighQC
	OpUpdateHighQC2
	OpUpdateNextEpochHighQC2
	OpUpdateStateCert
	OpUpdateDecidedUpgradeCertificate
	OpMigrateConsensus
	OpAddDRBResult
	OpAddEpochRoot
	OpDAProposals
	OpDAProposals2
	OpQuorumProposals
	OpQuorumProposals2
	OpQuorumProposalWrappers
	OpQuorumProposalWrappersInRange
	OpVIDShares
	OpVIDShares2
	OpHighQC
	OpHighQC2
	OpNextEpochHighQC2
	OpLastActioned
	OpLatestStateCert
	OpStateCert
	OpDRBResult
	OpDRBResults
	OpEpochRoot
	OpDecidedUpgradeCertificate

	numOperations
)

var operationNames = [numOperations]string{
	OpAppendDA:                        "append_da",
	OpAppendDA2:                       "append_da2",
	OpAppendProposal:                  "append_proposal",
	OpAppendProposal2:                 "append_proposal2",
	OpAppendProposalWrapper:           "append_proposal_wrapper",
	OpAppendVID:                       "append_vid",
	OpAppendVID2:                      "append_vid2",
	OpRecordAction:                    "record_action",
	OpUpdateHighQC:                    "update_high_qc",
	OpUpdateHighQC2:                   "update_high_qc2",
	OpUpdateNextEpochHighQC2:          "update_next_epoch_high_qc2",
	OpUpdateStateCert:                 "update_state_cert",
	OpUpdateDecidedUpgradeCertificate: "update_decided_upgrade_certificate",
	OpMigrateConsensus:                "migrate_consensus",
	OpAddDRBResult:                    "add_drb_result",
	OpAddEpochRoot:                    "add_epoch_root",
	OpDAProposals:                     "da_proposals",
	OpDAProposals2:                    "da_proposals2",
	OpQuorumProposals:                 "quorum_proposals",
	OpQuorumProposals2:                "quorum_proposals2",
	OpQuorumProposalWrappers:          "quorum_proposal_wrappers",
	OpQuorumProposalWrappersInRange:   "quorum_proposal_wrappers_in_range",
	OpVIDShares:                       "vid_shares",
	OpVIDShares2:                      "vid_shares2",
	OpHighQC:                          "high_qc",
	OpHighQC2:                         "high_qc2",
	OpNextEpochHighQC2:                "next_epoch_high_qc2",
	OpLastActioned:                    "last_actioned",
	OpLatestStateCert:                 "latest_state_cert",
	OpStateCert:                       "state_cert",
	OpDRBResult:                       "drb_result",
	OpDRBResults:                      "drb_results",
	OpEpochRoot:                       "epoch_root",
	OpDecidedUpgradeCertificate:       "decided_upgrade_certificate",
}

func (o Operation) String() string {
	if o >= numOperations {
		return fmt.Sprintf("unknown_operation_%d", uint8(o))
	}
	return operationNames[o]
}

// Operations returns every operation of the engine.
func Operations() []Operation {
	ops := make([]Operation, 0, numOperations)
	for o := Operation(0); o < numOperations; o++ {
		ops = append(ops, o)
	}
	return ops
}

// ParseOperation returns the operation with the given name.
func ParseOperation(name string) (Operation, error) {
	for o, n := range operationNames {
		if n == name {
			return Operation(o), nil
		}
	}
	return 0, fmt.Errorf("unknown storage operation %q", name)
}

// DelayOption selects how an operation is delayed.
type DelayOption string

const (
	DelayNone   DelayOption = "none"
	DelayFixed  DelayOption = "fixed"
	DelayRandom DelayOption = "random"
)

// DelaySetting delays an operation by Min (fixed) or by a uniformly random duration
// in [Min, Max] (random).
type DelaySetting struct {
	Option DelayOption   `yaml:"option"`
	Min    time.Duration `yaml:"min"`
	Max    time.Duration `yaml:"max"`
}

func (d DelaySetting) validate() error {
	switch d.Option {
	case "", DelayNone:
		return nil
	case DelayFixed:
		if d.Min < 0 {
			return fmt.Errorf("fixed delay must not be negative, got %v", d.Min)
		}
		return nil
	case DelayRandom:
		if d.Min < 0 || d.Max < d.Min {
			return fmt.Errorf("random delay needs 0 <= min <= max, got [%v, %v]", d.Min, d.Max)
		}
		return nil
	default:
		return fmt.Errorf("unknown delay option %q", d.Option)
	}
}

// duration returns the delay to apply. A failing entropy source falls back to Min, as
// delays cannot fail an operation.
func (d DelaySetting) duration() time.Duration {
	switch d.Option {
	case DelayFixed:
		return d.Min
	case DelayRandom:
		delay, err := rand.DurationBetween(d.Min, d.Max)
		if err != nil {
			return d.Min
		}
		return delay
	default:
		return 0
	}
}

// FaultSetting configures the faults injected into one operation.
type FaultSetting struct {
	Fail  bool         `yaml:"fail"`
	Delay DelaySetting `yaml:"delay"`
}

// FaultPolicy injects failures and delays into the operations of the engine. A nil
// policy injects nothing. The policy is immutable once created.
type FaultPolicy struct {
	settings map[Operation]FaultSetting
	failures *atomic.Uint64
	delays   *atomic.Uint64
}

// NewFaultPolicy creates a policy from per-operation settings.
func NewFaultPolicy(settings map[Operation]FaultSetting) (*FaultPolicy, error) {
	p := &FaultPolicy{
		settings: make(map[Operation]FaultSetting, len(settings)),
		failures: atomic.NewUint64(0),
		delays:   atomic.NewUint64(0),
	}
	for op, setting := range settings {
		if op >= numOperations {
			return nil, fmt.Errorf("unknown storage operation %d", op)
		}
		err := setting.Delay.validate()
		if err != nil {
			return nil, fmt.Errorf("invalid delay for %s: %w", op, err)
		}
		p.settings[op] = setting
	}
	return p, nil
}

// ParseFaultPolicy reads a policy from YAML, a mapping of operation names to settings:
//
//	record_action:
//	  fail: true
//	append_da:
//	  delay: {option: random, min: 5ms, max: 20ms}
func ParseFaultPolicy(data []byte) (*FaultPolicy, error) {
	var raw map[string]FaultSetting
	err := yaml.UnmarshalStrict(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("could not decode fault policy: %w", err)
	}
	settings := make(map[Operation]FaultSetting, len(raw))
	for name, setting := range raw {
		op, err := ParseOperation(name)
		if err != nil {
			return nil, err
		}
		settings[op] = setting
	}
	return NewFaultPolicy(settings)
}

// LoadFaultPolicy reads a YAML policy from a file.
func LoadFaultPolicy(path string) (*FaultPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read fault policy file: %w", err)
	}
	return ParseFaultPolicy(data)
}

// check returns an error wrapping storage.ErrInjectedFault if op is configured to fail.
func (p *FaultPolicy) check(op Operation) error {
	if p == nil {
		return nil
	}
	if !p.settings[op].Fail {
		return nil
	}
	p.failures.Inc()
	return fmt.Errorf("%s: %w", op, storage.ErrInjectedFault)
}

// delay blocks for the delay configured for op.
func (p *FaultPolicy) delay(op Operation) {
	if p == nil {
		return
	}
	d := p.settings[op].Delay.duration()
	if d <= 0 {
		return
	}
	p.delays.Inc()
	time.Sleep(d)
}

// Failures returns the number of failures injected so far.
func (p *FaultPolicy) Failures() uint64 {
	if p == nil {
		return 0
	}
	return p.failures.Load()
}

// Delays returns the number of delays injected so far.
func (p *FaultPolicy) Delays() uint64 {
	if p == nil {
		return 0
	}
	return p.delays.Load()
}
