package metrics

// Prometheus metric namespaces
const (
	namespaceConsensus = "consensus"
	namespaceStorage   = "storage"
)

// Storage subsystems
const (
	subsystemConsensusStorage = "consensus_storage"
)

// Consensus subsystems
const (
	subsystemCommittee = "committee"
)
