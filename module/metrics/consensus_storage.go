package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/module"
)

type ConsensusStorageCollector struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	injectedFaults    *prometheus.CounterVec
	highQCView        *prometheus.GaugeVec
	lastActionedView  prometheus.Gauge
	lastActionedEpoch prometheus.Gauge
	migratedProposals prometheus.Counter
	loadDuration      prometheus.Gauge
}

var _ module.ConsensusStorageMetrics = (*ConsensusStorageCollector)(nil)

// NewConsensusStorageCollector creates the collector and registers its metrics with registerer.
func NewConsensusStorageCollector(registerer prometheus.Registerer) *ConsensusStorageCollector {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "operations_total",
		Namespace: namespaceStorage,
		Subsystem: subsystemConsensusStorage,
		Help:      "the number of consensus storage operations by kind and result",
	}, []string{LabelOperation, LabelResult})

	operationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "operation_duration_seconds",
		Namespace: namespaceStorage,
		Subsystem: subsystemConsensusStorage,
		Help:      "time spent in consensus storage operations, including lock contention and injected delays",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{LabelOperation})

	injectedFaults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "injected_faults_total",
		Namespace: namespaceStorage,
		Subsystem: subsystemConsensusStorage,
		Help:      "the number of operations failed by the fault injection policy",
	}, []string{LabelOperation})

	highQCView := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:      "high_qc_view",
		Namespace: namespaceStorage,
		Subsystem: subsystemConsensusStorage,
		Help:      "the view of the stored high QC per slot",
	}, []string{LabelSlot})

	lastActionedView := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "last_actioned_view",
		Namespace: namespaceStorage,
		Subsystem: subsystemConsensusStorage,
		Help:      "the highest view in which the replica voted or proposed",
	})

	lastActionedEpoch := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "last_actioned_epoch",
		Namespace: namespaceStorage,
		Subsystem: subsystemConsensusStorage,
		Help:      "the highest epoch in which the replica voted or proposed, -1 if none",
	})

	migratedProposals := prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "migrated_proposals_total",
		Namespace: namespaceStorage,
		Subsystem: subsystemConsensusStorage,
		Help:      "the number of quorum proposals copied into the revised generation",
	})

	loadDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "load_duration_seconds",
		Namespace: namespaceStorage,
		Subsystem: subsystemConsensusStorage,
		Help:      "time spent loading the persisted consensus state at startup",
	})

	registerer.MustRegister(
		operations,
		operationDuration,
		injectedFaults,
		highQCView,
		lastActionedView,
		lastActionedEpoch,
		migratedProposals,
		loadDuration,
	)
	lastActionedEpoch.Set(-1)

	return &ConsensusStorageCollector{
		operations:        operations,
		operationDuration: operationDuration,
		injectedFaults:    injectedFaults,
		highQCView:        highQCView,
		lastActionedView:  lastActionedView,
		lastActionedEpoch: lastActionedEpoch,
		migratedProposals: migratedProposals,
		loadDuration:      loadDuration,
	}
}

func (c *ConsensusStorageCollector) OperationCompleted(operation string, duration time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	c.operations.With(prometheus.Labels{LabelOperation: operation, LabelResult: result}).Inc()
	c.operationDuration.With(prometheus.Labels{LabelOperation: operation}).Observe(duration.Seconds())
}

func (c *ConsensusStorageCollector) InjectedFault(operation string) {
	c.injectedFaults.With(prometheus.Labels{LabelOperation: operation}).Inc()
}

func (c *ConsensusStorageCollector) HighQCUpdated(slot string, view consensus.View) {
	c.highQCView.With(prometheus.Labels{LabelSlot: slot}).Set(float64(view))
}

func (c *ConsensusStorageCollector) LastActionedUpdated(view consensus.View, epoch *consensus.Epoch) {
	c.lastActionedView.Set(float64(view))
	if epoch != nil {
		c.lastActionedEpoch.Set(float64(*epoch))
	}
}

func (c *ConsensusStorageCollector) ProposalsMigrated(count int) {
	c.migratedProposals.Add(float64(count))
}

func (c *ConsensusStorageCollector) StateLoaded(duration time.Duration) {
	c.loadDuration.Set(duration.Seconds())
}
