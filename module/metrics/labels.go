package metrics

const (
	LabelOperation = "operation"
	LabelResult    = "result"
	LabelResource  = "resource"
	LabelSlot      = "slot"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

const (
	ResourceQCParams = "qc_params"
)

const (
	SlotHighQC           = "high_qc"
	SlotHighQC2          = "high_qc2"
	SlotNextEpochHighQC2 = "next_epoch_high_qc2"
)
