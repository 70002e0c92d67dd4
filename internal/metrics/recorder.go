package metrics

// UpdateOutcome labels how a tick changed the dial.
type UpdateOutcome string

const (
	UpdateAdvanced UpdateOutcome = "advanced"
	UpdateReset    UpdateOutcome = "reset"
	UpdateCached   UpdateOutcome = "cached"
)

// RecoveryResult labels the outcome of a restart recovery attempt.
type RecoveryResult string

const (
	RecoveryRestored RecoveryResult = "restored"
	RecoveryNoData   RecoveryResult = "no_data"
	RecoveryRejected RecoveryResult = "rejected"
	RecoveryError    RecoveryResult = "error"
)

// PersistOp names a persistence gateway operation.
type PersistOp string

const (
	OpLoad PersistOp = "load"
	OpSave PersistOp = "save"
)

// Recorder defines observability hooks for the dial. Implementations may
// forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	ObserveDial(side, phase string, angle int)
	IncUpdate(outcome UpdateOutcome)
	IncSideFlip()
	IncRecovery(result RecoveryResult)
	IncPersistError(op PersistOp)
	IncSinkError(sink string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveDial(string, string, int) {}
func (NoopRecorder) IncUpdate(UpdateOutcome)         {}
func (NoopRecorder) IncSideFlip()                    {}
func (NoopRecorder) IncRecovery(RecoveryResult)      {}
func (NoopRecorder) IncPersistError(PersistOp)       {}
func (NoopRecorder) IncSinkError(string)             {}
