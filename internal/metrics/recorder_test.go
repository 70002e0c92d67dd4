package metrics

import "testing"

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveDial("deer", "full_moon", 352)
	r.IncUpdate(UpdateAdvanced)
	r.IncSideFlip()
	r.IncRecovery(RecoveryNoData)
	r.IncPersistError(OpSave)
	r.IncSinkError("nats")
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var p *PrometheusRecorder
	p.ObserveDial("ship", "new_moon", 86)
	p.IncUpdate(UpdateReset)
	p.IncSideFlip()
	p.IncRecovery(RecoveryRestored)
	p.IncPersistError(OpLoad)
	p.IncSinkError("journal")
}
