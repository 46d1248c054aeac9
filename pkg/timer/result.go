package timer

import "time"

// RunResult is the measurement of one candidate.
type RunResult struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	// Iterations is the number of calls inside the timed window.
	Iterations int `json:"iterations"`
	// Elapsed is the timed window, calibration included for the inline strategy.
	Elapsed  time.Duration `json:"elapsed_ns"`
	Strategy string        `json:"strategy"`
	// CalibrationSteps counts how often the checkpoint was scaled up.
	CalibrationSteps int `json:"calibration_steps"`
	// Preview is the truncated result of the untimed first call.
	Preview string `json:"preview,omitempty"`
}

// ElapsedSeconds returns Elapsed in seconds.
func (r RunResult) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// OpsPerSec is iterations per elapsed second, or 0 when nothing was timed.
func (r RunResult) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Iterations) / r.Elapsed.Seconds()
}
