package model

import "time"

// StatusUpdate is one progress event emitted while a long running
// operation works through its items.
type StatusUpdate struct {
	Finished    bool          `json:"finished"`
	Message     string        `json:"message"`
	PercentDone float64       `json:"percent_done"`
	Elapsed     time.Duration `json:"elapsed"`
}
