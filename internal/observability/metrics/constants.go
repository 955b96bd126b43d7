// Package metrics defines the Prometheus collectors for alert processing.
package metrics

import "time"

// Alert pipeline steps, used as the "step" label.
const (
	StepGeolocation = "geolocation"
	StepUpload      = "upload"
	StepDatabase    = "database"
	StepMirror      = "mirror"
)

// Notification outcomes, used as the "result" label.
const (
	ResultSent     = "sent"
	ResultFailed   = "failed"
	ResultDisabled = "disabled"
)

// Broadcast outcomes for extra notification channels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CodeTransportError is the "code" label for requests that got no response.
const CodeTransportError = "error"

// Histogram buckets from 10ms to 60s; uploads over slow links dominate.
var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}
