// Package telemetry records request, pipeline, query and process metrics.
package telemetry

import "time"

// Recorder receives measurements. Implementations must not block or fail the caller.
type Recorder interface {
	ObserveRequest(method, endpoint string, status int, duration time.Duration)
	RequestStarted()
	RequestFinished()
	ObserveOperation(operation, outcome string, duration time.Duration)
	ObserveQuery(queryType string, duration time.Duration)
}

type nop struct{}

func (nop) ObserveRequest(string, string, int, time.Duration) {}
func (nop) RequestStarted()                                   {}
func (nop) RequestFinished()                                  {}
func (nop) ObserveOperation(string, string, time.Duration)    {}
func (nop) ObserveQuery(string, time.Duration)                {}

// Nop discards every measurement.
var Nop Recorder = nop{}
