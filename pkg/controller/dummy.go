package controller

import "github.com/hanloveland/ramulator2-sub000/pkg/request"

// DummyController is a no-op controller: every send completes its request's
// callback immediately and reports itself perpetually finished. It exists as
// a conformance fixture for tests and callers that need a controller-shaped
// value but no timing behavior (e.g. exercising the address mapper or trace
// reader in isolation).
type DummyController struct{}

// NewDummy creates a DummyController.
func NewDummy() *DummyController { return &DummyController{} }

// Send fires req's callback synchronously and always succeeds.
func (d *DummyController) Send(req *request.Request) bool {
	if req.Callback != nil {
		req.Callback(req)
	}
	return true
}

// PrioritySend behaves identically to Send.
func (d *DummyController) PrioritySend(req *request.Request) bool {
	if req.Callback != nil {
		req.Callback(req)
	}
	return true
}

// Tick does nothing.
func (d *DummyController) Tick(clk request.Clock) error { return nil }

// IsFinished always reports true.
func (d *DummyController) IsFinished() bool { return true }
