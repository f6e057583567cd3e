package xr

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/google/uuid"

	"github.com/gogpu/xr/binding"
	"github.com/gogpu/xr/runtime"
)

// Session owns one head-mounted-display session on a device runtime:
// the runtime session handle, the reference space, and the per-view
// swapchain pool. Exactly one Session exists per active run; all
// session-scoped resources are exclusively owned by it and die with it.
//
// Session is not safe for concurrent use. Drive it from the goroutine that
// owns the render loop.
type Session struct {
	id   uuid.UUID
	rt   runtime.Runtime
	opts sessionOptions

	system   runtime.SystemID
	handle   runtime.SessionHandle
	state    runtime.SessionState
	viewType runtime.ViewConfigurationType

	space    runtime.SpaceHandle
	basePose runtime.Pose
	views    []runtime.View
	pool     *swapchainPool

	gfxBinding binding.GraphicsBinding
	gpuCtx     gpucontext.DeviceProvider

	draw *drawState
}

// NewSession creates a session on the given runtime. Only stereo rendering
// is supported. The session does nothing until Start.
func NewSession(rt runtime.Runtime, opts ...Option) (*Session, error) {
	if rt == nil {
		return nil, fmt.Errorf("%w: nil runtime", ErrConfiguration)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Session{
		id:       uuid.New(),
		rt:       rt,
		opts:     options,
		viewType: runtime.ViewConfigurationStereo,
	}, nil
}

// ID returns the session's identity, for log correlation.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the last lifecycle state reported by the runtime.
func (s *Session) State() runtime.SessionState { return s.state }

// BasePose returns the base pose recorded at Start. The reference space is
// currently always a fixed local-origin space; the pose is kept so callers
// can apply it to their own camera instead. Known limitation, not a bug.
func (s *Session) BasePose() runtime.Pose { return s.basePose }

// Running reports whether the session exists and is in a state where the
// frame loop should be driven.
func (s *Session) Running() bool {
	if s.handle.IsZero() {
		return false
	}
	return s.state.Running()
}

// InitSystem resolves the head-mounted-display system on the runtime.
// Start calls it implicitly; calling it again once a system is resolved is
// a configuration error.
func (s *Session) InitSystem() error {
	if !s.system.IsZero() {
		return fmt.Errorf("%w: system already initialized", ErrConfiguration)
	}

	sys, err := s.rt.System(runtime.FormFactorHeadMountedDisplay)
	if err != nil {
		return fmt.Errorf("%w: failed to get device information (is a device plugged in and its runtime running?): %w",
			ErrDeviceNotFound, err)
	}
	s.system = sys

	Logger().Info("xr: system resolved", "session", s.id, "runtime", s.rt.Name())
	return nil
}

// Start brings the session up: system discovery, graphics context binding,
// driver validation, runtime session creation, swapchain pool preparation,
// and reference space creation.
//
// A failed Start leaves the session partially constructed; Destroy tears
// down whatever was built and is safe to call regardless of how far Start
// got.
func (s *Session) Start(info *BeginInfo) error {
	if !s.handle.IsZero() {
		return fmt.Errorf("%w: session already started", ErrConfiguration)
	}
	if s.opts.bindFn == nil {
		return fmt.Errorf("%w: no way to bind a graphics context to the session; "+
			"configure WithGraphicsContextBinder before calling Start", ErrConfiguration)
	}

	if s.system.IsZero() {
		if err := s.InitSystem(); err != nil {
			return err
		}
	}

	s.bindGraphicsContext()
	if s.gpuCtx == nil {
		return fmt.Errorf("%w: the callback configured with WithGraphicsContextBinder returned no "+
			"graphics context; one is required for session starting", ErrConfiguration)
	}

	b := s.opts.gfxBinding
	if b == nil {
		var err error
		b, err = binding.New(s.opts.bindingType)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	reqs, err := s.rt.GraphicsRequirements(s.system)
	if err != nil {
		return runtimeCall(err, "failed to query the runtime's graphics requirements")
	}
	if ok, requirement := b.CheckVersionRequirements(s.gpuCtx, reqs); !ok {
		return fmt.Errorf("%w: available graphics context version does not meet the following "+
			"requirements: %s", ErrIncompatibleDriver, requirement)
	}
	if err := b.InitFromContext(s.gpuCtx); err != nil {
		return fmt.Errorf("xr: graphics binding initialization failed: %w", err)
	}
	s.gfxBinding = b

	handle, err := s.rt.CreateSession(s.system, b.SessionGraphicsBinding())
	if err != nil {
		return runtimeCall(err, "failed to create the session; the runtime may have additional "+
			"requirements for the graphics driver that are not met")
	}
	s.handle = handle

	if err := s.prepareDrawing(); err != nil {
		return err
	}

	if info != nil {
		s.basePose = info.BasePose
	}
	if err := s.createReferenceSpace(); err != nil {
		return err
	}

	Logger().Info("xr: session created",
		"session", s.id, "binding", b.Type(), "views", len(s.views))
	return nil
}

// createReferenceSpace creates the space views are located in. Always a
// local space at the identity pose: proper reference space setup (origin,
// up direction, initial view rotation) is not supported yet, so the base
// pose from Start is recorded for the caller instead of applied here.
func (s *Session) createReferenceSpace() error {
	space, err := s.rt.CreateReferenceSpace(s.handle, runtime.ReferenceSpaceCreateInfo{
		Type: runtime.ReferenceSpaceLocal,
		Pose: runtime.IdentityPose(),
	})
	if err != nil {
		return runtimeCall(err, "failed to create reference space")
	}
	s.space = space
	return nil
}

// RequestEnd asks the runtime to wind the session down gracefully. It is
// asynchronous and changes no local state: the Stopping transition arrives
// later as a state change event.
func (s *Session) RequestEnd() error {
	if s.handle.IsZero() {
		return fmt.Errorf("%w: RequestEnd called without a created session", ErrConfiguration)
	}
	return runtimeCall(s.rt.RequestExitSession(s.handle), "failed to request session exit")
}

// End synchronously ends the runtime session, releases the bound graphics
// context, and discards frame driver state. Must only be called when a
// session exists; it is normally driven by the Stopping state change, not
// called directly.
func (s *Session) End() error {
	if s.handle.IsZero() {
		return fmt.Errorf("%w: End called without a created session", ErrConfiguration)
	}

	if err := s.rt.EndSession(s.handle); err != nil {
		return runtimeCall(err, "failed to cleanly end the session")
	}
	s.unbindGraphicsContext()
	s.draw = nil
	return nil
}

// HandleStateChanged reacts to a runtime state change event. On Ready it
// begins the session; on Stopping it performs End immediately, before the
// runtime proceeds to Exiting; on Exiting and LossPending it reports
// SessionDestroy: the owner must then call Destroy, the session never
// destroys itself. All other states are recorded without action.
func (s *Session) HandleStateChanged(ev runtime.SessionStateChange) (LifeExpectancy, error) {
	// The runtime may send events for an already destroyed session; our
	// handle is zero then. A live handle must match the event's.
	if !s.handle.IsZero() && !ev.Session.IsZero() && ev.Session != s.handle {
		return SessionKeepAlive, fmt.Errorf("%w: state change event for a different session",
			ErrConfiguration)
	}

	prev := s.state
	next, actions := transition(prev, ev.State)
	s.state = next
	Logger().Debug("xr: session state changed",
		"session", s.id, "from", prev, "to", next)

	switch {
	case actions.beginSession:
		if err := s.rt.BeginSession(s.handle, s.viewType); err != nil {
			return SessionKeepAlive, runtimeCall(err, "failed to cleanly begin the session")
		}
	case actions.endSession:
		if err := s.End(); err != nil {
			return SessionKeepAlive, err
		}
	case actions.destroy:
		return SessionDestroy, nil
	}

	return SessionKeepAlive, nil
}

// Destroy releases everything the session owns: swapchains, reference
// space, and the session handle, in that order, each only if it was
// actually created. It is idempotent and safe after a partially failed
// Start. Release failures are collected, not cascaded: teardown always runs
// to completion.
func (s *Session) Destroy() error {
	s.unbindGraphicsContext()

	var errs []error
	if s.pool != nil {
		errs = append(errs, s.pool.destroy(s.rt)...)
		s.pool = nil
	}
	if !s.space.IsZero() {
		if err := s.rt.DestroySpace(s.space); err != nil {
			errs = append(errs, runtimeCall(err, "failed to destroy reference space"))
		}
		s.space = 0
	}
	if !s.handle.IsZero() {
		if err := s.rt.DestroySession(s.handle); err != nil {
			errs = append(errs, runtimeCall(err, "failed to destroy session"))
		}
		s.handle = 0
	}

	s.views = nil
	s.draw = nil
	s.state = runtime.StateUnknown

	if len(errs) > 0 {
		Logger().Warn("xr: session teardown released with errors",
			"session", s.id, "errors", len(errs))
	}
	return errors.Join(errs...)
}

// bindGraphicsContext obtains the borrowed graphics context from the host.
func (s *Session) bindGraphicsContext() {
	s.gpuCtx = s.opts.bindFn(s.opts.bindingType)
}

// unbindGraphicsContext hands the context back, if an unbind callback was
// supplied. Its absence is not an error: cleanup then happens elsewhere.
func (s *Session) unbindGraphicsContext() {
	if s.gpuCtx == nil {
		return
	}
	if s.opts.unbindFn != nil {
		s.opts.unbindFn(s.opts.bindingType, s.gpuCtx)
	}
	s.gpuCtx = nil
}
