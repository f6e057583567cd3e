// Package xr manages the lifecycle of a head-mounted-display session: from
// system discovery through active frame rendering to clean teardown.
//
// A Session coordinates two collaborators it does not own. The device
// runtime (see the runtime package) owns the display, the compositor and
// every opaque handle; the host application owns the graphics context and
// the actual view rendering, which it supplies through callbacks configured
// before Start.
//
// The session is single-threaded and cooperative: drive it from the
// goroutine that owns your render loop. A typical loop polls runtime events,
// feeds them to HandleStateChanged, and calls Draw once per frame while the
// session is running:
//
//	sess, _ := xr.NewSession(rt,
//	    xr.WithGraphicsBinding(binding.TypeWGPU),
//	    xr.WithGraphicsContextBinder(bind, unbind),
//	    xr.WithViewRenderer(renderView),
//	)
//	if err := sess.Start(nil); err != nil { ... }
//	for {
//	    for ev, ok := rt.PollEvent(); ok; ev, ok = rt.PollEvent() {
//	        life, err := sess.HandleStateChanged(ev)
//	        if err != nil { ... }
//	        if life == xr.SessionDestroy {
//	            _ = sess.Destroy()
//	            return
//	        }
//	    }
//	    if sess.Running() {
//	        if err := sess.Draw(nil); err != nil { ... }
//	    }
//	}
//
// Draw blocks twice per frame: once waiting for the runtime's frame pacing
// and once waiting for swapchain image availability. Both are hand-offs to
// the runtime, not spin waits.
package xr
