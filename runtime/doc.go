// Package runtime defines the protocol between the XR session layer and a
// device runtime: the software stack (SteamVR, a Windows Mixed Reality
// install, a compositor on Linux, or the in-process headless runtime) that
// owns the head-mounted display and compositing.
//
// A device runtime hands out opaque handles for systems, sessions, reference
// spaces and swapchains, delivers session lifecycle transitions through
// polled events, and drives the per-frame wait/begin/locate/end cycle. All
// calls are synchronous request/response except WaitFrame and
// WaitSwapchainImage, which block the calling goroutine until the runtime is
// ready.
//
// Runtimes are registered by name and selected via Get or Default, following
// the same factory-registry convention used for render backends elsewhere in
// the gogpu ecosystem.
package runtime
