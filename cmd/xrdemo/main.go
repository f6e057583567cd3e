// Command xrdemo drives a complete XR session lifecycle on the headless
// runtime: start, frame loop, graceful shutdown, teardown.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/binding"
	"github.com/gogpu/xr/runtime"
	_ "github.com/gogpu/xr/runtime/headless"
)

func main() {
	var (
		frames     = flag.Int("frames", 120, "frames to render before requesting exit")
		debugTimes = flag.Bool("debug-times", false, "log per-frame render timings")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose || *debugTimes {
		level = slog.LevelDebug
	}
	xr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	rt := runtime.Default()
	if rt == nil {
		log.Fatal("no XR runtime available")
	}

	sess, err := xr.NewSession(rt,
		xr.WithBinding(binding.NewSoftware()),
		xr.WithGraphicsContextBinder(bindContext, unbindContext),
		xr.WithViewRenderer(renderView),
		xr.WithDebugTimes(*debugTimes),
	)
	if err != nil {
		log.Fatalf("session creation failed: %v", err)
	}

	if err := sess.Start(nil); err != nil {
		_ = sess.Destroy()
		log.Fatalf("session start failed: %v", err)
	}

	rendered := 0
	for {
		for ev, ok := rt.PollEvent(); ok; ev, ok = rt.PollEvent() {
			life, err := sess.HandleStateChanged(ev)
			if err != nil {
				log.Fatalf("state change handling failed: %v", err)
			}
			if life == xr.SessionDestroy {
				if err := sess.Destroy(); err != nil {
					log.Fatalf("session teardown failed: %v", err)
				}
				log.Printf("session ended cleanly after %d frames", rendered)
				return
			}
		}

		if !sess.Running() {
			continue
		}
		if err := sess.Draw(rendered); err != nil {
			log.Fatalf("frame draw failed: %v", err)
		}
		rendered++
		if rendered == *frames {
			if err := sess.RequestEnd(); err != nil {
				log.Fatalf("session end request failed: %v", err)
			}
		}
	}
}

// renderView fills the view with a flat color that cycles over time, one
// shade per eye.
func renderView(info *xr.DrawViewInfo, customData any) ([]byte, error) {
	frame, _ := customData.(int)

	shade := byte(frame % 256)
	right := info.Pose.Position[0] > 0

	data := make([]byte, int(info.Width)*int(info.Height)*4)
	for i := 0; i < len(data); i += 4 {
		if right {
			data[i] = shade
		} else {
			data[i+2] = shade
		}
		data[i+3] = 0xff
	}
	return data, nil
}

// demoProvider is a minimal graphics context for the software binding.
type demoProvider struct{}

type demoDevice struct{}

func (demoDevice) Poll(wait bool) {}
func (demoDevice) Destroy()       {}

type demoQueue struct{}

type demoAdapter struct{}

func (demoProvider) Device() gpucontext.Device             { return demoDevice{} }
func (demoProvider) Queue() gpucontext.Queue               { return demoQueue{} }
func (demoProvider) Adapter() gpucontext.Adapter           { return demoAdapter{} }
func (demoProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (demoProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

func bindContext(binding.Type) gpucontext.DeviceProvider {
	return demoProvider{}
}

func unbindContext(binding.Type, gpucontext.DeviceProvider) {}
