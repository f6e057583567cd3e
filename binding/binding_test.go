package binding

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr/runtime"
)

type testDevice struct{}

func (testDevice) Poll(wait bool) {}
func (testDevice) Destroy()       {}

type testQueue struct{}
type testAdapter struct{}

type testProvider struct{}

func (testProvider) Device() gpucontext.Device             { return testDevice{} }
func (testProvider) Queue() gpucontext.Queue               { return testQueue{} }
func (testProvider) Adapter() gpucontext.Adapter           { return testAdapter{} }
func (testProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (testProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

type testImage struct {
	data []byte
	err  error
}

func (i *testImage) UpdateData(data []byte) error {
	if i.err != nil {
		return i.err
	}
	i.data = append(i.data[:0], data...)
	return nil
}

func TestNew(t *testing.T) {
	b, err := New(TypeSoftware)
	if err != nil {
		t.Fatalf("New(TypeSoftware): %v", err)
	}
	if b.Type() != TypeSoftware {
		t.Errorf("Type() = %v, want %v", b.Type(), TypeSoftware)
	}

	for _, typ := range []Type{TypeUnknown, Type(42)} {
		if _, err := New(typ); !errors.Is(err, ErrUnknownType) {
			t.Errorf("New(%v) error = %v, want ErrUnknownType", typ, err)
		}
	}

	// wgpu bindings need device identity and cannot come from the factory;
	// the error must steer callers to WithBinding.
	_, err = New(TypeWGPU)
	if !errors.Is(err, ErrNeedsConstruction) {
		t.Errorf("New(TypeWGPU) error = %v, want ErrNeedsConstruction", err)
	}
	if err == nil || !strings.Contains(err.Error(), "WithBinding") {
		t.Errorf("New(TypeWGPU) error %q does not point at WithBinding", err)
	}
}

func TestTypeString(t *testing.T) {
	if got := TypeWGPU.String(); got != "wgpu" {
		t.Errorf("TypeWGPU.String() = %q", got)
	}
	if got := TypeSoftware.String(); got != "software" {
		t.Errorf("TypeSoftware.String() = %q", got)
	}
	if got := Type(99).String(); got != "unknown" {
		t.Errorf("Type(99).String() = %q", got)
	}
}

func TestSoftwareVersionCheck(t *testing.T) {
	s := NewSoftware()
	ok, _ := s.CheckVersionRequirements(testProvider{}, runtime.GraphicsRequirements{
		MinAPIVersion: runtime.Version{Major: 65535},
	})
	if !ok {
		t.Error("software binding must accept any version requirement")
	}
}

func TestSoftwareChooseFormat(t *testing.T) {
	s := NewSoftware()

	format, ok := s.ChooseSwapchainFormat([]gputypes.TextureFormat{
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatBGRA8Unorm,
	})
	if !ok || format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("ChooseSwapchainFormat = %v, %v; want first candidate", format, ok)
	}

	if _, ok := s.ChooseSwapchainFormat(nil); ok {
		t.Error("no candidates must not produce a format")
	}
}

func TestSoftwareRequiresInit(t *testing.T) {
	s := NewSoftware()
	if _, err := s.WrapSwapchainImages(nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("WrapSwapchainImages error = %v, want ErrNotInitialized", err)
	}
	if err := s.SubmitToSwapchain(&testImage{}, nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SubmitToSwapchain error = %v, want ErrNotInitialized", err)
	}
}

func TestSoftwareSubmit(t *testing.T) {
	s := NewSoftware()
	if err := s.InitFromContext(testProvider{}); err != nil {
		t.Fatalf("InitFromContext: %v", err)
	}

	img := &testImage{}
	if err := s.SubmitToSwapchain(img, []byte{9, 8, 7}); err != nil {
		t.Fatalf("SubmitToSwapchain: %v", err)
	}
	if len(img.data) != 3 || img.data[0] != 9 {
		t.Errorf("image data = %v, want [9 8 7]", img.data)
	}

	// Images without upload support are silently skipped.
	if err := s.SubmitToSwapchain(struct{}{}, []byte{1}); err != nil {
		t.Errorf("SubmitToSwapchain on plain image: %v", err)
	}

	img.err = errors.New("upload rejected")
	if err := s.SubmitToSwapchain(img, []byte{1}); !errors.Is(err, img.err) {
		t.Errorf("SubmitToSwapchain error = %v, want wrapped upload error", err)
	}
}

func TestSoftwareWrapPassesThrough(t *testing.T) {
	s := NewSoftware()
	if err := s.InitFromContext(testProvider{}); err != nil {
		t.Fatalf("InitFromContext: %v", err)
	}

	images := []runtime.SwapchainImage{&testImage{}, &testImage{}}
	wrapped, err := s.WrapSwapchainImages(images)
	if err != nil {
		t.Fatalf("WrapSwapchainImages: %v", err)
	}
	if len(wrapped) != 2 {
		t.Fatalf("got %d wrapped images, want 2", len(wrapped))
	}
	if wrapped[0] != images[0] {
		t.Error("wrapped image is not the runtime image")
	}
}
