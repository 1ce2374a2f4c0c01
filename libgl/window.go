package libgl

import (
	"fmt"
	"unsafe"

	"emerald/libctx"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowOptions struct {
	Title         string
	Width, Height int
	Visible       bool
	Device        DeviceOptions
}

// Window couples a glfw window with the rendering context created on it.
// glfw must be initialized and the calling goroutine locked to its OS thread.
type Window struct {
	Glfw    *glfw.Window
	Context *libctx.Context
	Device  *Device
}

// NewWindowContext creates a GL 4.5 core window and announces its context through callbacks.
func NewWindowContext(options WindowOptions, callbacks *libctx.CallbackManager) (*Window, error) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if options.Device.Debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}
	if !options.Visible {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}
	window, err := glfw.CreateWindow(options.Width, options.Height, options.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create window %q: %w", options.Title, err)
	}
	window.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("could not load OpenGL functions: %w", err)
	}

	device := NewDevice(options.Device)
	return &Window{
		Glfw:    window,
		Context: libctx.NewContext(options.Title, device, callbacks),
		Device:  device,
	}, nil
}

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (width, height int) {
	return w.Glfw.GetFramebufferSize()
}

// Destroy notifies subscribers, releases the device and closes the window.
func (w *Window) Destroy() {
	w.Glfw.MakeContextCurrent()
	w.Context.Destroy()
	w.Glfw.Destroy()
}
