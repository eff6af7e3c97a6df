package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/javanhut/svte/assets"
)

func init() {
	// GLFW event handling must run on the main thread
	runtime.LockOSThread()
}

// ClassName is the X11 window class and instance name.
const ClassName = "svte"

// Config holds window configuration
type Config struct {
	Width  int
	Height int
	Title  string
}

// Window wraps a GLFW window with OpenGL context
type Window struct {
	glfw   *glfw.Window
	config Config
}

// New creates a GLFW window and makes its OpenGL context current.
func New(config Config) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// OpenGL context hints
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DoubleBuffer, glfw.True)

	glfw.WindowHintString(glfw.X11ClassName, ClassName)
	glfw.WindowHintString(glfw.X11InstanceName, ClassName)

	window, err := glfw.CreateWindow(config.Width, config.Height, config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	// Enable VSync
	glfw.SwapInterval(1)

	// Enable blending for text rendering
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	w := &Window{glfw: window, config: config}
	if icons, err := assets.Icons(); err == nil {
		window.SetIcon(icons)
	}
	return w, nil
}

// GLFW returns the underlying GLFW window
func (w *Window) GLFW() *glfw.Window {
	return w.glfw
}

// GetFramebufferSize returns the framebuffer size
func (w *Window) GetFramebufferSize() (int, int) {
	return w.glfw.GetFramebufferSize()
}

// ContentScale returns the ratio of framebuffer pixels to window
// coordinates. Cursor positions arrive in window coordinates.
func (w *Window) ContentScale() (float64, float64) {
	fw, fh := w.glfw.GetFramebufferSize()
	ww, wh := w.glfw.GetSize()
	if ww == 0 || wh == 0 {
		return 1, 1
	}
	return float64(fw) / float64(ww), float64(fh) / float64(wh)
}

// ShouldClose returns true if the window should close
func (w *Window) ShouldClose() bool {
	return w.glfw.ShouldClose()
}

// SetShouldClose sets the window close flag
func (w *Window) SetShouldClose(close bool) {
	w.glfw.SetShouldClose(close)
}

// SwapBuffers swaps the front and back buffers
func (w *Window) SwapBuffers() {
	w.glfw.SwapBuffers()
}

// SetViewport sets the OpenGL viewport
func (w *Window) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Destroy cleans up window resources
func (w *Window) Destroy() {
	w.glfw.Destroy()
	glfw.Terminate()
}

// WaitEvents blocks until an event arrives or the timeout in seconds
// elapses.
func WaitEvents(timeout float64) {
	glfw.WaitEventsTimeout(timeout)
}

// Wake unblocks WaitEvents from any goroutine.
func Wake() {
	glfw.PostEmptyEvent()
}

// ToolkitVersion returns the GLFW version string.
func ToolkitVersion() (string, error) {
	v := glfw.GetVersionString()
	if v == "" {
		return "", fmt.Errorf("glfw reported no version")
	}
	return v, nil
}
