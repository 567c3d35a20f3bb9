// Package viewer shows a simplification session in an SDL2/OpenGL window
// and lets the user step through contractions.
//
// Controls: Space runs one batch of contractions, R runs to the target,
// W toggles the wireframe, F refits the camera, Esc quits. Drag with the
// right mouse button to orbit and scroll to zoom.
package viewer

import (
	"context"
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
)

const titlePrefix = "midgard-lod"

// Viewer owns the window, GL state and camera for one session.
type Viewer struct {
	log     *zap.Logger
	session *Session
	win     *window
	render  *renderer
	camera  *OrbitCamera

	rightMouseDown bool
}

// New opens a window for session. Must be called on the main goroutine.
func New(cfg WindowConfig, session *Session, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = titlePrefix
	}

	win, err := newWindow(cfg, log)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer()
	if err != nil {
		win.close()
		return nil, fmt.Errorf("renderer: %w", err)
	}

	v := &Viewer{
		log:     log,
		session: session,
		win:     win,
		render:  r,
		camera:  NewOrbitCamera(),
	}
	v.camera.FitToBounds(session.Bounds())
	return v, nil
}

// Close releases GL resources and the window.
func (v *Viewer) Close() {
	v.render.destroy()
	v.win.close()
}

// Run processes events and draws frames until the window is closed or ctx
// is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	v.updateTitle()

	running := true
	for running {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false

			case *sdl.MouseMotionEvent:
				if v.rightMouseDown {
					v.camera.HandleDrag(float32(e.XRel), float32(e.YRel))
				}

			case *sdl.MouseButtonEvent:
				if e.Button == sdl.BUTTON_RIGHT {
					v.rightMouseDown = e.State == sdl.PRESSED
				}

			case *sdl.MouseWheelEvent:
				v.camera.HandleZoom(float32(e.Y))

			case *sdl.KeyboardEvent:
				if e.State == sdl.PRESSED {
					running = v.handleKey(e.Keysym.Sym)
				}
			}
		}

		if buf, normals, changed := v.session.Frame(); changed {
			v.render.upload(buf, normals)
			v.updateTitle()
		}

		w, h := v.win.size()
		v.render.draw(v.camera.ViewMatrix(), v.camera.ProjectionMatrix(w, h), w, h)
		v.win.swap()
	}

	v.log.Info("viewer closed", zap.String("status", v.session.Status()))
	return nil
}

// handleKey applies a key press and reports whether the viewer keeps running.
func (v *Viewer) handleKey(key sdl.Keycode) bool {
	switch key {
	case sdl.K_ESCAPE:
		return false
	case sdl.K_SPACE:
		if n := v.session.Advance(); n > 0 {
			v.log.Debug("stepped", zap.Int("contractions", n), zap.String("status", v.session.Status()))
		}
	case sdl.K_r:
		n := v.session.Finish()
		v.log.Info("ran to target", zap.Int("contractions", n), zap.String("status", v.session.Status()))
	case sdl.K_w:
		v.render.wireframe = !v.render.wireframe
	case sdl.K_f:
		v.camera.FitToBounds(v.session.Bounds())
	}
	v.updateTitle()
	return true
}

func (v *Viewer) updateTitle() {
	title := titlePrefix + " | " + v.session.Status()
	if v.session.Done() {
		title += " | done"
	}
	v.win.setTitle(title)
}
