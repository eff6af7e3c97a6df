package main

import (
	"context"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"pkt.systems/pslog"

	"github.com/javanhut/svte/app"
	"github.com/javanhut/svte/config"
	"github.com/javanhut/svte/keybind"
	"github.com/javanhut/svte/layout"
	"github.com/javanhut/svte/render"
	"github.com/javanhut/svte/tab"
	"github.com/javanhut/svte/term"
	"github.com/javanhut/svte/window"
)

// waitTimeout bounds how long the loop sleeps without events, in seconds.
const waitTimeout = 0.5

type selector interface {
	Select(startRow, startCol, endRow, endCol int)
	ClearSelection()
}

// mouseState tracks a press that started either on a tab or in the grid.
type mouseState struct {
	tabFrom   int
	selecting bool
	startRow  int
	startCol  int
}

func run(ctx context.Context, themeName string) error {
	logger := pslog.Ctx(ctx)

	cfg, err := config.Default()
	if err != nil {
		return err
	}

	win, err := window.New(window.Config{
		Width:  cfg.WindowWidth,
		Height: cfg.WindowHeight,
		Title:  cfg.Title,
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithWake(window.Wake),
	}
	if themeName != "" {
		opts = append(opts, app.WithTheme(themeName))
	}
	a, err := app.New(cfg, func(id tab.ID, notify func(tab.Event)) tab.Session {
		return term.New(id, notify, term.WithLogger(logger))
	}, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	renderer, err := render.New(cfg.FontName, cfg.FontSize, a.Theme())
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Destroy()
	if family, fallback := renderer.Font(); fallback {
		logger.Warn("font not available, using built-in face", "font", cfg.FontName, "using", family)
	}

	frame := func() layout.Layout {
		return renderer.Layout(win.GetFramebufferSize())
	}
	resize := func() {
		cols, rows := frame().Grid()
		a.Tabs().ResizeAll(cols, rows)
	}
	resize()

	installCallbacks(win, a, frame, resize)
	stop := context.AfterFunc(ctx, window.Wake)
	defer stop()

	a.Start()
	for !win.ShouldClose() && ctx.Err() == nil {
		a.Drain()
		if a.Done() {
			break
		}
		width, height := win.GetFramebufferSize()
		win.SetViewport(width, height)
		renderer.Render(a.Tabs().Tabs(), a.Tabs().CurrentIndex(), width, height)
		win.SwapBuffers()
		window.WaitEvents(waitTimeout)
	}
	logger.Info("exit", "tabs_opened", a.Tabs().Counter())
	return nil
}

func installCallbacks(win *window.Window, a *app.App, frame func() layout.Layout, resize func()) {
	suppressChar := false
	mouse := &mouseState{tabFrom: -1}

	win.GLFW().SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		m, k := keybind.Modifier(mods), keybind.Key(key)
		suppressChar = term.ProducesText(m, k)
		consumed := false
		if action == glfw.Repeat {
			consumed = a.HandleRepeat(m, k)
		} else {
			consumed = a.HandleKey(m, k)
		}
		if !consumed {
			a.ForwardKey(m, k)
		}
	})

	win.GLFW().SetCharCallback(func(w *glfw.Window, char rune) {
		if suppressChar {
			suppressChar = false
			return
		}
		a.ForwardText(char)
	})

	win.GLFW().SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		win.SetViewport(width, height)
		resize()
	})

	win.GLFW().SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := cursor(win)
		l := frame()
		titles := tabTitles(a.Tabs())

		switch action {
		case glfw.Press:
			rects := l.Tabs(titles)
			if i, ok := layout.CloseAt(rects, x, y); ok {
				a.Tabs().CloseTab(a.Tabs().Tabs()[i].ID())
				return
			}
			if l.NewTabButton(rects).Contains(x, y) {
				a.Tabs().NewTab("")
				return
			}
			if i, ok := layout.TabAt(rects, x, y); ok {
				mouse.tabFrom = i
				a.Tabs().JumpTo(i)
				return
			}
			row, col, ok := l.CellAt(x, y)
			if !ok {
				return
			}
			if sel, ok := currentSelector(a); ok {
				sel.ClearSelection()
				mouse.selecting = true
				mouse.startRow, mouse.startCol = row, col
			}
		case glfw.Release:
			if mouse.tabFrom >= 0 {
				if i, ok := layout.TabAt(l.Tabs(titles), x, y); ok && i != mouse.tabFrom {
					a.Tabs().Move(mouse.tabFrom, i)
				}
				mouse.tabFrom = -1
			}
			mouse.selecting = false
		}
	})

	win.GLFW().SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !mouse.selecting {
			return
		}
		x, y := cursor(win)
		row, col, ok := frame().CellAt(x, y)
		if !ok {
			return
		}
		if sel, ok := currentSelector(a); ok {
			sel.Select(mouse.startRow, mouse.startCol, row, col)
		}
	})
}

// cursor returns the pointer position in framebuffer pixels.
func cursor(win *window.Window) (float64, float64) {
	x, y := win.GLFW().GetCursorPos()
	sx, sy := win.ContentScale()
	return x * sx, y * sy
}

func tabTitles(m *tab.Manager) []string {
	tabs := m.Tabs()
	titles := make([]string, len(tabs))
	for i, t := range tabs {
		titles[i] = t.Title()
	}
	return titles
}

func currentSelector(a *app.App) (selector, bool) {
	t := a.Tabs().Current()
	if t == nil {
		return nil, false
	}
	sel, ok := t.Session().(selector)
	return sel, ok
}
