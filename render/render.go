// Package render draws the tab strip and the current session's screen
// with OpenGL.
package render

import (
	"fmt"
	"image/color"
	"strings"

	headlessterm "github.com/danielgatis/go-headless-term"
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/javanhut/svte/glyphs"
	"github.com/javanhut/svte/layout"
	"github.com/javanhut/svte/tab"
	"github.com/javanhut/svte/theme"
)

// Screen is a session whose emulator state can be drawn.
type Screen interface {
	Terminal() *headlessterm.Terminal
	Resolve(c color.Color, fg bool) color.RGBA
}

// fontSource is implemented by sessions that carry their own font.
type fontSource interface {
	Font() (family string, size float64)
}

type palette struct {
	background [4]float32
	foreground [4]float32
	tabBar     [4]float32
	tabActive  [4]float32
	tabAccent  [4]float32
	tabMuted   [4]float32
	selection  [4]float32
}

func paletteFor(t theme.Theme) palette {
	sel := vec(t.Palette[4])
	sel[3] = 0.35
	return palette{
		background: vec(t.Background),
		foreground: vec(t.Foreground),
		tabBar:     vec(t.Palette[0]),
		tabActive:  vec(t.Background),
		tabAccent:  vec(t.Palette[4]),
		tabMuted:   vec(t.Palette[8]),
		selection:  sel,
	}
}

// Renderer handles OpenGL rendering
type Renderer struct {
	colors palette
	atlas  *glyphs.Atlas
	family string
	size   float64

	// OpenGL resources
	quadVAO     uint32
	quadVBO     uint32
	program     uint32
	fontProgram uint32
	fontVAO     uint32
	fontVBO     uint32
	fontAtlas   uint32

	// Uniforms
	colorLoc    int32
	projLoc     int32
	texColorLoc int32
	texProjLoc  int32
	texLoc      int32
}

// New creates a renderer. It needs a current OpenGL context.
func New(family string, size float64, t theme.Theme) (*Renderer, error) {
	r := &Renderer{colors: paletteFor(t)}
	if err := r.initGL(); err != nil {
		return nil, err
	}
	if err := r.SetFont(family, size); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

// SetFont rebuilds the glyph atlas when the font changes.
func (r *Renderer) SetFont(family string, size float64) error {
	if r.atlas != nil && family == r.family && size == r.size {
		return nil
	}
	atlas, err := glyphs.Build(family, size, glyphs.DefaultDPI)
	if err != nil {
		return err
	}
	r.atlas, r.family, r.size = atlas, family, size

	w, h := atlas.Bounds()
	if r.fontAtlas == 0 {
		gl.GenTextures(1, &r.fontAtlas)
	}
	gl.BindTexture(gl.TEXTURE_2D, r.fontAtlas)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(w), int32(h), 0,
		gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(atlas.Image.Pix))

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// Font returns the family the atlas was built for and whether it had to
// fall back to the built-in face.
func (r *Renderer) Font() (family string, fallback bool) {
	return r.atlas.Family, r.atlas.Fallback
}

// Layout returns the frame geometry for a framebuffer size.
func (r *Renderer) Layout(width, height int) layout.Layout {
	return layout.New(width, height, r.atlas.CellWidth, r.atlas.CellHeight)
}

// initGL initializes OpenGL resources
func (r *Renderer) initGL() error {
	// Create quad shader program for colored rectangles
	vertShader := `
		#version 410 core
		layout (location = 0) in vec2 aPos;
		uniform mat4 projection;
		void main() {
			gl_Position = projection * vec4(aPos, 0.0, 1.0);
		}
	` + "\x00"

	fragShader := `
		#version 410 core
		out vec4 FragColor;
		uniform vec4 color;
		void main() {
			FragColor = color;
		}
	` + "\x00"

	var err error
	r.program, err = createProgram(vertShader, fragShader)
	if err != nil {
		return fmt.Errorf("failed to create quad shader: %w", err)
	}

	r.colorLoc = gl.GetUniformLocation(r.program, gl.Str("color\x00"))
	r.projLoc = gl.GetUniformLocation(r.program, gl.Str("projection\x00"))

	// Text shader: the atlas holds coverage in the red channel
	textVertShader := `
		#version 410 core
		layout (location = 0) in vec4 vertex; // <vec2 pos, vec2 tex>
		out vec2 TexCoords;
		uniform mat4 projection;
		void main() {
			gl_Position = projection * vec4(vertex.xy, 0.0, 1.0);
			TexCoords = vertex.zw;
		}
	` + "\x00"

	textFragShader := `
		#version 410 core
		in vec2 TexCoords;
		out vec4 FragColor;
		uniform sampler2D text;
		uniform vec4 textColor;
		void main() {
			float alpha = texture(text, TexCoords).r;
			FragColor = vec4(textColor.rgb, textColor.a * alpha);
		}
	` + "\x00"

	r.fontProgram, err = createProgram(textVertShader, textFragShader)
	if err != nil {
		return fmt.Errorf("failed to create text shader: %w", err)
	}

	r.texColorLoc = gl.GetUniformLocation(r.fontProgram, gl.Str("textColor\x00"))
	r.texProjLoc = gl.GetUniformLocation(r.fontProgram, gl.Str("projection\x00"))
	r.texLoc = gl.GetUniformLocation(r.fontProgram, gl.Str("text\x00"))

	gl.GenVertexArrays(1, &r.quadVAO)
	gl.GenBuffers(1, &r.quadVBO)
	gl.BindVertexArray(r.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 6*2*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	gl.GenVertexArrays(1, &r.fontVAO)
	gl.GenBuffers(1, &r.fontVBO)
	gl.BindVertexArray(r.fontVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.fontVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 6*4*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 4, gl.FLOAT, false, 4*4, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return nil
}

// Render draws one frame: the tab strip and the current tab's screen.
func (r *Renderer) Render(tabs []*tab.Tab, current int, width, height int) {
	proj := orthoMatrix(0, float32(width), float32(height), 0, -1, 1)

	bg := r.colors.background
	gl.ClearColor(bg[0], bg[1], bg[2], bg[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if current < 0 || current >= len(tabs) {
		r.renderTabBar(tabs, current, r.Layout(width, height), proj)
		return
	}
	if fs, ok := tabs[current].Session().(fontSource); ok {
		if family, size := fs.Font(); size > 0 {
			r.SetFont(family, size)
		}
	}
	l := r.Layout(width, height)
	r.renderTabBar(tabs, current, l, proj)
	if screen, ok := tabs[current].Session().(Screen); ok {
		r.renderScreen(screen, l, proj)
	}
}

func (r *Renderer) renderTabBar(tabs []*tab.Tab, current int, l layout.Layout, proj [16]float32) {
	r.drawRect(0, 0, float32(l.Width), float32(l.TabBarHeight()), r.colors.tabBar, proj)

	titles := make([]string, len(tabs))
	for i, t := range tabs {
		titles[i] = t.Title()
	}
	cw := float32(l.CellWidth)
	rects := l.Tabs(titles)
	for i, rect := range rects {
		x, y := float32(rect.X), float32(rect.Y)
		w, h := float32(rect.W), float32(rect.H)
		clr := r.colors.foreground
		if tabs[i].State() == tab.StateExited || tabs[i].Err() != nil {
			clr = r.colors.tabMuted
		}
		if i == current {
			r.drawRect(x, y, w, h, r.colors.tabActive, proj)
			r.drawRect(x, y+h-2, w, 2, r.colors.tabAccent, proj)
		} else {
			r.drawRect(x+w-1, y+layout.TabPadding, 1, h-2*layout.TabPadding, r.colors.tabMuted, proj)
		}
		r.drawText(x+cw, y+layout.TabPadding, rect.Label, false, clr, proj)
		r.drawChar(float32(rect.Close.X), y+layout.TabPadding, '×', false, r.colors.tabMuted, proj)
	}

	plus := l.NewTabButton(rects)
	r.drawChar(float32(plus.X)+cw, float32(plus.Y)+layout.TabPadding, '+', true, r.colors.foreground, proj)
}

func (r *Renderer) renderScreen(s Screen, l layout.Layout, proj [16]float32) {
	term := s.Terminal()
	ox, oy := l.GridOrigin()
	cw, ch := float32(l.CellWidth), float32(l.CellHeight)
	rows, cols := term.Rows(), term.Cols()

	for row := 0; row < rows; row++ {
		y := float32(oy) + float32(row)*ch
		for col := 0; col < cols; col++ {
			cell := term.Cell(row, col)
			if cell == nil || cell.HasFlag(headlessterm.CellFlagWideCharSpacer) {
				continue
			}
			x := float32(ox) + float32(col)*cw
			width := cw
			if cell.HasFlag(headlessterm.CellFlagWideChar) {
				width *= 2
			}

			fg := vec(s.Resolve(cell.Fg, true))
			bg := vec(s.Resolve(cell.Bg, false))
			if cell.HasFlag(headlessterm.CellFlagReverse) {
				fg, bg = bg, fg
			}
			if cell.HasFlag(headlessterm.CellFlagDim) {
				fg[3] *= 0.6
			}
			if bg != r.colors.background {
				r.drawRect(x, y, width, ch, bg, proj)
			}
			if term.IsSelected(row, col) {
				r.drawRect(x, y, width, ch, r.colors.selection, proj)
			}
			if cell.HasFlag(headlessterm.CellFlagHidden) {
				continue
			}
			if cell.Char != ' ' && cell.Char != 0 {
				r.drawChar(x, y, cell.Char, cell.HasFlag(headlessterm.CellFlagBold), fg, proj)
			}
			if cell.HasFlag(headlessterm.CellFlagUnderline) {
				r.drawRect(x, y+ch-1, width, 1, fg, proj)
			}
			if cell.HasFlag(headlessterm.CellFlagStrike) {
				r.drawRect(x, y+ch/2, width, 1, fg, proj)
			}
		}
	}

	if !term.CursorVisible() {
		return
	}
	row, col := term.CursorPos()
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return
	}
	x := float32(ox) + float32(col)*cw
	y := float32(oy) + float32(row)*ch
	r.drawRect(x, y, cw, ch, r.colors.foreground, proj)
	if cell := term.Cell(row, col); cell != nil && cell.Char != ' ' && cell.Char != 0 {
		r.drawChar(x, y, cell.Char, cell.HasFlag(headlessterm.CellFlagBold), r.colors.background, proj)
	}
}

func (r *Renderer) drawRect(x, y, w, h float32, clr [4]float32, proj [16]float32) {
	vertices := []float32{
		x, y,
		x + w, y,
		x + w, y + h,
		x, y,
		x + w, y + h,
		x, y + h,
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.projLoc, 1, false, &proj[0])
	gl.Uniform4fv(r.colorLoc, 1, &clr[0])

	gl.BindVertexArray(r.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}

// drawChar draws one atlas cell with its top-left corner at (x, y).
func (r *Renderer) drawChar(x, y float32, char rune, bold bool, clr [4]float32, proj [16]float32) {
	g, ok := r.atlas.Lookup(char, bold)
	if !ok {
		return
	}
	aw, ah := r.atlas.Bounds()
	w := float32(r.atlas.CellWidth)
	h := float32(r.atlas.CellHeight)

	tx := float32(g.X) / float32(aw)
	ty := float32(g.Y) / float32(ah)
	tw := w / float32(aw)
	th := h / float32(ah)

	vertices := []float32{
		x, y, tx, ty,
		x + w, y, tx + tw, ty,
		x + w, y + h, tx + tw, ty + th,
		x, y, tx, ty,
		x + w, y + h, tx + tw, ty + th,
		x, y + h, tx, ty + th,
	}

	gl.UseProgram(r.fontProgram)
	gl.UniformMatrix4fv(r.texProjLoc, 1, false, &proj[0])
	gl.Uniform4fv(r.texColorLoc, 1, &clr[0])
	gl.Uniform1i(r.texLoc, 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.fontAtlas)

	gl.BindVertexArray(r.fontVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.fontVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}

func (r *Renderer) drawText(x, y float32, text string, bold bool, clr [4]float32, proj [16]float32) {
	for _, char := range text {
		r.drawChar(x, y, char, bold, clr, proj)
		x += float32(r.atlas.CellWidth)
	}
}

// Destroy releases OpenGL resources.
func (r *Renderer) Destroy() {
	gl.DeleteVertexArrays(1, &r.quadVAO)
	gl.DeleteBuffers(1, &r.quadVBO)
	gl.DeleteVertexArrays(1, &r.fontVAO)
	gl.DeleteBuffers(1, &r.fontVBO)
	gl.DeleteProgram(r.program)
	gl.DeleteProgram(r.fontProgram)
	if r.fontAtlas != 0 {
		gl.DeleteTextures(1, &r.fontAtlas)
	}
}

func vec(c color.Color) [4]float32 {
	r, g, b, a := c.RGBA()
	return [4]float32{float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff, float32(a) / 0xffff}
}

// orthoMatrix creates an orthographic projection matrix
func orthoMatrix(left, right, bottom, top, near, far float32) [16]float32 {
	return [16]float32{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, -2 / (far - near), 0,
		-(right + left) / (right - left), -(top + bottom) / (top - bottom), -(far + near) / (far - near), 1,
	}
}

// createProgram creates a shader program from vertex and fragment shader sources
func createProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}

	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return program, nil
}

// compileShader compiles a shader from source
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to compile shader: %v", log)
	}

	return shader, nil
}
