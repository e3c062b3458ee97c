package engine

const (
	defaultScreenWidth  = 1280
	defaultScreenHeight = 720
)

// Viewport maps between screen pixels and scene units. It shows the scene
// box (X, Y, Width, Height) stretched over the screen.
type Viewport struct {
	X            float64
	Y            float64
	Width        float64
	Height       float64
	ScreenWidth  float64
	ScreenHeight float64

	opts Options
}

// NewViewport creates a viewport at zoom 1 with the scene origin at the
// top-left corner of the screen.
func NewViewport(screenWidth, screenHeight float64, opts Options) *Viewport {
	if screenWidth <= 0 || screenHeight <= 0 {
		screenWidth, screenHeight = defaultScreenWidth, defaultScreenHeight
	}
	return &Viewport{
		Width:        screenWidth,
		Height:       screenHeight,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		opts:         opts.withDefaults(),
	}
}

// Zoom returns screen pixels per scene unit along x.
func (v *Viewport) Zoom() float64 {
	return v.ScreenWidth / v.Width
}

// Matrix returns the scene-to-screen transform.
func (v *Viewport) Matrix() Matrix2D {
	return Scale(v.ScreenWidth/v.Width, v.ScreenHeight/v.Height).Multiply(Translate(-v.X, -v.Y))
}

// ToScene maps a pointer position to scene coordinates.
func (v *Viewport) ToScene(px, py float64) (float64, float64) {
	return v.Matrix().Invert().TransformPoint(px, py)
}

// ToScreen maps a scene point to screen pixels.
func (v *Viewport) ToScreen(x, y float64) (float64, float64) {
	return v.Matrix().TransformPoint(x, y)
}

// VisibleRect returns the scene box currently on screen.
func (v *Viewport) VisibleRect() Rect {
	screen := Rect{Width: v.ScreenWidth, Height: v.ScreenHeight}
	return v.Matrix().Invert().TransformRect(screen)
}

// ZoomIn magnifies by one zoom step around the visible midpoint.
func (v *Viewport) ZoomIn() {
	v.zoomBy(1 / v.opts.ZoomStep)
}

// ZoomOut shrinks by one zoom step around the visible midpoint.
func (v *Viewport) ZoomOut() {
	v.zoomBy(v.opts.ZoomStep)
}

// zoomBy scales the visible box by factor, keeping its midpoint fixed.
func (v *Viewport) zoomBy(factor float64) {
	width := v.Width * factor
	width = max(width, v.ScreenWidth/v.opts.MaxZoom)
	width = min(width, v.ScreenWidth/v.opts.MinZoom)
	ratio := width / v.Width

	cx, cy := v.X+v.Width/2, v.Y+v.Height/2
	v.Width = width
	v.Height *= ratio
	v.X = cx - v.Width/2
	v.Y = cy - v.Height/2
}

// Pan moves the visible box by one step in each given direction
// (-1, 0 or 1). The step is constant in screen pixels at any zoom.
func (v *Viewport) Pan(dx, dy float64) {
	step := v.opts.PanStep / v.Zoom()
	v.X += dx * step
	v.Y += dy * step
}

// Resize adapts to a new screen size while keeping the zoom level and origin.
func (v *Viewport) Resize(screenWidth, screenHeight float64) {
	if screenWidth <= 0 || screenHeight <= 0 {
		return
	}
	zx := v.ScreenWidth / v.Width
	zy := v.ScreenHeight / v.Height
	v.ScreenWidth = screenWidth
	v.ScreenHeight = screenHeight
	v.Width = screenWidth / zx
	v.Height = screenHeight / zy
}
