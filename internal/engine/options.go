package engine

// Options tunes editor geometry. The zero Options means DefaultOptions.
// Otherwise invalid fields fall back to their defaults; zero is a valid
// GroupPadding and HitTolerance.
type Options struct {
	ZoomStep     float64 `yaml:"zoomStep" json:"zoomStep"`
	PanStep      float64 `yaml:"panStep" json:"panStep"` // screen pixels per pan step
	MinZoom      float64 `yaml:"minZoom" json:"minZoom"`
	MaxZoom      float64 `yaml:"maxZoom" json:"maxZoom"`
	MinShapeSize float64 `yaml:"minShapeSize" json:"minShapeSize"`
	MinTextWidth float64 `yaml:"minTextWidth" json:"minTextWidth"`
	GroupPadding float64 `yaml:"groupPadding" json:"groupPadding"`
	HitTolerance float64 `yaml:"hitTolerance" json:"hitTolerance"`
}

// DefaultOptions returns the stock editor tuning.
func DefaultOptions() Options {
	return Options{
		ZoomStep:     1.2,
		PanStep:      50,
		MinZoom:      0.1,
		MaxZoom:      10,
		MinShapeSize: 10,
		MinTextWidth: 100,
		GroupPadding: 10,
		HitTolerance: 5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o == (Options{}) {
		return d
	}
	if o.ZoomStep <= 1 {
		o.ZoomStep = d.ZoomStep
	}
	if o.PanStep <= 0 {
		o.PanStep = d.PanStep
	}
	if o.MinZoom <= 0 {
		o.MinZoom = d.MinZoom
	}
	if o.MaxZoom < o.MinZoom {
		o.MaxZoom = max(d.MaxZoom, o.MinZoom)
	}
	if o.MinShapeSize <= 0 {
		o.MinShapeSize = d.MinShapeSize
	}
	if o.MinTextWidth <= 0 {
		o.MinTextWidth = d.MinTextWidth
	}
	if o.GroupPadding < 0 {
		o.GroupPadding = d.GroupPadding
	}
	if o.HitTolerance < 0 {
		o.HitTolerance = d.HitTolerance
	}
	return o
}
