package chart

// Figure is a renderable chart specification in the shape a plotly-style
// plotting surface consumes: a list of traces plus a layout carrying
// shapes, annotations and axis configuration. It is built fresh on every
// request and discarded after rendering.
type Figure struct {
	Data   []*Trace `json:"data"`
	Layout *Layout  `json:"layout"`
}

// Trace is a single data series. Marker size and color are per-point,
// which is how threshold styling is expressed without splitting the
// series.
type Trace struct {
	Type          string    `json:"type"`
	X             []string  `json:"x"`
	Y             []float64 `json:"y"`
	Mode          string    `json:"mode"`
	Name          string    `json:"name,omitempty"`
	Line          *Line     `json:"line,omitempty"`
	Marker        *Marker   `json:"marker,omitempty"`
	Text          []string  `json:"text,omitempty"`
	CustomData    []string  `json:"customdata,omitempty"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
	ShowLegend    *bool     `json:"showlegend,omitempty"`
}

// Line styles a trace line or a shape edge.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

// Marker styles trace points, one entry per point.
type Marker struct {
	Size  []int    `json:"size,omitempty"`
	Color []string `json:"color,omitempty"`
}

// Layout holds everything around the traces.
type Layout struct {
	Height       int           `json:"height"`
	Margin       *Margin       `json:"margin,omitempty"`
	Legend       *Legend       `json:"legend,omitempty"`
	XAxis        *Axis         `json:"xaxis,omitempty"`
	YAxis        *Axis         `json:"yaxis,omitempty"`
	Shapes       []*Shape      `json:"shapes,omitempty"`
	Annotations  []*Annotation `json:"annotations,omitempty"`
	PlotBGColor  string        `json:"plot_bgcolor,omitempty"`
	PaperBGColor string        `json:"paper_bgcolor,omitempty"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// Legend places the trace legend.
type Legend struct {
	Orientation string  `json:"orientation,omitempty"`
	YAnchor     string  `json:"yanchor,omitempty"`
	Y           float64 `json:"y"`
	XAnchor     string  `json:"xanchor,omitempty"`
	X           float64 `json:"x"`
}

// Axis configures one axis. A nil Range lets the surface autoscale;
// the temperature axis always sets an explicit range.
type Axis struct {
	Title    *AxisTitle `json:"title,omitempty"`
	Range    []float64  `json:"range,omitempty"`
	ShowGrid *bool      `json:"showgrid,omitempty"`
}

// AxisTitle is the axis title text.
type AxisTitle struct {
	Text string `json:"text"`
}

// Shape is a line overlay. Coordinates are strings for date axes,
// numbers for value or paper axes, so they stay loosely typed.
type Shape struct {
	Type  string `json:"type"`
	X0    any    `json:"x0"`
	X1    any    `json:"x1"`
	Y0    any    `json:"y0"`
	Y1    any    `json:"y1"`
	XRef  string `json:"xref,omitempty"`
	YRef  string `json:"yref,omitempty"`
	Line  *Line  `json:"line,omitempty"`
	Layer string `json:"layer,omitempty"`
}

// Annotation is positioned text, optionally with an arrow from the text
// to the anchor point.
type Annotation struct {
	X           any     `json:"x"`
	Y           any     `json:"y"`
	XRef        string  `json:"xref,omitempty"`
	YRef        string  `json:"yref,omitempty"`
	Text        string  `json:"text"`
	ShowArrow   bool    `json:"showarrow"`
	ArrowHead   int     `json:"arrowhead,omitempty"`
	ArrowSize   float64 `json:"arrowsize,omitempty"`
	ArrowColor  string  `json:"arrowcolor,omitempty"`
	AX          float64 `json:"ax"`
	AY          float64 `json:"ay"`
	XAnchor     string  `json:"xanchor,omitempty"`
	XShift      float64 `json:"xshift,omitempty"`
	YShift      float64 `json:"yshift,omitempty"`
	VAlign      string  `json:"valign,omitempty"`
	Align       string  `json:"align,omitempty"`
	BGColor     string  `json:"bgcolor,omitempty"`
	BorderColor string  `json:"bordercolor,omitempty"`
	BorderWidth float64 `json:"borderwidth,omitempty"`
	Font        *Font   `json:"font,omitempty"`
}

// Font styles annotation text.
type Font struct {
	Size  int    `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}
