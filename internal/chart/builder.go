package chart

import (
	"fmt"
	"sort"
	"time"

	"github.com/afroash/fevertrack/internal/models"
)

// TempCritical is the temperature (°C) considered critical on the chart.
// Kept here so the threshold line, marker styling and UI agree on it.
const TempCritical = 39.8

// Fixed temperature axis bounds. The chart never autoscales to data so
// repeated views stay visually comparable.
const (
	yMinDefault = 36.0
	yMaxDefault = 41.0
)

const (
	markerSizeNormal = 6
	markerSizeAlert  = 10

	laneBaseGap = 0.2
	laneStep    = 0.35

	colorNormal   = "#1976d2"
	colorAlert    = "#d32f2f"
	colorMed      = "#e53935"
	colorGridline = "rgba(0,0,0,0.25)"
	colorAxisText = "rgba(0,0,0,0.7)"
)

// chartTimeLayout is how timestamps appear on the figure's date axis.
const chartTimeLayout = "2006-01-02 15:04"

// Options configures a Builder.
type Options struct {
	Height        int // plot height in pixels
	MaxLanes      int // number of medication label lanes
	WindowMinutes int // min spacing within one lane
}

// DefaultOptions returns the options used by the dashboard.
func DefaultOptions() Options {
	return Options{
		Height:        700,
		MaxLanes:      3,
		WindowMinutes: 180,
	}
}

// Builder assembles timeline figures from temperature readings and
// medication events. It holds no state between builds; every call to
// Build is an independent, pure computation.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder, filling unset options with defaults.
func NewBuilder(opts Options) *Builder {
	if opts.Height <= 0 {
		opts.Height = 700
	}
	if opts.MaxLanes <= 0 {
		opts.MaxLanes = 3
	}
	if opts.WindowMinutes <= 0 {
		opts.WindowMinutes = 180
	}
	return &Builder{opts: opts}
}

// Build merges the two time-series into one figure: the temperature
// trace with threshold-styled markers, hourly gridlines over the union
// of both series, medication guide lines with lane-stacked labels, an
// invisible hover layer, and the critical-threshold line. Both inputs
// may be empty; the figure then degrades to threshold line and default
// axis bounds. Readings are expected in ascending time order for the
// line trace; gridline bounds are found by full scan and do not rely on
// it. now feeds the relative-time hover text and is read exactly once —
// pass a fixed value for deterministic output, or zero for wall clock.
func (b *Builder) Build(readings []*models.TemperatureReading, meds []*models.MedicationEvent, now time.Time) *Figure {
	if now.IsZero() {
		now = time.Now()
	}

	yMin, yMax := yMinDefault, yMaxDefault

	fig := &Figure{
		Layout: &Layout{
			Height:       b.opts.Height,
			Margin:       &Margin{L: 40, R: 20, T: 40, B: 40},
			Legend:       &Legend{Orientation: "h", YAnchor: "bottom", Y: 1.02, XAnchor: "right", X: 1},
			XAxis:        &Axis{Title: &AxisTitle{Text: "Time"}},
			YAxis:        &Axis{Title: &AxisTitle{Text: "Temperature (°C)"}},
			PlotBGColor:  "white",
			PaperBGColor: "white",
		},
	}

	if len(readings) > 0 {
		fig.Data = append(fig.Data, temperatureTrace(readings))
	}

	b.addHourGridlines(fig, readings, meds)

	maxLaneUsed := 0
	if len(meds) > 0 {
		maxLaneUsed = b.addMedications(fig, meds, yMin, yMax, now)
	}

	b.addThreshold(fig)

	// Headroom above the fixed ceiling so the highest-lane label is
	// never clipped.
	headroom := 0.8
	if len(meds) > 0 {
		headroom += laneStep * float64(maxLaneUsed)
	}
	fig.Layout.YAxis.Range = []float64{yMin - 0.5, yMax + headroom}

	return fig
}

// temperatureTrace renders one connected line+marker series. Readings at
// or above the critical threshold get large alert-colored markers; the
// classification is per point, the line stays connected across both.
func temperatureTrace(readings []*models.TemperatureReading) *Trace {
	x := make([]string, len(readings))
	y := make([]float64, len(readings))
	sizes := make([]int, len(readings))
	colors := make([]string, len(readings))

	for i, r := range readings {
		x[i] = r.RecordedAt.Format(chartTimeLayout)
		y[i] = r.TemperatureC
		if r.TemperatureC >= TempCritical {
			sizes[i] = markerSizeAlert
			colors[i] = colorAlert
		} else {
			sizes[i] = markerSizeNormal
			colors[i] = colorNormal
		}
	}

	return &Trace{
		Type:   "scatter",
		X:      x,
		Y:      y,
		Mode:   "lines+markers",
		Name:   "Temperature (°C)",
		Line:   &Line{Color: colorNormal},
		Marker: &Marker{Size: sizes, Color: colors},
	}
}

// addHourGridlines emits one dotted full-height gridline per hour from
// the floor of the earliest timestamp to the ceiling of the latest, over
// the union of both series. Hours divisible by six get the larger bold
// label. With no data at all there is no knowable span, so nothing is
// drawn.
func (b *Builder) addHourGridlines(fig *Figure, readings []*models.TemperatureReading, meds []*models.MedicationEvent) {
	var tmin, tmax time.Time
	seen := false

	observe := func(t time.Time) {
		if !seen {
			tmin, tmax = t, t
			seen = true
			return
		}
		if t.Before(tmin) {
			tmin = t
		}
		if t.After(tmax) {
			tmax = t
		}
	}

	for _, r := range readings {
		observe(r.RecordedAt)
	}
	for _, m := range meds {
		observe(m.GivenAt)
	}
	if !seen {
		return
	}

	start := tmin.Truncate(time.Hour)
	end := ceilHour(tmax)

	for cur := start; !cur.After(end); cur = cur.Add(time.Hour) {
		fig.Layout.Shapes = append(fig.Layout.Shapes, &Shape{
			Type:  "line",
			X0:    cur.Format(chartTimeLayout),
			X1:    cur.Format(chartTimeLayout),
			Y0:    0,
			Y1:    1,
			XRef:  "x",
			YRef:  "paper",
			Line:  &Line{Color: colorGridline, Width: 1, Dash: "dot"},
			Layer: "below",
		})

		major := cur.Hour()%6 == 0
		label := cur.Format("15:04")
		size := 9
		if major {
			label = "<b>" + label + "</b>"
			size = 12
		}
		fig.Layout.Annotations = append(fig.Layout.Annotations, &Annotation{
			X:      cur.Format(chartTimeLayout),
			Y:      0,
			XRef:   "x",
			YRef:   "paper",
			Text:   label,
			VAlign: "bottom",
			YShift: 6,
			Font:   &Font{Size: size, Color: colorAxisText},
		})
	}
}

// addMedications sorts the events, assigns lanes, and emits the guide
// line, arrow label and hover point for each event. Returns the highest
// lane used so the layout can reserve headroom for it.
func (b *Builder) addMedications(fig *Figure, meds []*models.MedicationEvent, yMin, yMax float64, now time.Time) int {
	sorted := make([]*models.MedicationEvent, len(meds))
	copy(sorted, meds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GivenAt.Before(sorted[j].GivenAt)
	})

	window := time.Duration(b.opts.WindowMinutes) * time.Minute
	lanes := assignLanes(sorted, b.opts.MaxLanes, window)

	hover := &Trace{
		Type:          "scatter",
		Mode:          "markers",
		Name:          "Medication",
		HoverTemplate: "%{text}<br>%{x|%Y-%m-%d %H:%M}<br>%{customdata}<extra></extra>",
		ShowLegend:    boolPtr(false),
	}

	for i, ev := range sorted {
		lane := lanes[i]
		x := ev.GivenAt.Format(chartTimeLayout)
		yLabel := yMax + laneBaseGap + float64(lane)*laneStep

		fig.Layout.Shapes = append(fig.Layout.Shapes, &Shape{
			Type:  "line",
			X0:    x,
			X1:    x,
			Y0:    yMin,
			Y1:    yLabel,
			XRef:  "x",
			YRef:  "y",
			Line:  &Line{Color: colorMed, Width: 2, Dash: "dot"},
			Layer: "below",
		})

		fig.Layout.Annotations = append(fig.Layout.Annotations, &Annotation{
			X:          x,
			Y:          yLabel,
			Text:       ev.Label(),
			ShowArrow:  true,
			ArrowHead:  1,
			ArrowSize:  1,
			ArrowColor: colorMed,
			AX:         0,
			// Deeper lanes get longer arrow tails so arrowheads
			// don't collide.
			AY:          -(20 + float64(lane)*12),
			VAlign:      "top",
			BGColor:     "rgba(229,57,53,0.05)",
			BorderColor: "rgba(229,57,53,0.25)",
			BorderWidth: 1,
			Font:        &Font{Size: 11},
		})

		// Invisible marker at the label position carries the tooltip.
		hover.X = append(hover.X, x)
		hover.Y = append(hover.Y, yLabel)
		hover.Text = append(hover.Text, ev.Label())
		hover.CustomData = append(hover.CustomData, relativeAge(ev.GivenAt, now))
		hover.Marker = appendInvisibleMarker(hover.Marker)
	}

	fig.Data = append(fig.Data, hover)

	return maxLane(lanes)
}

// addThreshold draws the critical-temperature guideline and its y-axis
// label. Present on every figure regardless of data.
func (b *Builder) addThreshold(fig *Figure) {
	fig.Layout.Shapes = append(fig.Layout.Shapes, &Shape{
		Type: "line",
		X0:   0,
		X1:   1,
		Y0:   TempCritical,
		Y1:   TempCritical,
		XRef: "paper",
		YRef: "y",
		Line: &Line{Color: colorAlert, Width: 3, Dash: "dash"},
	})

	fig.Layout.Annotations = append(fig.Layout.Annotations, &Annotation{
		X:       0,
		Y:       TempCritical,
		XRef:    "paper",
		YRef:    "y",
		XAnchor: "right",
		XShift:  -16,
		Text:    fmt.Sprintf("%.1f°C", TempCritical),
		Align:   "right",
		BGColor: "rgba(0,0,0,0)",
		Font:    &Font{Size: 12, Color: colorAlert},
	})
}

// ceilHour rounds up to the next hour boundary, or returns t unchanged
// when already on one.
func ceilHour(t time.Time) time.Time {
	floored := t.Truncate(time.Hour)
	if floored.Equal(t) {
		return t
	}
	return floored.Add(time.Hour)
}

func appendInvisibleMarker(m *Marker) *Marker {
	if m == nil {
		m = &Marker{}
	}
	m.Size = append(m.Size, 16)
	m.Color = append(m.Color, "rgba(0,0,0,0)")
	return m
}

func boolPtr(v bool) *bool { return &v }
