package svg

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	ValueLabel  string
	AxisColor   string
	GridColor   string
	// FallbackColor fills bars that carry no color of their own.
	FallbackColor string
	Padding       float64
	TickCount     int
}

// Bar is one data point of a bar chart.
type Bar struct {
	Label string
	Value float64
	Color string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 280
	DefaultPadding = 36.0
	DefaultTicks   = 5
)
