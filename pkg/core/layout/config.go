package layout

// Config holds the diagram geometry. All values are in pixels.
type Config struct {
	CardWidth     float64 `json:"card_width"`
	SpacingX      float64 `json:"spacing_x"`      // distance between neighboring project slots
	SpacingY      float64 `json:"spacing_y"`      // vertical spacing before LayerGap is added
	LayerGap      float64 `json:"layer_gap"`      // extra gap between rows
	ViewportWidth float64 `json:"viewport_width"` // nominal width the rows are centered in
	NodeTop       float64 `json:"node_top"`       // y of the root row's cards
	BandTop       float64 `json:"band_top"`       // y of the root row's band
	BandHeight    float64 `json:"band_height"`
	BandMargin    float64 `json:"band_margin"` // horizontal slack added to the band width
	NodeHeight    float64 `json:"node_height"`
}

// DefaultConfig returns the standard geometry.
func DefaultConfig() Config {
	return Config{
		CardWidth:     200,
		SpacingX:      220,
		SpacingY:      200,
		LayerGap:      20,
		ViewportWidth: 1200,
		NodeTop:       40,
		BandTop:       30,
		BandHeight:    180,
		BandMargin:    160,
		NodeHeight:    160,
	}
}

// LayerSpacing is the vertical distance between two rows.
func (c Config) LayerSpacing() float64 { return c.SpacingY + c.LayerGap }

// NodeY returns the y coordinate of cards on row r.
func (c Config) NodeY(r Row) float64 { return c.NodeTop + float64(r)*c.LayerSpacing() }

// BandY returns the y coordinate of row r's background band.
func (c Config) BandY(r Row) float64 { return c.BandTop + float64(r)*c.LayerSpacing() }

// Height is the total height covered by the four bands.
func (c Config) Height() float64 { return c.BandY(RowProjects) + c.BandHeight }

// fallbackX is used for a root without organizations and for an
// organization without visible children: a card centered in the viewport.
func (c Config) fallbackX() float64 { return c.ViewportWidth/2 - c.CardWidth/2 }

// Option configures a layout computation.
type Option func(*Config)

// WithConfig replaces the whole geometry. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(c *Config) { c.merge(cfg) }
}

// WithSpacingX sets the distance between project slots.
func WithSpacingX(v float64) Option { return func(c *Config) { c.SpacingX = v } }

// WithViewportWidth sets the nominal viewport width rows are centered in.
func WithViewportWidth(v float64) Option { return func(c *Config) { c.ViewportWidth = v } }

// WithCardWidth sets the card width used for fallbacks and band sizing.
func WithCardWidth(v float64) Option { return func(c *Config) { c.CardWidth = v } }

func (c *Config) merge(o Config) {
	set := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	set(&c.CardWidth, o.CardWidth)
	set(&c.SpacingX, o.SpacingX)
	set(&c.SpacingY, o.SpacingY)
	set(&c.LayerGap, o.LayerGap)
	set(&c.ViewportWidth, o.ViewportWidth)
	set(&c.NodeTop, o.NodeTop)
	set(&c.BandTop, o.BandTop)
	set(&c.BandHeight, o.BandHeight)
	set(&c.BandMargin, o.BandMargin)
	set(&c.NodeHeight, o.NodeHeight)
}

// Resolve applies opts to the default geometry.
func Resolve(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
