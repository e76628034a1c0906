package rain

// Effects is the set of optional visual refinements attached to a document.
// A false field means the effect has been stripped by the nice level.
type Effects struct {
	FontSizePulse     bool // subtle per-glyph font-size pulsation
	MicroJitter       bool // small additive transform jitters per glyph
	GlyphOpacityPulse bool // per-glyph opacity pulsing
	FillOpacityPulse  bool // fill-opacity shimmer on each glyph
	TrailFilter       bool // blur-based trail filter on each strand
	Lightning         bool // periodic lightning overlay
}

// Feature is one degradable effect. Features are ordered: nice level N
// strips the first N entries, so higher levels always strip a superset of
// what lower levels strip.
type Feature struct {
	Name        string
	Description string

	apply func(*Effects)
}

var features = []Feature{
	{
		Name:        "font-size-pulse",
		Description: "Disable subtle per-glyph font-size pulsation.",
		apply:       func(e *Effects) { e.FontSizePulse = false },
	},
	{
		Name:        "micro-jitter",
		Description: "Disable the small additive transform jitters per glyph.",
		apply:       func(e *Effects) { e.MicroJitter = false },
	},
	{
		Name:        "glyph-opacity",
		Description: "Disable per-glyph opacity pulsing.",
		apply:       func(e *Effects) { e.GlyphOpacityPulse = false },
	},
	{
		Name:        "fill-pulse",
		Description: "Disable fill-opacity shimmer on each glyph.",
		apply:       func(e *Effects) { e.FillOpacityPulse = false },
	},
	{
		Name:        "trail-filter",
		Description: "Remove the blur-based trail filter.",
		apply:       func(e *Effects) { e.TrailFilter = false },
	},
	{
		Name:        "lightning",
		Description: "Remove the lightning overlay group.",
		apply:       func(e *Effects) { e.Lightning = false },
	},
}

// Features returns the ordered degradation table. Index i is stripped by
// nice levels greater than i.
func Features() []Feature {
	out := make([]Feature, len(features))
	copy(out, features)
	return out
}

// MaxNiceLevel is the highest nice level with a distinct effect.
func MaxNiceLevel() int {
	return len(features)
}

// EffectsFor clamps level into [0, MaxNiceLevel] and returns the clamped
// level together with the effects that survive it.
func EffectsFor(level int) (int, Effects) {
	if level < 0 {
		level = 0
	}
	if level > len(features) {
		level = len(features)
	}

	e := Effects{
		FontSizePulse:     true,
		MicroJitter:       true,
		GlyphOpacityPulse: true,
		FillOpacityPulse:  true,
		TrailFilter:       true,
		Lightning:         true,
	}
	for i := 0; i < level; i++ {
		features[i].apply(&e)
	}
	return level, e
}
