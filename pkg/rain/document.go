// Package rain builds the animated digital-rain SVG document.
//
// Generation is a pure function of a [Config]: strands are placed across
// the canvas, each glyph receives a set of self-looping SMIL animations
// with phase offsets derived from its column and row index, and the whole
// tree is serialized through [svg.Marshal]. There is no wall-clock or OS
// entropy anywhere in the path; identical configs yield identical bytes.
package rain

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/K2/matrix.svg/pkg/svg"
)

// Animation pacing constants. The wave constants stagger animation phases
// across columns so strands do not fall in lockstep.
const (
	verticalSpeedFactor   = 1.45
	columnWaveGroup       = 6
	columnPhaseStep       = 0.45
	columnSecondaryFactor = 0.18
	columnRandomJitter    = 0.16
	microPhaseScale       = 0.6
)

const svgNS = "http://www.w3.org/2000/svg"

const styleText = `
#matrixRain text {
  will-change: transform, opacity;
  transform-box: fill-box;
  transform-origin: center;
}
`

const trailColorMatrix = "1 0 0 0 0\n0 1 0 0 0\n0 0 1 0 0\n0 0 0 0.6 0"

// pulsePattern is one of eight per-glyph animation timing variants,
// assigned by (glyphIdx + columnIdx) modulo the table length.
type pulsePattern struct {
	fillValues   []float64
	fillDur      float64
	fillBegin    float64
	jitterValues string
	jitterDur    float64
	jitterBegin  float64
	sizeDur      float64
	sizeBegin    float64
	sizeHigh     float64
	sizeLow      float64
}

var pulsePatterns = []pulsePattern{
	{[]float64{0.3, 0.95, 0.3}, 2.6, -0.9, "0,-8;0,4;0,-5;0,-8", 3.4, -0.5, 4.0, -1.1, 1.0, -1.0},
	{[]float64{0.25, 0.88, 0.28, 0.25}, 2.2, -1.6, "0,-6;0,2;0,-4;0,-6", 2.9, -0.7, 3.3, -0.8, 1.2, -0.8},
	{[]float64{0.2, 0.92, 0.2}, 3.1, -0.4, "0,-10;0,5;0,-3;0,-10", 3.6, -1.2, 3.7, -1.4, 0.8, -1.2},
	{[]float64{0.34, 0.9, 0.34}, 2.4, -1.2, "0,-7;0,3;0,-6;0,-7", 3.0, -0.3, 3.5, -1.0, 1.0, -0.5},
	{[]float64{0.18, 0.82, 0.24, 0.18}, 4.8, -2.1, "0,-5;0,6;0,-7;0,-5", 6.3, -1.8, 4.9, -2.2, 1.6, -1.3},
	{[]float64{0.4, 1, 0.5, 0.4}, 1.7, -0.65, "0,-14;0,3;0,-9;0,-14", 2.1, -0.95, 2.4, -0.7, 0.6, -1.8},
	{[]float64{0.22, 0.9, 0.3, 0.22}, 5.6, -2.8, "0,-6;0,5;0,-8;0,-6", 6.8, -2.4, 5.4, -2.6, 1.8, -1.5},
	{[]float64{0.32, 0.96, 0.4, 0.32}, 1.4, -0.35, "0,-18;0,8;0,-11;0,-18", 1.9, -0.55, 2.1, -0.6, 0.9, -2.1},
}

// lightningPoints is the bolt polyline at base canvas width; x values
// scale with the configured width.
var lightningPoints = [][2]float64{
	{250, -60}, {262, 80}, {242, 170}, {260, 260}, {238, 360}, {252, 480}, {246, 560},
}

// Document is the result of a generation call.
type Document struct {
	Root      *svg.Element
	Width     float64
	NiceLevel int // clamped
	Strands   []Strand
}

// Build validates cfg and constructs the document tree.
func Build(cfg Config) (*Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, effects := EffectsFor(cfg.NiceLevel)
	width := cfg.CanvasWidth()
	strands := BuildStrands(cfg)
	widthText := svg.Num(width)

	root := svg.NewElement("svg").
		Set("xmlns", svgNS).
		Set("width", widthText).
		Set("height", svg.Num(CanvasHeight)).
		Set("viewBox", fmt.Sprintf("0 0 %s %s", widthText, svg.Num(CanvasHeight))).
		Set("style", "width:100%;height:auto;").
		Set("aria-label", "Animated neon glyph waterfall").
		Set("role", "img").
		Set("focusable", "true")

	if cfg.IncludeMetadata {
		root.Append(buildMetadata(cfg))
	}
	root.Append(buildStyle())
	root.Append(buildDefs())
	appendBackground(root, width)
	root.Append(buildRain(strands, effects))
	if cfg.IncludeLightning && effects.Lightning {
		root.Append(buildLightning(width))
	}

	return &Document{
		Root:      root,
		Width:     width,
		NiceLevel: level,
		Strands:   strands,
	}, nil
}

// Encode serializes the document tree to markup.
func (d *Document) Encode() []byte {
	return svg.Marshal(d.Root)
}

// GlyphCount returns the total number of glyphs across all strands.
func (d *Document) GlyphCount() int {
	n := 0
	for _, s := range d.Strands {
		n += len(s.Glyphs)
	}
	return n
}

// BuildDocument is the one-shot convenience: validate, build, serialize.
func BuildDocument(cfg Config) ([]byte, error) {
	doc, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	return doc.Encode(), nil
}

// identifierNamespace scopes the deterministic document UUID.
var identifierNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/K2/matrix.svg"))

// DocumentID returns the deterministic UUIDv5 embedded in the metadata
// block: a stable identity per distinct configuration.
func DocumentID(cfg Config) uuid.UUID {
	return uuid.NewSHA1(identifierNamespace, []byte(cfg.Canonical()))
}

func buildMetadata(cfg Config) *svg.Element {
	metadata := svg.NewElement("metadata")
	rdf := metadata.Child("rdf:RDF").
		Set("xmlns:rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#").
		Set("xmlns:dc", "http://purl.org/dc/elements/1.1/").
		Set("xmlns:cc", "http://creativecommons.org/ns#")

	work := rdf.Child("cc:Work").Set("rdf:about", "")
	work.Child("dc:title").Text = "Matrix Rain Glyph Cascade"
	work.Child("dc:creator").Text = "Shane Macaulay (K2)"
	work.Child("dc:identifier").Text = "https://github.com/K2"
	work.Child("dc:identifier").Text = "urn:uuid:" + DocumentID(cfg).String()
	work.Child("dc:description").Text = "Animated matrix-style glyph rainfall generated via DeepSeek-OCR assets pipeline."
	work.Child("dc:rights").Text = "© 2025 Shane Macaulay (K2) — Noncommercial use only. Contact ktwo@ktwo.ca."
	work.Child("dc:language").Text = "en"
	work.Child("cc:license").Set("rdf:resource", "https://creativecommons.org/licenses/by-nc/4.0/")

	license := rdf.Child("cc:License").Set("rdf:about", "https://creativecommons.org/licenses/by-nc/4.0/")
	for _, resource := range []string{
		"https://creativecommons.org/ns#Reproduction",
		"https://creativecommons.org/ns#Distribution",
		"https://creativecommons.org/ns#DerivativeWorks",
	} {
		license.Child("cc:permits").Set("rdf:resource", resource)
	}
	license.Child("cc:requires").Set("rdf:resource", "https://creativecommons.org/ns#Attribution")
	license.Child("cc:prohibits").Set("rdf:resource", "https://creativecommons.org/ns#CommercialUse")

	return metadata
}

func buildStyle() *svg.Element {
	style := svg.NewElement("style")
	style.Text = styleText
	return style
}

func buildDefs() *svg.Element {
	defs := svg.NewElement("defs")

	gradGlow := defs.Child("linearGradient").
		Set("id", "gradGlow").
		Set("gradientUnits", "userSpaceOnUse").
		Set("x1", "0").Set("y1", "0").Set("x2", "0").Set("y2", "500")
	gradGlow.Child("stop").Set("offset", "0%").Set("stop-color", "#9AFF9A")
	gradGlow.Child("stop").Set("offset", "60%").Set("stop-color", "#31FF6B")
	gradGlow.Child("stop").Set("offset", "100%").Set("stop-color", "#00BF47")

	gradBolt := defs.Child("linearGradient").
		Set("id", "gradBolt").
		Set("gradientUnits", "userSpaceOnUse").
		Set("x1", "0").Set("y1", "0").Set("x2", "0").Set("y2", "500")
	gradBolt.Child("stop").Set("offset", "0%").Set("stop-color", "#FFB347")
	gradBolt.Child("stop").Set("offset", "60%").Set("stop-color", "#FF6A00")
	gradBolt.Child("stop").Set("offset", "100%").Set("stop-color", "#FF2400")

	softGlow := defs.Child("filter").
		Set("id", "softGlow").
		Set("x", "-40%").Set("y", "-40%").Set("width", "180%").Set("height", "180%")
	softGlow.Child("feGaussianBlur").Set("stdDeviation", "2.2").Set("result", "blur")
	merge := softGlow.Child("feMerge")
	merge.Child("feMergeNode").Set("in", "blur")
	merge.Child("feMergeNode").Set("in", "SourceGraphic")

	trailGlow := defs.Child("filter").
		Set("id", "trailGlow").
		Set("x", "-40%").Set("y", "-40%").Set("width", "180%").Set("height", "220%")
	trailGlow.Child("feGaussianBlur").
		Set("in", "SourceGraphic").
		Set("stdDeviation", "0 7").
		Set("result", "trail")
	trailGlow.Child("feColorMatrix").
		Set("in", "trail").
		Set("type", "matrix").
		Set("values", trailColorMatrix).
		Set("result", "trailFade")
	trailMerge := trailGlow.Child("feMerge")
	trailMerge.Child("feMergeNode").Set("in", "trailFade")
	trailMerge.Child("feMergeNode").Set("in", "SourceGraphic")

	vignette := defs.Child("radialGradient").
		Set("id", "vignette").
		Set("cx", "50%").Set("cy", "50%").Set("r", "65%")
	vignette.Child("stop").Set("offset", "0%").Set("stop-color", "rgba(0,0,0,0)")
	vignette.Child("stop").Set("offset", "100%").Set("stop-color", "rgba(0,0,0,0.55)")

	flashGlow := defs.Child("radialGradient").
		Set("id", "flashGlow").
		Set("cx", "50%").Set("cy", "50%").Set("r", "75%")
	flashGlow.Child("stop").Set("offset", "0%").Set("stop-color", "#FFB347").Set("stop-opacity", "0.85")
	flashGlow.Child("stop").Set("offset", "55%").Set("stop-color", "#FF5F1F").Set("stop-opacity", "0.45")
	flashGlow.Child("stop").Set("offset", "100%").Set("stop-color", "#FF2400").Set("stop-opacity", "0")

	return defs
}

func appendBackground(root *svg.Element, width float64) {
	widthText := svg.Num(width)
	root.Child("rect").
		Set("x", "0").Set("y", "0").
		Set("width", widthText).Set("height", "500").
		Set("fill", "#050507")
	root.Child("rect").
		Set("x", "0").Set("y", "0").
		Set("width", widthText).Set("height", "500").
		Set("fill", "url(#vignette)")
}

func buildRain(strands []Strand, effects Effects) *svg.Element {
	rain := svg.NewElement("g").
		Set("id", "matrixRain").
		Set("opacity", "0.95").
		Set("font-family", "system-ui, sans-serif").
		Set("letter-spacing", "2")

	for colIdx, strand := range strands {
		column := rain.Child("g").
			Set("id", fmt.Sprintf("strand-%d", colIdx)).
			Set("transform", fmt.Sprintf("translate(%s,0)", svg.Num(strand.X)))
		inner := column.Child("g")
		if effects.TrailFilter {
			inner.Set("filter", "url(#trailGlow)")
		}

		// Per-column anchor staggers animation phases in waves of six
		// columns, with a golden-ratio jitter on top.
		waveBase := float64(colIdx%columnWaveGroup) * columnPhaseStep
		waveSecondary := float64(colIdx/columnWaveGroup) * columnPhaseStep * columnSecondaryFactor
		waveJitter := (math.Mod(float64(colIdx)*0.61803398875, 1.0) - 0.5) * columnRandomJitter
		anchor := waveBase + waveSecondary + waveJitter

		for glyphIdx, glyph := range strand.Glyphs {
			appendGlyph(inner, strand, glyph, colIdx, glyphIdx, anchor, effects)
		}
	}

	return rain
}

func appendGlyph(parent *svg.Element, strand Strand, glyph Glyph, colIdx, glyphIdx int, anchor float64, effects Effects) {
	baseY := 20.0 + float64(glyphIdx)*40.0
	patternIdx := (glyphIdx + colIdx) % len(pulsePatterns)
	pattern := pulsePatterns[patternIdx]
	microPhase := (float64(colIdx)*0.18 + float64(glyphIdx)*0.07) * microPhaseScale

	fillBegin := pattern.fillBegin + anchor - microPhase
	jitterBegin := pattern.jitterBegin + anchor - microPhase*0.8
	sizeBegin := pattern.sizeBegin + anchor - microPhase*0.5
	opacityBegin := strand.OpacityBegin + anchor - microPhase*0.6

	fallScale := 0.95 + 0.08*float64(glyphIdx%5) + 0.05*float64(patternIdx%3)
	fallDur := strand.TranslateDur * fallScale * verticalSpeedFactor
	fallBegin := strand.TranslateBegin + anchor - microPhase

	opacityScale := 0.9 + 0.04*float64((glyphIdx+2*colIdx)%4)
	opacityDur := strand.OpacityDur * opacityScale

	scaleHigh := math.Max((glyph.Size+pattern.sizeHigh)/glyph.Size, 0.2)
	scaleLow := math.Max((glyph.Size+pattern.sizeLow)/glyph.Size, 0.2)
	scaleValues := joinNums(";", 1.0, scaleHigh, scaleLow, 1.0)

	peakOpacity := strand.OpacityValues[1] * (1.0 + 0.08*float64(glyphIdx%3-1))
	peakOpacity = math.Min(0.98, math.Max(0.4, peakOpacity))
	perGlyphOpacity := joinNums(";", 0.08, peakOpacity, 0.06)

	fillStatic := mean(pattern.fillValues)

	text := parent.Child("text").
		Set("x", "0").
		Set("y", svg.Num(baseY)).
		Set("fill", "url(#gradGlow)").
		Set("font-size", svg.Num(glyph.Size)).
		Set("transform", fmt.Sprintf("translate(0,%s)", svg.Num(strand.StartOffset)))
	text.Text = glyph.Char

	if !effects.GlyphOpacityPulse {
		text.Set("opacity", svg.Num(peakOpacity))
	}
	if !effects.FillOpacityPulse {
		text.Set("fill-opacity", svg.Num(fillStatic))
	}

	text.Child("animateTransform").
		Set("attributeName", "transform").
		Set("type", "translate").
		Set("values", fmt.Sprintf("0,%s;0,%s", svg.Num(strand.StartOffset), svg.Num(strand.EndOffset))).
		Set("dur", svg.Num(fallDur)+"s").
		Set("begin", svg.Num(fallBegin)+"s").
		Set("repeatCount", "indefinite")

	if effects.FillOpacityPulse {
		text.Child("animate").
			Set("attributeName", "fill-opacity").
			Set("values", joinNums(";", pattern.fillValues...)).
			Set("dur", svg.Num(pattern.fillDur)+"s").
			Set("begin", svg.Num(fillBegin)+"s").
			Set("repeatCount", "indefinite")
	}

	if effects.GlyphOpacityPulse {
		text.Child("animate").
			Set("attributeName", "opacity").
			Set("values", perGlyphOpacity).
			Set("dur", svg.Num(opacityDur)+"s").
			Set("begin", svg.Num(opacityBegin)+"s").
			Set("repeatCount", "indefinite")
	}

	if effects.FontSizePulse {
		text.Child("animateTransform").
			Set("attributeName", "transform").
			Set("type", "scale").
			Set("values", scaleValues).
			Set("dur", svg.Num(pattern.sizeDur)+"s").
			Set("begin", svg.Num(sizeBegin)+"s").
			Set("repeatCount", "indefinite").
			Set("additive", "sum")
	}

	if effects.MicroJitter {
		text.Child("animateTransform").
			Set("attributeName", "transform").
			Set("type", "translate").
			Set("values", pattern.jitterValues).
			Set("dur", svg.Num(pattern.jitterDur)+"s").
			Set("begin", svg.Num(jitterBegin)+"s").
			Set("repeatCount", "indefinite").
			Set("additive", "sum")
	}
}

func buildLightning(width float64) *svg.Element {
	widthScale := width / BaseCanvasWidth
	points := make([]string, len(lightningPoints))
	for i, p := range lightningPoints {
		points[i] = svg.Num(p[0]*widthScale) + "," + svg.Num(p[1])
	}

	lightning := svg.NewElement("g").
		Set("id", "lightning").
		Set("pointer-events", "none")

	flash := lightning.Child("rect").
		Set("x", "0").Set("y", "0").
		Set("width", svg.Num(width)).Set("height", "500").
		Set("fill", "url(#flashGlow)").
		Set("opacity", "0")
	flash.Child("animate").
		Set("attributeName", "opacity").
		Set("values", "0;0;0.88;0").
		Set("keyTimes", "0;0.8;0.84;1").
		Set("dur", "12s").
		Set("repeatCount", "indefinite")

	bolt := lightning.Child("polyline").
		Set("points", strings.Join(points, " ")).
		Set("stroke", "url(#gradBolt)").
		Set("stroke-width", "12").
		Set("stroke-linecap", "round").
		Set("stroke-linejoin", "round").
		Set("fill", "none").
		Set("opacity", "0").
		Set("filter", "url(#softGlow)")
	bolt.Child("animate").
		Set("attributeName", "opacity").
		Set("values", "0;0;1;0").
		Set("keyTimes", "0;0.82;0.86;1").
		Set("dur", "12s").
		Set("repeatCount", "indefinite")
	bolt.Child("animate").
		Set("attributeName", "stroke-width").
		Set("values", "12;16;12").
		Set("dur", "12s").
		Set("begin", "-0.4s").
		Set("repeatCount", "indefinite")
	bolt.Child("animate").
		Set("attributeName", "stroke-dashoffset").
		Set("values", "0;-140;0").
		Set("dur", "0.9s").
		Set("repeatCount", "indefinite")

	return lightning
}

func joinNums(sep string, vals ...float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = svg.Num(v)
	}
	return strings.Join(parts, sep)
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
