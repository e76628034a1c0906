package rain

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Glyph is a single character in a strand, with its font size.
type Glyph struct {
	Char string
	Size float64
}

// Strand is one vertical column of falling glyphs, placed at X with its
// own fall and opacity timing. Strands are built fresh for every
// generation call and discarded after serialization.
type Strand struct {
	X              float64
	StartOffset    float64 // vertical translation at cycle start
	EndOffset      float64 // vertical translation at cycle end
	TranslateDur   float64
	TranslateBegin float64
	OpacityValues  []float64 // keyframe opacities; index 1 is the peak
	OpacityDur     float64
	OpacityBegin   float64
	Glyphs         []Glyph
}

// strandTemplate seeds a strand with timing and a base glyph run. The
// twelve templates cycle when more columns are requested.
type strandTemplate struct {
	startOffset    float64
	endOffset      float64
	translateDur   float64
	translateBegin float64
	opacityValues  []float64
	opacityDur     float64
	opacityBegin   float64
	glyphs         []Glyph
}

var strandTemplates = []strandTemplate{
	{
		startOffset: -260, endOffset: 540, translateDur: 4.2, translateBegin: -1.4,
		opacityValues: []float64{0.2, 0.95, 0.2}, opacityDur: 4.2, opacityBegin: -1.4,
		glyphs: []Glyph{{"A", 18}, {"Σ", 20}, {"7", 21}, {"Ω", 19}, {"Ñ", 18}, {"@", 21}, {"Z", 23}, {"É", 19}, {"?", 18}, {"δ", 17}, {"∞", 20}},
	},
	{
		startOffset: -300, endOffset: 520, translateDur: 5.1, translateBegin: -0.8,
		opacityValues: []float64{0.18, 1, 0.18}, opacityDur: 5.1, opacityBegin: -0.8,
		glyphs: []Glyph{{"ß", 18}, {"M", 21}, {"鶴", 22}, {"λ", 19}, {"Ü", 18}, {"鶴", 20}, {"Q", 23}, {"ß", 19}, {"3", 18}, {"η", 17}, {"≈", 20}},
	},
	{
		startOffset: -240, endOffset: 520, translateDur: 4.7, translateBegin: -2.3,
		opacityValues: []float64{0.25, 0.9, 0.25}, opacityDur: 4.7, opacityBegin: -2.3,
		glyphs: []Glyph{{"C", 18}, {"S", 20}, {"%", 22}, {"Ψ", 19}, {"Í", 17}, {"5", 21}, {"T", 23}, {"χ", 19}, {"8", 18}, {"κ", 17}, {"∈", 20}},
	},
	{
		startOffset: -320, endOffset: 520, translateDur: 5.4, translateBegin: -0.4,
		opacityValues: []float64{0.18, 0.92, 0.18}, opacityDur: 5.4, opacityBegin: -0.4,
		glyphs: []Glyph{{"D", 18}, {"L", 21}, {"$", 22}, {"β", 19}, {"Ó", 17}, {"1", 21}, {"P", 23}, {"Ξ", 19}, {"6", 18}, {"ϑ", 17}, {"∮", 20}},
	},
	{
		startOffset: -260, endOffset: 560, translateDur: 4.1, translateBegin: -1.9,
		opacityValues: []float64{0.26, 0.9, 0.26}, opacityDur: 4.1, opacityBegin: -1.9,
		glyphs: []Glyph{{"E", 18}, {"V", 21}, {"0", 22}, {"Γ", 19}, {"Ú", 17}, {"2", 21}, {"F", 23}, {"Ζ", 19}, {"4", 18}, {"θ", 17}, {"∟", 20}},
	},
	{
		startOffset: -300, endOffset: 560, translateDur: 5.8, translateBegin: -3.2,
		opacityValues: []float64{0.17, 0.95, 0.17}, opacityDur: 5.8, opacityBegin: -3.2,
		glyphs: []Glyph{{"F", 18}, {"X", 21}, {"!", 22}, {"Φ", 19}, {"Å", 17}, {"%", 21}, {"N", 23}, {"Π", 19}, {"œ", 18}, {"μ", 17}, {"∴", 20}},
	},
	{
		startOffset: -260, endOffset: 520, translateDur: 4.4, translateBegin: -0.2,
		opacityValues: []float64{0.24, 0.93, 0.24}, opacityDur: 4.4, opacityBegin: -0.2,
		glyphs: []Glyph{{"G", 18}, {"Y", 21}, {"@", 22}, {"Υ", 19}, {"Í", 17}, {"ρ", 21}, {"Æ", 23}, {"W", 19}, {"ħ", 18}, {"ξ", 17}, {"∠", 20}},
	},
	{
		startOffset: -280, endOffset: 560, translateDur: 5.0, translateBegin: -1.1,
		opacityValues: []float64{0.2, 0.97, 0.2}, opacityDur: 5.0, opacityBegin: -1.1,
		glyphs: []Glyph{{"ñ", 18}, {"T", 21}, {"8", 22}, {"ϖ", 19}, {"Ê", 17}, {"σ", 21}, {"Ğ", 23}, {"V", 19}, {"ň", 18}, {"ς", 17}, {"∵", 20}},
	},
	{
		startOffset: -240, endOffset: 520, translateDur: 4.3, translateBegin: -2.7,
		opacityValues: []float64{0.22, 0.92, 0.22}, opacityDur: 4.3, opacityBegin: -2.7,
		glyphs: []Glyph{{"I", 18}, {"P", 21}, {"6", 22}, {"ϱ", 19}, {"Ë", 17}, {"ϙ", 21}, {"Ð", 23}, {"U", 19}, {"ŕ", 18}, {"Ϟ", 17}, {"∗", 20}},
	},
	{
		startOffset: -320, endOffset: 560, translateDur: 5.6, translateBegin: -1.5,
		opacityValues: []float64{0.19, 0.96, 0.19}, opacityDur: 5.6, opacityBegin: -1.5,
		glyphs: []Glyph{{"¿", 18}, {"N", 21}, {"5", 22}, {"ϗ", 19}, {"Ę", 17}, {"ϛ", 21}, {"Ç", 23}, {"R", 19}, {"ś", 18}, {"ϟ", 17}, {"∯", 20}},
	},
	{
		startOffset: -260, endOffset: 520, translateDur: 4.5, translateBegin: -0.9,
		opacityValues: []float64{0.24, 0.9, 0.24}, opacityDur: 4.5, opacityBegin: -0.9,
		glyphs: []Glyph{{"K", 18}, {"C", 21}, {"4", 22}, {"Ϥ", 19}, {"Ě", 17}, {"ϝ", 21}, {"Ō", 23}, {"S", 19}, {"ž", 18}, {"ϡ", 17}, {"∼", 20}},
	},
	{
		startOffset: -300, endOffset: 560, translateDur: 5.2, translateBegin: -2.5,
		opacityValues: []float64{0.21, 0.94, 0.21}, opacityDur: 5.2, opacityBegin: -2.5,
		glyphs: []Glyph{{"ψ", 18}, {"E", 21}, {"3", 22}, {"Θ", 19}, {"Á", 17}, {"Δ", 21}, {"Š", 23}, {"T", 19}, {"ñ", 18}, {"β", 17}, {"⊕", 20}},
	},
}

// extraGlyphCycle pads strands whose target glyph count exceeds their
// template run. It is rotated per column seed for variety.
var extraGlyphCycle = []Glyph{
	{"ß", 19}, {"ø", 20}, {"Σ", 22}, {"ñ", 18}, {"#", 19}, {"ξ", 18},
	{"Þ", 21}, {"¡", 19}, {"ψ", 21}, {"Ł", 20}, {"¿", 19}, {"K", 21},
	{"κ", 20}, {"Ϟ", 22}, {"2", 21}, {"0", 21}, {"Ω", 22},
}

// Signature glyphs spliced into the overflow cycle for selected columns.
var (
	glyphK2        = Glyph{"K2", 22}
	glyphKtwo      = Glyph{"ktwo", 20}
	glyphAssistant = Glyph{"∑AI", 20}
)

// Placement and timing perturbation tables for irregular columns. The
// offsets are normalized onto the canvas span; the phase and scale tables
// desynchronize irregular strands from their regular neighbours.
var (
	irregularOffsets = []float64{12, 53, 97, 141, 176, 219, 263, 298, 336, 371, 413, 452}
	phaseShifts      = []float64{0.85, -0.6, 1.4, -1.15, 0.32, 1.92, -0.78, 1.28, -0.42, 0.96, -1.48, 1.61}
	translateScales  = []float64{1.18, 0.82, 1.35, 0.87, 1.26, 0.79, 1.32, 0.9, 1.24, 0.84, 1.29, 0.93}
	opacityScales    = []float64{1.12, 0.86, 1.3, 0.9, 1.18, 0.82, 1.24, 0.88, 1.16, 0.84, 1.22, 0.9}
)

// glyphSequence expands or trims a template's glyph run to target length,
// deterministically from the column seed.
func glyphSequence(columnSeed int, base []Glyph, target int) []Glyph {
	if target <= 0 {
		return nil
	}

	n := min(target, len(base))
	glyphs := make([]Glyph, n, target)
	copy(glyphs, base[:n])
	if len(glyphs) == target {
		return glyphs
	}

	cycle := make([]Glyph, 0, len(extraGlyphCycle)+2)
	if columnSeed%5 == 0 {
		cycle = append(cycle, glyphK2)
	} else if columnSeed%7 == 0 {
		cycle = append(cycle, glyphKtwo)
	}
	if columnSeed%11 == 0 {
		cycle = append(cycle, glyphAssistant)
	}
	cycle = append(cycle, extraGlyphCycle...)

	rotation := (columnSeed * 3) % len(cycle)
	for i := 0; len(glyphs) < target; i++ {
		glyphs = append(glyphs, cycle[(rotation+i)%len(cycle)])
	}
	return glyphs
}

// selectIrregularIndices spreads count picks over the irregular offset
// table: evenly when count fits, cycling with a rotation when it does not.
func selectIrregularIndices(count int) []int {
	n := len(irregularOffsets)
	if count <= 0 || n == 0 {
		return nil
	}
	if count == 1 {
		return []int{n / 2}
	}
	if count <= n {
		step := float64(n-1) / float64(count-1)
		indices := make([]int, 0, count)
		used := make([]bool, n)
		for i := 0; i < count; i++ {
			idx := int(math.Round(float64(i) * step))
			idx = max(0, min(n-1, idx))
			for used[idx] && idx < n-1 {
				idx++
			}
			if used[idx] {
				candidate := idx - 1
				for candidate >= 0 && used[candidate] {
					candidate--
				}
				if candidate >= 0 {
					idx = candidate
				} else {
					idx = (idx + 1) % n
					for used[idx] {
						idx = (idx + 1) % n
					}
				}
			}
			used[idx] = true
			indices = append(indices, idx)
		}
		slices.Sort(indices)
		return indices
	}

	// count > table size: repeat the table with a rotating start for variety.
	indices := make([]int, 0, count)
	cycles := (count + n - 1) / n
	for cycle := 0; cycle < cycles; cycle++ {
		offset := (cycle * 3) % n
		for pos := 0; pos < n; pos++ {
			indices = append(indices, (pos+offset)%n)
			if len(indices) == count {
				return indices
			}
		}
	}
	return indices
}

// BuildStrands places the configured columns across the canvas span.
// Regular columns divide the span evenly; irregular columns sit at
// positions from the perturbation table, which keeps them off the regular
// grid in all but degenerate configurations. Glyph counts are drawn from
// a PCG seeded with the fixed generation seed, so the result depends only
// on the configuration.
func BuildStrands(cfg Config) []Strand {
	span := cfg.CanvasWidth()
	rng := rand.New(rand.NewPCG(Seed, Seed^0xdeadbeef))

	pickCount := func() int {
		if cfg.GlyphsMin == cfg.GlyphsMax {
			return cfg.GlyphsMin
		}
		return cfg.GlyphsMin + rng.IntN(cfg.GlyphsMax-cfg.GlyphsMin+1)
	}

	strands := make([]Strand, 0, cfg.TotalColumns())

	for idx := 0; idx < cfg.RegularColumns; idx++ {
		tpl := strandTemplates[idx%len(strandTemplates)]
		var x float64
		if cfg.RegularColumns == 1 {
			x = span / 2
		} else {
			x = span / float64(cfg.RegularColumns-1) * float64(idx)
		}
		strands = append(strands, Strand{
			X:              x,
			StartOffset:    tpl.startOffset,
			EndOffset:      tpl.endOffset,
			TranslateDur:   tpl.translateDur,
			TranslateBegin: tpl.translateBegin,
			OpacityValues:  tpl.opacityValues,
			OpacityDur:     tpl.opacityDur,
			OpacityBegin:   tpl.opacityBegin,
			Glyphs:         glyphSequence(idx, tpl.glyphs, pickCount()),
		})
	}

	offsetMin := irregularOffsets[0]
	offsetMax := irregularOffsets[len(irregularOffsets)-1]

	for idx, offsetIdx := range selectIrregularIndices(cfg.IrregularColumns) {
		tpl := strandTemplates[idx%len(strandTemplates)]
		normalized := 0.5
		if offsetMax != offsetMin {
			normalized = (irregularOffsets[offsetIdx] - offsetMin) / (offsetMax - offsetMin)
		}
		shift := phaseShifts[offsetIdx]
		strands = append(strands, Strand{
			X:              normalized * span,
			StartOffset:    tpl.startOffset,
			EndOffset:      tpl.endOffset,
			TranslateDur:   tpl.translateDur * translateScales[offsetIdx],
			TranslateBegin: tpl.translateBegin + shift,
			OpacityValues:  tpl.opacityValues,
			OpacityDur:     tpl.opacityDur * opacityScales[offsetIdx],
			OpacityBegin:   tpl.opacityBegin + shift*0.65,
			Glyphs:         glyphSequence(idx+cfg.RegularColumns, tpl.glyphs, pickCount()),
		})
	}

	return strands
}
