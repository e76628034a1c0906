package rain

import "testing"

func TestEffectsForClamp(t *testing.T) {
	level, e := EffectsFor(-5)
	if level != 0 {
		t.Errorf("level = %d, want 0", level)
	}
	if !e.FontSizePulse || !e.Lightning {
		t.Error("level 0 should keep all effects")
	}

	level, e = EffectsFor(100)
	if level != MaxNiceLevel() {
		t.Errorf("level = %d, want %d", level, MaxNiceLevel())
	}
	if e != (Effects{}) {
		t.Errorf("max level should strip every effect, got %+v", e)
	}
}

func TestEffectsForOrder(t *testing.T) {
	// Level 1 strips only the font-size pulse; each following level strips
	// one more effect in table order.
	_, e := EffectsFor(1)
	want := Effects{
		FontSizePulse:     false,
		MicroJitter:       true,
		GlyphOpacityPulse: true,
		FillOpacityPulse:  true,
		TrailFilter:       true,
		Lightning:         true,
	}
	if e != want {
		t.Errorf("EffectsFor(1) = %+v, want %+v", e, want)
	}

	_, e = EffectsFor(5)
	if e.TrailFilter {
		t.Error("level 5 should strip the trail filter")
	}
	if !e.Lightning {
		t.Error("level 5 should keep lightning")
	}
}

func TestEffectsForMonotonic(t *testing.T) {
	stripped := func(e Effects) int {
		n := 0
		for _, on := range []bool{
			e.FontSizePulse, e.MicroJitter, e.GlyphOpacityPulse,
			e.FillOpacityPulse, e.TrailFilter, e.Lightning,
		} {
			if !on {
				n++
			}
		}
		return n
	}

	prev := -1
	for level := 0; level <= MaxNiceLevel(); level++ {
		_, e := EffectsFor(level)
		if n := stripped(e); n < prev {
			t.Errorf("level %d strips %d effects, fewer than level %d", level, n, level-1)
		} else {
			prev = n
		}
	}
}

func TestFeaturesTable(t *testing.T) {
	fs := Features()
	if len(fs) != MaxNiceLevel() {
		t.Fatalf("len(Features()) = %d, want %d", len(fs), MaxNiceLevel())
	}
	for i, f := range fs {
		if f.Name == "" || f.Description == "" {
			t.Errorf("feature %d missing name or description", i)
		}
	}

	// Returned slice is a copy; mutating it must not affect the table.
	fs[0].Name = "mutated"
	if Features()[0].Name == "mutated" {
		t.Error("Features() exposed internal state")
	}
}
