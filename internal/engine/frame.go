package engine

// frameState is the pixel pipeline: per-category counts accumulated across
// one pixel row, three fixed-weight neurons over those counts, and the
// verdict registers the neurons feed.
type frameState struct {
	stage Stage
	green uint16
	red   uint16
	brown uint16
	total uint16

	nGreen uint16
	nRed   uint16
	nBrown uint16
	score  uint16

	harvest bool // latches across frames when neither verdict condition holds
	pest    bool
	disease bool
}

func (f *frameState) reset() {
	*f = frameState{stage: StageIdle}
}

// tick advances the pipeline by at most one stage. VSync wins over
// everything else on its tick: counts go to zero and the stage returns to
// Idle, discarding any half-finished boundary work.
func (f *frameState) tick(vsync, href bool, pixel uint8) {
	if vsync {
		f.green, f.red, f.brown, f.total = 0, 0, 0, 0
		f.stage = StageIdle
		return
	}

	switch f.stage {
	case StageIdle:
		if href {
			f.accumulate(pixel)
			f.stage = StageAccumulating
		}
	case StageAccumulating:
		if href {
			f.accumulate(pixel)
			break
		}
		// Row ended. Weigh the counts now; the verdict waits one more tick.
		f.nGreen = f.green * WeightGreen >> 8
		f.nRed = f.red * WeightRed >> 8
		f.nBrown = f.brown * WeightBrown >> 8
		f.stage = StageBoundary
	case StageBoundary:
		f.score = f.nGreen + f.nRed - f.nBrown
		if f.nGreen > f.total>>2 {
			f.harvest = false
		} else if f.nRed > f.total>>3 {
			f.harvest = true
		}
		blight := f.nBrown > f.total>>4
		f.pest = blight
		f.disease = blight
		f.stage = StageDone
	case StageDone:
		// Parked until the next vsync.
	}
}

// accumulate classifies one pixel by its high and mid three-bit intensity
// fields. The comparisons run in order and the first match claims the
// pixel; the ranges are not disjoint.
func (f *frameState) accumulate(pixel uint8) {
	f.total++
	hi := pixel >> 5
	mid := pixel >> 2 & 0x07
	switch {
	case mid >= 5 && hi < 3:
		f.green++
	case hi >= 5 && mid < 3:
		f.red++
	case hi >= 2 && mid >= 2:
		f.brown++
	}
}

func (f *frameState) snapshot() FrameSnapshot {
	return FrameSnapshot{
		Stage:   f.stage,
		Green:   f.green,
		Red:     f.red,
		Brown:   f.brown,
		Total:   f.total,
		NGreen:  f.nGreen,
		NRed:    f.nRed,
		NBrown:  f.nBrown,
		Score:   f.score,
		Harvest: f.harvest,
		Pest:    f.pest,
		Disease: f.disease,
	}
}
