package pipeline

// Stage is one step of the run and its share of the global progress scale.
type Stage struct {
	Name   string
	Weight float64
}

// Indexes into Stages.
const (
	StageUnpack = iota
	StageTemplate
	StageResize
	StageQuantize
	StageRepack
)

// Stages lists the run steps in execution order. Weights sum to 100.
var Stages = []Stage{
	{Name: "Unpack", Weight: 25},
	{Name: "Template", Weight: 25},
	{Name: "Resize", Weight: 25},
	{Name: "Quantize", Weight: 15},
	{Name: "Repack", Weight: 10},
}

// GlobalProgress maps a stage-local percentage into the stage's sub-range of
// [0,100]. Local values are clamped to [0,100].
func GlobalProgress(stage int, local float64) float64 {
	if stage < 0 {
		return 0
	}
	if stage >= len(Stages) {
		return 100
	}

	local = min(max(local, 0), 100)

	var base float64
	for _, s := range Stages[:stage] {
		base += s.Weight
	}
	return min(base+Stages[stage].Weight*local/100, 100)
}
