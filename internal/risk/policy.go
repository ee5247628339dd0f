package risk

import (
	"github.com/socialseed/socialseed/internal/phase"
)

// Phase score ceilings for escalation. The funnel widens as accounts mature:
// phase_1 tolerates no model-flagged uncertainty at all, later phases trade
// the model verdict off against the composite score.
const (
	phase2RedScore    = 0.6
	phase2YellowScore = 0.3
	phase3RedScore    = 0.8
	phase3YellowScore = 0.5
)

// Reconcile merges the model verdict with phase policy into the final level.
//
//	phase_1: any yellow or red from the model escalates to red; only a clean
//	         green passes through.
//	phase_2: red when model says red or score > 0.6; yellow when model says
//	         yellow or score > 0.3.
//	phase_3: same shape with ceilings 0.8 and 0.5.
func Reconcile(p phase.Phase, llm Level, score float64) Level {
	switch p {
	case phase.Phase2:
		return reconcileScored(llm, score, phase2RedScore, phase2YellowScore)
	case phase.Phase3:
		return reconcileScored(llm, score, phase3RedScore, phase3YellowScore)
	default:
		// phase_1 and anything unrecognized get the zero-tolerance policy.
		if llm == LevelGreen {
			return LevelGreen
		}
		return LevelRed
	}
}

func reconcileScored(llm Level, score, redCeiling, yellowCeiling float64) Level {
	if llm == LevelRed || score > redCeiling {
		return LevelRed
	}
	if llm == LevelYellow || score > yellowCeiling {
		return LevelYellow
	}
	return LevelGreen
}
