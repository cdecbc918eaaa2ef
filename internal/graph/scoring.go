package graph

import "sort"

// Band is the banded verdict for a composite score.
type Band string

const (
	BandOK    Band = "OK"
	BandWarn  Band = "WARN"
	BandError Band = "ERROR"
)

// Score is one node's composite score and banded verdict.
type Score struct {
	ID    string
	Value float64
	Band  Band
}

// DefaultWeights mirrors the policy document's built-in scoring defaults
// (internal/policy.Default): each metric contributes equally.
var DefaultWeights = map[string]float64{
	"fanIn": 0.25, "fanOut": 0.25, "packageSpread": 0.25, "methodCount": 0.25,
}

// ComputeScores computes the v1 composite score for every node: each raw
// metric is normalized to [0,1] by dividing by that metric's max-in-run
// value (guarded against a zero denominator), weighted and summed, clamped
// to [0,1], then banded by inclusive comparison against the warning/error
// thresholds (spec.md §4.7, §9: "score >= error -> ERROR, else score >=
// warning -> WARN, else OK").
func ComputeScores(m *Metrics, weights map[string]float64, warning, errorT float64) []Score {
	if weights == nil {
		weights = DefaultWeights
	}
	maxFanIn := maxOf(m.FanIn)
	maxFanOut := maxOf(m.FanOut)
	maxSpread := maxOf(m.PackageSpread)
	maxMethods := maxOf(m.MethodCount)

	ids := make(map[string]bool)
	for id := range m.FanIn {
		ids[id] = true
	}
	for id := range m.FanOut {
		ids[id] = true
	}
	for id := range m.PackageSpread {
		ids[id] = true
	}
	for id := range m.MethodCount {
		ids[id] = true
	}

	scores := make([]Score, 0, len(ids))
	for id := range ids {
		value := weights["fanIn"]*normalize(m.FanIn[id], maxFanIn) +
			weights["fanOut"]*normalize(m.FanOut[id], maxFanOut) +
			weights["packageSpread"]*normalize(m.PackageSpread[id], maxSpread) +
			weights["methodCount"]*normalize(m.MethodCount[id], maxMethods)
		if value > 1 {
			value = 1
		}
		if value < 0 {
			value = 0
		}
		scores = append(scores, Score{ID: id, Value: value, Band: band(value, warning, errorT)})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].ID < scores[j].ID
	})
	return scores
}

func band(value, warning, errorT float64) Band {
	switch {
	case value >= errorT:
		return BandError
	case value >= warning:
		return BandWarn
	default:
		return BandOK
	}
}

func normalize(v, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(v) / float64(max)
}

func maxOf(m map[string]int) int {
	max := 0
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	return max
}
