package validation

import (
	"fmt"
	"math"
)

// ranking результат ранжирования меток одного вызова скорера.
type ranking struct {
	logits []float64
	probs  []float64
	top    int
	second int
	margin float64
}

// rank считает softmax и разрыв top1−top2 по логитам. Логиты сравнимы только
// в пределах одного вызова.
func rank(logits []float64, labels int) (ranking, error) {
	if len(logits) != labels {
		return ranking{}, fmt.Errorf("scorer returned %d logits for %d labels", len(logits), labels)
	}
	if labels < 2 {
		return ranking{}, fmt.Errorf("need at least two labels to rank, got %d", labels)
	}
	for _, l := range logits {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return ranking{}, fmt.Errorf("scorer returned non-finite logit %v", l)
		}
	}

	r := ranking{logits: logits, probs: softmax(logits), top: 0, second: 1}
	if logits[1] > logits[0] {
		r.top, r.second = 1, 0
	}
	for i := 2; i < len(logits); i++ {
		switch {
		case logits[i] > logits[r.top]:
			r.second = r.top
			r.top = i
		case logits[i] > logits[r.second]:
			r.second = i
		}
	}
	r.margin = logits[r.top] - logits[r.second]
	return r, nil
}

func softmax(logits []float64) []float64 {
	peak := logits[0]
	for _, l := range logits[1:] {
		if l > peak {
			peak = l
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
