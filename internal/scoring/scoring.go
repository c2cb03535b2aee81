// Package scoring turns a candidate's selected options into a total score and
// a classification band. Everything here is pure and deterministic.
package scoring

import (
	"github.com/cockroachdb/errors"
)

// Answers maps a question id to the option texts the candidate selected.
type Answers = map[int][]string

// ComputeScore sums the value of every selected option that matches, by exact text,
// an option of the same question in the bank. Unknown texts and unknown question ids
// contribute nothing. Selection counts are not checked here.
func ComputeScore(answers Answers, bank Bank) int {
	total := 0
	for _, v := range Breakdown(answers, bank) {
		total += v
	}
	return total
}

// Breakdown returns the subtotal per bank question, including zero for unanswered ones.
func Breakdown(answers Answers, bank Bank) map[int]int {
	out := make(map[int]int, len(bank.Questions))
	for _, q := range bank.Questions {
		subtotal := 0
		for _, selected := range answers[q.ID] {
			for _, o := range q.Options {
				if o.Text == selected {
					subtotal += o.Value
					break
				}
			}
		}
		out[q.ID] = subtotal
	}
	return out
}

// Band is a terminal classification outcome.
type Band string

const (
	Band0 Band = "BAND0"
	Band1 Band = "BAND1"
	Band2 Band = "BAND2"
	Band3 Band = "BAND3"
)

var bands = []Band{Band0, Band1, Band2, Band3}

func ParseBand(s string) (Band, bool) {
	for _, b := range bands {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}

func (b Band) Label() string {
	switch b {
	case Band0:
		return "below expectation"
	case Band1:
		return "within expectation"
	case Band2:
		return "above expectation"
	case Band3:
		return "exceeded expectation"
	}
	return "unknown"
}

// Feedback is the message shown to the candidate after completion.
func (b Band) Feedback() string {
	switch b {
	case Band0:
		return "You have room to grow. Reflect on your choices and values to further develop your personal strengths."
	case Band1:
		return "You show solid values and are on the right track. Keep developing your qualities to reach your full potential."
	case Band2:
		return "Excellent! You show strong values in responsibility and empathy and have great leadership potential."
	case Band3:
		return "Congratulations! You exceeded every expectation. Your choices reflect exceptional character and deeply rooted values."
	}
	return ""
}

// The two ceilings observed for BAND2. Which one is authoritative is a pending product decision.
const (
	AboveMaxStrict  = 90
	AboveMaxDefault = 95
)

// Thresholds are the inclusive upper bounds of BAND0, BAND1 and BAND2.
// Anything above AboveMax is BAND3.
type Thresholds struct {
	BelowMax  int
	WithinMax int
	AboveMax  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{BelowMax: 67, WithinMax: 75, AboveMax: AboveMaxDefault}
}

// WithAboveMax returns a copy with a different BAND2 ceiling.
func (t Thresholds) WithAboveMax(v int) Thresholds {
	t.AboveMax = v
	return t
}

func (t Thresholds) Validate() error {
	if t.BelowMax < 0 || t.WithinMax <= t.BelowMax || t.AboveMax <= t.WithinMax {
		return errors.Newf("thresholds must be strictly increasing, got %d/%d/%d", t.BelowMax, t.WithinMax, t.AboveMax)
	}
	return nil
}

func (t Thresholds) Classify(score int) Band {
	switch {
	case score <= t.BelowMax:
		return Band0
	case score <= t.WithinMax:
		return Band1
	case score <= t.AboveMax:
		return Band2
	default:
		return Band3
	}
}
