// Package parse extracts normalized scores from shared puzzle-result text.
package parse

import (
	"regexp"
	"strconv"
)

// Shared results look like "#Tradle #1419 3/6" for a solve in three
// guesses, or "#Tradle #1419 X/6" for a failed puzzle.
var scorePattern = regexp.MustCompile(`#Tradle #(\d+) ([1-6X])/6`)

// FailureScore is the normalized value of an X result, one worse than
// the worst solve.
const FailureScore = 7

// Score parses the round number and normalized score out of pasted
// result text. X maps to FailureScore, so the result is always in [1, 7].
func Score(text string) (round int64, score int, err error) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, ErrUnparsable
	}

	round, err = strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, ErrUnparsable
	}

	if m[2] == "X" {
		return round, FailureScore, nil
	}
	score, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, ErrUnparsable
	}
	return round, score, nil
}
