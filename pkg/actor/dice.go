package actor

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/solorpg/chronicle/pkg/directive"
)

// Roll evaluates standard dice notation ("2d6", "d8+1", "3d4-2") and returns
// the total, never less than zero.
func Roll(notation string) (int, error) {
	return roll(notation, rand.Intn)
}

// roll takes the die function so tests can fix outcomes. intn must behave
// like rand.Intn: a value in [0, n).
func roll(notation string, intn func(n int) int) (int, error) {
	if !directive.ValidRollNotation(notation) {
		return 0, fmt.Errorf("invalid roll notation %q", notation)
	}
	s := strings.ToLower(strings.TrimSpace(notation))

	modifier := 0
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		m, err := strconv.Atoi(s[i:])
		if err != nil {
			return 0, fmt.Errorf("invalid roll modifier %q", notation)
		}
		modifier = m
		s = s[:i]
	}

	countStr, sidesStr, _ := strings.Cut(s, "d")
	count := 1
	if countStr != "" {
		c, err := strconv.Atoi(countStr)
		if err != nil {
			return 0, fmt.Errorf("invalid die count %q", notation)
		}
		count = c
	}
	sides, err := strconv.Atoi(sidesStr)
	if err != nil || sides < 1 {
		return 0, fmt.Errorf("invalid die size %q", notation)
	}

	total := modifier
	for i := 0; i < count; i++ {
		total += intn(sides) + 1
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}
