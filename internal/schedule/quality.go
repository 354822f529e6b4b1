package schedule

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidQuality is returned for recall scores outside 0..5.
// Use errors.Is to check.
var ErrInvalidQuality = errors.New("schedule: invalid quality")

// Quality is the 0..5 self-rated recall score submitted at the end of a
// review. 0 is a total blackout, 5 an effortless recall; 3 is the lowest
// passing score.
type Quality int

const (
	QualityBlackout  Quality = 0 // no recall at all
	QualityIncorrect Quality = 1 // wrong, but the answer felt familiar
	QualityAlmost    Quality = 2 // wrong, remembered once shown
	QualityHard      Quality = 3 // correct with serious difficulty
	QualityGood      Quality = 4 // correct after some hesitation
	QualityPerfect   Quality = 5 // instant, effortless recall
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Quality(0)
	_ encoding.TextMarshaler   = Quality(0)
	_ encoding.TextUnmarshaler = (*Quality)(nil)
)

// IsValid reports whether q is within the 0..5 contract.
func (q Quality) IsValid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// Passing reports whether q counts as a successful recall.
func (q Quality) Passing() bool {
	return q >= QualityHard
}

func (q Quality) String() string {
	if q.IsValid() {
		return fmt.Sprintf("%d", int(q))
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(text []byte) error {
	var n int
	if _, err := fmt.Sscanf(string(text), "%d", &n); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidQuality, text)
	}
	v := Quality(n)
	if !v.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, n)
	}
	*q = v
	return nil
}

// UnmarshalJSON accepts a bare JSON number.
func (q *Quality) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuality, data)
	}
	v := Quality(n)
	if !v.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, n)
	}
	*q = v
	return nil
}
