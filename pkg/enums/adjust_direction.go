package enums

import "fmt"

// AdjustDirection controls whether a bulk price adjustment raises or lowers prices.
type AdjustDirection string

const (
	AdjustDirectionIncrease AdjustDirection = "increase"
	AdjustDirectionDecrease AdjustDirection = "decrease"
)

var validAdjustDirections = []AdjustDirection{
	AdjustDirectionIncrease,
	AdjustDirectionDecrease,
}

// String implements fmt.Stringer.
func (a AdjustDirection) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustDirection.
func (a AdjustDirection) IsValid() bool {
	for _, candidate := range validAdjustDirections {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdjustDirection converts raw input into an AdjustDirection.
func ParseAdjustDirection(value string) (AdjustDirection, error) {
	for _, candidate := range validAdjustDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjust direction %q", value)
}
