package options

import "fmt"

// Quality is the bounded five-level setting shared by the rendering
// effect dimensions. It is persisted as its underlying integer.
type Quality int

const (
	QualityUltra Quality = iota
	QualityHigh
	QualityMedium
	QualityLow
	QualityDisabled
)

// String returns the lowercase level name.
func (q Quality) String() string {
	switch q {
	case QualityUltra:
		return "ultra"
	case QualityHigh:
		return "high"
	case QualityMedium:
		return "medium"
	case QualityLow:
		return "low"
	case QualityDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// Clamp pulls out-of-range values back to Medium, the same level the
// defaults use.
func (q Quality) Clamp() Quality {
	if q < QualityUltra || q > QualityDisabled {
		return QualityMedium
	}
	return q
}
