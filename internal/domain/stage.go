package domain

// Stage is the position of a live session in the ordering flow. Sessions in
// the NoOrder, Committed or Cancelled positions do not exist in the store.
type Stage int

const (
	StageBuilding Stage = iota
	StageConfirming
)

func (s Stage) String() string {
	switch s {
	case StageBuilding:
		return "building"
	case StageConfirming:
		return "confirming"
	default:
		return "unknown"
	}
}
