package component

// DangerZone is the sensor region at the mouth of the container. The
// monitor state is mirrored here each tick for presentation.
type DangerZone struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64

	State   MonitorState
	Elapsed float64
}

var DangerZoneComponent = NewComponent[DangerZone]()

type MonitorState int

const (
	MonitorIdle MonitorState = iota
	MonitorWatching
	MonitorDanger
	MonitorGameOver
)

func (s MonitorState) String() string {
	switch s {
	case MonitorIdle:
		return "idle"
	case MonitorWatching:
		return "watching"
	case MonitorDanger:
		return "danger"
	case MonitorGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}
