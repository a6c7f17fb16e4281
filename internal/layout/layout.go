// Package layout assigns plan tasks to lanes and computes deterministic
// board-local positions for lane headers and task rows. Coordinates are
// board-local (x right, y up, z out of the board plane); conversion to world
// space is the caller's concern via a board Transform.
package layout

import "ideawall/internal/plan"

// Config holds the spatial and capacity parameters of the layout grid.
type Config struct {
	SpacingX   float64 `yaml:"spacing_x"`    // horizontal distance between lane columns
	SpacingY   float64 `yaml:"spacing_y"`    // vertical distance between rows
	StartY     float64 `yaml:"start_y"`      // y of the lane header row
	NoteSize   float64 `yaml:"note_size"`    // standard task note size
	MaxPerLane int     `yaml:"max_per_lane"` // tasks accepted per lane; overflow is dropped

	// LaneColors overrides the palette per lane name.
	LaneColors map[string]string `yaml:"lane_colors"`
}

// DefaultConfig returns the production layout defaults.
func DefaultConfig() Config {
	return Config{
		SpacingX:   0.28,
		SpacingY:   0.20,
		StartY:     0.35,
		NoteSize:   0.18,
		MaxPerLane: 8,
	}
}

// HeaderScale is the size of a lane header note relative to a task note.
const HeaderScale = 0.75

// Palette is the default lane color cycle, recycled by modulo when a board
// declares more lanes than entries.
var Palette = []string{
	"#FFD166", "#06D6A0", "#118AB2", "#EF476F",
	"#8338EC", "#FB8500", "#73D2DE", "#B5E48C",
}

// DefaultLane is used when the plan declares no lanes of its own.
const DefaultLane = "Tasks"

// Item is one positioned entity: a lane header or a task row.
type Item struct {
	Task     *plan.Task // nil for the header
	Position Vec3       // board-local
	Size     float64
}

// Lane is an ordered column of positioned items, header first.
type Lane struct {
	Name   string
	Color  string
	Header Item
	Rows   []Item
}

// LaneLayout is the full laid-out plan, lanes in declaration order.
type LaneLayout struct {
	Lanes []Lane
}

// Compute assigns tasks to lanes and positions every lane header and task
// row on the board-local grid. Tasks naming an unknown lane fall back to the
// first lane; tasks beyond a lane's cap are silently dropped (tidy-board
// policy, not an error).
func Compute(out plan.AIOutput, cfg Config) LaneLayout {
	if cfg.SpacingX == 0 {
		cfg.SpacingX = 0.28
	}
	if cfg.SpacingY == 0 {
		cfg.SpacingY = 0.20
	}
	if cfg.StartY == 0 {
		cfg.StartY = 0.35
	}
	if cfg.NoteSize == 0 {
		cfg.NoteSize = 0.18
	}
	if cfg.MaxPerLane <= 0 {
		cfg.MaxPerLane = 8
	}

	names := out.Workplan.Lanes
	if len(names) == 0 {
		names = []string{DefaultLane}
	}
	laneIndex := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := laneIndex[name]; !dup {
			laneIndex[name] = i
		}
	}

	lanes := make([]Lane, len(names))
	for i, name := range names {
		lanes[i] = Lane{
			Name:  name,
			Color: laneColor(name, i, cfg),
			Header: Item{
				Position: Vec3{X: float64(i) * cfg.SpacingX, Y: cfg.StartY},
				Size:     cfg.NoteSize * HeaderScale,
			},
		}
	}

	for i := range out.Workplan.Tasks {
		t := &out.Workplan.Tasks[i]
		idx, known := laneIndex[t.Lane]
		if !known {
			idx = 0
		}
		lane := &lanes[idx]
		if len(lane.Rows) >= cfg.MaxPerLane {
			continue
		}
		row := len(lane.Rows)
		lane.Rows = append(lane.Rows, Item{
			Task: t,
			Position: Vec3{
				X: float64(idx) * cfg.SpacingX,
				Y: cfg.StartY - float64(row+1)*cfg.SpacingY,
			},
			Size: cfg.NoteSize,
		})
	}

	return LaneLayout{Lanes: lanes}
}

// laneColor resolves a lane's color: explicit override first, then the
// palette cycled by lane index.
func laneColor(name string, index int, cfg Config) string {
	if c, ok := cfg.LaneColors[name]; ok {
		return c
	}
	return Palette[index%len(Palette)]
}
