package camera

import (
	"errors"

	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// ErrConflictingState is returned when a patch sets both Target and Rotation;
// only one of them can be authoritative.
var ErrConflictingState = errors.New("camera: state patch sets both target and rotation")

// State is the complete, resolved camera state.
type State struct {
	Position math.Vec3
	Target   math.Vec3
	Rotation math.Quat
}

// StatePatch is a sparse update; nil fields keep their current value.
type StatePatch struct {
	Position *math.Vec3
	Target   *math.Vec3
	Rotation *math.Quat
}

// Patch returns a patch that sets every field of s except the one the variant derives.
func (s State) Patch() StatePatch {
	pos, target := s.Position, s.Target
	return StatePatch{Position: &pos, Target: &target}
}

func (p StatePatch) validate() error {
	if p.Target != nil && p.Rotation != nil {
		return ErrConflictingState
	}
	return nil
}
