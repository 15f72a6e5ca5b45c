package planner

import (
	"encoding/json"
	"fmt"
)

// NoticeScope tells whether a notice came from a whole-plan or a single-day recalibration.
type NoticeScope string

const (
	ScopeDay  NoticeScope = "day"
	ScopePlan NoticeScope = "plan"
)

const (
	NoticeExerciseDropped  = "exercise_dropped"
	NoticeExerciseReplaced = "exercise_replaced"
	NoticeVolumeUnassigned = "volume_unassigned"
)

// Notice reports a change recalibration made to a plan. The set of implementations is closed.
type Notice interface {
	Type() string
	notice()
}

// DroppedNotice reports an exercise that was removed because nothing compatible could replace it.
type DroppedNotice struct {
	Scope          NoticeScope `json:"scope"`
	PlanID         int         `json:"plan_id"`
	PlanDayID      int         `json:"plan_day_id"`
	PlanExerciseID int         `json:"plan_exercise_id"`
	ExerciseID     int         `json:"exercise_id"`
	SetsLost       int         `json:"sets_lost"`
	Reason         string      `json:"reason"`
}

// ReplacedNotice reports an exercise swapped for one the facility supports.
type ReplacedNotice struct {
	Scope          NoticeScope `json:"scope"`
	PlanID         int         `json:"plan_id"`
	PlanDayID      int         `json:"plan_day_id"`
	PlanExerciseID int         `json:"plan_exercise_id"`
	FromExerciseID int         `json:"from_exercise_id"`
	ToExerciseID   int         `json:"to_exercise_id"`
	Reason         string      `json:"reason"`
}

// UnassignedVolumeNotice reports sets of dropped exercises that no remaining exercise had capacity for.
type UnassignedVolumeNotice struct {
	Scope     NoticeScope `json:"scope"`
	PlanID    int         `json:"plan_id"`
	PlanDayID int         `json:"plan_day_id"`
	Sets      int         `json:"sets"`
	Reason    string      `json:"reason"`
}

func (DroppedNotice) Type() string          { return NoticeExerciseDropped }
func (ReplacedNotice) Type() string         { return NoticeExerciseReplaced }
func (UnassignedVolumeNotice) Type() string { return NoticeVolumeUnassigned }

func (DroppedNotice) notice()          {}
func (ReplacedNotice) notice()         {}
func (UnassignedVolumeNotice) notice() {}

func (n DroppedNotice) MarshalJSON() ([]byte, error) {
	type alias DroppedNotice
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: n.Type(), alias: alias(n)})
}

func (n ReplacedNotice) MarshalJSON() ([]byte, error) {
	type alias ReplacedNotice
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: n.Type(), alias: alias(n)})
}

func (n UnassignedVolumeNotice) MarshalJSON() ([]byte, error) {
	type alias UnassignedVolumeNotice
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: n.Type(), alias: alias(n)})
}

// Summary describes the outcome of a recalibration in one sentence.
func Summary(notices []Notice) string {
	var dropped, replaced, unassigned int
	for _, n := range notices {
		switch n := n.(type) {
		case DroppedNotice:
			dropped++
		case ReplacedNotice:
			replaced++
		case UnassignedVolumeNotice:
			unassigned += n.Sets
		}
	}
	switch {
	case dropped == 0 && replaced == 0:
		return "All exercises are compatible with the selected facility."
	case dropped == 0:
		return fmt.Sprintf("%d exercise(s) were replaced to match the facility equipment.", replaced)
	case unassigned > 0:
		return fmt.Sprintf("%d exercise(s) were removed because no compatible replacement was available; "+
			"volume redistributed except %d set(s).", dropped, unassigned)
	}
	return fmt.Sprintf("%d exercise(s) were removed because no compatible replacement was available; "+
		"volume redistributed.", dropped)
}
