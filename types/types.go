package types

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type Phase string

const (
	PhaseNoPending            Phase = "no_pending"
	PhaseAwaitingFields       Phase = "awaiting_fields"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
)

type Goal string

const (
	GoalMuscleGain Goal = "muscle_gain"
	GoalFatLoss    Goal = "fat_loss"
	GoalEndurance  Goal = "endurance"
	GoalStrength   Goal = "strength"
)

// Label is the human form used in prompts, e.g. "muscle gain".
func (g Goal) Label() string {
	switch g {
	case GoalMuscleGain:
		return "muscle gain"
	case GoalFatLoss:
		return "fat loss"
	default:
		return string(g)
	}
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Field names a slot of a WorkoutRequest.
type Field string

const (
	FieldGoal         Field = "goal"
	FieldMuscleGroups Field = "muscle_groups"
	FieldDuration     Field = "duration"
	FieldDifficulty   Field = "difficulty"
)

// Fields lists every slot in evaluation order.
var Fields = []Field{FieldGoal, FieldMuscleGroups, FieldDuration, FieldDifficulty}

// Pointer returns the JSON pointer of the field inside a WorkoutRequest document.
func (f Field) Pointer() string {
	return "/" + string(f)
}

type FieldInfo struct {
	JSONPointer string `json:"json_pointer"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// WorkoutRequest is a partial or complete workout request. Zero values mean unset.
type WorkoutRequest struct {
	Goal         Goal       `json:"goal,omitempty" jsonschema:"enum=muscle_gain,enum=fat_loss,enum=endurance,enum=strength,description=Training goal"`
	MuscleGroups []string   `json:"muscle_groups,omitempty" jsonschema:"description=Muscle groups to train"`
	Duration     int        `json:"duration,omitempty" jsonschema:"description=Session length in minutes"`
	Difficulty   Difficulty `json:"difficulty,omitempty" jsonschema:"enum=beginner,enum=intermediate,enum=advanced,description=Lifter level"`
}

func (r WorkoutRequest) IsSet(f Field) bool {
	switch f {
	case FieldGoal:
		return r.Goal != ""
	case FieldMuscleGroups:
		return len(r.MuscleGroups) > 0
	case FieldDuration:
		return r.Duration > 0
	case FieldDifficulty:
		return r.Difficulty != ""
	}
	return false
}

// Missing returns the unset fields in the fixed order goal, muscle_groups, duration, difficulty.
func (r WorkoutRequest) Missing() []Field {
	var missing []Field
	for _, f := range Fields {
		if !r.IsSet(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

func (r WorkoutRequest) Complete() bool {
	return len(r.Missing()) == 0
}

func (r WorkoutRequest) MissingInfo() []FieldInfo {
	missing := r.Missing()
	infos := make([]FieldInfo, 0, len(missing))
	for _, f := range missing {
		infos = append(infos, FieldInfo{
			JSONPointer: f.Pointer(),
			DisplayName: string(f),
			Description: fieldDescriptions[f],
			Required:    true,
		})
	}
	return infos
}

func (r WorkoutRequest) Equal(o WorkoutRequest) bool {
	return r.Goal == o.Goal &&
		r.Duration == o.Duration &&
		r.Difficulty == o.Difficulty &&
		slices.Equal(r.MuscleGroups, o.MuscleGroups)
}

// Validate reports values outside the known goals and difficulty levels, a negative duration
// or a blank muscle group. Unset fields are valid.
func (r WorkoutRequest) Validate() error {
	switch r.Goal {
	case "", GoalMuscleGain, GoalFatLoss, GoalEndurance, GoalStrength:
	default:
		return fmt.Errorf("unknown goal %q", r.Goal)
	}
	switch r.Difficulty {
	case "", DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return fmt.Errorf("unknown difficulty %q", r.Difficulty)
	}
	if r.Duration < 0 {
		return fmt.Errorf("negative duration %d", r.Duration)
	}
	for _, m := range r.MuscleGroups {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("blank muscle group in %q", r.MuscleGroups)
		}
	}
	return nil
}

var fieldDescriptions = map[Field]string{
	FieldGoal:         "muscle gain, fat loss, endurance or strength",
	FieldMuscleGroups: "which muscles to train, e.g. chest, back, legs",
	FieldDuration:     "how long the session should last, e.g. 45 minutes",
	FieldDifficulty:   "beginner, intermediate or advanced",
}

// Confirmation is a pending yes/no question about reusing a cached plan.
type Confirmation struct {
	Plan     string    `json:"plan"`
	Deadline time.Time `json:"deadline"`
}

// State is the pending dialogue entry of one user.
type State struct {
	Phase          Phase          `json:"phase"`
	Request        WorkoutRequest `json:"request"`
	Confirmation   *Confirmation  `json:"confirmation,omitempty"`
	LatestQuestion string         `json:"latest_question,omitempty"`
}

type MessagePair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ToolRequest is the context handed to LLM-backed components.
type ToolRequest struct {
	State         WorkoutRequest
	StateSchema   string
	Phase         Phase
	MessagePair   MessagePair
	MissingFields []FieldInfo
}
