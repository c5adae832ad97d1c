package eligibility

import "time"

type Category string

const (
	CategoryNotification Category = "notification"
	CategorySurvey       Category = "survey"
)

type Frequency string

const (
	FrequencyOneTime Frequency = "one_time"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

type LogicOp string

const (
	LogicAnd LogicOp = "and"
	LogicOr  LogicOp = "or"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionText           QuestionType = "text"
)

// DisplayConfig is the current-generation display policy. Frequency may be
// empty on legacy definitions, in which case Normalize falls back to
// RenewalConfig / RepeatInterval.
type DisplayConfig struct {
	Frequency Frequency   `json:"frequency,omitempty" firestore:"frequency,omitempty"`
	DayOfWeek string      `json:"day_of_week,omitempty" firestore:"day_of_week,omitempty"`
	Dates     []time.Time `json:"dates,omitempty" firestore:"dates,omitempty"`
}

// RenewalConfig is a legacy renewal policy kept for definitions authored
// before DisplayConfig existed.
type RenewalConfig struct {
	Method string `json:"method,omitempty" firestore:"method,omitempty"`
}

// RepeatInterval is the oldest renewal shape: a bare value+unit interval.
type RepeatInterval struct {
	Value int    `json:"value,omitempty" firestore:"value,omitempty"`
	Unit  string `json:"unit,omitempty" firestore:"unit,omitempty"`
}

type DateRange struct {
	Start time.Time `json:"start" firestore:"start"`
	End   time.Time `json:"end" firestore:"end"`
}

type AgeRange struct {
	Min int `json:"min" firestore:"min"`
	Max int `json:"max" firestore:"max"`
}

// CategoryCondition matches a teacher's category flags on the course context.
type CategoryCondition struct {
	TeacherKey  string   `json:"teacher_key" firestore:"teacher_key"`
	CategoryIDs []string `json:"category_ids" firestore:"category_ids"`
}

// Conditions holds every condition a definition may specify. A nil/empty
// field means the condition is not part of the definition and is omitted from
// the AND/OR vote entirely.
type Conditions struct {
	Logic                LogicOp             `json:"logic,omitempty" firestore:"logic,omitempty"`
	StudentTypes         []string            `json:"student_types,omitempty" firestore:"student_types,omitempty"`
	DiplomaMonths        []string            `json:"diploma_months,omitempty" firestore:"diploma_months,omitempty"`
	CourseIDs            []int               `json:"course_ids,omitempty" firestore:"course_ids,omitempty"`
	SchoolYears          []string            `json:"school_years,omitempty" firestore:"school_years,omitempty"`
	ScheduleEndDateRange *DateRange          `json:"schedule_end_date_range,omitempty" firestore:"schedule_end_date_range,omitempty"`
	AgeRange             *AgeRange           `json:"age_range,omitempty" firestore:"age_range,omitempty"`
	Emails               []string            `json:"emails,omitempty" firestore:"emails,omitempty"`
	Categories           []CategoryCondition `json:"categories,omitempty" firestore:"categories,omitempty"`
	ActiveFutureArchived []string            `json:"active_future_archived,omitempty" firestore:"active_future_archived,omitempty"`
}

type SurveyQuestion struct {
	ID           string       `json:"id" firestore:"id"`
	QuestionType QuestionType `json:"question_type" firestore:"question_type"`
	Prompt       string       `json:"prompt" firestore:"prompt"`
	Options      []string     `json:"options,omitempty" firestore:"options,omitempty"`
}

// Definition is an authored notification or survey. Type carries the raw
// authored string, including the legacy variants ("once", "recurring",
// "weekly-survey"); Normalize resolves it to a Category+Frequency pair and
// downstream logic never reads the raw fields again.
type Definition struct {
	ID              string           `json:"id" firestore:"id"`
	Title           string           `json:"title" firestore:"title" validate:"required"`
	Content         string           `json:"content" firestore:"content"`
	Type            string           `json:"type" firestore:"type" validate:"required"`
	DisplayConfig   *DisplayConfig   `json:"display_config,omitempty" firestore:"display_config,omitempty"`
	RenewalConfig   *RenewalConfig   `json:"renewal_config,omitempty" firestore:"renewal_config,omitempty"`
	RepeatInterval  *RepeatInterval  `json:"repeat_interval,omitempty" firestore:"repeat_interval,omitempty"`
	Conditions      Conditions       `json:"conditions" firestore:"conditions"`
	SurveyQuestions []SurveyQuestion `json:"survey_questions,omitempty" firestore:"survey_questions,omitempty"`
	Active          bool             `json:"active" firestore:"active"`
	CreatedAt       time.Time        `json:"created_at" firestore:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" firestore:"updated_at"`
}

// FieldValue is the nested wrapper shape some older course-context documents
// use for single-valued fields.
type FieldValue struct {
	Value string `json:"Value" firestore:"Value"`
}

// Submission is one survey submission recorded by the persistence gateway.
type Submission struct {
	SubmittedAt      *time.Time        `json:"submitted_at,omitempty" firestore:"submitted_at,omitempty"`
	SeenAt           *time.Time        `json:"seen_at,omitempty" firestore:"seen_at,omitempty"`
	Answers          map[string]string `json:"answers,omitempty" firestore:"answers,omitempty"`
	EncryptedAnswers string            `json:"encrypted_answers,omitempty" firestore:"encrypted_answers,omitempty"`
}

// InteractionResult is the prior interaction state for one definition on one
// course. Owned by the store; the evaluator only reads it.
type InteractionResult struct {
	HasSeen         bool                  `json:"has_seen" firestore:"has_seen"`
	HasAcknowledged bool                  `json:"has_acknowledged" firestore:"has_acknowledged"`
	Acknowledged    bool                  `json:"acknowledged,omitempty" firestore:"acknowledged,omitempty"`
	AcknowledgedAt  *time.Time            `json:"acknowledged_at,omitempty" firestore:"acknowledged_at,omitempty"`
	Completed       bool                  `json:"completed" firestore:"completed"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty" firestore:"completed_at,omitempty"`
	Answers         map[string]string     `json:"answers,omitempty" firestore:"answers,omitempty"`
	LastSeen        *time.Time            `json:"last_seen,omitempty" firestore:"last_seen,omitempty"`
	LastSubmitted   *time.Time            `json:"last_submitted,omitempty" firestore:"last_submitted,omitempty"`
	NextRenewalDate *time.Time            `json:"next_renewal_date,omitempty" firestore:"next_renewal_date,omitempty"`
	Submissions     map[string]Submission `json:"submissions,omitempty" firestore:"submissions,omitempty"`
}

// CourseContext is the merged student+course record conditions run against.
// Single-valued identity fields exist in two historical shapes: the nested
// FieldValue wrapper and a flat "_Value" suffixed string. Accessors check the
// nested shape first and fall back to the flat one.
type CourseContext struct {
	StudentID string `json:"student_id" firestore:"student_id"`
	CourseID  string `json:"course_id" firestore:"course_id"`

	StudentType      *FieldValue `json:"StudentType,omitempty" firestore:"StudentType,omitempty"`
	StudentTypeValue string      `json:"StudentType_Value,omitempty" firestore:"StudentType_Value,omitempty"`

	DiplomaMonth      *FieldValue `json:"DiplomaMonthChoice,omitempty" firestore:"DiplomaMonthChoice,omitempty"`
	DiplomaMonthValue string      `json:"DiplomaMonthChoice_Value,omitempty" firestore:"DiplomaMonthChoice_Value,omitempty"`

	SchoolYear      *FieldValue `json:"SchoolYear,omitempty" firestore:"SchoolYear,omitempty"`
	SchoolYearValue string      `json:"SchoolYear_Value,omitempty" firestore:"SchoolYear_Value,omitempty"`

	Status      *FieldValue `json:"ActiveFutureArchived,omitempty" firestore:"ActiveFutureArchived,omitempty"`
	StatusValue string      `json:"ActiveFutureArchived_Value,omitempty" firestore:"ActiveFutureArchived_Value,omitempty"`

	ScheduleEndDate string `json:"ScheduleEndDate,omitempty" firestore:"ScheduleEndDate,omitempty"`

	// Categories maps teacherKey -> categoryID -> flag.
	Categories map[string]map[string]bool `json:"categories,omitempty" firestore:"categories,omitempty"`

	NotificationResults map[string]*InteractionResult `json:"notification_results,omitempty" firestore:"notification_results,omitempty"`
}

func (c *CourseContext) studentType() string {
	if c.StudentType != nil && c.StudentType.Value != "" {
		return c.StudentType.Value
	}
	return c.StudentTypeValue
}

func (c *CourseContext) diplomaMonth() string {
	if c.DiplomaMonth != nil && c.DiplomaMonth.Value != "" {
		return c.DiplomaMonth.Value
	}
	return c.DiplomaMonthValue
}

func (c *CourseContext) schoolYear() string {
	if c.SchoolYear != nil && c.SchoolYear.Value != "" {
		return c.SchoolYear.Value
	}
	return c.SchoolYearValue
}

func (c *CourseContext) enrollmentStatus() string {
	if c.Status != nil && c.Status.Value != "" {
		return c.Status.Value
	}
	return c.StatusValue
}

// Result returns the prior interaction record for a definition, or nil.
func (c *CourseContext) Result(definitionID string) *InteractionResult {
	if c == nil || c.NotificationResults == nil {
		return nil
	}
	return c.NotificationResults[definitionID]
}

// Profile holds the student-level fields conditions need that are not
// course-scoped. Birthdate is kept as the raw stored string; an unparseable
// value simply never matches an age condition.
type Profile struct {
	StudentID string `json:"student_id" firestore:"student_id"`
	Email     string `json:"email" firestore:"email"`
	Birthdate string `json:"birthdate,omitempty" firestore:"birthdate,omitempty"`
}

// Result is the verdict for one (definition, course) evaluation.
type Result struct {
	IsMatch           bool              `json:"is_match"`
	ShouldDisplay     bool              `json:"should_display"`
	Reason            string            `json:"reason"`
	SurveyCompleted   bool              `json:"survey_completed"`
	SurveyAnswers     map[string]string `json:"survey_answers,omitempty"`
	SurveyCompletedAt *time.Time        `json:"survey_completed_at,omitempty"`
	NextAvailableDate *time.Time        `json:"next_available_date,omitempty"`
}

// CourseResult pairs a Result with the definition it was evaluated for, as
// returned by EvaluateAll.
type CourseResult struct {
	Definition *Definition `json:"definition"`
	Result
}
