package particular

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/schedule"
)

// Categories
const (
	CategoryVehicle      = "vehicle"
	CategoryTravels      = "travels"
	CategoryPersonal     = "personal"
	CategoryWork         = "work"
	CategoryProfessional = "professional"
	CategoryHousehold    = "household"
	CategoryFinance      = "finance"
	CategoryHealth       = "health"
	CategorySocial       = "social"
	CategoryEducation    = "education"
	CategoryOther        = "other"
)

var Categories = []string{
	CategoryVehicle, CategoryTravels, CategoryPersonal, CategoryWork,
	CategoryProfessional, CategoryHousehold, CategoryFinance, CategoryHealth,
	CategorySocial, CategoryEducation, CategoryOther,
}

// Delivery channels
type Method string

const (
	MethodEmail    Method = "email"
	MethodSMS      Method = "sms"
	MethodPush     Method = "push"
	MethodWhatsApp Method = "whatsapp"
)

var Methods = []Method{MethodEmail, MethodSMS, MethodPush, MethodWhatsApp}

// Particular is a tracked document or item with an expiry date.
type Particular struct {
	ID      string `json:"id" db:"id"`
	OwnerID string `json:"owner_id" db:"owner_id"`
	OrgID   string `json:"organization_id,omitempty" db:"org_id"`

	Title       string    `json:"title" db:"title"`
	Category    string    `json:"category" db:"category"`
	ExpiryDate  time.Time `json:"expiry_date" db:"expiry_date"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	DocumentURL string    `json:"document_url,omitempty" db:"document_url"`
	Completed   bool      `json:"completed" db:"completed"`

	// Owners are delegated staff accounts in addition to the creator.
	Owners    []string   `json:"owners,omitempty" db:"-"`
	Reminders []Reminder `json:"reminders,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (p *Particular) Status(today time.Time) schedule.Status {
	return schedule.Classify(p.ExpiryDate, today)
}

func (p *Particular) OwnedBy(userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, id := range p.Owners {
		if id == userID {
			return true
		}
	}
	return false
}

// Reminder is a notification schedule attached to one Particular.
type Reminder struct {
	ID           string `json:"id" db:"id"`
	ParticularID string `json:"particular_id" db:"particular_id"`

	ScheduledAt     time.Time           `json:"scheduled_date" db:"scheduled_at"`
	Methods         []Method            `json:"reminder_methods" db:"-"`
	Recurrence      schedule.Recurrence `json:"recurrence" db:"recurrence"`
	StartDaysBefore int                 `json:"start_days_before" db:"start_days_before"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (r *Reminder) Rule() schedule.Rule {
	return schedule.Rule{
		ScheduledAt:     r.ScheduledAt,
		Recurrence:      r.Recurrence,
		StartDaysBefore: r.StartDaysBefore,
	}
}

func (r *Reminder) HasMethod(m Method) bool {
	for _, method := range r.Methods {
		if method == m {
			return true
		}
	}
	return false
}

// BuildEvents derives the full calendar event set from particulars and
// their reminders: one expiry event each, plus every expanded reminder
// occurrence. Events are computed fresh on each call.
func BuildEvents(particulars []Particular) []schedule.Event {
	var events []schedule.Event
	for _, p := range particulars {
		events = append(events, schedule.Event{
			SourceID: p.ID,
			Title:    p.Title + " (Expires)",
			Date:     p.ExpiryDate,
			Kind:     schedule.EventExpiry,
		})
		for _, r := range p.Reminders {
			for _, occ := range schedule.Expand(r.Rule(), p.ExpiryDate) {
				events = append(events, schedule.Event{
					SourceID:   r.ID,
					Title:      "Reminder for " + p.Title,
					Date:       occ,
					Kind:       schedule.EventReminder,
					Recurrence: r.Recurrence,
				})
			}
		}
	}
	return events
}

// NewParticular contains information needed to create a Particular.
type NewParticular struct {
	Title       string    `json:"title" validate:"required"`
	Category    string    `json:"category" validate:"required,category"`
	ExpiryDate  time.Time `json:"expiry_date" validate:"required"`
	Notes       string    `json:"notes"`
	DocumentURL string    `json:"document_url" validate:"omitempty,url"`
}

func (np *NewParticular) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Category = core.CleanString(np.Category, true /* lower */)
	np.Notes = core.CleanString(np.Notes)
	return validate.Struct(np)
}

// UpdateParticular defines what may be modified; zero-valued fields keep
// their current value.
type UpdateParticular struct {
	Title       string     `json:"title"`
	Category    string     `json:"category" validate:"omitempty,category"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Notes       *string    `json:"notes"`
	DocumentURL string     `json:"document_url" validate:"omitempty,url"`
	Completed   *bool      `json:"completed"`
}

func (up *UpdateParticular) Validate(validate *validator.Validate) error {
	up.Title = core.CleanString(up.Title)
	up.Category = core.CleanString(up.Category, true /* lower */)
	return validate.Struct(up)
}

// NewReminder contains information needed to attach a Reminder.
type NewReminder struct {
	ParticularID    string              `json:"particular" validate:"required"`
	ScheduledAt     time.Time           `json:"scheduled_date" validate:"required"`
	Methods         []Method            `json:"reminder_methods" validate:"required,min=1,unique,dive,method"`
	Recurrence      schedule.Recurrence `json:"recurrence" validate:"required,recurrence"`
	StartDaysBefore int                 `json:"start_days_before" validate:"omitempty,min=1,max=7"`
}

func (nr *NewReminder) Validate(validate *validator.Validate) error {
	if err := validate.Struct(nr); err != nil {
		return err
	}
	if nr.Recurrence != schedule.RecurrenceNone && nr.StartDaysBefore == 0 {
		return core.NewValidationError(nil, core.FieldError{
			Field: "start_days_before",
			Error: "required for recurring reminders",
		})
	}
	return nil
}

// UpdateReminder defines what may be modified on a Reminder.
type UpdateReminder struct {
	ScheduledAt     *time.Time          `json:"scheduled_date"`
	Methods         []Method            `json:"reminder_methods" validate:"omitempty,min=1,unique,dive,method"`
	Recurrence      schedule.Recurrence `json:"recurrence" validate:"omitempty,recurrence"`
	StartDaysBefore int                 `json:"start_days_before" validate:"omitempty,min=1,max=7"`
}

func (ur *UpdateReminder) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}

type QueryFilter struct {
	Search    string `query:"q"`
	OwnerID   string `query:"-"`
	OrgID     string `query:"-"`
	Category  string `query:"category"`
	Completed *bool  `query:"completed"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.OwnerID == "" && qf.OrgID == "" && qf.Category == "" && qf.Completed == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}
