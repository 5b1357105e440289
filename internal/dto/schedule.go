package dto

// WorkingHoursRuleInput is one weekday of a weekly schedule.
type WorkingHoursRuleInput struct {
	DayOfWeek *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	IsActive  *bool  `json:"is_active"`
}

// ReplaceWorkingHoursRequest replaces a staff member's weekly schedule.
type ReplaceWorkingHoursRequest struct {
	Rules []WorkingHoursRuleInput `json:"rules" validate:"dive"`
}

// CreateOverrideRequest adds a date-specific exception. IsAvailable=false
// blocks the interval; true narrows the day to it.
type CreateOverrideRequest struct {
	Date        string  `json:"date" validate:"required,isodate"`
	StartTime   string  `json:"start_time" validate:"required,hhmm"`
	EndTime     string  `json:"end_time" validate:"required,hhmm"`
	IsAvailable bool    `json:"is_available"`
	Reason      *string `json:"reason" validate:"omitempty,max=200"`
}
