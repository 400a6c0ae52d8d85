package forms

import "github.com/noah-isme/gema-admin/internal/models"

// ClassForm is the create/edit class form.
type ClassForm struct {
	ClassName    string   `json:"className" label:"Class Name" validate:"required"`
	Section      string   `json:"section" label:"Section" validate:"required"`
	Subject      string   `json:"subject" label:"Subject" validate:"required"`
	Teacher      string   `json:"teacher" label:"Teacher"`
	Description  string   `json:"description" label:"Description"`
	ScheduleType string   `json:"scheduleType" label:"Schedule Type" validate:"omitempty,oneof=regular weekend custom"`
	StartDate    string   `json:"startDate" label:"Start Date" validate:"omitempty,date"`
	EndDate      string   `json:"endDate" label:"End Date" validate:"omitempty,date,date_after=StartDate"`
	Days         []string `json:"days" label:"Days"`
	StartTime    string   `json:"startTime" label:"Start Time"`
	EndTime      string   `json:"endTime" label:"End Time"`
	MaxStudents  int      `json:"maxStudents" label:"Max Students" validate:"omitempty,gte=1,lte=500"`
	FeeType      string   `json:"feeType" label:"Fee Type" validate:"omitempty,oneof=monthly quarterly yearly one-time"`
	FeeAmount    float64  `json:"feeAmount" label:"Fee Amount" validate:"gte=0"`
	Currency     string   `json:"currency" label:"Currency"`
	Status       string   `json:"status" label:"Status" validate:"omitempty,oneof=active inactive"`
}

// ConflictField is blamed for duplicate class names.
func (ClassForm) ConflictField() string { return "className" }

// ClassFormFrom fills the form from a stored record.
func ClassFormFrom(record models.ClassRecord) ClassForm {
	return ClassForm{
		ClassName:    record.Name,
		Section:      record.Section,
		Subject:      record.Subject,
		Teacher:      record.Teacher,
		Description:  record.Description,
		ScheduleType: record.Schedule.Type,
		StartDate:    record.Schedule.StartDate,
		EndDate:      record.Schedule.EndDate,
		Days:         append([]string(nil), record.Schedule.Days...),
		StartTime:    record.Schedule.StartTime,
		EndTime:      record.Schedule.EndTime,
		MaxStudents:  record.MaxStudents,
		FeeType:      record.Fees.Type,
		FeeAmount:    record.Fees.Amount,
		Currency:     record.Fees.Currency,
		Status:       record.Status,
	}
}

// Input builds the API payload.
func (f ClassForm) Input() models.ClassInput {
	return models.ClassInput{
		Name:        PlainText(f.ClassName),
		Section:     PlainText(f.Section),
		Subject:     PlainText(f.Subject),
		Teacher:     PlainText(f.Teacher),
		Description: RichText(f.Description),
		Schedule: models.Schedule{
			Type:      f.ScheduleType,
			StartDate: f.StartDate,
			EndDate:   f.EndDate,
			Days:      f.Days,
			StartTime: f.StartTime,
			EndTime:   f.EndTime,
		},
		MaxStudents: f.MaxStudents,
		Fees:        models.Fees{Type: f.FeeType, Amount: f.FeeAmount, Currency: f.Currency},
		Status:      f.Status,
	}
}
