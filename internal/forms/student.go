package forms

import (
	"strings"

	"github.com/noah-isme/gema-admin/internal/models"
)

// StudentForm is the flat create/edit student form.
type StudentForm struct {
	RegistrationNo string `json:"registrationNo" label:"Registration No" validate:"required"`
	FirstName      string `json:"firstName" label:"First Name" validate:"required"`
	LastName       string `json:"lastName" label:"Last Name"`
	Gender         string `json:"gender" label:"Gender" validate:"required,oneof=male female other"`
	DateOfBirth    string `json:"dateOfBirth" label:"Date of Birth" validate:"required,date"`
	AdmissionDate  string `json:"admissionDate" label:"Admission Date" validate:"required,date,date_after=DateOfBirth"`
	Class          string `json:"class" label:"Class" validate:"required"`
	Section        string `json:"section" label:"Section" validate:"required"`
	RollNo         string `json:"rollNo" label:"Roll No"`
	Email          string `json:"email" label:"Email" validate:"omitempty,email"`
	Phone          string `json:"phone" label:"Phone" validate:"omitempty,phone"`
	Address        string `json:"address" label:"Address"`
	FatherName     string `json:"fatherName" label:"Father Name" validate:"required"`
	FatherPhone    string `json:"fatherPhone" label:"Father Phone" validate:"required,phone"`
	FatherEmail    string `json:"fatherEmail" label:"Father Email" validate:"omitempty,email"`
	MotherName     string `json:"motherName" label:"Mother Name"`
	MotherPhone    string `json:"motherPhone" label:"Mother Phone" validate:"omitempty,phone"`
	GuardianName   string `json:"guardianName" label:"Guardian Name"`
	GuardianPhone  string `json:"guardianPhone" label:"Guardian Phone" validate:"omitempty,phone"`
	Status         string `json:"status" label:"Status" validate:"omitempty,oneof=active inactive graduated"`
}

// ConflictField is blamed for duplicate-student errors.
func (StudentForm) ConflictField() string { return "registrationNo" }

// StudentFormFrom fills the form from a stored record.
func StudentFormFrom(record models.StudentRecord) StudentForm {
	form := StudentForm{
		RegistrationNo: record.RegistrationNo,
		FirstName:      record.FirstName,
		LastName:       record.LastName,
		Gender:         record.Gender,
		DateOfBirth:    record.DateOfBirth,
		AdmissionDate:  record.AdmissionDate,
		Class:          record.Class,
		Section:        record.Section,
		RollNo:         record.RollNo,
		Email:          record.Email,
		Phone:          record.Phone,
		Address:        record.Address,
		FatherName:     record.Father.Name,
		FatherPhone:    record.Father.Phone,
		FatherEmail:    record.Father.Email,
		MotherName:     record.Mother.Name,
		MotherPhone:    record.Mother.Phone,
		Status:         record.Status,
	}
	if record.Guardian != nil {
		form.GuardianName = record.Guardian.Name
		form.GuardianPhone = record.Guardian.Phone
	}
	return form
}

// Input builds the API payload.
func (f StudentForm) Input() models.StudentInput {
	input := models.StudentInput{
		RegistrationNo: strings.ToUpper(PlainText(f.RegistrationNo)),
		FirstName:      PlainText(f.FirstName),
		LastName:       PlainText(f.LastName),
		Gender:         f.Gender,
		DateOfBirth:    f.DateOfBirth,
		AdmissionDate:  f.AdmissionDate,
		Class:          PlainText(f.Class),
		Section:        PlainText(f.Section),
		RollNo:         PlainText(f.RollNo),
		Email:          strings.ToLower(strings.TrimSpace(f.Email)),
		Phone:          strings.TrimSpace(f.Phone),
		Address:        PlainText(f.Address),
		Father:         models.Guardian{Name: PlainText(f.FatherName), Relation: "father", Phone: strings.TrimSpace(f.FatherPhone), Email: strings.TrimSpace(f.FatherEmail)},
		Mother:         models.Guardian{Name: PlainText(f.MotherName), Relation: "mother", Phone: strings.TrimSpace(f.MotherPhone)},
		Status:         f.Status,
	}
	if strings.TrimSpace(f.GuardianName) != "" {
		input.Guardian = &models.Guardian{Name: PlainText(f.GuardianName), Relation: "guardian", Phone: strings.TrimSpace(f.GuardianPhone)}
	}
	return input
}

// StudentLoginForm edits the credentials of a student.
type StudentLoginForm struct {
	Username string `json:"username" label:"Username" validate:"required,min=3"`
	Password string `json:"password" label:"Password" validate:"omitempty,min=6"`
}

// ConflictField is blamed for taken usernames.
func (StudentLoginForm) ConflictField() string { return "username" }

// Input builds the API payload.
func (f StudentLoginForm) Input() models.StudentLogin {
	return models.StudentLogin{Username: strings.TrimSpace(f.Username), Password: f.Password}
}
