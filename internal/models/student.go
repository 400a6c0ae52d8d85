package models

// Guardian is a parent or guardian contact.
type Guardian struct {
	Name       string `json:"name"`
	Relation   string `json:"relation,omitempty"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Occupation string `json:"occupation,omitempty"`
}

// StudentRecord is the flat student record returned by the backend. Login
// credentials are deliberately absent; see StudentLogin.
type StudentRecord struct {
	ID             string       `json:"id"`
	RegistrationNo string       `json:"registrationNo"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	Gender         string       `json:"gender"`
	DateOfBirth    string       `json:"dateOfBirth"`
	AdmissionDate  string       `json:"admissionDate"`
	Class          string       `json:"class"`
	Section        string       `json:"section"`
	RollNo         string       `json:"rollNo,omitempty"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Address        string       `json:"address,omitempty"`
	Father         Guardian     `json:"father"`
	Mother         Guardian     `json:"mother"`
	Guardian       *Guardian    `json:"guardian,omitempty"`
	PhotoURL       string       `json:"photo,omitempty"`
	Documents      []Attachment `json:"documents"`
	Status         string       `json:"status,omitempty"`
}

// StudentInput is the create/update payload for a student.
type StudentInput struct {
	RegistrationNo string    `json:"registrationNo"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Gender         string    `json:"gender"`
	DateOfBirth    string    `json:"dateOfBirth"`
	AdmissionDate  string    `json:"admissionDate"`
	Class          string    `json:"class"`
	Section        string    `json:"section"`
	RollNo         string    `json:"rollNo,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	Father         Guardian  `json:"father"`
	Mother         Guardian  `json:"mother"`
	Guardian       *Guardian `json:"guardian,omitempty"`
	Status         string    `json:"status,omitempty"`
}

// StudentLogin is the sensitive credential subset of a student.
type StudentLogin struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}
