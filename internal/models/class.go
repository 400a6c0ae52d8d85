package models

// Schedule describes when a class meets.
type Schedule struct {
	Type      string   `json:"type"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Days      []string `json:"days"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
}

// Fees describes what a class costs.
type Fees struct {
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ClassRecord is a class as returned by the backend.
type ClassRecord struct {
	ID          string       `json:"id"`
	Name        string       `json:"className"`
	Section     string       `json:"section"`
	Subject     string       `json:"subject,omitempty"`
	Description string       `json:"description,omitempty"`
	Teacher     string       `json:"teacher,omitempty"`
	Schedule    Schedule     `json:"schedule"`
	MaxStudents int          `json:"maxStudents"`
	Fees        Fees         `json:"fees"`
	Status      string       `json:"status,omitempty"`
	Materials   []Attachment `json:"materials"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
}

// ClassInput is the create/update payload for a class.
type ClassInput struct {
	Name        string   `json:"className"`
	Section     string   `json:"section"`
	Subject     string   `json:"subject"`
	Description string   `json:"description,omitempty"`
	Teacher     string   `json:"teacher,omitempty"`
	Schedule    Schedule `json:"schedule"`
	MaxStudents int      `json:"maxStudents"`
	Fees        Fees     `json:"fees"`
	Status      string   `json:"status,omitempty"`
}
