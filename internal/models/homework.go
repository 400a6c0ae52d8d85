package models

// HomeworkRecord is a homework item as returned by the backend.
type HomeworkRecord struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Date        string       `json:"date"`
	DueDate     string       `json:"dueDate"`
	Class       string       `json:"class"`
	Subject     string       `json:"subject"`
	Teacher     string       `json:"teacher"`
	Details     string       `json:"details"`
	Priority    string       `json:"priority"`
	Status      string       `json:"status"`
	Attachments []Attachment `json:"attachments"`
}

// HomeworkInput is the create/update payload for homework.
type HomeworkInput struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	DueDate  string `json:"dueDate"`
	Class    string `json:"class"`
	Subject  string `json:"subject"`
	Teacher  string `json:"teacher"`
	Details  string `json:"details"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}
