// Package leads is the durable record store for the three lead kinds the
// assistant collects: student matching requests, workshop advertising
// requests, and unanswered-question feedback.
package leads

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimestampFormat is the layout of the trailing timestamp column in every table.
const TimestampFormat = "2006-01-02 15:04:05"

// Kind identifies one of the three lead tables.
type Kind string

const (
	KindStudents  Kind = "students"
	KindWorkshops Kind = "workshops"
	KindFeedback  Kind = "feedback"
)

// Feedback categories and urgency levels accepted from the model.
const (
	CategoryGeneral         = "general"
	CategoryTechnical       = "technical"
	CategoryServiceSpecific = "service-specific"
	CategoryBilling         = "billing"
	CategoryPartnership     = "partnership"
	CategoryOther           = "other"

	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// StudentLead is a student's request to be matched with a teacher.
// Timestamp is assigned by the store at write time, never by the caller.
type StudentLead struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Language    string `json:"language"`
	Subjects    string `json:"subjects"`
	Grade       string `json:"grade"`
	Location    string `json:"location"`
	ContactInfo string `json:"contact_info,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// WorkshopLead is an organization's request to advertise an educational program.
type WorkshopLead struct {
	OrganizationName     string `json:"organization_name"`
	ContactPerson        string `json:"contact_person"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	ProgramType          string `json:"program_type"`
	ProgramName          string `json:"program_name"`
	Description          string `json:"description"`
	TargetAudience       string `json:"target_audience"`
	Duration             string `json:"duration"`
	Location             string `json:"location"`
	ExpectedParticipants string `json:"expected_participants"`
	Timestamp            string `json:"timestamp"`
}

// Feedback records a question the assistant could not answer.
type Feedback struct {
	UserQuestion string `json:"user_question"`
	Category     string `json:"category"`
	Urgency      string `json:"urgency"`
	ContactInfo  string `json:"contact_info,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// Store is the contract every lead backend satisfies. Append assigns the
// record timestamp; reads return records oldest-first and an empty slice
// (not an error) when the table has never been written.
type Store interface {
	AppendStudent(ctx context.Context, lead StudentLead) error
	AppendWorkshop(ctx context.Context, lead WorkshopLead) error
	AppendFeedback(ctx context.Context, fb Feedback) error

	Students(ctx context.Context) ([]StudentLead, error)
	Workshops(ctx context.Context) ([]WorkshopLead, error)
	Feedback(ctx context.Context) ([]Feedback, error)

	Close() error
}

var (
	studentColumns = []string{"name", "email", "language", "subjects", "grade", "location", "contact_info", "timestamp"}
	workshopColumns = []string{
		"organization_name", "contact_person", "email", "phone", "program_type", "program_name",
		"description", "target_audience", "duration", "location", "expected_participants", "timestamp",
	}
	feedbackColumns = []string{"user_question", "category", "urgency", "contact_info", "timestamp"}
)

func (l StudentLead) validate() error {
	return requireFields(map[string]string{
		"name":     l.Name,
		"email":    l.Email,
		"language": l.Language,
		"subjects": l.Subjects,
		"grade":    l.Grade,
		"location": l.Location,
	})
}

func (l StudentLead) row(ts string) []string {
	return []string{l.Name, l.Email, l.Language, l.Subjects, l.Grade, l.Location, l.ContactInfo, ts}
}

func studentFromRow(r []string) StudentLead {
	return StudentLead{
		Name: r[0], Email: r[1], Language: r[2], Subjects: r[3],
		Grade: r[4], Location: r[5], ContactInfo: r[6], Timestamp: r[7],
	}
}

func (l WorkshopLead) validate() error {
	return requireFields(map[string]string{
		"organization_name":     l.OrganizationName,
		"contact_person":        l.ContactPerson,
		"email":                 l.Email,
		"phone":                 l.Phone,
		"program_type":          l.ProgramType,
		"program_name":          l.ProgramName,
		"description":           l.Description,
		"target_audience":       l.TargetAudience,
		"duration":              l.Duration,
		"location":              l.Location,
		"expected_participants": l.ExpectedParticipants,
	})
}

func (l WorkshopLead) row(ts string) []string {
	return []string{
		l.OrganizationName, l.ContactPerson, l.Email, l.Phone, l.ProgramType, l.ProgramName,
		l.Description, l.TargetAudience, l.Duration, l.Location, l.ExpectedParticipants, ts,
	}
}

func workshopFromRow(r []string) WorkshopLead {
	return WorkshopLead{
		OrganizationName: r[0], ContactPerson: r[1], Email: r[2], Phone: r[3],
		ProgramType: r[4], ProgramName: r[5], Description: r[6], TargetAudience: r[7],
		Duration: r[8], Location: r[9], ExpectedParticipants: r[10], Timestamp: r[11],
	}
}

func (f Feedback) validate() error {
	return requireFields(map[string]string{"user_question": f.UserQuestion})
}

func (f Feedback) row(ts string) []string {
	return []string{f.UserQuestion, f.Category, f.Urgency, f.ContactInfo, ts}
}

func feedbackFromRow(r []string) Feedback {
	return Feedback{UserQuestion: r[0], Category: r[1], Urgency: r[2], ContactInfo: r[3], Timestamp: r[4]}
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	// deterministic order for error messages
	sort.Strings(missing)
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}

func stamp() string {
	return time.Now().Format(TimestampFormat)
}
