package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/leads"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// Community groups student leads are routed into for follow-up.
const (
	GroupUniversity = "taleb w istez"
	GroupK12        = "telmiz w istez"
)

// universityTerms mark a grade string as university-level; matching is
// case-insensitive substring.
var universityTerms = []string{"university", "bachelor", "master", "phd", "undergraduate", "graduate"}

// RouteCommunityGroup picks the community group for a student's grade level.
func RouteCommunityGroup(grade string) string {
	g := strings.ToLower(grade)
	for _, term := range universityTerms {
		if strings.Contains(g, term) {
			return GroupUniversity
		}
	}
	return GroupK12
}

type RecordStudentsLeadInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Language    string `json:"language"`
	Subjects    string `json:"subjects"`
	Grade       string `json:"grade"`
	Location    string `json:"location"`
	ContactInfo string `json:"contact_info,omitempty"`
}

func createRecordStudentsLeadTool(store leads.Store) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolRecordStudentsLead,
			Desc: "Record a student's information for teacher matching services. Use this when a student wants to be matched with a teacher for K-12 or university subjects.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name": {
					Type:     "string",
					Desc:     "Student's full name",
					Required: true,
				},
				"email": {
					Type:     "string",
					Desc:     "Student's email address",
					Required: true,
				},
				"language": {
					Type:     "string",
					Desc:     "Preferred language for instruction (e.g., English, Arabic, French, etc.)",
					Required: true,
				},
				"subjects": {
					Type:     "string",
					Desc:     "Subjects student needs help with, separated by commas",
					Required: true,
				},
				"grade": {
					Type:     "string",
					Desc:     "Student's grade level (1-12) or university level (e.g., 'Grade 10', 'University - Bachelor's in Engineering')",
					Required: true,
				},
				"location": {
					Type:     "string",
					Desc:     "Student's location or area",
					Required: true,
				},
				"contact_info": {
					Type: "string",
					Desc: "Additional contact information like WhatsApp number or phone (optional)",
				},
			}),
		},
		func(ctx context.Context, in *RecordStudentsLeadInput) (*Status, error) {
			lead := leads.StudentLead{
				Name:        in.Name,
				Email:       in.Email,
				Language:    in.Language,
				Subjects:    in.Subjects,
				Grade:       in.Grade,
				Location:    in.Location,
				ContactInfo: in.ContactInfo,
			}
			if err := store.AppendStudent(ctx, lead); err != nil {
				logx.Error().Err(err).Str("tool", ToolRecordStudentsLead).Msg("failed to record student lead")
				return &Status{
					Status:  statusFailed,
					Message: "❌ Sorry, there was an error recording your information. Please try again or contact our support team.",
				}, nil
			}

			group := RouteCommunityGroup(in.Grade)
			return &Status{
				Status: statusRecorded,
				Message: fmt.Sprintf("✅ Student lead recorded successfully! Your information has been saved and you'll be matched with qualified teachers through our '%s' WhatsApp group. Remember, this service is completely free for students - teachers only pay when they get their first paycheck. You'll be contacted soon with potential matches!", group),
			}, nil
		},
	)
}
