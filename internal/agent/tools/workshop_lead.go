package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/leads"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// GroupWorkshops is the community group where advertised programs are posted.
const GroupWorkshops = "motadareb w khabeer"

type RecordWorkshopsLeadInput struct {
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
}

func createRecordWorkshopsLeadTool(store leads.Store) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolRecordWorkshopsLead,
			Desc: "Record information about educational programs, workshops, or bootcamps that want to be advertised through EduZen's platform.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"organization_name": {
					Type:     "string",
					Desc:     "Name of the organization offering the program",
					Required: true,
				},
				"contact_person": {
					Type:     "string",
					Desc:     "Main contact person's name",
					Required: true,
				},
				"email": {
					Type:     "string",
					Desc:     "Contact email address",
					Required: true,
				},
				"phone": {
					Type:     "string",
					Desc:     "Contact phone number",
					Required: true,
				},
				"program_type": {
					Type:     "string",
					Desc:     "Type of program (workshop, bootcamp, course, seminar, etc.)",
					Required: true,
				},
				"program_name": {
					Type:     "string",
					Desc:     "Name of the specific program",
					Required: true,
				},
				"description": {
					Type:     "string",
					Desc:     "Detailed description of the program content and objectives",
					Required: true,
				},
				"target_audience": {
					Type:     "string",
					Desc:     "Who the program is designed for (students, professionals, beginners, etc.)",
					Required: true,
				},
				"duration": {
					Type:     "string",
					Desc:     "How long the program runs (e.g., '3 days', '2 weeks', '1 month')",
					Required: true,
				},
				"location": {
					Type:     "string",
					Desc:     "Where the program takes place (online, specific city, etc.)",
					Required: true,
				},
				"expected_participants": {
					Type:     "string",
					Desc:     "Expected number of participants",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *RecordWorkshopsLeadInput) (*Status, error) {
			lead := leads.WorkshopLead{
				OrganizationName:     in.OrganizationName,
				ContactPerson:        in.ContactPerson,
				Email:                in.Email,
				Phone:                in.Phone,
				ProgramType:          in.ProgramType,
				ProgramName:          in.ProgramName,
				Description:          in.Description,
				TargetAudience:       in.TargetAudience,
				Duration:             in.Duration,
				Location:             in.Location,
				ExpectedParticipants: in.ExpectedParticipants,
			}
			if err := store.AppendWorkshop(ctx, lead); err != nil {
				logx.Error().Err(err).Str("tool", ToolRecordWorkshopsLead).Msg("failed to record workshop lead")
				return &Status{
					Status:  statusFailed,
					Message: "❌ Sorry, there was an error recording your program information. Please try again or contact our support team.",
				}, nil
			}

			return &Status{
				Status: statusRecorded,
				Message: fmt.Sprintf("✅ Workshop/program lead recorded successfully! Your '%s' will be advertised through our '%s' WhatsApp group. Our commission is 10%% per registered attendee. Our team will contact you within 24 hours to discuss the advertising strategy and timeline.", in.ProgramName, GroupWorkshops),
			}, nil
		},
	)
}
