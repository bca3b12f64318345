package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/leads"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

type RecordFeedbackInput struct {
	UserQuestion string `json:"user_question"`
	Category     string `json:"category,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
	ContactInfo  string `json:"contact_info,omitempty"`
}

func createRecordFeedbackTool(store leads.Store) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolRecordFeedback,
			Desc: "Record user feedback when the bot cannot answer a question or when users have specific inquiries that need human attention.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_question": {
					Type:     "string",
					Desc:     "The question or issue the user has",
					Required: true,
				},
				"category": {
					Type: "string",
					Desc: "Category of the question",
					Enum: []string{
						leads.CategoryGeneral, leads.CategoryTechnical, leads.CategoryServiceSpecific,
						leads.CategoryBilling, leads.CategoryPartnership, leads.CategoryOther,
					},
				},
				"urgency": {
					Type: "string",
					Desc: "Urgency level of the question",
					Enum: []string{leads.UrgencyLow, leads.UrgencyMedium, leads.UrgencyHigh},
				},
				"contact_info": {
					Type: "string",
					Desc: "User's contact information for follow-up (optional)",
				},
			}),
		},
		func(ctx context.Context, in *RecordFeedbackInput) (*Status, error) {
			fb := leads.Feedback{
				UserQuestion: in.UserQuestion,
				Category:     in.Category,
				Urgency:      in.Urgency,
				ContactInfo:  in.ContactInfo,
			}
			if fb.Category == "" {
				fb.Category = leads.CategoryGeneral
			}
			if fb.Urgency == "" {
				fb.Urgency = leads.UrgencyMedium
			}

			if err := store.AppendFeedback(ctx, fb); err != nil {
				logx.Error().Err(err).Str("tool", ToolRecordFeedback).Msg("failed to record feedback")
				return &Status{
					Status:  statusFailed,
					Message: "❌ Sorry, there was an error recording your feedback. Please try again or contact our support team directly.",
				}, nil
			}

			return &Status{
				Status:  statusRecorded,
				Message: "✅ Thank you for your feedback! Your question has been recorded and our team will review it. If you provided contact information, we'll get back to you as soon as possible. In the meantime, feel free to ask other questions about our services!",
			}, nil
		},
	)
}
