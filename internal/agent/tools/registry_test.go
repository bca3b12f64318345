package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/eduzen-bot/server/internal/leads"
)

func testRegistry(t *testing.T) (*Registry, leads.Store) {
	t.Helper()
	store, err := leads.NewCSVStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewRegistry(store), store
}

func decodeStatus(t *testing.T, raw string) Status {
	t.Helper()
	var s Status
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("tool result %q is not a Status: %v", raw, err)
	}
	return s
}

func TestRouteCommunityGroup(t *testing.T) {
	tests := []struct {
		grade string
		want  string
	}{
		{"Grade 10", GroupK12},
		{"5", GroupK12},
		{"kindergarten", GroupK12},
		{"University - Bachelor's in Engineering", GroupUniversity},
		{"MASTER of Science", GroupUniversity},
		{"PhD candidate", GroupUniversity},
		{"undergraduate, 2nd year", GroupUniversity},
		{"graduate school", GroupUniversity},
	}
	for _, tt := range tests {
		if got := RouteCommunityGroup(tt.grade); got != tt.want {
			t.Errorf("RouteCommunityGroup(%q) = %q, want %q", tt.grade, got, tt.want)
		}
	}
}

func TestExecuteStudentsLeadRoutesAndPersists(t *testing.T) {
	reg, store := testRegistry(t)
	ctx := context.Background()

	args := `{"name":"Lina","email":"lina@example.com","language":"Arabic","subjects":"math","grade":"University - Bachelor's","location":"Tripoli"}`
	raw, err := reg.Execute(ctx, ToolRecordStudentsLead, args)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	status := decodeStatus(t, raw)
	if status.Status != "recorded" {
		t.Errorf("status = %q, want recorded", status.Status)
	}
	if !strings.Contains(status.Message, GroupUniversity) {
		t.Errorf("university-level lead message %q does not name group %q", status.Message, GroupUniversity)
	}

	got, err := store.Students(ctx)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Lina" {
		t.Fatalf("Students = %+v, want single record for Lina", got)
	}
	if got[0].Timestamp == "" {
		t.Error("persisted lead has empty timestamp")
	}
}

func TestExecuteStudentsLeadK12Group(t *testing.T) {
	reg, _ := testRegistry(t)

	args := `{"name":"Omar","email":"omar@example.com","language":"French","subjects":"physics","grade":"Grade 8","location":"Saida"}`
	raw, err := reg.Execute(context.Background(), ToolRecordStudentsLead, args)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	status := decodeStatus(t, raw)
	if !strings.Contains(status.Message, GroupK12) {
		t.Errorf("K-12 lead message %q does not name group %q", status.Message, GroupK12)
	}
	if strings.Contains(status.Message, GroupUniversity) {
		t.Errorf("K-12 lead message %q names the university group", status.Message)
	}
}

func TestExecuteWorkshopsLead(t *testing.T) {
	reg, store := testRegistry(t)
	ctx := context.Background()

	args := `{"organization_name":"CodeCamp","contact_person":"Rami","email":"rami@codecamp.io","phone":"+961 3 123456",` +
		`"program_type":"bootcamp","program_name":"Intro to Go","description":"A beginner bootcamp.",` +
		`"target_audience":"students","duration":"3 days","location":"online","expected_participants":"25"}`
	raw, err := reg.Execute(ctx, ToolRecordWorkshopsLead, args)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	status := decodeStatus(t, raw)
	if !strings.Contains(status.Message, "Intro to Go") || !strings.Contains(status.Message, GroupWorkshops) {
		t.Errorf("workshop message %q should name the program and the %q group", status.Message, GroupWorkshops)
	}

	got, err := store.Workshops(ctx)
	if err != nil {
		t.Fatalf("Workshops: %v", err)
	}
	if len(got) != 1 || got[0].ProgramName != "Intro to Go" {
		t.Fatalf("Workshops = %+v, want single Intro to Go record", got)
	}
}

func TestExecuteFeedbackDefaults(t *testing.T) {
	reg, store := testRegistry(t)
	ctx := context.Background()

	raw, err := reg.Execute(ctx, ToolRecordFeedback, `{"user_question":"Do you cover music lessons?"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	status := decodeStatus(t, raw)
	if status.Status != "recorded" {
		t.Errorf("status = %q, want recorded", status.Status)
	}

	got, err := store.Feedback(ctx)
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Feedback = %d records, want 1", len(got))
	}
	if got[0].Category != leads.CategoryGeneral {
		t.Errorf("category = %q, want %q", got[0].Category, leads.CategoryGeneral)
	}
	if got[0].Urgency != leads.UrgencyMedium {
		t.Errorf("urgency = %q, want %q", got[0].Urgency, leads.UrgencyMedium)
	}
	if got[0].ContactInfo != "" {
		t.Errorf("contact_info = %q, want empty", got[0].ContactInfo)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	reg, _ := testRegistry(t)

	_, err := reg.Execute(context.Background(), "order_pizza", `{}`)
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Execute(order_pizza) error = %v, want ErrUnknownTool", err)
	}
}

type failingStore struct{ leads.Store }

func (failingStore) AppendFeedback(ctx context.Context, fb leads.Feedback) error {
	return errors.New("disk full")
}

func TestExecuteFeedbackStorageFailure(t *testing.T) {
	reg := NewRegistry(failingStore{})

	raw, err := reg.Execute(context.Background(), ToolRecordFeedback, `{"user_question":"anything"}`)
	if err != nil {
		t.Fatalf("storage failure must surface as a status, not an error: %v", err)
	}
	status := decodeStatus(t, raw)
	if status.Status != "failed" {
		t.Errorf("status = %q, want failed", status.Status)
	}
	if !strings.Contains(status.Message, "error recording your feedback") {
		t.Errorf("failure message %q should explain the recording error", status.Message)
	}
}

func TestInfosDeclareAllTools(t *testing.T) {
	reg, _ := testRegistry(t)

	infos, err := reg.Infos(context.Background())
	if err != nil {
		t.Fatalf("Infos: %v", err)
	}
	want := map[string]bool{ToolRecordStudentsLead: false, ToolRecordWorkshopsLead: false, ToolRecordFeedback: false}
	for _, info := range infos {
		if _, ok := want[info.Name]; !ok {
			t.Errorf("unexpected declared tool %q", info.Name)
			continue
		}
		want[info.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not declared", name)
		}
	}
}
