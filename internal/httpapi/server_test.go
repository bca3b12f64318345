package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eduzen-bot/server/internal/agent/direct"
	"github.com/eduzen-bot/server/internal/agent/model"
	"github.com/eduzen-bot/server/internal/leads"
)

type stubDirect struct {
	reply string
	calls int
}

func (d *stubDirect) Chat(ctx context.Context, message string, history []direct.Turn) (string, []direct.Turn) {
	d.calls++
	return d.reply, append(history, direct.Turn{User: message, Assistant: d.reply})
}

type stubStaged struct {
	result  *model.ChatResult
	cleared []string
	calls   int
}

func (s *stubStaged) Chat(ctx context.Context, conversationID, query string) *model.ChatResult {
	s.calls++
	return s.result
}

func (s *stubStaged) ClearThread(ctx context.Context, conversationID string) error {
	s.cleared = append(s.cleared, conversationID)
	return nil
}

func newTestServer(t *testing.T, d *stubDirect, st *stubStaged) (*Server, leads.Store) {
	t.Helper()
	store, err := leads.NewCSVStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewServer(d, st, store, Config{Addr: ":0", Timeout: 5 * time.Second}), store
}

func postJSON(t *testing.T, srv http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestChatDefaultsToStagedAndAssignsSession(t *testing.T) {
	staged := &stubStaged{result: &model.ChatResult{
		Reply:          "Hello from EduZen!",
		ReasoningSteps: []string{"the user greeted me"},
	}}
	srv, _ := newTestServer(t, &stubDirect{}, staged)

	rec := postJSON(t, srv, "/v1/chat", chatRequest{Message: "hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeChat(t, rec)
	if resp.SessionID == "" {
		t.Error("empty session_id in response")
	}
	if resp.Reply != "Hello from EduZen!" {
		t.Errorf("reply = %q", resp.Reply)
	}
	if len(resp.ReasoningSteps) != 1 {
		t.Errorf("reasoning_steps = %q, want one step", resp.ReasoningSteps)
	}
	if staged.calls != 1 {
		t.Errorf("staged agent called %d times, want 1", staged.calls)
	}
}

func TestChatDirectVariantKeepsPerSessionHistory(t *testing.T) {
	d := &stubDirect{reply: "direct reply"}
	srv, _ := newTestServer(t, d, &stubStaged{result: &model.ChatResult{}})

	first := decodeChat(t, postJSON(t, srv, "/v1/chat", chatRequest{Message: "one", Variant: VariantDirect}))
	if first.Reply != "direct reply" {
		t.Errorf("reply = %q", first.Reply)
	}
	if len(first.ReasoningSteps) != 0 {
		t.Errorf("direct variant should not expose reasoning steps, got %q", first.ReasoningSteps)
	}

	// Same session again; variant may be omitted once pinned.
	rec := postJSON(t, srv, "/v1/chat", chatRequest{SessionID: first.SessionID, Message: "two"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if d.calls != 2 {
		t.Errorf("direct agent called %d times, want 2", d.calls)
	}

	session := srv.sessions.Get(first.SessionID)
	if session == nil {
		t.Fatal("session not retained")
	}
	session.WithDirectHistory(func(history []direct.Turn) []direct.Turn {
		if len(history) != 2 {
			t.Errorf("session history has %d turns, want 2", len(history))
		}
		return history
	})
}

func TestChatVariantConflict(t *testing.T) {
	srv, _ := newTestServer(t, &stubDirect{reply: "ok"}, &stubStaged{result: &model.ChatResult{Reply: "ok"}})

	first := decodeChat(t, postJSON(t, srv, "/v1/chat", chatRequest{Message: "one", Variant: VariantStaged}))
	rec := postJSON(t, srv, "/v1/chat", chatRequest{SessionID: first.SessionID, Message: "two", Variant: VariantDirect})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestChatValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubDirect{}, &stubStaged{result: &model.ChatResult{}})

	if rec := postJSON(t, srv, "/v1/chat", chatRequest{Variant: VariantStaged}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing message: status = %d, want 400", rec.Code)
	}
	if rec := postJSON(t, srv, "/v1/chat", chatRequest{Message: "hi", Variant: "telepathy"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown variant: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestClearSession(t *testing.T) {
	staged := &stubStaged{result: &model.ChatResult{Reply: "ok"}}
	srv, _ := newTestServer(t, &stubDirect{}, staged)

	first := decodeChat(t, postJSON(t, srv, "/v1/chat", chatRequest{Message: "hi"}))

	rec := postJSON(t, srv, "/v1/sessions/"+first.SessionID+"/clear", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(staged.cleared) != 1 || staged.cleared[0] != first.SessionID {
		t.Errorf("cleared = %q, want the session id", staged.cleared)
	}

	// Unknown sessions clear without error.
	rec = postJSON(t, srv, "/v1/sessions/never-seen/clear", struct{}{})
	if rec.Code != http.StatusOK {
		t.Errorf("clear unknown: status = %d, want 200", rec.Code)
	}
}

func TestLeadsEndpoints(t *testing.T) {
	srv, store := newTestServer(t, &stubDirect{}, &stubStaged{result: &model.ChatResult{}})
	ctx := context.Background()

	if err := store.AppendStudent(ctx, leads.StudentLead{
		Name: "Lina", Email: "lina@example.com", Language: "Arabic",
		Subjects: "math", Grade: "Grade 10", Location: "Tripoli",
	}); err != nil {
		t.Fatalf("AppendStudent: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/leads/students", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var students []leads.StudentLead
	if err := json.Unmarshal(rec.Body.Bytes(), &students); err != nil {
		t.Fatalf("decode students: %v", err)
	}
	if len(students) != 1 || students[0].Name != "Lina" {
		t.Errorf("students = %+v, want Lina", students)
	}

	// Empty tables return empty arrays, not null.
	req = httptest.NewRequest(http.MethodGet, "/v1/leads/workshops", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if body := bytes.TrimSpace(rec.Body.Bytes()); string(body) != "[]" {
		t.Errorf("empty workshops body = %s, want []", body)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &stubDirect{}, &stubStaged{result: &model.ChatResult{}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
