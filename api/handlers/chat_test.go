package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectcareer/careerflow/agent"
	"github.com/connectcareer/careerflow/chat"
	"github.com/connectcareer/careerflow/classify"
	"github.com/connectcareer/careerflow/persistence"
	"github.com/connectcareer/careerflow/pipeline"
	"github.com/connectcareer/careerflow/testutil"
	"github.com/connectcareer/careerflow/types"
)

// echoAgent answers every cv_review turn.
type echoAgent struct{}

func (echoAgent) Name() string                              { return "cv_enhancement" }
func (echoAgent) Description() string                       { return "reviews CVs" }
func (echoAgent) Capabilities() []string                    { return []string{"cv_review"} }
func (echoAgent) Tools() []types.ToolSchema                 { return nil }
func (echoAgent) RequiredMemory() []types.MemoryCategory    { return nil }
func (echoAgent) CanHandle(intent string, _ map[string]any) bool { return intent == "cv_review" }
func (echoAgent) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	return &types.AgentResult{Success: true, Data: "review", AgentName: "cv_enhancement"}, nil
}

func newTestHandler(t *testing.T, stub *testutil.StubLLM) (*ChatHandler, *persistence.MemoryConversationStore) {
	t.Helper()

	router := agent.NewRouter(nil)
	router.Register(echoAgent{})
	p := pipeline.New(
		classify.NewRoleDetector(stub, nil),
		classify.NewIntentDetector(stub, nil),
		router,
		stub,
		nil,
		pipeline.NewMemoryCheckpointStore(),
		nil,
	)
	store := persistence.NewMemoryConversationStore()
	service := chat.NewService(p, store, chat.Options{})
	return NewChatHandler(service, nil), store
}

func newChatServer(t *testing.T, stub *testutil.StubLLM) (*httptest.Server, *persistence.MemoryConversationStore) {
	t.Helper()
	handler, store := newTestHandler(t, stub)
	mux := http.NewServeMux()
	handler.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChatHandler_HandleMessage(t *testing.T) {
	stub := testutil.NewStubLLM().
		QueueResponse(`{"intent":"cv_review","entities":{},"confidence":0.9}`).
		QueueStream("Solid CV overall.")
	server, store := newChatServer(t, stub)

	resp := postJSON(t, server.URL+"/v1/chat/messages",
		`{"user_id":"u1","session_id":"s1","message":"please improve my cv, my resume needs a review"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Answer  string `json:"answer"`
			Agent   string `json:"agent"`
			Intent  string `json:"intent"`
			Success bool   `json:"success"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
	assert.True(t, envelope.Data.Success)
	assert.Equal(t, "Solid CV overall.", envelope.Data.Answer)
	assert.Equal(t, "cv_enhancement", envelope.Data.Agent)
	assert.Equal(t, "cv_review", envelope.Data.Intent)

	records, err := store.FindBySessionID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestChatHandler_HandleMessageStream(t *testing.T) {
	stub := testutil.NewStubLLM().
		QueueResponse(`{"intent":"cv_review","entities":{},"confidence":0.9}`).
		QueueStream("Here is ", "your feedback.")
	server, _ := newChatServer(t, stub)

	resp := postJSON(t, server.URL+"/v1/chat/messages/stream",
		`{"user_id":"u1","session_id":"s-stream","message":"please improve my cv, my resume needs a review"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var answer string
	var eventTypes []string
	sawDone := false
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			sawDone = true
			continue
		}
		var event struct {
			Type string `json:"type"`
			Data struct {
				Content string `json:"content"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(payload), &event))
		eventTypes = append(eventTypes, event.Type)
		if event.Type == "chunk" {
			answer += event.Data.Content
		}
	}

	assert.Equal(t, "Here is your feedback.", answer)
	assert.Contains(t, eventTypes, "thinking")
	assert.Equal(t, "complete", eventTypes[len(eventTypes)-1])
	assert.True(t, sawDone, "stream must end with [DONE]")
}

func TestChatHandler_ValidatesRequest(t *testing.T) {
	server, _ := newChatServer(t, testutil.NewStubLLM())

	resp := postJSON(t, server.URL+"/v1/chat/messages", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, server.URL+"/v1/chat/messages",
		`{"user_id":"u1","session_id":"s1","message":"hi","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatHandler_SessionEndpoints(t *testing.T) {
	server, store := newChatServer(t, testutil.NewStubLLM())

	resp := postJSON(t, server.URL+"/v1/sessions", `{"user_id":"u9"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Contains(t, created.Data.SessionID, "session_")

	require.NoError(t, store.Create(context.Background(), &persistence.ConversationRecord{
		UserID:    "u9",
		SessionID: created.Data.SessionID,
		Role:      types.RoleUser,
		Message:   "hello there",
	}))

	listResp, err := http.Get(server.URL + "/v1/sessions?user_id=u9")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var listed struct {
		Data []struct {
			SessionID    string `json:"session_id"`
			MessageCount int    `json:"message_count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, 1, listed.Data[0].MessageCount)

	// History is readable by the owner and forbidden to anyone else.
	histResp, err := http.Get(server.URL + "/v1/sessions/" + created.Data.SessionID + "/messages?user_id=u9")
	require.NoError(t, err)
	defer histResp.Body.Close()
	assert.Equal(t, http.StatusOK, histResp.StatusCode)

	deniedResp, err := http.Get(server.URL + "/v1/sessions/" + created.Data.SessionID + "/messages?user_id=other")
	require.NoError(t, err)
	defer deniedResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, deniedResp.StatusCode)
}
