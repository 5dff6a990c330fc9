package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity_Deterministic(t *testing.T) {
	a := NewIdentity("diagnosis", "seed-1")
	b := NewIdentity("diagnosis", "seed-1")
	c := NewIdentity("diagnosis", "seed-2")

	assert.Equal(t, a.Address, b.Address)
	assert.NotEqual(t, a.Address, c.Address)
	assert.True(t, IsAddress(a.Address))
	assert.True(t, strings.HasPrefix(a.Address, AddressPrefix))
	assert.False(t, IsAddress("agent1q"))
}

func TestContentList_JSON(t *testing.T) {
	in := `[{"type":"start-session"},{"type":"text","text":"hello "},{"type":"metadata","metadata":{"k":"v"}},{"type":"resource","uri":"x"},{"type":"text","text":"world"},{"type":"end-session"}]`
	var list ContentList
	require.NoError(t, json.Unmarshal([]byte(in), &list))
	require.Len(t, list, 6)

	assert.Equal(t, StartSessionContent{}, list[0])
	assert.Equal(t, TextContent{Text: "hello "}, list[1])
	assert.Equal(t, MetadataContent{Metadata: map[string]string{"k": "v"}}, list[2])
	unknown, ok := list[3].(UnknownContent)
	require.True(t, ok)
	assert.Equal(t, "resource", unknown.Type)
	assert.Equal(t, EndSessionContent{}, list[5])

	assert.Equal(t, "hello world", JoinText(list))

	out, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

type countingVisitor struct {
	text, start, end, meta, unknown int
}

func (c *countingVisitor) VisitText(TextContent)                 { c.text++ }
func (c *countingVisitor) VisitStartSession(StartSessionContent) { c.start++ }
func (c *countingVisitor) VisitEndSession(EndSessionContent)     { c.end++ }
func (c *countingVisitor) VisitMetadata(MetadataContent)         { c.meta++ }
func (c *countingVisitor) VisitUnknown(UnknownContent)           { c.unknown++ }

func TestVisitContent(t *testing.T) {
	v := &countingVisitor{}
	for _, c := range []Content{
		TextContent{Text: "a"}, TextContent{Text: "b"}, StartSessionContent{},
		EndSessionContent{}, MetadataContent{}, UnknownContent{Type: "x"},
	} {
		VisitContent(c, v)
	}
	assert.Equal(t, countingVisitor{text: 2, start: 1, end: 1, meta: 1, unknown: 1}, *v)
}

func TestMessageGuard(t *testing.T) {
	g := NewMessageGuard(10, time.Minute)

	require.True(t, g.Begin("m1"))
	assert.False(t, g.Begin("m1"), "in-flight message must be rejected")

	g.Done("m1", false)
	assert.True(t, g.Begin("m1"), "failed message may be retried")
	g.Done("m1", true)
	assert.False(t, g.Begin("m1"), "completed message must be rejected")

	inFlight, completed := g.Len()
	assert.Equal(t, 0, inFlight)
	assert.Equal(t, 1, completed)
}

func TestMessageGuard_Bounded(t *testing.T) {
	g := NewMessageGuard(2, time.Minute)
	for _, id := range []string{"a", "b", "c"} {
		require.True(t, g.Begin(id))
		g.Done(id, true)
	}
	_, completed := g.Len()
	assert.Equal(t, 2, completed)
	assert.True(t, g.Begin("a"), "oldest entry should have been evicted")
}

func TestMessageGuard_Concurrent(t *testing.T) {
	g := NewMessageGuard(100, time.Minute)
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Begin("same") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func newChatServer(t *testing.T, flow ChatFlow) (*httptest.Server, Identity) {
	t.Helper()
	id := NewIdentity("recommendation", "seed")
	d := NewDispatcher(id)
	chat := NewChatHandler(id, NewMessageGuard(100, time.Minute), flow)
	d.Handle(SchemaChatMessage, chat.Handle)
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)
	return srv, id
}

func submit(t *testing.T, url string, env *Envelope) (int, SubmitResponse) {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out SubmitResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestChatHandler_AckReplyAndDedup(t *testing.T) {
	var calls atomic.Int32
	srv, id := newChatServer(t, func(_ context.Context, text string) (string, error) {
		calls.Add(1)
		return "you asked: " + text, nil
	})
	user := NewIdentity("user", "user-seed")
	msg := NewChatMessage(StartSessionContent{}, TextContent{Text: "migraine "}, TextContent{Text: "relief"})
	env, err := NewEnvelope(user, id.Address, SchemaChatMessage, msg)
	require.NoError(t, err)

	status, out := submit(t, srv.URL, env)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, out.Replies, 2)

	assert.Equal(t, SchemaChatAck, out.Replies[0].Schema)
	var ack ChatAcknowledgement
	require.NoError(t, out.Replies[0].Decode(&ack))
	assert.Equal(t, msg.MsgID, ack.AcknowledgedMsgID)

	reply := out.Replies[1]
	assert.Equal(t, SchemaChatMessage, reply.Schema)
	assert.Equal(t, env.Session, reply.Session)
	assert.Equal(t, user.Address, reply.Target)
	var answer ChatMessage
	require.NoError(t, reply.Decode(&answer))
	assert.Equal(t, "you asked: migraine relief", JoinText(answer.Content))
	require.Len(t, answer.Content, 2)
	assert.Equal(t, EndSessionContent{}, answer.Content[1])

	// Redelivery is acknowledged but not processed again.
	status, out = submit(t, srv.URL, env)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, SchemaChatAck, out.Replies[0].Schema)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatHandler_FlowErrorUsesFallback(t *testing.T) {
	srv, id := newChatServer(t, func(context.Context, string) (string, error) {
		return "", errors.New("llm down")
	})
	env, err := NewEnvelope(NewIdentity("user", "u"), id.Address, SchemaChatMessage, NewChatMessage(TextContent{Text: "hi"}))
	require.NoError(t, err)

	_, out := submit(t, srv.URL, env)
	require.Len(t, out.Replies, 2)
	var answer ChatMessage
	require.NoError(t, out.Replies[1].Decode(&answer))
	assert.Equal(t, ChatFallback, JoinText(answer.Content))
}

type recordingSender struct {
	mu   sync.Mutex
	sent []*Envelope
}

func (r *recordingSender) Send(_ context.Context, _ string, env *Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, env)
	return nil
}

func (r *recordingSender) snapshot() []*Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Envelope(nil), r.sent...)
}

func TestDispatcher_PushesToReplyTo(t *testing.T) {
	id := NewIdentity("recommendation", "seed")
	sender := &recordingSender{}
	d := NewDispatcher(id, WithSender(sender))
	chat := NewChatHandler(id, NewMessageGuard(10, time.Minute), func(context.Context, string) (string, error) {
		return "ok", nil
	}, WithChatSender(sender))
	d.Handle(SchemaChatMessage, chat.Handle)
	srv := httptest.NewServer(d)
	defer srv.Close()

	env, err := NewEnvelope(NewIdentity("user", "u"), id.Address, SchemaChatMessage, NewChatMessage(TextContent{Text: "hi"}))
	require.NoError(t, err)
	env.ReplyTo = "http://user.invalid/submit"

	status, out := submit(t, srv.URL, env)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, out.Replies)
	sent := sender.snapshot()
	require.Len(t, sent, 2)
	assert.Equal(t, SchemaChatAck, sent[0].Schema)
	assert.Equal(t, SchemaChatMessage, sent[1].Schema)
}

func TestDispatcher_Rejects(t *testing.T) {
	id := NewIdentity("diagnosis", "seed")
	d := NewDispatcher(id)
	d.Handle(SchemaDiagnosisRaw, func(context.Context, *Envelope) ([]*Envelope, error) { return nil, nil })
	ctx := context.Background()

	_, err := d.Dispatch(ctx, &Envelope{Version: 2, Schema: SchemaDiagnosisRaw})
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = d.Dispatch(ctx, &Envelope{Version: EnvelopeVersion, Target: "agent1qother", Schema: SchemaDiagnosisRaw})
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = d.Dispatch(ctx, &Envelope{Version: EnvelopeVersion, Target: id.Address, Schema: SchemaChatMessage})
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = d.Dispatch(ctx, &Envelope{Version: EnvelopeVersion, Target: id.Address, Schema: SchemaDiagnosisRaw})
	assert.NoError(t, err)

	srv := httptest.NewServer(d)
	defer srv.Close()
	resp, err := http.Post(srv.URL, "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDispatcher_SubmitStatus(t *testing.T) {
	id := NewIdentity("recommendation", "seed")
	caller := NewIdentity("diagnosis", "other")
	d := NewDispatcher(id)
	d.Handle(SchemaRecommendationRequest, func(_ context.Context, env *Envelope) ([]*Envelope, error) {
		var req echoRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		return nil, errors.New("llm unavailable")
	})
	srv := httptest.NewServer(d)
	defer srv.Close()

	tests := []struct {
		name    string
		target  string
		payload interface{}
		want    int
	}{
		{"handler failure", id.Address, echoRequest{Question: "hi"}, http.StatusBadGateway},
		{"undecodable payload", id.Address, []int{1}, http.StatusBadRequest},
		{"wrong target", "agent1qother", echoRequest{Question: "hi"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := NewEnvelope(caller, tt.target, SchemaRecommendationRequest, tt.payload)
			require.NoError(t, err)
			body, err := json.Marshal(env)
			require.NoError(t, err)
			resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

type echoRequest struct {
	Question string `json:"question"`
}

type echoResponse struct {
	Answer string `json:"answer"`
}

func TestClient_Ask(t *testing.T) {
	target := NewIdentity("recommendation", "rec-seed")
	d := NewDispatcher(target)
	d.Handle(SchemaRecommendationRequest, func(_ context.Context, env *Envelope) ([]*Envelope, error) {
		var req echoRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		reply, err := env.Reply(target, SchemaRecommendationResponse, echoResponse{Answer: "re: " + req.Question})
		return []*Envelope{reply}, err
	})
	srv := httptest.NewServer(d)
	defer srv.Close()

	c := NewClient(NewIdentity("diagnosis", "diag-seed"), WithEndpoint(target.Address, srv.URL))
	var resp echoResponse
	require.NoError(t, c.Ask(context.Background(), target.Address, SchemaRecommendationRequest, echoRequest{Question: "Flu"}, &resp))
	assert.Equal(t, "re: Flu", resp.Answer)

	err := c.Ask(context.Background(), "agent1qunknown", SchemaRecommendationRequest, echoRequest{}, &resp)
	assert.Error(t, err)
}

func TestClient_AskTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	target := NewIdentity("recommendation", "rec-seed")
	c := NewClient(NewIdentity("diagnosis", "d"), WithEndpoint(target.Address, srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var resp echoResponse
	err := c.Ask(ctx, target.Address, SchemaRecommendationRequest, echoRequest{Question: "x"}, &resp)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_AskNoReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"replies": []}`))
	}))
	defer srv.Close()

	target := NewIdentity("recommendation", "rec-seed")
	c := NewClient(NewIdentity("diagnosis", "d"), WithEndpoint(target.Address, srv.URL))
	var resp echoResponse
	err := c.Ask(context.Background(), target.Address, SchemaRecommendationRequest, echoRequest{}, &resp)
	assert.ErrorIs(t, err, ErrNoReply)
}
