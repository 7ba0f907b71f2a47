package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sathishkumar1405/chat-app/internal/models"
)

// fakeConn records every frame sent to it.
type fakeConn struct {
	name   string
	frames [][]byte
	fail   bool
}

func (c *fakeConn) Send(data []byte) error {
	if c.fail {
		return errors.New("connection closed")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.frames = append(c.frames, cp)
	return nil
}

// fakeStore is an in-memory relay.Store.
type fakeStore struct {
	chats    map[string]*models.Chat
	users    map[string]*models.User
	inserted []*models.Message
	lastMsgs map[string]models.LastMessage

	insertErr  error
	getChatErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chats:    make(map[string]*models.Chat),
		users:    make(map[string]*models.User),
		lastMsgs: make(map[string]models.LastMessage),
	}
}

func (s *fakeStore) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	if s.getChatErr != nil {
		return nil, s.getChatErr
	}
	return s.chats[id], nil
}

func (s *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.users[id], nil
}

func (s *fakeStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	cp := *msg
	s.inserted = append(s.inserted, &cp)
	return nil
}

func (s *fakeStore) UpdateChatLastMessage(ctx context.Context, id string, last models.LastMessage) error {
	s.lastMsgs[id] = last
	return nil
}

func newTestRelay(store Store) *Relay {
	return New(NewRegistry(), store, zerolog.Nop())
}

func frame(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func decodeMessage(t *testing.T, data []byte) *models.Message {
	t.Helper()
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding message frame: %v", err)
	}
	return &msg
}

func TestTypingExcludesSender(t *testing.T) {
	r := newTestRelay(newFakeStore())
	a := &fakeConn{name: "a"}
	b := &fakeConn{name: "b"}
	c := &fakeConn{name: "c"}
	r.Registry().Register("A", a)
	r.Registry().Register("B", b)
	r.Registry().Register("C", c)

	raw := []byte(`{"type":"typing","chatId":"c1","user":"A"}`)
	r.HandleFrame(context.Background(), a, raw)

	if len(a.frames) != 0 {
		t.Fatalf("originator received %d frames, want 0", len(a.frames))
	}
	for _, conn := range []*fakeConn{b, c} {
		if len(conn.frames) != 1 {
			t.Fatalf("%s received %d frames, want 1", conn.name, len(conn.frames))
		}
		if string(conn.frames[0]) != string(raw) {
			t.Fatalf("%s received altered frame: %s", conn.name, conn.frames[0])
		}
	}
}

func TestStatusUpdateReachesEveryone(t *testing.T) {
	r := newTestRelay(newFakeStore())
	a := &fakeConn{name: "a"}
	b := &fakeConn{name: "b"}
	r.Registry().Register("A", a)
	r.Registry().Register("B", b)

	r.BroadcastStatusUpdate("A", "on vacation", "", "text")

	for _, conn := range []*fakeConn{a, b} {
		if len(conn.frames) != 1 {
			t.Fatalf("%s received %d frames, want 1", conn.name, len(conn.frames))
		}
		var push StatusUpdate
		if err := json.Unmarshal(conn.frames[0], &push); err != nil {
			t.Fatal(err)
		}
		if push.Type != TypeStatusUpdate || push.UserID != "A" || push.Status != "on vacation" {
			t.Fatalf("unexpected push: %+v", push)
		}
	}
}

func TestCallInitiateRoutedToTargetOnly(t *testing.T) {
	r := newTestRelay(newFakeStore())
	a := &fakeConn{name: "a"}
	b := &fakeConn{name: "b"}
	c := &fakeConn{name: "c"}
	r.Registry().Register("A", a)
	r.Registry().Register("B", b)
	r.Registry().Register("C", c)

	r.HandleFrame(context.Background(), a, frame(t, map[string]string{
		"type":         "call_initiate",
		"callerId":     "A",
		"callerName":   "Alice",
		"callType":     "video",
		"targetUserId": "B",
	}))

	if len(b.frames) != 1 {
		t.Fatalf("target received %d frames, want 1", len(b.frames))
	}
	var push struct {
		Type       string `json:"type"`
		CallerID   string `json:"callerId"`
		CallerName string `json:"callerName"`
		CallType   string `json:"callType"`
	}
	if err := json.Unmarshal(b.frames[0], &push); err != nil {
		t.Fatal(err)
	}
	if push.Type != TypeIncomingCall || push.CallerID != "A" || push.CallerName != "Alice" || push.CallType != "video" {
		t.Fatalf("unexpected incoming_call: %+v", push)
	}

	if len(a.frames) != 0 || len(c.frames) != 0 {
		t.Fatal("call_initiate leaked beyond its target")
	}
}

func TestCallInitiateAbsentTargetDropped(t *testing.T) {
	r := newTestRelay(newFakeStore())
	a := &fakeConn{name: "a"}
	r.Registry().Register("A", a)

	r.HandleFrame(context.Background(), a, frame(t, map[string]string{
		"type":         "call_initiate",
		"callerId":     "A",
		"targetUserId": "B",
	}))

	if len(a.frames) != 0 {
		t.Fatal("caller should receive no failure frame")
	}
}

func TestCallSignalForwardedVerbatim(t *testing.T) {
	for _, sigType := range []string{"call_accepted", "call_rejected", "offer", "answer", "ice-candidate"} {
		t.Run(sigType, func(t *testing.T) {
			r := newTestRelay(newFakeStore())
			a := &fakeConn{name: "a"}
			b := &fakeConn{name: "b"}
			r.Registry().Register("A", a)
			r.Registry().Register("B", b)

			raw := []byte(fmt.Sprintf(
				`{"type":%q,"targetUserId":"B","sdp":{"type":"offer","sdp":"v=0"}}`, sigType))
			r.HandleFrame(context.Background(), a, raw)

			if len(b.frames) != 1 {
				t.Fatalf("target received %d frames, want 1", len(b.frames))
			}
			if string(b.frames[0]) != string(raw) {
				t.Fatalf("frame was altered in flight: %s", b.frames[0])
			}
			if len(a.frames) != 0 {
				t.Fatal("sender should receive nothing back")
			}
		})
	}
}

func TestMessagePersistedAndFannedOutToAll(t *testing.T) {
	store := newFakeStore()
	store.chats["c1"] = &models.Chat{ID: "c1", Type: models.ChatTypeGroup, Members: []string{"u1", "u2", "u3"}}
	store.users["u1"] = &models.User{ID: "u1", Name: "Alice", Avatar: "a.png"}

	r := newTestRelay(store)
	c1 := &fakeConn{name: "c1"}
	c2 := &fakeConn{name: "c2"}
	r.Registry().Register("u1", c1)
	r.Registry().Register("u2", c2)

	const ts = int64(1700000000000)
	r.HandleFrame(context.Background(), c1, frame(t, map[string]interface{}{
		"chatId":    "c1",
		"sender":    "u1",
		"text":      "hi",
		"timestamp": ts,
		"type":      "text",
	}))

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(store.inserted))
	}
	stored := store.inserted[0]
	if stored.ID == "" {
		t.Fatal("persisted message has no generated id")
	}
	if stored.SenderName != "Alice" || stored.SenderAvatar != "a.png" {
		t.Fatalf("sender details not denormalized: %+v", stored)
	}

	// Everyone connected receives the stored record, members or not.
	for _, conn := range []*fakeConn{c1, c2} {
		if len(conn.frames) != 1 {
			t.Fatalf("%s received %d frames, want 1", conn.name, len(conn.frames))
		}
		msg := decodeMessage(t, conn.frames[0])
		if msg.Text != "hi" || msg.SenderID != "u1" || msg.ID != stored.ID {
			t.Fatalf("unexpected broadcast record: %+v", msg)
		}
	}

	last, ok := store.lastMsgs["c1"]
	if !ok {
		t.Fatal("lastMessage was not updated")
	}
	if last.Text != "hi" || last.Timestamp != ts {
		t.Fatalf("unexpected lastMessage: %+v", last)
	}
}

func TestNonTextLastMessagePlaceholder(t *testing.T) {
	store := newFakeStore()
	store.chats["c1"] = &models.Chat{ID: "c1", Type: models.ChatTypeGroup}

	r := newTestRelay(store)
	conn := &fakeConn{}
	r.Registry().Register("u1", conn)

	r.HandleFrame(context.Background(), conn, frame(t, map[string]interface{}{
		"chatId":    "c1",
		"sender":    "u1",
		"text":      "cat.png",
		"timestamp": int64(42),
		"type":      "image",
	}))

	if got := store.lastMsgs["c1"].Text; got != "Sent a image" {
		t.Fatalf("lastMessage text = %q, want %q", got, "Sent a image")
	}
}

func TestExpirationComputedFromChatDuration(t *testing.T) {
	const base = int64(1700000000000)

	tests := []struct {
		name     string
		duration int64
		want     int64
	}{
		{"one day", 86400, base + 86400*1000},
		{"disabled", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.chats["c1"] = &models.Chat{
				ID:                           "c1",
				Type:                         models.ChatTypeGroup,
				DisappearingMessagesDuration: tt.duration,
			}

			r := newTestRelay(store)
			r.now = func() time.Time { return time.UnixMilli(base) }
			conn := &fakeConn{}
			r.Registry().Register("u1", conn)

			r.HandleFrame(context.Background(), conn, frame(t, map[string]interface{}{
				"chatId":    "c1",
				"sender":    "u1",
				"text":      "secret",
				"timestamp": base,
				"type":      "text",
			}))

			if len(store.inserted) != 1 {
				t.Fatalf("expected 1 persisted message, got %d", len(store.inserted))
			}
			if got := store.inserted[0].ExpiresAt; got != tt.want {
				t.Fatalf("expiresAt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPersonalChatCounterpartResolved(t *testing.T) {
	store := newFakeStore()
	store.chats["c1"] = &models.Chat{
		ID:      "c1",
		Type:    models.ChatTypePersonal,
		Members: []string{"u1", "u2"},
	}
	store.users["u1"] = &models.User{ID: "u1", Name: "Alice"}
	store.users["u2"] = &models.User{ID: "u2", Name: "Bob"}

	r := newTestRelay(store)
	conn := &fakeConn{}
	r.Registry().Register("u1", conn)

	r.HandleFrame(context.Background(), conn, frame(t, map[string]interface{}{
		"chatId":    "c1",
		"sender":    "u1",
		"text":      "hello",
		"timestamp": int64(1),
		"type":      "text",
	}))

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(store.inserted))
	}
	msg := store.inserted[0]
	if msg.ReceiverID != "u2" || msg.Receiver != "Bob" {
		t.Fatalf("counterpart not resolved: %+v", msg)
	}
	if msg.Sender != "Alice . Bob" {
		t.Fatalf("sender label = %q, want %q", msg.Sender, "Alice . Bob")
	}
}

func TestUnknownChatStillPersists(t *testing.T) {
	store := newFakeStore()

	r := newTestRelay(store)
	conn := &fakeConn{}
	r.Registry().Register("u1", conn)

	r.HandleFrame(context.Background(), conn, frame(t, map[string]interface{}{
		"chatId":    "ghost",
		"sender":    "u1",
		"text":      "anyone there?",
		"timestamp": int64(1),
		"type":      "text",
	}))

	if len(store.inserted) != 1 {
		t.Fatal("message should persist even when the chat is unknown")
	}
	msg := store.inserted[0]
	if msg.ReceiverID != "" || msg.ExpiresAt != 0 {
		t.Fatalf("best-effort defaults expected: %+v", msg)
	}
	if msg.Sender != "Unknown" {
		t.Fatalf("sender label = %q, want %q", msg.Sender, "Unknown")
	}
	if len(store.lastMsgs) != 0 {
		t.Fatal("no lastMessage update expected for an unknown chat")
	}
}

func TestDuplicateEnvelopeProducesTwoMessages(t *testing.T) {
	store := newFakeStore()
	store.chats["c1"] = &models.Chat{ID: "c1", Type: models.ChatTypeGroup}

	r := newTestRelay(store)
	conn := &fakeConn{}
	r.Registry().Register("u1", conn)

	raw := frame(t, map[string]interface{}{
		"chatId":    "c1",
		"sender":    "u1",
		"text":      "again",
		"timestamp": int64(7),
		"type":      "text",
	})
	r.HandleFrame(context.Background(), conn, raw)
	r.HandleFrame(context.Background(), conn, raw)

	// No dedup on replay: two rows, two distinct ids.
	if len(store.inserted) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(store.inserted))
	}
	if store.inserted[0].ID == store.inserted[1].ID {
		t.Fatal("replayed envelope must get a fresh id")
	}
}

func TestMalformedFrameKeepsConnectionUsable(t *testing.T) {
	store := newFakeStore()
	store.chats["c1"] = &models.Chat{ID: "c1", Type: models.ChatTypeGroup}

	r := newTestRelay(store)
	conn := &fakeConn{}
	r.Registry().Register("u1", conn)

	r.HandleFrame(context.Background(), conn, []byte(`{not json`))

	// Next frame is processed normally.
	r.HandleFrame(context.Background(), conn, frame(t, map[string]interface{}{
		"chatId":    "c1",
		"sender":    "u1",
		"text":      "still here",
		"timestamp": int64(1),
		"type":      "text",
	}))

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 persisted message after malformed frame, got %d", len(store.inserted))
	}
}

func TestInsertFailureDropsFrame(t *testing.T) {
	store := newFakeStore()
	store.chats["c1"] = &models.Chat{ID: "c1", Type: models.ChatTypeGroup}
	store.insertErr = errors.New("store unavailable")

	r := newTestRelay(store)
	conn := &fakeConn{}
	r.Registry().Register("u1", conn)

	r.HandleFrame(context.Background(), conn, frame(t, map[string]interface{}{
		"chatId":    "c1",
		"sender":    "u1",
		"text":      "lost",
		"timestamp": int64(1),
		"type":      "text",
	}))

	if len(conn.frames) != 0 {
		t.Fatal("failed insert must not be broadcast")
	}
	if len(store.lastMsgs) != 0 {
		t.Fatal("failed insert must not update lastMessage")
	}
}

func TestBroadcastSkipsDeadConnections(t *testing.T) {
	r := newTestRelay(newFakeStore())
	alive := &fakeConn{name: "alive"}
	dead := &fakeConn{name: "dead", fail: true}
	r.Registry().Register("A", alive)
	r.Registry().Register("B", dead)

	r.BroadcastStatusUpdate("A", "hello", "", "text")

	if len(alive.frames) != 1 {
		t.Fatalf("alive connection received %d frames, want 1", len(alive.frames))
	}
}

func TestDisconnectCleansRegistry(t *testing.T) {
	r := newTestRelay(newFakeStore())
	conn := &fakeConn{}
	r.Registry().Register("u1", conn)

	r.HandleDisconnect(conn)

	if _, ok := r.Registry().Lookup("u1"); ok {
		t.Fatal("registry entry should be removed on disconnect")
	}
}
