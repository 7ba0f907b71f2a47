package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/Sathishkumar1405/chat-app/internal/metrics"
	"github.com/Sathishkumar1405/chat-app/internal/models"
)

// Store is the slice of persistence the relay consumes. *store.PostgresStore
// and *store.SQLiteStore satisfy it; tests use fakes.
type Store interface {
	GetChat(ctx context.Context, id string) (*models.Chat, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	InsertMessage(ctx context.Context, msg *models.Message) error
	UpdateChatLastMessage(ctx context.Context, id string, last models.LastMessage) error
}

// Presence records who is currently reachable. Optional; backed by Redis in
// production and absent in development.
type Presence interface {
	TouchPresence(ctx context.Context, userID string) error
	ClearPresence(ctx context.Context, userID string) error
}

// Relay dispatches inbound frames to the typing broadcaster, the call
// signaling broker and the message ingest pipeline. It holds no per-call or
// per-conversation state; the registry is its only mutable collaborator.
type Relay struct {
	registry *Registry
	store    Store
	presence Presence
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a relay around the given registry and store.
func New(registry *Registry, store Store, logger zerolog.Logger) *Relay {
	return &Relay{
		registry: registry,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Registry returns the connection registry the relay routes through.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// SetPresence attaches a presence tracker. Pass nil to disable.
func (r *Relay) SetPresence(p Presence) {
	r.presence = p
}

// HandleFrame processes one inbound text frame from conn. Malformed or
// unroutable frames are logged and dropped; the connection stays open and no
// error frame is sent back. Failure detection is the client's job.
func (r *Relay) HandleFrame(ctx context.Context, conn Conn, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.logger.Warn().Err(err).Msg("dropping malformed frame")
		metrics.WSFramesTotal.WithLabelValues("malformed").Inc()
		return
	}

	kind := classify(&env)
	metrics.WSFramesTotal.WithLabelValues(kind.String()).Inc()

	switch kind {
	case KindRegister:
		r.registry.Register(env.UserID, conn)
		if r.presence != nil && env.UserID != "" {
			if err := r.presence.TouchPresence(ctx, env.UserID); err != nil {
				r.logger.Warn().Err(err).Msg("presence touch failed")
			}
		}
		r.logger.Debug().Str("user_id", env.UserID).Msg("client registered")
	case KindTyping:
		r.broadcast(data, conn)
	case KindCallInitiate:
		r.forwardCallInitiate(&env)
	case KindCallSignal:
		r.forwardCallSignal(&env, data)
	case KindChatMessage:
		r.ingest(ctx, &env)
	case KindUnknown:
		r.logger.Warn().Str("frame_type", env.Type).Msg("dropping unrecognized frame")
	}
}

// HandleDisconnect removes conn from the registry. Frames already being
// handled for the connection run to completion on their own.
func (r *Relay) HandleDisconnect(conn Conn) {
	removed := r.registry.Remove(conn)
	if r.presence == nil {
		return
	}
	for _, userID := range removed {
		if err := r.presence.ClearPresence(context.Background(), userID); err != nil {
			r.logger.Warn().Err(err).Msg("presence clear failed")
		}
	}
}

// BroadcastStatusUpdate pushes a status change to every registered connection,
// including the user's own. Status changes originate from the HTTP layer.
func (r *Relay) BroadcastStatusUpdate(userID, status, statusMedia, statusMediaType string) {
	r.broadcast(marshalStatusUpdate(userID, status, statusMedia, statusMediaType), nil)
}

// broadcast fans data out to every registered connection except the given one
// (pass nil to include everyone). Best-effort: write errors are skipped.
func (r *Relay) broadcast(data []byte, except Conn) {
	for _, c := range r.registry.snapshot(except) {
		if err := c.Send(data); err != nil {
			metrics.WSBroadcastSkips.Inc()
		}
	}
}

// forwardCallInitiate rewrites a call_initiate as incoming_call and delivers
// it to the target. An unregistered target is a silent no-op; the caller is
// expected to time out on its own.
func (r *Relay) forwardCallInitiate(env *Envelope) {
	target, ok := r.registry.Lookup(env.TargetUserID)
	if !ok {
		r.logger.Info().
			Str("target_user_id", env.TargetUserID).
			Str("caller_id", env.CallerID).
			Msg("call target not connected")
		metrics.WSCallSignalsDropped.Inc()
		return
	}

	push, _ := json.Marshal(incomingCall{
		Type:       TypeIncomingCall,
		CallerID:   env.CallerID,
		CallerName: env.CallerName,
		CallType:   env.CallType,
	})

	r.logger.Info().
		Str("caller_id", env.CallerID).
		Str("target_user_id", env.TargetUserID).
		Str("call_type", env.CallType).
		Msg("forwarding call")

	if err := target.Send(push); err != nil {
		metrics.WSCallSignalsDropped.Inc()
		return
	}
	metrics.WSCallSignalsForwarded.Inc()
}

// forwardCallSignal relays accept/reject/offer/answer/ICE frames verbatim.
func (r *Relay) forwardCallSignal(env *Envelope, raw []byte) {
	target, ok := r.registry.Lookup(env.TargetUserID)
	if !ok {
		metrics.WSCallSignalsDropped.Inc()
		return
	}
	if err := target.Send(raw); err != nil {
		metrics.WSCallSignalsDropped.Inc()
		return
	}
	metrics.WSCallSignalsForwarded.Inc()
}

// ingest runs the chat-message pipeline: resolve the conversation and
// counterpart, denormalize sender details, compute expiry, persist, update the
// conversation summary and fan the stored record out to everyone connected.
func (r *Relay) ingest(ctx context.Context, env *Envelope) {
	// An unknown chat does not block persistence; we just lose counterpart
	// resolution and the summary update.
	chat, err := r.store.GetChat(ctx, env.ChatID)
	if err != nil {
		r.logger.Error().Err(err).Str("chat_id", env.ChatID).Msg("chat lookup failed")
		chat = nil
	}

	var receiverID, receiverName string
	if chat != nil && chat.Type == models.ChatTypePersonal {
		for _, member := range chat.Members {
			if member != env.Sender {
				receiverID = member
				break
			}
		}
		if receiverID != "" {
			if u, err := r.store.GetUserByID(ctx, receiverID); err == nil && u != nil {
				receiverName = u.Name
			}
		}
	}

	var senderName, senderAvatar string
	if u, err := r.store.GetUserByID(ctx, env.Sender); err == nil && u != nil {
		senderName = u.Name
		senderAvatar = u.Avatar
	}

	var expiresAt int64
	if chat != nil && chat.DisappearingMessagesDuration > 0 {
		expiresAt = r.now().UnixMilli() + chat.DisappearingMessagesDuration*1000
	}

	msgType := env.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	// Legacy "Sender . Receiver" label kept for old clients.
	label := senderName
	if label == "" {
		label = "Unknown"
	}
	if receiverName != "" {
		label = senderName + " . " + receiverName
	}

	msg := &models.Message{
		ID:           ulid.Make().String(),
		ChatID:       env.ChatID,
		Sender:       label,
		Receiver:     receiverName,
		SenderID:     env.Sender,
		ReceiverID:   receiverID,
		SenderName:   senderName,
		SenderAvatar: senderAvatar,
		Text:         env.Text,
		Timestamp:    env.Timestamp,
		Status:       models.StatusSent,
		Type:         msgType,
		FileName:     env.FileName,
		ExpiresAt:    expiresAt,
	}

	if err := r.store.InsertMessage(ctx, msg); err != nil {
		r.logger.Error().Err(err).Str("chat_id", env.ChatID).Msg("message insert failed")
		return
	}
	metrics.WSMessagesPersisted.Inc()

	if chat != nil {
		text := env.Text
		if msgType != models.MessageTypeText {
			text = "Sent a " + msgType
		}
		last := models.LastMessage{Text: text, Timestamp: env.Timestamp}
		// Not transactional with the insert; a crash in between leaves the
		// summary stale. Accepted best-effort consistency.
		if err := r.store.UpdateChatLastMessage(ctx, chat.ID, last); err != nil {
			r.logger.Error().Err(err).Str("chat_id", chat.ID).Msg("lastMessage update failed")
		}
	}

	// Broadcast-to-all: recipients outside the conversation discard the frame
	// client-side. Keeps the relay free of a conversation-subscriber index.
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Msg("message marshal failed")
		return
	}
	r.broadcast(data, nil)
}
