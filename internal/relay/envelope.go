package relay

import "encoding/json"

// Inbound discriminator values.
const (
	TypeRegister     = "register"
	TypeTyping       = "typing"
	TypeCallInitiate = "call_initiate"
	TypeCallAccepted = "call_accepted"
	TypeCallRejected = "call_rejected"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"

	// Outbound only.
	TypeIncomingCall = "incoming_call"
	TypeStatusUpdate = "status_update"
)

// Envelope is one inbound event decoded far enough to classify and route it.
// Call signaling payloads (SDP, ICE candidates) stay in the raw frame and are
// forwarded untouched.
type Envelope struct {
	Type string `json:"type"`

	// register
	UserID string `json:"userId"`

	// typing
	User string `json:"user"`

	// call signaling
	TargetUserID string `json:"targetUserId"`
	CallerID     string `json:"callerId"`
	CallerName   string `json:"callerName"`
	CallType     string `json:"callType"` // audio or video

	// chat message
	ChatID    string `json:"chatId"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // Unix ms, client clock
	FileName  string `json:"fileName"`
}

// Kind is the closed set of inbound frame classifications. Adding a new kind
// means extending classify and the dispatch switch in HandleFrame together.
type Kind int

const (
	KindUnknown Kind = iota
	KindRegister
	KindTyping
	KindCallInitiate
	KindCallSignal
	KindChatMessage
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindTyping:
		return "typing"
	case KindCallInitiate:
		return "call_initiate"
	case KindCallSignal:
		return "call_signal"
	case KindChatMessage:
		return "chat_message"
	default:
		return "unknown"
	}
}

// classify maps an envelope to its kind. Anything that is not a recognized
// discriminator but carries both chatId and sender is a chat message; the
// type field then names the message type (text, image, ...), not an event.
func classify(env *Envelope) Kind {
	switch env.Type {
	case TypeRegister:
		return KindRegister
	case TypeTyping:
		return KindTyping
	case TypeCallInitiate:
		return KindCallInitiate
	case TypeCallAccepted, TypeCallRejected, TypeOffer, TypeAnswer, TypeICECandidate:
		return KindCallSignal
	}
	if env.ChatID != "" && env.Sender != "" {
		return KindChatMessage
	}
	return KindUnknown
}

// incomingCall is the rewritten push delivered to a call target.
type incomingCall struct {
	Type       string `json:"type"`
	CallerID   string `json:"callerId"`
	CallerName string `json:"callerName"`
	CallType   string `json:"callType"`
}

// StatusUpdate is the push fanned out when a user changes their status.
type StatusUpdate struct {
	Type            string `json:"type"`
	UserID          string `json:"userId"`
	Status          string `json:"status"`
	StatusMedia     string `json:"statusMedia,omitempty"`
	StatusMediaType string `json:"statusMediaType,omitempty"`
}

func marshalStatusUpdate(userID, status, statusMedia, statusMediaType string) []byte {
	data, _ := json.Marshal(StatusUpdate{
		Type:            TypeStatusUpdate,
		UserID:          userID,
		Status:          status,
		StatusMedia:     statusMedia,
		StatusMediaType: statusMediaType,
	})
	return data
}
