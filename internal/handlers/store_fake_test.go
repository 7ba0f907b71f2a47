package handlers

import (
	"context"
	"sort"
	"sync"

	"github.com/Sathishkumar1405/chat-app/internal/models"
)

// fakeStore is an in-memory store.DataStore for handler tests.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*models.User
	chats       map[string]*models.Chat
	messages    map[string]*models.Message
	communities map[string]*models.Community
	members     map[string][]string // communityID -> userIDs

	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*models.User),
		chats:       make(map[string]*models.Chat),
		messages:    make(map[string]*models.Message),
		communities: make(map[string]*models.Community),
		members:     make(map[string][]string),
	}
}

func (s *fakeStore) Close()                         {}
func (s *fakeStore) Ping(ctx context.Context) error { return s.pingErr }

func (s *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) UpdateUserStatus(ctx context.Context, id, status, statusMedia, statusMediaType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Status = status
		u.StatusMedia = statusMedia
		u.StatusMediaType = statusMediaType
	}
	return nil
}

func (s *fakeStore) UpdateUserProfile(ctx context.Context, id, name, avatar, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		if name != "" {
			u.Name = name
		}
		if avatar != "" {
			u.Avatar = avatar
		}
		if status != "" {
			u.Status = status
		}
	}
	return nil
}

func (s *fakeStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *chat
	s.chats[chat.ID] = &cp
	return nil
}

func (s *fakeStore) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chats[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) GetChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Chat
	for _, c := range s.chats {
		for _, m := range c.Members {
			if m == userID {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) FindPersonalChat(ctx context.Context, userA, userB string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.Type != models.ChatTypePersonal {
			continue
		}
		hasA, hasB := false, false
		for _, m := range c.Members {
			if m == userA {
				hasA = true
			}
			if m == userB {
				hasB = true
			}
		}
		if hasA && hasB {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdateChatLastMessage(ctx context.Context, id string, last models.LastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chats[id]; ok {
		c.LastMessage = last
	}
	return nil
}

func (s *fakeStore) SetDisappearingDuration(ctx context.Context, id string, seconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chats[id]; ok {
		c.DisappearingMessagesDuration = seconds
	}
	return nil
}

func (s *fakeStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *fakeStore) GetChatMessages(ctx context.Context, chatID string, nowMillis int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ChatID != chatID || m.Expired(nowMillis) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (s *fakeStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) SetMessageStarred(ctx context.Context, id string, starred bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.messages[id]; ok {
		m.Starred = starred
	}
	return nil
}

func (s *fakeStore) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	return nil
}

func (s *fakeStore) PurgeExpiredMessages(ctx context.Context, nowMillis int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for id, m := range s.messages {
		if m.Expired(nowMillis) {
			delete(s.messages, id)
			purged++
		}
	}
	return purged, nil
}

func (s *fakeStore) CreateCommunity(ctx context.Context, community *models.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *community
	s.communities[community.ID] = &cp
	return nil
}

func (s *fakeStore) GetCommunity(ctx context.Context, id string) (*models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.communities[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) ListCommunities(ctx context.Context) ([]models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Community, 0, len(s.communities))
	for _, c := range s.communities {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeStore) AddCommunityMember(ctx context.Context, communityID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[communityID] = append(s.members[communityID], userID)
	return nil
}
