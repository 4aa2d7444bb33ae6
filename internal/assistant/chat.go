package assistant

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ds124wfegd/lensmaster/internal/entity"

	"github.com/google/uuid"
)

const (
	Greeting    = "Hello! I am the LensMaster AI Assistant. How can I help you with your gear today?"
	chatFraming = "As a camera rental expert, answer: "
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ChatSession is one conversation. It keeps at most maxTurns turns.
type ChatSession struct {
	ID string

	mu       sync.Mutex
	turns    []Turn
	maxTurns int
	lastUsed atomic.Int64
}

func NewChatSession(maxTurns int) *ChatSession {
	if maxTurns < 2 {
		maxTurns = 2
	}
	now := time.Now()
	s := &ChatSession{
		ID:       uuid.NewString(),
		turns:    []Turn{{Role: RoleBot, Text: Greeting, At: now}},
		maxTurns: maxTurns,
	}
	s.lastUsed.Store(now.UnixNano())
	return s
}

// Send asks the deep model with the camera-expert framing and records both turns.
// The session is held for the whole call so turns stay paired.
func (s *ChatSession) Send(ctx context.Context, llm TextCompleter, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", entity.ErrEmptyPrompt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := llm.Complete(ctx, s.prompt(message), ModeDeep)
	if err != nil {
		return "", err
	}

	now := time.Now()
	s.append(Turn{Role: RoleUser, Text: message, At: now}, Turn{Role: RoleBot, Text: reply, At: now})
	s.lastUsed.Store(now.UnixNano())
	return reply, nil
}

func (s *ChatSession) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *ChatSession) prompt(message string) string {
	past := s.turns
	// the greeting only sits in front until trimming drops it
	if len(past) > 0 && past[0].Role == RoleBot && past[0].Text == Greeting {
		past = past[1:]
	}

	var sb strings.Builder
	if len(past) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, t := range past {
			if t.Role == RoleUser {
				sb.WriteString("Customer: ")
			} else {
				sb.WriteString("Assistant: ")
			}
			sb.WriteString(t.Text)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(chatFraming)
	sb.WriteString(message)
	return sb.String()
}

func (s *ChatSession) append(turns ...Turn) {
	s.turns = append(s.turns, turns...)
	if over := len(s.turns) - s.maxTurns; over > 0 {
		s.turns = append(s.turns[:0:0], s.turns[over:]...)
	}
}

func (s *ChatSession) idleSince() int64 {
	return s.lastUsed.Load()
}

// ChatStore owns the live sessions and evicts the least recently used one when full.
type ChatStore struct {
	mu          sync.Mutex
	sessions    map[string]*ChatSession
	maxSessions int
	maxTurns    int
}

func NewChatStore(maxSessions, maxTurns int) *ChatStore {
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	return &ChatStore{
		sessions:    make(map[string]*ChatSession),
		maxSessions: maxSessions,
		maxTurns:    maxTurns,
	}
}

// Get returns the session with id, or a fresh one when id is empty or unknown.
func (s *ChatStore) Get(id string) *ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.lastUsed.Store(time.Now().UnixNano())
		return sess
	}

	if len(s.sessions) >= s.maxSessions {
		s.evictOldest()
	}
	sess := NewChatSession(s.maxTurns)
	s.sessions[sess.ID] = sess
	return sess
}

func (s *ChatStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *ChatStore) evictOldest() {
	var oldestID string
	var oldest int64
	for id, sess := range s.sessions {
		if t := sess.idleSince(); oldestID == "" || t < oldest {
			oldestID, oldest = id, t
		}
	}
	delete(s.sessions, oldestID)
}
