package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/divyamagg2005/CampusVerse/config"
	"github.com/divyamagg2005/CampusVerse/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmptyFields        = errors.New("email and password are required")
)

// Session is the resolved identity behind a token. It is passed
// explicitly to every operation that needs a viewer; nothing reads it
// from ambient state.
type Session struct {
	UserID string
	Email  string
}

type EventKind string

const (
	SignedIn  EventKind = "signed-in"
	SignedOut EventKind = "signed-out"
)

type Event struct {
	Kind   EventKind
	UserID string
	Email  string
}

// Manager implements sign-up, sign-in, sign-out, verify and refresh over
// the users collection, issuing HS256 tokens. Session state changes are
// observable through Subscribe.
type Manager struct {
	users  repository.Users
	secret []byte
	ttl    time.Duration

	mu        sync.Mutex
	revoked   map[string]time.Time // jti -> expiry
	observers []chan Event
}

func NewManager(conf config.Auth, users repository.Users) *Manager {
	return &Manager{
		users:   users,
		secret:  []byte(conf.Secret),
		ttl:     conf.TokenTTL,
		revoked: map[string]time.Time{},
	}
}

func (m *Manager) SignUp(ctx context.Context, email string, password string) (*Session, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrEmptyFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("bcrypt.GenerateFromPassword: %v", err)
	}
	user, err := m.users.Create(ctx, email, string(hash))
	if err != nil {
		return nil, "", err
	}
	return m.open(user.ID, user.Email)
}

func (m *Manager) SignIn(ctx context.Context, email string, password string) (*Session, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrEmptyFields
	}
	id, hash, err := m.users.PasswordHash(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	return m.open(id, email)
}

func (m *Manager) open(userID string, email string) (*Session, string, error) {
	token, err := m.issue(userID, email)
	if err != nil {
		return nil, "", err
	}
	sess := &Session{UserID: userID, Email: email}
	m.notify(Event{Kind: SignedIn, UserID: userID, Email: email})
	return sess, token, nil
}

func (m *Manager) issue(userID string, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"jti":   uuid.New().String(),
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token.SignedString: %v", err)
	}
	return token, nil
}

func (m *Manager) parse(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)

	m.mu.Lock()
	_, revoked := m.revoked[jti]
	m.mu.Unlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify resolves the session behind a token.
func (m *Manager) Verify(token string) (*Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	return &Session{UserID: userID, Email: email}, nil
}

// Refresh exchanges a still-valid token for a fresh one.
func (m *Manager) Refresh(token string) (string, error) {
	sess, err := m.Verify(token)
	if err != nil {
		return "", err
	}
	return m.issue(sess.UserID, sess.Email)
}

// SignOut revokes the token. The revocation set is pruned of expired
// entries on each call.
func (m *Manager) SignOut(token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}
	jti, _ := claims["jti"].(string)
	exp := time.Now().Add(m.ttl)
	if unix, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(unix), 0)
	}

	m.mu.Lock()
	now := time.Now()
	for id, expiry := range m.revoked {
		if expiry.Before(now) {
			delete(m.revoked, id)
		}
	}
	m.revoked[jti] = exp
	m.mu.Unlock()

	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	m.notify(Event{Kind: SignedOut, UserID: userID, Email: email})
	return nil
}

// Subscribe observes session state changes. The returned func
// unregisters the observer; call it when the observer goes away or the
// manager holds its channel forever.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	m.mu.Lock()
	m.observers = append(m.observers, ch)
	m.mu.Unlock()

	unsubscribe := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, observer := range m.observers {
			if observer == ch {
				m.observers = append(m.observers[:i], m.observers[i+1:]...)
				return
			}
		}
	}
	return ch, unsubscribe
}

func (m *Manager) notify(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.observers {
		select {
		case ch <- ev:
		default:
		}
	}
}
