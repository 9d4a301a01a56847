package service

import (
	"context"
	"strings"

	"github.com/divyamagg2005/CampusVerse/internal/model"
	"github.com/divyamagg2005/CampusVerse/internal/repository"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

// Colleges is the onboarding choice list.
var Colleges = []string{
	"VIT Vellore",
	"IIT Bombay",
	"IIT Delhi",
	"IIT Madras",
	"IIT Kanpur",
	"IIT Kharagpur",
	"IIT Roorkee",
	"BITS Pilani",
	"NIT Trichy",
	"IIIT Hyderabad",
	"DTU Delhi",
	"NSUT Delhi",
	"MIT",
	"Stanford",
	"Harvard",
	"Caltech",
	"Cambridge",
	"Oxford",
	"ETH Zurich",
	"NUS Singapore",
}

// AuthService fronts the session manager and the onboarding step.
type AuthService struct {
	sessions *session.Manager
	users    repository.Users
}

func NewAuthService(sessions *session.Manager, users repository.Users) *AuthService {
	return &AuthService{sessions: sessions, users: users}
}

func (s *AuthService) SignUp(ctx context.Context, email string, password string) (*session.Session, string, error) {
	return s.sessions.SignUp(ctx, email, password)
}

func (s *AuthService) SignIn(ctx context.Context, email string, password string) (*session.Session, string, error) {
	return s.sessions.SignIn(ctx, email, password)
}

func (s *AuthService) SignOut(token string) error {
	return s.sessions.SignOut(token)
}

func (s *AuthService) Refresh(token string) (string, error) {
	return s.sessions.Refresh(token)
}

// SelectCollege completes onboarding. The college is set exactly once;
// repeated attempts surface ErrCollegeAlreadySet from the repository.
func (s *AuthService) SelectCollege(ctx context.Context, viewer *session.Session, college string) error {
	if viewer == nil {
		return ErrNotSignedIn
	}
	college = strings.TrimSpace(college)
	if college == "" {
		return ErrEmptyContent
	}
	return s.users.SetCollege(ctx, viewer.UserID, college)
}

// CurrentUser resolves the viewer's stored profile.
func (s *AuthService) CurrentUser(ctx context.Context, viewer *session.Session) (*model.User, error) {
	if viewer == nil {
		return nil, ErrNotSignedIn
	}
	return s.users.GetByID(ctx, viewer.UserID)
}
