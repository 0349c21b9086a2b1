package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/digitguess/internal/dependencies/mocks"
	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/storage/memory"
	"github.com/mcoot/digitguess/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, Config{SessionDuration: time.Hour}, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) register(username, password, displayName string) *model.AuthSession {
	session, err := s.service.RegisterPlayer(s.ctx, username, password, displayName)
	s.Require().NoError(err)
	return session
}

// Guests

func (s *ServiceSuite) TestCreateGuestPlayer() {
	session, err := s.service.CreateGuestPlayer(s.ctx, "  Alice ")
	s.Require().NoError(err)

	s.True(strings.HasPrefix(session.Token, "sess_"))
	s.True(strings.HasPrefix(string(session.PlayerID), "p_"))
	s.Equal("Alice", session.Player.DisplayName)
	s.True(session.Player.IsGuest)
	s.Equal(s.clock.Now().Add(time.Hour), session.ExpiresAt)

	player, err := s.storage.GetPlayer(s.ctx, session.PlayerID)
	s.Require().NoError(err)
	s.Equal("Alice", player.DisplayName)
}

func (s *ServiceSuite) TestGuestsGetDistinctIdentities() {
	a, err := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	b, err := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(err)

	s.NotEqual(a.PlayerID, b.PlayerID)
	s.NotEqual(a.Token, b.Token)
}

func (s *ServiceSuite) TestDisplayNameValidation() {
	cases := map[string]error{
		"":                      ErrInvalidDisplayName,
		"   ":                   ErrInvalidDisplayName,
		strings.Repeat("x", 33): ErrInvalidDisplayName,
		strings.Repeat("é", 32): nil,
		"Bob the Builder":       nil,
	}
	for name, want := range cases {
		_, err := s.service.CreateGuestPlayer(s.ctx, name)
		if want == nil {
			s.NoError(err, name)
		} else {
			s.ErrorIs(err, want, name)
		}
	}
}

// Accounts

func (s *ServiceSuite) TestRegisterPlayer() {
	session := s.register("Alice", "password123", "Ally")

	s.Equal("Ally", session.Player.DisplayName)
	s.False(session.Player.IsGuest)

	rp, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(session.PlayerID, rp.PlayerID)
	s.NotEqual("password123", rp.PasswordHash)
}

func (s *ServiceSuite) TestRegisterDefaultsDisplayNameToUsername() {
	session := s.register("carol", "password123", "  ")
	s.Equal("carol", session.Player.DisplayName)
}

func (s *ServiceSuite) TestRegisterRejectsDuplicateUsernameIgnoringCase() {
	s.register("alice", "password123", "Alice")

	_, err := s.service.RegisterPlayer(s.ctx, " ALICE ", "different", "Alice2")
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterRequiresCredentials() {
	_, err := s.service.RegisterPlayer(s.ctx, "", "password123", "")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.service.RegisterPlayer(s.ctx, "dave", "", "")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLogin() {
	registered := s.register("alice", "password123", "Alice")

	session, err := s.service.Login(s.ctx, "Alice", "password123")
	s.Require().NoError(err)
	s.Equal(registered.PlayerID, session.PlayerID)
	s.NotEqual(registered.Token, session.Token)

	_, err = s.service.Login(s.ctx, "alice", "wrongpassword")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, "nobody", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// Sessions

func (s *ServiceSuite) TestValidateSession() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	validated, err := s.service.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.PlayerID, validated.PlayerID)

	for _, token := range []string{"", "sess_unknown"} {
		_, err = s.service.ValidateSession(s.ctx, token)
		s.ErrorIs(err, ErrInvalidSession, token)
	}
}

func (s *ServiceSuite) TestExpiredSessionIsDeletedOnValidate() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	s.clock.Advance(time.Hour + time.Second)

	_, err := s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)

	_, err = s.storage.GetSession(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ServiceSuite) TestInvalidateSession() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	s.Require().NoError(s.service.InvalidateSession(s.ctx, session.Token))
	_, err := s.service.GetPlayer(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)

	s.NoError(s.service.InvalidateSession(s.ctx, "unknown_token"))
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	old, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.clock.Advance(2 * time.Hour)
	fresh, _ := s.service.CreateGuestPlayer(s.ctx, "Bob")

	s.Require().NoError(s.service.CleanExpiredSessions(s.ctx))

	_, err := s.storage.GetSession(s.ctx, old.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)

	player, err := s.service.GetPlayer(s.ctx, fresh.Token)
	s.Require().NoError(err)
	s.Equal("Bob", player.DisplayName)
}

func (s *ServiceSuite) TestSessionsResolveAcrossInstances() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	var resolver Resolver = New(s.storage, s.clock, DefaultConfig(), testutil.NopLogger())
	validated, err := resolver.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal("Alice", validated.Player.DisplayName)
}

func (s *ServiceSuite) TestZeroSessionDurationUsesDefault() {
	svc := New(s.storage, s.clock, Config{}, testutil.NopLogger())

	session, err := svc.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(DefaultConfig().SessionDuration), session.ExpiresAt)
}
