package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mcoot/digitguess/internal/dependencies/mocks"
	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/storage/memory"
	"github.com/mcoot/digitguess/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(memory.New(), s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestFirstWinInserts() {
	improved, err := s.service.RecordWin(s.ctx, "p1", "alice", 7)
	s.Require().NoError(err)
	s.True(improved)

	entry, err := s.service.Entry(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(7, entry.BestTurns)
	s.Equal("alice", entry.DisplayName)
}

func (s *ServiceSuite) TestLowerTurnsImproves() {
	_, err := s.service.RecordWin(s.ctx, "p1", "alice", 7)
	s.Require().NoError(err)

	improved, err := s.service.RecordWin(s.ctx, "p1", "alice", 5)
	s.Require().NoError(err)
	s.True(improved)

	entry, err := s.service.Entry(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(5, entry.BestTurns)
}

func (s *ServiceSuite) TestEqualOrHigherTurnsIgnored() {
	_, err := s.service.RecordWin(s.ctx, "p1", "alice", 5)
	s.Require().NoError(err)

	for _, turns := range []int{5, 6, 20} {
		improved, err := s.service.RecordWin(s.ctx, "p1", "alice", turns)
		s.Require().NoError(err)
		s.False(improved)
	}

	entry, err := s.service.Entry(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(5, entry.BestTurns)
}

func (s *ServiceSuite) TestRejectsNonPositiveTurns() {
	_, err := s.service.RecordWin(s.ctx, "p1", "alice", 0)
	s.Error(err)
}

func (s *ServiceSuite) TestTopOrderedAscending() {
	_, _ = s.service.RecordWin(s.ctx, "p1", "alice", 9)
	_, _ = s.service.RecordWin(s.ctx, "p2", "bob", 3)
	_, _ = s.service.RecordWin(s.ctx, "p3", "carol", 6)

	top, err := s.service.Top(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal(model.PlayerID("p2"), top[0].PlayerID)
	s.Equal(model.PlayerID("p3"), top[1].PlayerID)
}

func (s *ServiceSuite) TestTopDefaultsToTen() {
	for i := 0; i < 15; i++ {
		_, err := s.service.RecordWin(s.ctx, model.PlayerID(fmt.Sprintf("p%02d", i)), "x", i+1)
		s.Require().NoError(err)
	}

	top, err := s.service.Top(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(top, model.DefaultLeaderboardSize)
	s.Equal(1, top[0].BestTurns)
}

func (s *ServiceSuite) TestConcurrentWinsKeepMinimum() {
	var wg sync.WaitGroup
	for turns := 20; turns >= 1; turns-- {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			_, err := s.service.RecordWin(s.ctx, "p1", "alice", t)
			s.NoError(err)
		}(turns)
	}
	wg.Wait()

	entry, err := s.service.Entry(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(1, entry.BestTurns)
}
