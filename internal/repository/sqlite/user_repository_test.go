package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/vytor/deckflash/internal/errors"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/repository"
	"github.com/vytor/deckflash/internal/repository/sqlite"
	"github.com/vytor/deckflash/internal/testutil"
)

type UserRepositorySuite struct {
	suite.Suite
	db      *sql.DB
	repo    repository.UserRepository
	results repository.ResultRepository
}

func (s *UserRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewUserRepository(s.db)
	s.results = sqlite.NewResultRepository(s.db)
}

func (s *UserRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *UserRepositorySuite) TestGetOrCreate_Idempotent() {
	ctx := context.Background()
	first, err := s.repo.GetOrCreate(ctx, "ana")
	s.Require().NoError(err)
	s.Assert().Greater(first.ID, int64(0))
	s.Assert().Equal("ana", first.DisplayName)
	s.Assert().Zero(first.CurrentStreak)
	s.Assert().Nil(first.LastActivityDate)

	second, err := s.repo.GetOrCreate(ctx, "ana")
	s.Require().NoError(err)
	s.Assert().Equal(first.ID, second.ID)

	other, err := s.repo.GetOrCreate(ctx, "bo")
	s.Require().NoError(err)
	s.Assert().NotEqual(first.ID, other.ID)
}

func (s *UserRepositorySuite) TestUpdateProgress() {
	ctx := context.Background()
	u, err := s.repo.GetOrCreate(ctx, "ana")
	s.Require().NoError(err)
	s.Assert().Equal(int64(1), u.Version)

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	updated, err := s.repo.UpdateProgress(ctx, u.ID, func(cur models.User) models.User {
		cur.QuizzesTaken = 2
		cur.CardsReviewed = 20
		cur.CorrectAnswers = 15
		cur.CurrentStreak = 3
		cur.LongestStreak = 5
		cur.LastActivityDate = &day
		return cur
	})
	s.Require().NoError(err)
	s.Assert().Equal(int64(2), updated.Version)
	s.Assert().Equal("ana", updated.DisplayName)

	got, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)
	s.Assert().Equal(2, got.QuizzesTaken)
	s.Assert().Equal(20, got.CardsReviewed)
	s.Assert().Equal(15, got.CorrectAnswers)
	s.Assert().Equal(3, got.CurrentStreak)
	s.Assert().Equal(5, got.LongestStreak)
	s.Assert().Equal(int64(2), got.Version)
	s.Require().NotNil(got.LastActivityDate)
	s.Assert().True(got.LastActivityDate.Equal(day))
	s.Assert().InDelta(75.0, got.AccuracyPercentage(), 1e-9)
}

func (s *UserRepositorySuite) TestUpdateProgress_AppliesToStoredRow() {
	ctx := context.Background()
	u, err := s.repo.GetOrCreate(ctx, "ana")
	s.Require().NoError(err)

	increment := func(cur models.User) models.User {
		cur.QuizzesTaken++
		return cur
	}
	for range 3 {
		_, err := s.repo.UpdateProgress(ctx, u.ID, increment)
		s.Require().NoError(err)
	}

	got, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)
	s.Assert().Equal(3, got.QuizzesTaken)
	s.Assert().Equal(int64(4), got.Version)
}

func (s *UserRepositorySuite) TestGetAndUpdate_NotFound() {
	ctx := context.Background()
	u, err := s.repo.Get(ctx, 99999)
	s.Assert().Nil(u)
	s.Assert().True(apperrors.IsNotFound(err))

	called := false
	updated, err := s.repo.UpdateProgress(ctx, 99999, func(cur models.User) models.User {
		called = true
		return cur
	})
	s.Assert().Nil(updated)
	s.Assert().True(apperrors.IsNotFound(err))
	s.Assert().False(called)
}

func (s *UserRepositorySuite) seedCard() (deckID, cardID int64) {
	ctx := context.Background()
	deckID, err := sqlite.NewDeckRepository(s.db).Insert(ctx, models.Deck{Name: "d"})
	s.Require().NoError(err)
	cardID, err = sqlite.NewCardRepository(s.db).Insert(ctx, models.Card{
		DeckID: deckID, Question: "q", Answer: "a", QuestionType: models.QuestionSimple,
		Scheduling: models.NewSchedulingState(time.Now().UTC()),
	})
	s.Require().NoError(err)
	return deckID, cardID
}

func (s *UserRepositorySuite) countResults() int {
	var n int
	s.Require().NoError(s.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM quiz_results`).Scan(&n))
	return n
}

func (s *UserRepositorySuite) TestResults_InsertUpdatesProgress() {
	ctx := context.Background()
	u, err := s.repo.GetOrCreate(ctx, "ana")
	s.Require().NoError(err)
	deckID, cardID := s.seedCard()

	id, err := s.results.Insert(ctx, models.QuizResult{UserID: u.ID, DeckID: deckID, CardID: cardID, Difficulty: "easy"},
		func(cur models.User) models.User {
			cur.CurrentStreak = 1
			return cur
		})
	s.Require().NoError(err)
	s.Assert().Greater(id, int64(0))

	got, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)
	s.Assert().Equal(1, got.CurrentStreak)
	s.Assert().Equal(int64(2), got.Version)
	s.Assert().Equal(1, s.countResults())
}

func (s *UserRepositorySuite) TestResults_InsertMissingUserStoresNothing() {
	ctx := context.Background()
	deckID, cardID := s.seedCard()

	_, err := s.results.Insert(ctx, models.QuizResult{UserID: 99999, DeckID: deckID, CardID: cardID, Difficulty: "easy"},
		func(cur models.User) models.User { return cur })
	s.Assert().True(apperrors.IsNotFound(err))
	s.Assert().Zero(s.countResults())
}

func (s *UserRepositorySuite) TestResults_FailedInsertRollsBackProgress() {
	ctx := context.Background()
	u, err := s.repo.GetOrCreate(ctx, "ana")
	s.Require().NoError(err)
	deckID, _ := s.seedCard()

	// Card 99999 violates the foreign key, so the user update must not survive.
	_, err = s.results.Insert(ctx, models.QuizResult{UserID: u.ID, DeckID: deckID, CardID: 99999, Difficulty: "easy"},
		func(cur models.User) models.User {
			cur.CurrentStreak = 9
			return cur
		})
	s.Require().Error(err)

	got, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)
	s.Assert().Zero(got.CurrentStreak)
	s.Assert().Equal(int64(1), got.Version)
	s.Assert().Zero(s.countResults())
}

func (s *UserRepositorySuite) TestResults_ListByUserNewestFirst() {
	ctx := context.Background()
	u, err := s.repo.GetOrCreate(ctx, "ana")
	s.Require().NoError(err)
	deckID, cardID := s.seedCard()

	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	raw := "goroutine"
	for i := range 3 {
		_, err := s.results.Insert(ctx, models.QuizResult{
			UserID:     u.ID,
			DeckID:     deckID,
			CardID:     cardID,
			IsCorrect:  i%2 == 0,
			Difficulty: "medium",
			RawAnswer:  &raw,
			AnsweredAt: base.Add(time.Duration(i) * time.Minute),
		}, nil)
		s.Require().NoError(err)
	}

	results, err := s.results.ListByUser(ctx, u.ID, 2)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Assert().True(results[0].AnsweredAt.Equal(base.Add(2 * time.Minute)))
	s.Assert().True(results[0].IsCorrect)
	s.Require().NotNil(results[0].RawAnswer)
	s.Assert().Equal("goroutine", *results[0].RawAnswer)
	s.Assert().False(results[1].IsCorrect)
}

func TestUserRepositorySuite(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}
