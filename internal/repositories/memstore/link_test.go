package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

type LinkRepoSuite struct {
	suite.Suite
	repo  *LinkRepo
	owner string
	day   time.Time
}

func TestLinkRepoSuite(t *testing.T) {
	suite.Run(t, new(LinkRepoSuite))
}

func (s *LinkRepoSuite) SetupTest() {
	s.repo = NewLinkRepo(db.NewMemStorage())
	s.owner = uuid.NewString()
	s.day = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
}

func (s *LinkRepoSuite) newLink(shortID string) *models.Link {
	now := time.Now().UTC()
	link, err := s.repo.Create(s.T().Context(), &models.Link{
		ID:        uuid.NewString(),
		Owner:     s.owner,
		LongURL:   gofakeit.URL(),
		ShortID:   shortID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	s.Require().NoError(err)
	return link
}

func (s *LinkRepoSuite) TestCreate_DuplicateShortID() {
	s.newLink("promo")

	_, err := s.repo.Create(s.T().Context(), &models.Link{ID: uuid.NewString(), Owner: s.owner, ShortID: "promo"})
	s.Require().ErrorIs(err, repositories.ErrDuplicateKey)

	exists, err := s.repo.ShortIDExists(s.T().Context(), "promo")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *LinkRepoSuite) TestRecordClick_SameDay() {
	link := s.newLink("abc")

	for range 5 {
		longURL, err := s.repo.RecordClick(s.T().Context(), "abc", s.day)
		s.Require().NoError(err)
		s.Equal(link.LongURL, longURL)
	}

	got, err := s.repo.GetByIDOwner(s.T().Context(), link.ID, s.owner)
	s.Require().NoError(err)
	s.Equal(int64(5), got.Clicks)
	s.Require().Len(got.ClickHistory, 1)
	s.Equal(models.ClickDay{Date: models.Day(s.day), Count: 5}, got.ClickHistory[0])
}

func (s *LinkRepoSuite) TestRecordClick_TwoDaysAndOutOfOrder() {
	link := s.newLink("abc")
	d1, d2 := s.day, s.day.AddDate(0, 0, 1)

	for _, d := range []time.Time{d1, d1, d1, d2, d1} {
		_, err := s.repo.RecordClick(s.T().Context(), "abc", d)
		s.Require().NoError(err)
	}

	got, err := s.repo.GetByIDOwner(s.T().Context(), link.ID, s.owner)
	s.Require().NoError(err)
	s.Equal(int64(5), got.Clicks)
	s.Require().Len(got.ClickHistory, 2)
	s.Equal(int64(4), got.ClickHistory[0].Count)
	s.Equal(int64(1), got.ClickHistory[1].Count)
	s.True(got.ClickHistory[0].Date.Before(got.ClickHistory[1].Date))
}

func (s *LinkRepoSuite) TestRecordClick_Concurrent() {
	link := s.newLink("hot")

	const workers, perWorker = 20, 25
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				if _, err := s.repo.RecordClick(context.Background(), "hot", s.day); err != nil {
					s.T().Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := s.repo.GetByIDOwner(s.T().Context(), link.ID, s.owner)
	s.Require().NoError(err)
	s.Equal(int64(workers*perWorker), got.Clicks)
	s.Require().Len(got.ClickHistory, 1)
	s.Equal(int64(workers*perWorker), got.ClickHistory[0].Count)
}

func (s *LinkRepoSuite) TestRecordClick_Unknown() {
	_, err := s.repo.RecordClick(s.T().Context(), "nope", s.day)
	s.Require().ErrorIs(err, repositories.ErrNotFound)
}

func (s *LinkRepoSuite) TestListByOwner_NewestFirst() {
	older := s.newLink("first")
	time.Sleep(2 * time.Millisecond)
	newer := s.newLink("second")

	other := uuid.NewString()
	_, err := s.repo.Create(s.T().Context(), &models.Link{ID: uuid.NewString(), Owner: other, ShortID: "foreign"})
	s.Require().NoError(err)

	links, err := s.repo.ListByOwner(s.T().Context(), s.owner)
	s.Require().NoError(err)
	s.Require().Len(links, 2)
	s.Equal(newer.ID, links[0].ID)
	s.Equal(older.ID, links[1].ID)
}

func (s *LinkRepoSuite) TestDeleteByIDOwner() {
	link := s.newLink("gone")

	err := s.repo.DeleteByIDOwner(s.T().Context(), link.ID, uuid.NewString())
	s.Require().ErrorIs(err, repositories.ErrNotFound)

	s.Require().NoError(s.repo.DeleteByIDOwner(s.T().Context(), link.ID, s.owner))

	_, err = s.repo.RecordClick(s.T().Context(), "gone", s.day)
	s.Require().ErrorIs(err, repositories.ErrNotFound)

	err = s.repo.DeleteByIDOwner(s.T().Context(), link.ID, s.owner)
	s.Require().ErrorIs(err, repositories.ErrNotFound)
}

func (s *LinkRepoSuite) TestGetByIDOwner_Foreign() {
	link := s.newLink("mine")

	_, err := s.repo.GetByIDOwner(s.T().Context(), link.ID, uuid.NewString())
	s.Require().ErrorIs(err, repositories.ErrNotFound)
}
