package pgsql

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

// testDSNEnv переменная с DSN тестовой базы. Без нее тесты пропускаются.
const testDSNEnv = "TEST_DATABASE_DSN"

type PgRepoSuite struct {
	suite.Suite
	conn  *db.Connection
	pool  *pgxpool.Pool
	links *LinkRepo
	users *UserRepo
	owner *models.User
	day   time.Time
}

func TestPgRepoSuite(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDSNEnv)
	}
	suite.Run(t, &PgRepoSuite{})
}

func (s *PgRepoSuite) SetupSuite() {
	dsn := os.Getenv(testDSNEnv)
	conn, err := db.NewConnectionFactory(context.Background(), db.FactoryConfig{
		StorageType: db.StorageTypePostgres,
		PostgresDSN: &dsn,
	})
	s.Require().NoError(err)
	s.conn = conn
	s.pool = conn.Postgres
	s.links = NewLinkRepo(s.pool, zap.NewNop())
	s.users = NewUserRepo(s.pool, zap.NewNop())
}

func (s *PgRepoSuite) TearDownSuite() {
	s.Require().NoError(s.conn.Close())
}

func (s *PgRepoSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE users, links, link_clicks`)
	s.Require().NoError(err)

	s.day = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	s.owner, err = s.users.Create(s.T().Context(), &models.User{
		ID:           uuid.NewString(),
		Name:         gofakeit.Name(),
		Email:        gofakeit.Email(),
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	})
	s.Require().NoError(err)
}

func (s *PgRepoSuite) newLink(shortID string, createdAt time.Time) *models.Link {
	link, err := s.links.Create(s.T().Context(), &models.Link{
		ID:        uuid.NewString(),
		Owner:     s.owner.ID,
		LongURL:   gofakeit.URL(),
		ShortID:   shortID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	s.Require().NoError(err)
	return link
}

func (s *PgRepoSuite) TestCreate_Duplicate() {
	s.newLink("promo", time.Now().UTC())

	_, err := s.links.Create(s.T().Context(), &models.Link{
		ID: uuid.NewString(), Owner: s.owner.ID, LongURL: gofakeit.URL(), ShortID: "promo",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	})
	s.Require().ErrorIs(err, repositories.ErrDuplicateKey)

	exists, err := s.links.ShortIDExists(s.T().Context(), "promo")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *PgRepoSuite) TestRecordClick_ConcurrentAndHistory() {
	link := s.newLink("hot", time.Now().UTC())

	const workers, perWorker = 10, 10
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				if _, err := s.links.RecordClick(context.Background(), "hot", s.day); err != nil {
					s.T().Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	_, err := s.links.RecordClick(s.T().Context(), "hot", s.day.AddDate(0, 0, -1))
	s.Require().NoError(err)

	got, err := s.links.GetByIDOwner(s.T().Context(), link.ID, s.owner.ID)
	s.Require().NoError(err)
	s.Equal(int64(workers*perWorker+1), got.Clicks)
	s.Require().Len(got.ClickHistory, 2)
	s.Equal(models.ClickDay{Date: models.Day(s.day.AddDate(0, 0, -1)), Count: 1}, got.ClickHistory[0])
	s.Equal(models.ClickDay{Date: models.Day(s.day), Count: workers * perWorker}, got.ClickHistory[1])
}

func (s *PgRepoSuite) TestNotFound() {
	_, err := s.links.RecordClick(s.T().Context(), "missing", s.day)
	s.Require().ErrorIs(err, repositories.ErrNotFound)

	_, err = s.links.GetByIDOwner(s.T().Context(), "not-a-uuid", s.owner.ID)
	s.Require().ErrorIs(err, repositories.ErrNotFound)

	s.Require().ErrorIs(s.links.DeleteByIDOwner(s.T().Context(), uuid.NewString(), s.owner.ID),
		repositories.ErrNotFound)
}

func (s *PgRepoSuite) TestListAndDelete() {
	base := time.Now().UTC().Add(-time.Hour)
	older := s.newLink("one", base)
	newer := s.newLink("two", base.Add(time.Minute))
	_, err := s.links.RecordClick(s.T().Context(), "one", s.day)
	s.Require().NoError(err)

	links, err := s.links.ListByOwner(s.T().Context(), s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(links, 2)
	s.Equal(newer.ID, links[0].ID)
	s.Equal(older.ID, links[1].ID)
	s.Len(links[1].ClickHistory, 1)

	s.Require().NoError(s.links.DeleteByIDOwner(s.T().Context(), older.ID, s.owner.ID))

	var clicks int
	s.Require().NoError(s.pool.QueryRow(s.T().Context(),
		`SELECT count(*) FROM link_clicks WHERE link_id = $1`, older.ID).Scan(&clicks))
	s.Zero(clicks)
}

func (s *PgRepoSuite) TestUsers() {
	_, err := s.users.Create(s.T().Context(), &models.User{
		ID: uuid.NewString(), Name: "dup", Email: s.owner.Email, PasswordHash: "x", CreatedAt: time.Now().UTC(),
	})
	s.Require().ErrorIs(err, repositories.ErrDuplicateKey)

	got, err := s.users.GetByEmail(s.T().Context(), s.owner.Email)
	s.Require().NoError(err)
	s.Equal(s.owner.ID, got.ID)

	_, err = s.users.GetByID(s.T().Context(), uuid.NewString())
	s.Require().ErrorIs(err, repositories.ErrNotFound)
}
