package service

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/database"
	"skillwise/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPgStore(t *testing.T) *repository.PgStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `DROP TABLE IF EXISTS submissions, progress_events, challenges, goals, users, schema_migrations CASCADE`)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(ctx, db, logger.Nop()))
	return repository.NewPgStore(db)
}

func TestUpdateChallenge_ConcurrentOppositePrerequisites(t *testing.T) {
	store := openPgStore(t)
	ctx := context.Background()
	log := logger.Nop()
	goals := NewGoalService(store, log)
	challenges := NewChallengeService(store, goals, &recordingScheduler{}, log)

	u := &model.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, u))

	for round := 0; round < 10; round++ {
		a, err := challenges.CreateChallenge(ctx, u.ID, challengeInput("A", nil))
		require.NoError(t, err)
		b, err := challenges.CreateChallenge(ctx, u.ID, challengeInput("B", nil))
		require.NoError(t, err)

		toB, toA := model.IDList{b.ID}, model.IDList{a.ID}
		patches := map[int64]model.ChallengePatch{
			a.ID: {Prerequisites: &toB},
			b.ID: {Prerequisites: &toA},
		}

		var wg sync.WaitGroup
		errs := make(chan error, len(patches))
		for id, patch := range patches {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := challenges.UpdateChallenge(ctx, id, u.ID, patch)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.Equal(t, common.KindValidation, common.KindOf(err))
		}
		assert.Equal(t, 1, succeeded, "round %d", round)

		all, err := store.Challenges().ListByIDs(ctx, u.ID, []int64{a.ID, b.ID})
		require.NoError(t, err)
		linked := 0
		for _, c := range all {
			linked += len(c.Prerequisites)
		}
		assert.Equal(t, 1, linked, "round %d", round)
	}
}
