package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"skillwise/internal/domain/model"

	"github.com/lib/pq"
)

type pgChallengeRepository struct {
	q querier
}

const challengeColumns = `id, created_by, title, description, instructions, category, difficulty,
	estimated_time_minutes, points_reward, max_attempts, is_active, tags, prerequisites, created_at, updated_at`

func scanChallenge(row scanner) (*model.Challenge, error) {
	c := &model.Challenge{}
	var tags, prerequisites pq.StringArray
	err := row.Scan(&c.ID, &c.CreatorID, &c.Title, &c.Description, &c.Instructions, &c.Category, &c.Difficulty,
		&c.EstimatedTimeMinutes, &c.PointsReward, &c.MaxAttempts, &c.IsActive, &tags, &prerequisites,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Tags = []string(tags)
	c.Prerequisites = model.PrerequisitesFromStrings(prerequisites)
	return c, nil
}

func scanChallenges(op string, rows *sql.Rows) ([]model.Challenge, error) {
	defer rows.Close()
	challenges := []model.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, classify(op+" scan", err)
		}
		challenges = append(challenges, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op+" rows.Err", err)
	}
	return challenges, nil
}

// textArray never yields NULL for a nil slice.
func textArray(values []string) interface{} {
	if values == nil {
		values = []string{}
	}
	return pq.StringArray(values)
}

func (r *pgChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	query := `INSERT INTO challenges (created_by, title, description, instructions, category, difficulty,
	              estimated_time_minutes, points_reward, max_attempts, is_active, tags, prerequisites)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, c.CreatorID, c.Title, c.Description, c.Instructions, c.Category, c.Difficulty,
		c.EstimatedTimeMinutes, c.PointsReward, c.MaxAttempts, c.IsActive,
		textArray(c.Tags), textArray(model.PrerequisitesToStrings(c.Prerequisites))).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return classify("pgChallengeRepository.Create", err)
	}
	return nil
}

func (r *pgChallengeRepository) FindByID(ctx context.Context, id, creatorID int64) (*model.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1 AND created_by = $2`
	c, err := scanChallenge(r.q.QueryRowContext(ctx, query, id, creatorID))
	if err != nil {
		return nil, classify("pgChallengeRepository.FindByID", err)
	}
	return c, nil
}

func (r *pgChallengeRepository) List(ctx context.Context, creatorID int64, filter model.ChallengeFilter) ([]model.Challenge, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + challengeColumns + ` FROM challenges`)

	conditions := []string{"created_by = $1"}
	args := []interface{}{creatorID}
	argID := 2

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argID))
		args = append(args, filter.Category)
		argID++
	}
	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, filter.Difficulty)
		argID++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argID))
		args = append(args, *filter.IsActive)
		argID++
	}
	if filter.GoalID != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argID))
		args = append(args, model.GoalTag(*filter.GoalID))
		argID++
	}

	query.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	query.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := r.q.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, classify("pgChallengeRepository.List", err)
	}
	return scanChallenges("pgChallengeRepository.List", rows)
}

func (r *pgChallengeRepository) ListByIDs(ctx context.Context, creatorID int64, ids []int64) ([]model.Challenge, error) {
	if len(ids) == 0 {
		return []model.Challenge{}, nil
	}
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE created_by = $1 AND id = ANY($2)`
	rows, err := r.q.QueryContext(ctx, query, creatorID, pq.Array(ids))
	if err != nil {
		return nil, classify("pgChallengeRepository.ListByIDs", err)
	}
	return scanChallenges("pgChallengeRepository.ListByIDs", rows)
}

func (r *pgChallengeRepository) Update(ctx context.Context, c *model.Challenge) error {
	query := `UPDATE challenges SET title = $3, description = $4, instructions = $5, category = $6, difficulty = $7,
	              estimated_time_minutes = $8, points_reward = $9, max_attempts = $10, is_active = $11,
	              tags = $12, prerequisites = $13, updated_at = NOW()
	          WHERE id = $1 AND created_by = $2
	          RETURNING updated_at`
	err := r.q.QueryRowContext(ctx, query, c.ID, c.CreatorID, c.Title, c.Description, c.Instructions, c.Category,
		c.Difficulty, c.EstimatedTimeMinutes, c.PointsReward, c.MaxAttempts, c.IsActive,
		textArray(c.Tags), textArray(model.PrerequisitesToStrings(c.Prerequisites))).
		Scan(&c.UpdatedAt)
	if err != nil {
		return classify("pgChallengeRepository.Update", err)
	}
	return nil
}

// Delete removes the challenge; its submissions cascade.
func (r *pgChallengeRepository) Delete(ctx context.Context, id, creatorID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM challenges WHERE id = $1 AND created_by = $2`, id, creatorID)
	if err != nil {
		return 0, classify("pgChallengeRepository.Delete", err)
	}
	return rowsAffected("pgChallengeRepository.Delete", res)
}

func (r *pgChallengeRepository) RemoveTag(ctx context.Context, creatorID int64, tag string) (int64, error) {
	query := `UPDATE challenges SET tags = array_remove(tags, $2::text), updated_at = NOW()
	          WHERE created_by = $1 AND $2::text = ANY(tags)`
	res, err := r.q.ExecContext(ctx, query, creatorID, tag)
	if err != nil {
		return 0, classify("pgChallengeRepository.RemoveTag", err)
	}
	return rowsAffected("pgChallengeRepository.RemoveTag", res)
}

func (r *pgChallengeRepository) LockCreator(ctx context.Context, creatorID int64) error {
	if _, err := r.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, creatorID); err != nil {
		return classify("pgChallengeRepository.LockCreator", err)
	}
	return nil
}

func (r *pgChallengeRepository) RemovePrerequisite(ctx context.Context, creatorID, prerequisiteID int64) (int64, error) {
	query := `UPDATE challenges SET prerequisites = array_remove(prerequisites, $2::text), updated_at = NOW()
	          WHERE created_by = $1 AND $2::text = ANY(prerequisites)`
	res, err := r.q.ExecContext(ctx, query, creatorID, strconv.FormatInt(prerequisiteID, 10))
	if err != nil {
		return 0, classify("pgChallengeRepository.RemovePrerequisite", err)
	}
	return rowsAffected("pgChallengeRepository.RemovePrerequisite", res)
}
