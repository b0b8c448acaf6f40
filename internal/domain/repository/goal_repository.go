package repository

import (
	"context"
	"database/sql"

	"skillwise/internal/domain/model"

	"github.com/lib/pq"
)

type pgGoalRepository struct {
	q querier
}

const goalColumns = `id, user_id, title, description, category, difficulty, status, target_completion_date,
	is_completed, progress_percentage, points_reward, is_public, completion_date, created_at, updated_at`

func scanGoal(row scanner) (*model.Goal, error) {
	g := &model.Goal{}
	err := row.Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Category, &g.Difficulty, &g.Status,
		&g.TargetCompletionDate, &g.IsCompleted, &g.ProgressPercentage, &g.PointsReward, &g.IsPublic,
		&g.CompletionDate, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func scanGoals(op string, rows *sql.Rows) ([]model.Goal, error) {
	defer rows.Close()
	goals := []model.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, classify(op+" scan", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op+" rows.Err", err)
	}
	return goals, nil
}

func (r *pgGoalRepository) Create(ctx context.Context, g *model.Goal) error {
	query := `INSERT INTO goals (user_id, title, description, category, difficulty, status,
	              target_completion_date, is_completed, progress_percentage, points_reward, is_public, completion_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, g.OwnerID, g.Title, g.Description, g.Category, g.Difficulty, g.Status,
		g.TargetCompletionDate, g.IsCompleted, g.ProgressPercentage, g.PointsReward, g.IsPublic, g.CompletionDate).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return classify("pgGoalRepository.Create", err)
	}
	return nil
}

func (r *pgGoalRepository) FindByID(ctx context.Context, id, ownerID int64) (*model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2`
	g, err := scanGoal(r.q.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		return nil, classify("pgGoalRepository.FindByID", err)
	}
	return g, nil
}

func (r *pgGoalRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, classify("pgGoalRepository.ListByOwner", err)
	}
	return scanGoals("pgGoalRepository.ListByOwner", rows)
}

func (r *pgGoalRepository) ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]model.Goal, error) {
	if len(ids) == 0 {
		return []model.Goal{}, nil
	}
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 AND id = ANY($2)`
	rows, err := r.q.QueryContext(ctx, query, ownerID, pq.Array(ids))
	if err != nil {
		return nil, classify("pgGoalRepository.ListByIDs", err)
	}
	return scanGoals("pgGoalRepository.ListByIDs", rows)
}

func (r *pgGoalRepository) Update(ctx context.Context, g *model.Goal) error {
	query := `UPDATE goals SET title = $3, description = $4, category = $5, difficulty = $6, status = $7,
	              target_completion_date = $8, is_completed = $9, progress_percentage = $10,
	              points_reward = $11, is_public = $12, completion_date = $13, updated_at = NOW()
	          WHERE id = $1 AND user_id = $2
	          RETURNING updated_at`
	err := r.q.QueryRowContext(ctx, query, g.ID, g.OwnerID, g.Title, g.Description, g.Category, g.Difficulty, g.Status,
		g.TargetCompletionDate, g.IsCompleted, g.ProgressPercentage, g.PointsReward, g.IsPublic, g.CompletionDate).
		Scan(&g.UpdatedAt)
	if err != nil {
		return classify("pgGoalRepository.Update", err)
	}
	return nil
}

func (r *pgGoalRepository) Delete(ctx context.Context, id, ownerID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return 0, classify("pgGoalRepository.Delete", err)
	}
	return rowsAffected("pgGoalRepository.Delete", res)
}

func (r *pgGoalRepository) CountCompleted(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals WHERE user_id = $1 AND is_completed`, ownerID).Scan(&n)
	if err != nil {
		return 0, classify("pgGoalRepository.CountCompleted", err)
	}
	return n, nil
}
