package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillwise/internal/domain/model"

	"github.com/lib/pq"
)

type pgProgressEventRepository struct {
	q querier
}

const eventColumns = `id, user_id, event_type, points_earned, related_goal_id, related_challenge_id,
	related_submission_id, session_id, event_data, timestamp_occurred`

func scanEvent(row scanner) (*model.ProgressEvent, error) {
	e := &model.ProgressEvent{}
	var data []byte
	err := row.Scan(&e.ID, &e.UserID, &e.EventType, &e.PointsEarned, &e.RelatedGoalID, &e.RelatedChallengeID,
		&e.RelatedSubmissionID, &e.SessionID, &data, &e.OccurredAt)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && string(data) != "{}" {
		e.EventData = data
	}
	return e, nil
}

func eventDataArg(data []byte) string {
	if len(data) == 0 {
		return "{}"
	}
	return string(data)
}

func (r *pgProgressEventRepository) Create(ctx context.Context, e *model.ProgressEvent) error {
	query := `INSERT INTO progress_events (user_id, event_type, points_earned, related_goal_id, related_challenge_id,
	              related_submission_id, session_id, event_data, timestamp_occurred)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
	          RETURNING id`
	err := r.q.QueryRowContext(ctx, query, e.UserID, e.EventType, e.PointsEarned, e.RelatedGoalID, e.RelatedChallengeID,
		e.RelatedSubmissionID, e.SessionID, eventDataArg(e.EventData), e.OccurredAt).Scan(&e.ID)
	if err != nil {
		return classify("pgProgressEventRepository.Create", err)
	}
	return nil
}

func (r *pgProgressEventRepository) CreateCompletion(ctx context.Context, e *model.ProgressEvent) (bool, error) {
	if e.EventType != model.EventChallengeCompleted || e.RelatedChallengeID == nil {
		return false, fmt.Errorf("pgProgressEventRepository.CreateCompletion: event is not a challenge completion")
	}
	query := `INSERT INTO progress_events (user_id, event_type, points_earned, related_goal_id, related_challenge_id,
	              related_submission_id, session_id, event_data, timestamp_occurred)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
	          ON CONFLICT (user_id, related_challenge_id) WHERE event_type = 'challenge_completed' DO NOTHING
	          RETURNING id`
	err := r.q.QueryRowContext(ctx, query, e.UserID, e.EventType, e.PointsEarned, e.RelatedGoalID, e.RelatedChallengeID,
		e.RelatedSubmissionID, e.SessionID, eventDataArg(e.EventData), e.OccurredAt).Scan(&e.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("pgProgressEventRepository.CreateCompletion", err)
	}
	return true, nil
}

func (r *pgProgressEventRepository) CompletedChallengeIDs(ctx context.Context, userID int64, challengeIDs []int64) (map[int64]bool, error) {
	done := make(map[int64]bool)
	if len(challengeIDs) == 0 {
		return done, nil
	}
	query := `SELECT DISTINCT related_challenge_id FROM progress_events
	          WHERE user_id = $1 AND event_type = $2 AND related_challenge_id = ANY($3)`
	rows, err := r.q.QueryContext(ctx, query, userID, model.EventChallengeCompleted, pq.Array(challengeIDs))
	if err != nil {
		return nil, classify("pgProgressEventRepository.CompletedChallengeIDs", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, classify("pgProgressEventRepository.CompletedChallengeIDs scan", err)
		}
		done[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, classify("pgProgressEventRepository.CompletedChallengeIDs rows.Err", err)
	}
	return done, nil
}

func (r *pgProgressEventRepository) CountGoalCompletions(ctx context.Context, userID, goalID int64, challengeIDs []int64) (int, error) {
	if len(challengeIDs) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(DISTINCT related_challenge_id) FROM progress_events
	          WHERE user_id = $1 AND event_type = $2 AND related_goal_id = $3 AND related_challenge_id = ANY($4)`
	var n int
	err := r.q.QueryRowContext(ctx, query, userID, model.EventChallengeCompleted, goalID, pq.Array(challengeIDs)).Scan(&n)
	if err != nil {
		return 0, classify("pgProgressEventRepository.CountGoalCompletions", err)
	}
	return n, nil
}

func (r *pgProgressEventRepository) List(ctx context.Context, userID int64, q model.EventQuery) ([]model.ProgressEvent, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + eventColumns + ` FROM progress_events WHERE user_id = $1`)
	args := []interface{}{userID}
	argID := 2

	if q.EventType != "" {
		query.WriteString(fmt.Sprintf(" AND event_type = $%d", argID))
		args = append(args, q.EventType)
		argID++
	}
	if q.Since != nil {
		query.WriteString(fmt.Sprintf(" AND timestamp_occurred >= $%d", argID))
		args = append(args, *q.Since)
		argID++
	}
	query.WriteString(" ORDER BY timestamp_occurred DESC, id DESC")
	if q.Limit > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT $%d", argID))
		args = append(args, q.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, classify("pgProgressEventRepository.List", err)
	}
	defer rows.Close()

	events := []model.ProgressEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, classify("pgProgressEventRepository.List scan", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("pgProgressEventRepository.List rows.Err", err)
	}
	return events, nil
}

func (r *pgProgressEventRepository) SumPoints(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(SUM(points_earned), 0) FROM progress_events WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, classify("pgProgressEventRepository.SumPoints", err)
	}
	return total, nil
}

func (r *pgProgressEventRepository) Count(ctx context.Context, userID int64, eventType string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM progress_events WHERE user_id = $1 AND event_type = $2`, userID, eventType).Scan(&n)
	if err != nil {
		return 0, classify("pgProgressEventRepository.Count", err)
	}
	return n, nil
}

func (r *pgProgressEventRepository) ActiveDates(ctx context.Context, userID int64) ([]time.Time, error) {
	query := `SELECT DISTINCT (timestamp_occurred AT TIME ZONE 'UTC')::date AS day
	          FROM progress_events WHERE user_id = $1 ORDER BY day`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify("pgProgressEventRepository.ActiveDates", err)
	}
	defer rows.Close()

	days := []time.Time{}
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, classify("pgProgressEventRepository.ActiveDates scan", err)
		}
		days = append(days, time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC))
	}
	if err := rows.Err(); err != nil {
		return nil, classify("pgProgressEventRepository.ActiveDates rows.Err", err)
	}
	return days, nil
}

func (r *pgProgressEventRepository) DeleteByGoal(ctx context.Context, goalID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM progress_events WHERE related_goal_id = $1`, goalID)
	if err != nil {
		return 0, classify("pgProgressEventRepository.DeleteByGoal", err)
	}
	return rowsAffected("pgProgressEventRepository.DeleteByGoal", res)
}

func (r *pgProgressEventRepository) DeleteByChallenge(ctx context.Context, challengeID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM progress_events WHERE related_challenge_id = $1`, challengeID)
	if err != nil {
		return 0, classify("pgProgressEventRepository.DeleteByChallenge", err)
	}
	return rowsAffected("pgProgressEventRepository.DeleteByChallenge", res)
}
