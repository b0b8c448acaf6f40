package repository

import (
	"context"

	"skillwise/internal/domain/model"

	"github.com/lib/pq"
)

type pgSubmissionRepository struct {
	q querier
}

func (r *pgSubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	query := `INSERT INTO submissions (challenge_id, user_id, payload)
	          VALUES ($1, $2, $3::jsonb)
	          RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query, s.ChallengeID, s.UserID, eventDataArg(s.Payload)).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return classify("pgSubmissionRepository.Create", err)
	}
	return nil
}

func (r *pgSubmissionRepository) ListByUserAndChallenge(ctx context.Context, userID, challengeID int64) ([]model.Submission, error) {
	query := `SELECT id, challenge_id, user_id, payload, created_at FROM submissions
	          WHERE user_id = $1 AND challenge_id = $2 ORDER BY created_at DESC, id DESC`
	rows, err := r.q.QueryContext(ctx, query, userID, challengeID)
	if err != nil {
		return nil, classify("pgSubmissionRepository.ListByUserAndChallenge", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		var payload []byte
		if err := rows.Scan(&s.ID, &s.ChallengeID, &s.UserID, &payload, &s.CreatedAt); err != nil {
			return nil, classify("pgSubmissionRepository.ListByUserAndChallenge scan", err)
		}
		s.Payload = payload
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("pgSubmissionRepository.ListByUserAndChallenge rows.Err", err)
	}
	return subs, nil
}

func (r *pgSubmissionRepository) CountByUserAndChallenge(ctx context.Context, userID, challengeID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND challenge_id = $2`, userID, challengeID).Scan(&n)
	if err != nil {
		return 0, classify("pgSubmissionRepository.CountByUserAndChallenge", err)
	}
	return n, nil
}

func (r *pgSubmissionRepository) ChallengesWithSubmissions(ctx context.Context, userID int64, challengeIDs []int64) (map[int64]bool, error) {
	found := make(map[int64]bool)
	if len(challengeIDs) == 0 {
		return found, nil
	}
	query := `SELECT DISTINCT challenge_id FROM submissions WHERE user_id = $1 AND challenge_id = ANY($2)`
	rows, err := r.q.QueryContext(ctx, query, userID, pq.Array(challengeIDs))
	if err != nil {
		return nil, classify("pgSubmissionRepository.ChallengesWithSubmissions", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, classify("pgSubmissionRepository.ChallengesWithSubmissions scan", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, classify("pgSubmissionRepository.ChallengesWithSubmissions rows.Err", err)
	}
	return found, nil
}
