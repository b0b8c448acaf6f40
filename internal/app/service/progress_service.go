package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
	summaryActivityLimit = 10

	defaultAnalyticsTimeframe = "7d"
	defaultSkillsTimeframe    = "30d"
	uncategorized             = "General"
)

var timeframes = map[string]int{"7d": 7, "30d": 30, "90d": 90}

// ParseTimeframe returns the number of days named by tf, falling back to def
// when tf is empty.
func ParseTimeframe(tf, def string) (int, error) {
	tf = strings.TrimSpace(tf)
	if tf == "" {
		tf = def
	}
	days, ok := timeframes[tf]
	if !ok {
		return 0, common.Invalid("timeframe must be one of 7d, 30d, 90d")
	}
	return days, nil
}

type ActivityQuery struct {
	Limit int
	Since *time.Time
}

type ProgressService struct {
	store repository.Store
	log   *logger.Logger
	now   Clock
}

func NewProgressService(store repository.Store, log *logger.Logger) *ProgressService {
	return &ProgressService{store: store, log: log, now: systemClock}
}

func (s *ProgressService) WithClock(now Clock) *ProgressService {
	s.now = now
	return s
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Streaks computes the current and longest runs of consecutive UTC days in
// days. The current run must include today.
func Streaks(days []time.Time, today time.Time) (current, longest int) {
	set := make(map[time.Time]bool, len(days))
	for _, d := range days {
		set[utcDay(d)] = true
	}
	for d := utcDay(today); set[d]; d = d.AddDate(0, 0, -1) {
		current++
	}

	sorted := make([]time.Time, 0, len(set))
	for d := range set {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	run := 0
	for i, d := range sorted {
		if i > 0 && sorted[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return current, longest
}

func (s *ProgressService) Overview(ctx context.Context, userID int64) (*model.Overview, error) {
	var (
		goals  []model.Goal
		points int64
		count  int
		days   []time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		goals, err = s.store.Goals().ListByOwner(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		points, err = s.store.Events().SumPoints(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.store.Events().Count(gctx, userID, model.EventChallengeCompleted)
		return err
	})
	g.Go(func() error {
		var err error
		days, err = s.store.Events().ActiveDates(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapErr(err, "failed to load progress overview")
	}

	overview := &model.Overview{
		Totals: model.OverviewTotal{TotalPoints: points, CompletedChallenges: count},
		Goals:  make([]model.GoalSummary, 0, len(goals)),
	}
	sum := 0
	for _, goal := range goals {
		sum += goal.ProgressPercentage
		if goal.IsCompleted {
			overview.Totals.CompletedGoals++
		}
		overview.Goals = append(overview.Goals, model.GoalSummary{
			ID:                 goal.ID,
			Title:              goal.Title,
			ProgressPercentage: goal.ProgressPercentage,
			IsCompleted:        goal.IsCompleted,
		})
	}
	if len(goals) > 0 {
		overview.OverallProgressPercentage = int(math.Floor(float64(sum)/float64(len(goals)) + 0.5))
	}
	overview.Totals.CurrentStreakDays, overview.Totals.LongestStreakDays = Streaks(days, s.now())
	return overview, nil
}

func (s *ProgressService) Activity(ctx context.Context, userID int64, q ActivityQuery) ([]model.ActivityItem, error) {
	limit := q.Limit
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}
	events, err := s.store.Events().List(ctx, userID, model.EventQuery{Since: q.Since, Limit: limit})
	if err != nil {
		return nil, wrapErr(err, "failed to load activity")
	}

	var goalIDs, challengeIDs []int64
	for _, e := range events {
		if e.RelatedGoalID != nil {
			goalIDs = append(goalIDs, *e.RelatedGoalID)
		}
		if e.RelatedChallengeID != nil {
			challengeIDs = append(challengeIDs, *e.RelatedChallengeID)
		}
	}

	goals := map[int64]model.Goal{}
	challenges := map[int64]model.Challenge{}
	g, gctx := errgroup.WithContext(ctx)
	if len(goalIDs) > 0 {
		g.Go(func() error {
			found, err := s.store.Goals().ListByIDs(gctx, userID, model.UniqueIDs(goalIDs))
			for _, goal := range found {
				goals[goal.ID] = goal
			}
			return err
		})
	}
	if len(challengeIDs) > 0 {
		g.Go(func() error {
			found, err := s.store.Challenges().ListByIDs(gctx, userID, model.UniqueIDs(challengeIDs))
			for _, c := range found {
				challenges[c.ID] = c
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, wrapErr(err, "failed to load activity references")
	}

	items := make([]model.ActivityItem, 0, len(events))
	for _, e := range events {
		item := model.ActivityItem{
			ID:          e.ID,
			Type:        e.EventType,
			Points:      e.PointsEarned,
			Timestamp:   e.OccurredAt,
			GoalID:      e.RelatedGoalID,
			ChallengeID: e.RelatedChallengeID,
			Data:        e.EventData,
		}
		if e.RelatedGoalID != nil {
			if goal, ok := goals[*e.RelatedGoalID]; ok {
				title := goal.Title
				item.GoalTitle = &title
			}
		}
		if e.RelatedChallengeID != nil {
			if c, ok := challenges[*e.RelatedChallengeID]; ok {
				title := c.Title
				item.ChallengeTitle = &title
				item.Category = c.Category
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Analytics buckets the user's events per UTC day over the last N days,
// oldest first. Totals and the type breakdown cover every event in the window.
func (s *ProgressService) Analytics(ctx context.Context, userID int64, timeframe string) (*model.Analytics, error) {
	days, err := ParseTimeframe(timeframe, defaultAnalyticsTimeframe)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	since := now.Add(-time.Duration(days) * 24 * time.Hour)
	events, err := s.store.Events().List(ctx, userID, model.EventQuery{Since: &since})
	if err != nil {
		return nil, wrapErr(err, "failed to load analytics")
	}

	result := &model.Analytics{
		Timeframe: days,
		Daily:     make([]model.DayBucket, days),
		Breakdown: map[string]int{},
	}
	first := utcDay(now).AddDate(0, 0, -(days - 1))
	index := make(map[string]int, days)
	for i := range result.Daily {
		date := first.AddDate(0, 0, i).Format(time.DateOnly)
		result.Daily[i] = model.DayBucket{Date: date}
		index[date] = i
	}
	for _, e := range events {
		result.Totals.Events++
		result.Totals.Points += e.PointsEarned
		result.Breakdown[e.EventType]++
		if i, ok := index[e.OccurredAt.UTC().Format(time.DateOnly)]; ok {
			result.Daily[i].Events++
			result.Daily[i].Points += e.PointsEarned
		}
	}
	return result, nil
}

// Skills counts completions in the window per challenge category.
func (s *ProgressService) Skills(ctx context.Context, userID int64, timeframe string) ([]model.SkillCount, error) {
	days, err := ParseTimeframe(timeframe, defaultSkillsTimeframe)
	if err != nil {
		return nil, err
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	events, err := s.store.Events().List(ctx, userID, model.EventQuery{EventType: model.EventChallengeCompleted, Since: &since})
	if err != nil {
		return nil, wrapErr(err, "failed to load skills")
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		if e.RelatedChallengeID != nil {
			ids = append(ids, *e.RelatedChallengeID)
		}
	}
	categories := map[int64]string{}
	if len(ids) > 0 {
		challenges, err := s.store.Challenges().ListByIDs(ctx, userID, model.UniqueIDs(ids))
		if err != nil {
			return nil, wrapErr(err, "failed to load skills")
		}
		for _, c := range challenges {
			category := uncategorized
			if c.Category != nil && *c.Category != "" {
				category = *c.Category
			}
			categories[c.ID] = category
		}
	}

	counts := map[string]int{}
	for _, e := range events {
		if e.RelatedChallengeID == nil {
			continue
		}
		if category, ok := categories[*e.RelatedChallengeID]; ok {
			counts[category]++
		}
	}
	skills := make([]model.SkillCount, 0, len(counts))
	for category, n := range counts {
		skills = append(skills, model.SkillCount{Category: category, Completed: n})
	}
	sort.Slice(skills, func(i, j int) bool {
		if skills[i].Completed != skills[j].Completed {
			return skills[i].Completed > skills[j].Completed
		}
		return skills[i].Category < skills[j].Category
	})
	return skills, nil
}

func (s *ProgressService) Milestones(ctx context.Context, userID int64) ([]model.Milestone, error) {
	var challenges, goals int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		challenges, err = s.store.Events().Count(gctx, userID, model.EventChallengeCompleted)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.store.Goals().CountCompleted(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapErr(err, "failed to load milestones")
	}
	return []model.Milestone{
		{Key: "first_challenge", Title: "First Challenge!", Achieved: challenges >= 1},
		{Key: "five_challenges", Title: "5 Challenges Completed", Achieved: challenges >= 5},
		{Key: "first_goal", Title: "First Goal Completed", Achieved: goals >= 1},
		{Key: "ten_goals", Title: "10 Goals Completed", Achieved: goals >= 10},
	}, nil
}

// TrackEvent records a client-reported event. Completions are refused here.
func (s *ProgressService) TrackEvent(ctx context.Context, userID int64, in model.TrackEventInput) (*model.ProgressEvent, error) {
	eventType := strings.TrimSpace(in.EventType)
	if eventType == "" {
		return nil, common.Invalid("eventType is required")
	}
	if eventType == model.EventChallengeCompleted {
		return nil, common.Invalid("challenge completions must be recorded through the complete endpoint")
	}
	if !model.IsTrackableEvent(eventType) {
		return nil, common.Invalid("unknown eventType %q", eventType)
	}

	event := &model.ProgressEvent{
		UserID:              userID,
		EventType:           eventType,
		RelatedGoalID:       in.RelatedGoalID,
		RelatedChallengeID:  in.RelatedChallengeID,
		RelatedSubmissionID: in.RelatedSubmissionID,
		EventData:           in.EventData,
		OccurredAt:          s.now(),
	}
	if in.PointsEarned != nil {
		if *in.PointsEarned < 0 {
			return nil, common.Invalid("pointsEarned must be zero or greater")
		}
		event.PointsEarned = *in.PointsEarned
	}
	if in.Timestamp != nil {
		event.OccurredAt = in.Timestamp.Time
	}
	if sessionID := trimmedOrNil(in.SessionID); sessionID != nil {
		event.SessionID = sessionID
	} else {
		generated := uuid.NewString()
		event.SessionID = &generated
	}

	if in.RelatedGoalID != nil {
		if _, err := s.store.Goals().FindByID(ctx, *in.RelatedGoalID, userID); err != nil {
			return nil, wrapErr(notFoundAs(err, errGoalNotFound(*in.RelatedGoalID)), "failed to track event")
		}
	}
	if in.RelatedChallengeID != nil {
		if _, err := s.store.Challenges().FindByID(ctx, *in.RelatedChallengeID, userID); err != nil {
			return nil, wrapErr(notFoundAs(err, errChallengeNotFound(*in.RelatedChallengeID)), "failed to track event")
		}
	}

	if err := s.store.Events().Create(ctx, event); err != nil {
		return nil, wrapErr(err, "failed to track event")
	}
	s.log.Debug("event tracked", "event_id", event.ID, "user_id", userID, "event_type", eventType)
	return event, nil
}

// Summary is the overview together with the most recent activity.
func (s *ProgressService) Summary(ctx context.Context, userID int64) (*model.ProgressSummary, error) {
	overview, err := s.Overview(ctx, userID)
	if err != nil {
		return nil, err
	}
	activity, err := s.Activity(ctx, userID, ActivityQuery{Limit: summaryActivityLimit})
	if err != nil {
		return nil, err
	}
	return &model.ProgressSummary{Summary: overview, RecentActivity: activity}, nil
}
