package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"skillwise/internal/common"
	"skillwise/internal/domain/model"
)

// MemoryStore keeps every table in process memory. All access is serialized
// by one mutex; WithinTx holds it for the whole callback and restores a
// snapshot when the callback fails.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
	now  func() time.Time
}

type memData struct {
	users       map[int64]model.User
	goals       map[int64]model.Goal
	challenges  map[int64]model.Challenge
	events      map[int64]model.ProgressEvent
	submissions map[int64]model.Submission
	nextID      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		data: &memData{
			users:       make(map[int64]model.User),
			goals:       make(map[int64]model.Goal),
			challenges:  make(map[int64]model.Challenge),
			events:      make(map[int64]model.ProgressEvent),
			submissions: make(map[int64]model.Submission),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets the clock used for createdAt/updatedAt stamps.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Users() UserRepository { return &memUserRepository{s: s} }
func (s *MemoryStore) Goals() GoalRepository { return &memGoalRepository{s: s} }
func (s *MemoryStore) Challenges() ChallengeRepository { return &memChallengeRepository{s: s} }
func (s *MemoryStore) Events() ProgressEventRepository { return &memEventRepository{s: s} }
func (s *MemoryStore) Submissions() SubmissionRepository { return &memSubmissionRepository{s: s} }

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&MemoryStore{mu: s.mu, data: s.data, inTx: true, now: s.now}); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// run executes fn against the tables, taking the lock unless the caller
// already holds it through WithinTx.
func (s *MemoryStore) run(ctx context.Context, fn func(d *memData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

func (d *memData) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *memData) clone() *memData {
	c := &memData{
		users:       make(map[int64]model.User, len(d.users)),
		goals:       make(map[int64]model.Goal, len(d.goals)),
		challenges:  make(map[int64]model.Challenge, len(d.challenges)),
		events:      make(map[int64]model.ProgressEvent, len(d.events)),
		submissions: make(map[int64]model.Submission, len(d.submissions)),
		nextID:      d.nextID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.goals {
		c.goals[k] = v
	}
	for k, v := range d.challenges {
		c.challenges[k] = copyChallenge(v)
	}
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.submissions {
		c.submissions[k] = v
	}
	return c
}

func copyChallenge(c model.Challenge) model.Challenge {
	c.Tags = append([]string{}, c.Tags...)
	c.Prerequisites = append([]int64{}, c.Prerequisites...)
	return c
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, common.ErrNotFound)
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// --- users ---

type memUserRepository struct{ s *MemoryStore }

func (r *memUserRepository) Create(ctx context.Context, user *model.User) error {
	return r.s.run(ctx, func(d *memData) error {
		for _, u := range d.users {
			if u.Email == user.Email {
				return fmt.Errorf("an account with this email already exists: %w", common.ErrConflict)
			}
		}
		now := r.s.now()
		user.ID = d.id()
		user.CreatedAt, user.UpdatedAt = now, now
		d.users[user.ID] = *user
		return nil
	})
}

func (r *memUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var found *model.User
	err := r.s.run(ctx, func(d *memData) error {
		for _, u := range d.users {
			if u.Email == email {
				u := u
				found = &u
				return nil
			}
		}
		return notFound("memUserRepository.FindByEmail")
	})
	return found, err
}

func (r *memUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var found *model.User
	err := r.s.run(ctx, func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return notFound("memUserRepository.FindByID")
		}
		found = &u
		return nil
	})
	return found, err
}

func (r *memUserRepository) Update(ctx context.Context, user *model.User) error {
	return r.s.run(ctx, func(d *memData) error {
		u, ok := d.users[user.ID]
		if !ok {
			return notFound("memUserRepository.Update")
		}
		u.FirstName, u.LastName = user.FirstName, user.LastName
		u.UpdatedAt = r.s.now()
		d.users[u.ID] = u
		user.UpdatedAt = u.UpdatedAt
		return nil
	})
}

func (r *memUserRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(d *memData) error {
		if _, ok := d.users[id]; !ok {
			return nil
		}
		delete(d.users, id)
		n = 1
		for gid, g := range d.goals {
			if g.OwnerID == id {
				delete(d.goals, gid)
			}
		}
		for cid, c := range d.challenges {
			if c.CreatorID == id {
				delete(d.challenges, cid)
				d.dropSubmissionsOf(cid)
			}
		}
		for eid, e := range d.events {
			if e.UserID == id {
				delete(d.events, eid)
			}
		}
		for sid, sub := range d.submissions {
			if sub.UserID == id {
				delete(d.submissions, sid)
			}
		}
		return nil
	})
	return n, err
}

// --- goals ---

type memGoalRepository struct{ s *MemoryStore }

func (r *memGoalRepository) Create(ctx context.Context, g *model.Goal) error {
	return r.s.run(ctx, func(d *memData) error {
		if _, ok := d.users[g.OwnerID]; !ok {
			return fmt.Errorf("memGoalRepository.Create: referenced row does not exist: %w", common.ErrNotFound)
		}
		now := r.s.now()
		g.ID = d.id()
		g.CreatedAt, g.UpdatedAt = now, now
		d.goals[g.ID] = *g
		return nil
	})
}

func (r *memGoalRepository) FindByID(ctx context.Context, id, ownerID int64) (*model.Goal, error) {
	var found *model.Goal
	err := r.s.run(ctx, func(d *memData) error {
		g, ok := d.goals[id]
		if !ok || g.OwnerID != ownerID {
			return notFound("memGoalRepository.FindByID")
		}
		found = &g
		return nil
	})
	return found, err
}

func sortGoals(goals []model.Goal) {
	sort.Slice(goals, func(i, j int) bool {
		if !goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].CreatedAt.After(goals[j].CreatedAt)
		}
		return goals[i].ID > goals[j].ID
	})
}

func (r *memGoalRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Goal, error) {
	goals := []model.Goal{}
	err := r.s.run(ctx, func(d *memData) error {
		for _, g := range d.goals {
			if g.OwnerID == ownerID {
				goals = append(goals, g)
			}
		}
		return nil
	})
	sortGoals(goals)
	return goals, err
}

func (r *memGoalRepository) ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]model.Goal, error) {
	goals := []model.Goal{}
	want := idSet(ids)
	err := r.s.run(ctx, func(d *memData) error {
		for _, g := range d.goals {
			if g.OwnerID == ownerID && want[g.ID] {
				goals = append(goals, g)
			}
		}
		return nil
	})
	return goals, err
}

func (r *memGoalRepository) Update(ctx context.Context, g *model.Goal) error {
	return r.s.run(ctx, func(d *memData) error {
		cur, ok := d.goals[g.ID]
		if !ok || cur.OwnerID != g.OwnerID {
			return notFound("memGoalRepository.Update")
		}
		g.CreatedAt = cur.CreatedAt
		g.UpdatedAt = r.s.now()
		d.goals[g.ID] = *g
		return nil
	})
}

func (r *memGoalRepository) Delete(ctx context.Context, id, ownerID int64) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(d *memData) error {
		if g, ok := d.goals[id]; ok && g.OwnerID == ownerID {
			delete(d.goals, id)
			n = 1
		}
		return nil
	})
	return n, err
}

func (r *memGoalRepository) CountCompleted(ctx context.Context, ownerID int64) (int, error) {
	n := 0
	err := r.s.run(ctx, func(d *memData) error {
		for _, g := range d.goals {
			if g.OwnerID == ownerID && g.IsCompleted {
				n++
			}
		}
		return nil
	})
	return n, err
}

// --- challenges ---

type memChallengeRepository struct{ s *MemoryStore }

func (r *memChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	return r.s.run(ctx, func(d *memData) error {
		if _, ok := d.users[c.CreatorID]; !ok {
			return fmt.Errorf("memChallengeRepository.Create: referenced row does not exist: %w", common.ErrNotFound)
		}
		now := r.s.now()
		c.ID = d.id()
		c.CreatedAt, c.UpdatedAt = now, now
		d.challenges[c.ID] = copyChallenge(*c)
		return nil
	})
}

func (r *memChallengeRepository) FindByID(ctx context.Context, id, creatorID int64) (*model.Challenge, error) {
	var found *model.Challenge
	err := r.s.run(ctx, func(d *memData) error {
		c, ok := d.challenges[id]
		if !ok || c.CreatorID != creatorID {
			return notFound("memChallengeRepository.FindByID")
		}
		c = copyChallenge(c)
		found = &c
		return nil
	})
	return found, err
}

func matchesFilter(c model.Challenge, f model.ChallengeFilter) bool {
	if f.Category != "" && (c.Category == nil || *c.Category != f.Category) {
		return false
	}
	if f.Difficulty != "" && c.Difficulty != f.Difficulty {
		return false
	}
	if f.IsActive != nil && c.IsActive != *f.IsActive {
		return false
	}
	if f.GoalID != nil && !model.HasTag(c.Tags, model.GoalTag(*f.GoalID)) {
		return false
	}
	return true
}

func (r *memChallengeRepository) List(ctx context.Context, creatorID int64, filter model.ChallengeFilter) ([]model.Challenge, error) {
	challenges := []model.Challenge{}
	err := r.s.run(ctx, func(d *memData) error {
		for _, c := range d.challenges {
			if c.CreatorID == creatorID && matchesFilter(c, filter) {
				challenges = append(challenges, copyChallenge(c))
			}
		}
		return nil
	})
	sort.Slice(challenges, func(i, j int) bool {
		if !challenges[i].CreatedAt.Equal(challenges[j].CreatedAt) {
			return challenges[i].CreatedAt.After(challenges[j].CreatedAt)
		}
		return challenges[i].ID > challenges[j].ID
	})
	return challenges, err
}

func (r *memChallengeRepository) ListByIDs(ctx context.Context, creatorID int64, ids []int64) ([]model.Challenge, error) {
	challenges := []model.Challenge{}
	want := idSet(ids)
	err := r.s.run(ctx, func(d *memData) error {
		for _, c := range d.challenges {
			if c.CreatorID == creatorID && want[c.ID] {
				challenges = append(challenges, copyChallenge(c))
			}
		}
		return nil
	})
	return challenges, err
}

func (r *memChallengeRepository) Update(ctx context.Context, c *model.Challenge) error {
	return r.s.run(ctx, func(d *memData) error {
		cur, ok := d.challenges[c.ID]
		if !ok || cur.CreatorID != c.CreatorID {
			return notFound("memChallengeRepository.Update")
		}
		c.CreatedAt = cur.CreatedAt
		c.UpdatedAt = r.s.now()
		d.challenges[c.ID] = copyChallenge(*c)
		return nil
	})
}

func (r *memChallengeRepository) Delete(ctx context.Context, id, creatorID int64) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(d *memData) error {
		if c, ok := d.challenges[id]; ok && c.CreatorID == creatorID {
			delete(d.challenges, id)
			d.dropSubmissionsOf(id)
			n = 1
		}
		return nil
	})
	return n, err
}

func (r *memChallengeRepository) RemoveTag(ctx context.Context, creatorID int64, tag string) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(d *memData) error {
		for id, c := range d.challenges {
			if c.CreatorID != creatorID || !model.HasTag(c.Tags, tag) {
				continue
			}
			c = copyChallenge(c)
			c.Tags = model.RemoveTag(c.Tags, tag)
			c.UpdatedAt = r.s.now()
			d.challenges[id] = c
			n++
		}
		return nil
	})
	return n, err
}

// LockCreator has nothing to do: transactions already hold the store mutex.
func (r *memChallengeRepository) LockCreator(ctx context.Context, creatorID int64) error {
	return ctx.Err()
}

func (r *memChallengeRepository) RemovePrerequisite(ctx context.Context, creatorID, prerequisiteID int64) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(d *memData) error {
		for id, c := range d.challenges {
			if c.CreatorID != creatorID || !containsID(c.Prerequisites, prerequisiteID) {
				continue
			}
			kept := make([]int64, 0, len(c.Prerequisites))
			for _, p := range c.Prerequisites {
				if p != prerequisiteID {
					kept = append(kept, p)
				}
			}
			c = copyChallenge(c)
			c.Prerequisites = kept
			c.UpdatedAt = r.s.now()
			d.challenges[id] = c
			n++
		}
		return nil
	})
	return n, err
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (d *memData) dropSubmissionsOf(challengeID int64) {
	for sid, sub := range d.submissions {
		if sub.ChallengeID == challengeID {
			delete(d.submissions, sid)
		}
	}
}

// --- progress events ---

type memEventRepository struct{ s *MemoryStore }

func (r *memEventRepository) Create(ctx context.Context, e *model.ProgressEvent) error {
	return r.s.run(ctx, func(d *memData) error {
		if _, ok := d.users[e.UserID]; !ok {
			return fmt.Errorf("memEventRepository.Create: referenced row does not exist: %w", common.ErrNotFound)
		}
		if e.EventType == model.EventChallengeCompleted && e.RelatedChallengeID != nil && d.hasCompletion(e.UserID, *e.RelatedChallengeID) {
			return fmt.Errorf("memEventRepository.Create: %w", common.ErrConflict)
		}
		e.ID = d.id()
		d.events[e.ID] = *e
		return nil
	})
}

func (d *memData) hasCompletion(userID, challengeID int64) bool {
	for _, e := range d.events {
		if e.UserID == userID && e.EventType == model.EventChallengeCompleted &&
			e.RelatedChallengeID != nil && *e.RelatedChallengeID == challengeID {
			return true
		}
	}
	return false
}

func (r *memEventRepository) CreateCompletion(ctx context.Context, e *model.ProgressEvent) (bool, error) {
	if e.EventType != model.EventChallengeCompleted || e.RelatedChallengeID == nil {
		return false, fmt.Errorf("memEventRepository.CreateCompletion: event is not a challenge completion")
	}
	inserted := false
	err := r.s.run(ctx, func(d *memData) error {
		if _, ok := d.users[e.UserID]; !ok {
			return fmt.Errorf("memEventRepository.CreateCompletion: referenced row does not exist: %w", common.ErrNotFound)
		}
		if d.hasCompletion(e.UserID, *e.RelatedChallengeID) {
			return nil
		}
		e.ID = d.id()
		d.events[e.ID] = *e
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *memEventRepository) CompletedChallengeIDs(ctx context.Context, userID int64, challengeIDs []int64) (map[int64]bool, error) {
	done := make(map[int64]bool)
	want := idSet(challengeIDs)
	err := r.s.run(ctx, func(d *memData) error {
		for _, e := range d.events {
			if e.UserID == userID && e.EventType == model.EventChallengeCompleted &&
				e.RelatedChallengeID != nil && want[*e.RelatedChallengeID] {
				done[*e.RelatedChallengeID] = true
			}
		}
		return nil
	})
	return done, err
}

func (r *memEventRepository) CountGoalCompletions(ctx context.Context, userID, goalID int64, challengeIDs []int64) (int, error) {
	counted := make(map[int64]bool)
	want := idSet(challengeIDs)
	err := r.s.run(ctx, func(d *memData) error {
		for _, e := range d.events {
			if e.UserID == userID && e.EventType == model.EventChallengeCompleted &&
				e.RelatedGoalID != nil && *e.RelatedGoalID == goalID &&
				e.RelatedChallengeID != nil && want[*e.RelatedChallengeID] {
				counted[*e.RelatedChallengeID] = true
			}
		}
		return nil
	})
	return len(counted), err
}

func (r *memEventRepository) List(ctx context.Context, userID int64, q model.EventQuery) ([]model.ProgressEvent, error) {
	events := []model.ProgressEvent{}
	err := r.s.run(ctx, func(d *memData) error {
		for _, e := range d.events {
			if e.UserID != userID {
				continue
			}
			if q.EventType != "" && e.EventType != q.EventType {
				continue
			}
			if q.Since != nil && e.OccurredAt.Before(*q.Since) {
				continue
			}
			events = append(events, e)
		}
		return nil
	})
	sort.Slice(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.After(events[j].OccurredAt)
		}
		return events[i].ID > events[j].ID
	})
	if q.Limit > 0 && len(events) > q.Limit {
		events = events[:q.Limit]
	}
	return events, err
}

func (r *memEventRepository) SumPoints(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.s.run(ctx, func(d *memData) error {
		for _, e := range d.events {
			if e.UserID == userID {
				total += int64(e.PointsEarned)
			}
		}
		return nil
	})
	return total, err
}

func (r *memEventRepository) Count(ctx context.Context, userID int64, eventType string) (int, error) {
	n := 0
	err := r.s.run(ctx, func(d *memData) error {
		for _, e := range d.events {
			if e.UserID == userID && e.EventType == eventType {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memEventRepository) ActiveDates(ctx context.Context, userID int64) ([]time.Time, error) {
	seen := make(map[time.Time]bool)
	err := r.s.run(ctx, func(d *memData) error {
		for _, e := range d.events {
			if e.UserID != userID {
				continue
			}
			t := e.OccurredAt.UTC()
			seen[time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)] = true
		}
		return nil
	})
	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, err
}

func (r *memEventRepository) DeleteByGoal(ctx context.Context, goalID int64) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(d *memData) error {
		for id, e := range d.events {
			if e.RelatedGoalID != nil && *e.RelatedGoalID == goalID {
				delete(d.events, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memEventRepository) DeleteByChallenge(ctx context.Context, challengeID int64) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(d *memData) error {
		for id, e := range d.events {
			if e.RelatedChallengeID != nil && *e.RelatedChallengeID == challengeID {
				delete(d.events, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// --- submissions ---

type memSubmissionRepository struct{ s *MemoryStore }

func (r *memSubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	return r.s.run(ctx, func(d *memData) error {
		if _, ok := d.challenges[sub.ChallengeID]; !ok {
			return fmt.Errorf("memSubmissionRepository.Create: referenced row does not exist: %w", common.ErrNotFound)
		}
		if _, ok := d.users[sub.UserID]; !ok {
			return fmt.Errorf("memSubmissionRepository.Create: referenced row does not exist: %w", common.ErrNotFound)
		}
		sub.ID = d.id()
		sub.CreatedAt = r.s.now()
		d.submissions[sub.ID] = *sub
		return nil
	})
}

func (r *memSubmissionRepository) ListByUserAndChallenge(ctx context.Context, userID, challengeID int64) ([]model.Submission, error) {
	subs := []model.Submission{}
	err := r.s.run(ctx, func(d *memData) error {
		for _, sub := range d.submissions {
			if sub.UserID == userID && sub.ChallengeID == challengeID {
				subs = append(subs, sub)
			}
		}
		return nil
	})
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.After(subs[j].CreatedAt)
		}
		return subs[i].ID > subs[j].ID
	})
	return subs, err
}

func (r *memSubmissionRepository) CountByUserAndChallenge(ctx context.Context, userID, challengeID int64) (int, error) {
	n := 0
	err := r.s.run(ctx, func(d *memData) error {
		for _, sub := range d.submissions {
			if sub.UserID == userID && sub.ChallengeID == challengeID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memSubmissionRepository) ChallengesWithSubmissions(ctx context.Context, userID int64, challengeIDs []int64) (map[int64]bool, error) {
	found := make(map[int64]bool)
	want := idSet(challengeIDs)
	err := r.s.run(ctx, func(d *memData) error {
		for _, sub := range d.submissions {
			if sub.UserID == userID && want[sub.ChallengeID] {
				found[sub.ChallengeID] = true
			}
		}
		return nil
	})
	return found, err
}
