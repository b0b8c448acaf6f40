package model

import (
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

const goalTagPrefix = "goal:"

// GoalTag is the tag that links a challenge to a goal.
func GoalTag(goalID int64) string {
	return goalTagPrefix + strconv.FormatInt(goalID, 10)
}

func isGoalTag(tag string) bool {
	return strings.HasPrefix(tag, goalTagPrefix)
}

// GoalIDFromTags returns the goal referenced by the first well-formed goal tag.
func GoalIDFromTags(tags []string) *int64 {
	for _, tag := range tags {
		if !isGoalTag(tag) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(tag, goalTagPrefix), 10, 64)
		if err == nil && id > 0 {
			return &id
		}
	}
	return nil
}

// WithGoalTag strips every goal tag and appends the one for goalID, if any.
func WithGoalTag(tags []string, goalID *int64) []string {
	out := make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		if !isGoalTag(tag) {
			out = append(out, tag)
		}
	}
	if goalID != nil {
		out = append(out, GoalTag(*goalID))
	}
	return out
}

func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RemoveTag returns tags without any occurrence of tag.
func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// NormalizeLabels slugs free-form labels and drops duplicates and empties.
// Goal tags are discarded: linkage is only set through goalId.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if isGoalTag(strings.TrimSpace(label)) {
			continue
		}
		s := slug.Make(label)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// UniqueIDs drops repeated ids, keeping first occurrence order.
func UniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// PrerequisitesToStrings converts ids to the stored string form.
func PrerequisitesToStrings(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}

// PrerequisitesFromStrings parses stored ids, skipping values that are not integers.
func PrerequisitesFromStrings(values []string) []int64 {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}
