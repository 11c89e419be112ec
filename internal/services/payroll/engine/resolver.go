package engine

import (
	"strings"

	"academix-system/internal/database/models"
)

// IdentityKey collapses the current and legacy identifier of a user into one
// de-duplication key.
func IdentityKey(u models.User) string {
	if u.ID != "" {
		return u.ID
	}
	return u.LegacyUID
}

func matchesID(u models.User, id string) bool {
	if id == "" {
		return false
	}
	return u.ID == id || (u.LegacyUID != "" && u.LegacyUID == id)
}

// ResolveTeachers returns the de-duplicated set of teachers responsible for a
// course. Three signals are checked independently: a case-insensitive match of
// the free-text instructor name against a teacher's display name, the course
// creator id (against current and legacy ids), and the explicit assigned
// teacher list. Signal order only affects which duplicate wins, never the
// membership of the result.
func ResolveTeachers(course models.Course, teachers []models.User) []models.User {
	seen := make(map[string]bool)
	var resolved []models.User

	add := func(u models.User) {
		key := IdentityKey(u)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		resolved = append(resolved, u)
	}

	if course.Instructor != "" {
		for _, t := range teachers {
			if strings.EqualFold(course.Instructor, t.DisplayName) {
				add(t)
			}
		}
	}

	if course.CreatorID != "" {
		for _, t := range teachers {
			if matchesID(t, course.CreatorID) {
				add(t)
			}
		}
	}

	for _, id := range course.AssignedTeacherIDs {
		for _, t := range teachers {
			if matchesID(t, id) {
				add(t)
			}
		}
	}

	return resolved
}
