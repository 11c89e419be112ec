package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academix-system/internal/database/models"
)

func teacher(id, name string) models.User {
	return models.User{ID: id, DisplayName: name, Role: models.RoleTeacher}
}

func TestResolveTeachersByInstructorName(t *testing.T) {
	teachers := []models.User{
		teacher("t1", "Alice Johnson"),
		teacher("t2", "Bob Smith"),
	}
	course := models.Course{ID: "c1", Instructor: "alice johnson"}

	resolved := ResolveTeachers(course, teachers)

	require.Len(t, resolved, 1)
	assert.Equal(t, "t1", resolved[0].ID)
}

func TestResolveTeachersByCreatorID(t *testing.T) {
	teachers := []models.User{
		teacher("t1", "Alice"),
		{ID: "t2", DisplayName: "Bob", Role: models.RoleInstructor, LegacyUID: "legacy-42"},
	}

	t.Run("current id", func(t *testing.T) {
		resolved := ResolveTeachers(models.Course{ID: "c1", CreatorID: "t1"}, teachers)
		require.Len(t, resolved, 1)
		assert.Equal(t, "t1", resolved[0].ID)
	})

	t.Run("legacy uid", func(t *testing.T) {
		resolved := ResolveTeachers(models.Course{ID: "c1", CreatorID: "legacy-42"}, teachers)
		require.Len(t, resolved, 1)
		assert.Equal(t, "t2", resolved[0].ID)
	})
}

func TestResolveTeachersByAssignedList(t *testing.T) {
	teachers := []models.User{
		teacher("t1", "Alice"),
		teacher("t2", "Bob"),
		teacher("t3", "Carol"),
	}
	course := models.Course{
		ID:                 "c1",
		AssignedTeacherIDs: models.StringArray{"t2", "t3", "missing"},
	}

	resolved := ResolveTeachers(course, teachers)

	require.Len(t, resolved, 2)
	assert.Equal(t, "t2", resolved[0].ID)
	assert.Equal(t, "t3", resolved[1].ID)
}

func TestResolveTeachersDeduplicatesAcrossSignals(t *testing.T) {
	alice := teacher("t1", "Alice Johnson")
	course := models.Course{
		ID:                 "c1",
		Instructor:         "Alice Johnson",
		CreatorID:          "t1",
		AssignedTeacherIDs: models.StringArray{"t1"},
	}

	resolved := ResolveTeachers(course, []models.User{alice})

	require.Len(t, resolved, 1)
	assert.Equal(t, "t1", resolved[0].ID)
}

func TestResolveTeachersNoneFound(t *testing.T) {
	teachers := []models.User{teacher("t1", "Alice")}
	course := models.Course{ID: "c1", Instructor: "Nobody", CreatorID: "x"}

	resolved := ResolveTeachers(course, teachers)

	assert.Empty(t, resolved)
}
