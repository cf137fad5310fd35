package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
)

func TestActivityServiceRecordAndList(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), nil, testLogger())

	entryID := uint(42)
	require.NoError(t, svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "student",
		Action:     "essay.graded",
		EntityType: "essay",
		EntityID:   &entryID,
		Metadata:   map[string]interface{}{"level": "cet4"},
	}))
	require.NoError(t, svc.Record(context.Background(), ActivityEntry{
		ActorID:   1,
		ActorRole: "student",
		Action:    "drill.generated",
	}))
	require.NoError(t, svc.Record(context.Background(), ActivityEntry{
		ActorID:   2,
		ActorRole: "student",
		Action:    "essay.graded",
	}))

	all, err := svc.List(context.Background(), nil, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	actor := uint(1)
	mine, err := svc.List(context.Background(), &actor, "", 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	graded, err := svc.List(context.Background(), &actor, "essay.graded", 0)
	require.NoError(t, err)
	require.Len(t, graded, 1)
	require.Equal(t, "essay.graded", graded[0].Action)
	require.NotNil(t, graded[0].EntityID)
	require.Equal(t, entryID, *graded[0].EntityID)
	require.Equal(t, "cet4", graded[0].Metadata["level"])

	var count int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Count(&count).Error)
	require.Equal(t, int64(3), count)
}

func TestActivityServiceRequiresAction(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), nil, testLogger())

	err := svc.Record(context.Background(), ActivityEntry{ActorID: 1, ActorRole: "student", Action: "   "})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Count(&count).Error)
	require.Zero(t, count)
}
