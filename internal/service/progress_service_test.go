package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/testutil"
)

func TestProgressService_Create(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	ctx := testutil.ContextFor(admin)
	user := testutil.UserCtx(admin)
	deal := testutil.CreateTestDeal(t, db, admin.ID)
	task := &domain.Task{DealID: deal.ID, Name: "roofing", Status: domain.TaskStatusInProgress, CreatedBy: admin.ID}
	require.NoError(t, db.Create(task).Error)

	t.Run("plain note", func(t *testing.T) {
		log, err := svc.progress.Create(ctx, user, deal.ID, &domain.CreateProgressLogRequest{
			Note:       "Scaffolding up",
			PhotoPaths: []string{"site/day1.jpg"},
		})
		require.NoError(t, err)
		assert.Equal(t, deal.ID, log.DealID)
		assert.Nil(t, log.TaskID)
	})

	t.Run("linked log overwrites task progress and rolls up", func(t *testing.T) {
		progress := 75.0
		log, err := svc.progress.Create(ctx, user, deal.ID, &domain.CreateProgressLogRequest{
			TaskID:   &task.ID,
			Note:     "Three quarters done",
			Progress: &progress,
		})
		require.NoError(t, err)
		require.NotNil(t, log.TaskID)

		storedTask, err := svc.taskRepo.FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, 75.0, storedTask.Progress)

		storedDeal, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 75.0, storedDeal.ProgressPercentage)
	})

	t.Run("task from another deal rejected", func(t *testing.T) {
		otherDeal := testutil.CreateTestDeal(t, db, admin.ID)
		foreign := &domain.Task{DealID: otherDeal.ID, Name: "elsewhere", Status: domain.TaskStatusPending, CreatedBy: admin.ID}
		require.NoError(t, db.Create(foreign).Error)

		_, err := svc.progress.Create(ctx, user, deal.ID, &domain.CreateProgressLogRequest{
			TaskID: &foreign.ID,
			Note:   "wrong task",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestMessageService_Create(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	ctx := testutil.ContextFor(admin)
	user := testutil.UserCtx(admin)
	deal := testutil.CreateTestDeal(t, db, admin.ID)

	t.Run("sender fields come from the caller", func(t *testing.T) {
		msg, err := svc.messages.Create(ctx, user, deal.ID, &domain.CreateMessageRequest{
			Content: "Materials arrive thursday",
		})
		require.NoError(t, err)
		assert.Equal(t, admin.ID, msg.SenderID)
		assert.Equal(t, admin.Name, msg.SenderName)
		assert.Equal(t, domain.RoleAdmin, msg.SenderRole)
	})

	t.Run("unknown role in visibility list rejected", func(t *testing.T) {
		_, err := svc.messages.Create(ctx, user, deal.ID, &domain.CreateMessageRequest{
			Content:        "secret",
			VisibleToRoles: []string{"board_member"},
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}
