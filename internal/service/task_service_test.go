package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/testutil"
)

func TestTaskService_Create(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, domain.RoleSalesAgent)
	deal := testutil.CreateTestDeal(t, db, admin.ID)

	t.Run("defaults and rollup", func(t *testing.T) {
		task, err := svc.tasks.Create(testutil.ContextFor(admin), testutil.UserCtx(admin), deal.ID, &domain.CreateTaskRequest{
			Name:     "Excavation",
			Progress: 40,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Equal(t, 40.0, task.Progress)

		stored, err := svc.dealRepo.FindByID(testutil.ContextFor(admin), deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 40.0, stored.ProgressPercentage)
	})

	t.Run("invisible deal reads as not found", func(t *testing.T) {
		_, err := svc.tasks.Create(testutil.ContextFor(agent), testutil.UserCtx(agent), deal.ID, &domain.CreateTaskRequest{
			Name: "Sneaky task",
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestTaskService_Update(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	supervisor := testutil.CreateTestUser(t, db, domain.RoleSupervisor)
	deal := testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.AssignedSupervisor = &supervisor.ID
	})

	newTask := func() *domain.Task {
		task := &domain.Task{
			DealID:     deal.ID,
			Name:       "Install frames",
			Status:     domain.TaskStatusInProgress,
			Progress:   20,
			AssignedTo: domain.UUIDList{supervisor.ID},
			CreatedBy:  admin.ID,
		}
		require.NoError(t, db.Create(task).Error)
		return task
	}

	t.Run("completion without explicit progress snaps to 100", func(t *testing.T) {
		task := newTask()
		status := domain.TaskStatusCompleted
		updated, err := svc.tasks.Update(testutil.ContextFor(admin), testutil.UserCtx(admin), task.ID, &domain.UpdateTaskRequest{
			Status: &status,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
		assert.Equal(t, 100.0, updated.Progress)
	})

	t.Run("completion with explicit progress keeps it", func(t *testing.T) {
		task := newTask()
		status := domain.TaskStatusCompleted
		progress := 95.0
		updated, err := svc.tasks.Update(testutil.ContextFor(admin), testutil.UserCtx(admin), task.ID, &domain.UpdateTaskRequest{
			Status:   &status,
			Progress: &progress,
		})
		require.NoError(t, err)
		assert.Equal(t, 95.0, updated.Progress)
	})

	t.Run("supervisor may only touch status and progress", func(t *testing.T) {
		task := newTask()
		status := domain.TaskStatusBlocked
		progress := 30.0
		updated, err := svc.tasks.Update(testutil.ContextFor(supervisor), testutil.UserCtx(supervisor), task.ID, &domain.UpdateTaskRequest{
			Status:   &status,
			Progress: &progress,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusBlocked, updated.Status)

		name := "Renamed"
		_, err = svc.tasks.Update(testutil.ContextFor(supervisor), testutil.UserCtx(supervisor), task.ID, &domain.UpdateTaskRequest{
			Name: &name,
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("progress change rolls up to the deal", func(t *testing.T) {
		solo := testutil.CreateTestDeal(t, db, admin.ID)
		task := &domain.Task{DealID: solo.ID, Name: "only task", Status: domain.TaskStatusInProgress, CreatedBy: admin.ID}
		require.NoError(t, db.Create(task).Error)

		progress := 60.0
		_, err := svc.tasks.Update(testutil.ContextFor(admin), testutil.UserCtx(admin), task.ID, &domain.UpdateTaskRequest{
			Progress: &progress,
		})
		require.NoError(t, err)

		stored, err := svc.dealRepo.FindByID(testutil.ContextFor(admin), solo.ID)
		require.NoError(t, err)
		assert.Equal(t, 60.0, stored.ProgressPercentage)
	})
}
