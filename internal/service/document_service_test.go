package service_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/storage"
	"github.com/structura-group/pipeline-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newDocumentService(t *testing.T, db *gorm.DB) *service.DocumentService {
	t.Helper()
	logger := zap.NewNop()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	documentRepo := repository.NewDocumentRepository(db)
	dealRepo := repository.NewDealRepository(db)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	return service.NewDocumentService(documentRepo, dealRepo, store, activity, logger)
}

func TestDocumentService_Upload(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newDocumentService(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	ctx := testutil.ContextFor(admin)
	user := testutil.UserCtx(admin)
	deal := testutil.CreateTestDeal(t, db, admin.ID)

	upload := func(name string) *domain.DocumentDTO {
		doc, err := svc.Upload(ctx, user, deal.ID, &service.UploadDocumentInput{
			Name:        name,
			ContentType: "application/pdf",
			Data:        strings.NewReader("pdf bytes"),
		})
		require.NoError(t, err)
		return doc
	}

	t.Run("first upload is version one pending", func(t *testing.T) {
		doc := upload("contract.pdf")
		assert.Equal(t, 1, doc.Version)
		assert.Equal(t, domain.ApprovalStatusPending, doc.Status)
		assert.Equal(t, domain.DocumentCategoryInternal, doc.Category)
		assert.EqualValues(t, len("pdf bytes"), doc.SizeBytes)
	})

	t.Run("re-upload under the same name bumps the version", func(t *testing.T) {
		doc := upload("contract.pdf")
		assert.Equal(t, 2, doc.Version)

		other := upload("floorplan.dwg")
		assert.Equal(t, 1, other.Version)
	})

	t.Run("download round-trips the content", func(t *testing.T) {
		doc := upload("spec.pdf")
		_, rc, err := svc.Download(ctx, user, doc.ID)
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "pdf bytes", string(data))
	})
}

func TestDocumentService_ApprovalAndClientAccess(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newDocumentService(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	client := testutil.CreateTestUser(t, db, domain.RoleClientB2B)
	ctx := testutil.ContextFor(admin)
	user := testutil.UserCtx(admin)
	deal := testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.ClientEmail = client.Email
	})

	doc, err := svc.Upload(ctx, user, deal.ID, &service.UploadDocumentInput{
		Name:          "handover.pdf",
		ContentType:   "application/pdf",
		ClientVisible: true,
		Data:          strings.NewReader("content"),
	})
	require.NoError(t, err)

	t.Run("client cannot read a pending document", func(t *testing.T) {
		_, err := svc.GetByID(testutil.ContextFor(client), testutil.UserCtx(client), doc.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("only approved or rejected are valid decisions", func(t *testing.T) {
		_, err := svc.SetStatus(ctx, user, doc.ID, domain.ApprovalStatusPending)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("approval opens client access", func(t *testing.T) {
		approved, err := svc.SetStatus(ctx, user, doc.ID, domain.ApprovalStatusApproved)
		require.NoError(t, err)
		assert.Equal(t, domain.ApprovalStatusApproved, approved.Status)

		seen, err := svc.GetByID(testutil.ContextFor(client), testutil.UserCtx(client), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, seen.ID)
	})
}
