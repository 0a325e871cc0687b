package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	folderDomain "github.com/sealedbox/sealedbox/internal/folder/domain"
	secretsDomain "github.com/sealedbox/sealedbox/internal/secrets/domain"
)

type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockFolderRepository struct {
	mock.Mock
}

func (m *MockFolderRepository) Create(ctx context.Context, f *folderDomain.Folder) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFolderRepository) Update(ctx context.Context, f *folderDomain.Folder) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*folderDomain.Folder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*folderDomain.Folder), args.Error(1)
}

func (m *MockFolderRepository) GetByParentAndName(ctx context.Context, parentID *uuid.UUID, name string) (*folderDomain.Folder, error) {
	args := m.Called(ctx, parentID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*folderDomain.Folder), args.Error(1)
}

func (m *MockFolderRepository) List(ctx context.Context, parentID *uuid.UUID) ([]*folderDomain.Folder, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*folderDomain.Folder), args.Error(1)
}

func (m *MockFolderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFolderRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockSecretRepository struct {
	mock.Mock
}

func (m *MockSecretRepository) Create(ctx context.Context, s *secretsDomain.Secret) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSecretRepository) Update(ctx context.Context, s *secretsDomain.Secret) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSecretRepository) GetByID(ctx context.Context, id uuid.UUID) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

func (m *MockSecretRepository) GetByName(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

func (m *MockSecretRepository) List(ctx context.Context, folderID *uuid.UUID, limit, offset int) ([]*secretsDomain.Secret, error) {
	args := m.Called(ctx, folderID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.Secret), args.Error(1)
}

func (m *MockSecretRepository) ListByDekID(ctx context.Context, dekID uint32, batchSize int) ([]*secretsDomain.Secret, error) {
	args := m.Called(ctx, dekID, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.Secret), args.Error(1)
}

func (m *MockSecretRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestUseCase_Create_Success(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockFolderRepository{}
	secretRepo := &MockSecretRepository{}
	uc := New(txManager, repo, secretRepo)

	ctx := context.Background()
	notFound := apperrors.New(apperrors.KindNotFound, "folder not found")

	repo.On("GetByParentAndName", ctx, (*uuid.UUID)(nil), "secrets").Return(nil, notFound)
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Folder")).Return(nil)

	f, err := uc.Create(ctx, "secrets", nil)

	require.NoError(t, err)
	assert.Equal(t, "secrets", f.Name)
	assert.Nil(t, f.ParentID)
	repo.AssertExpectations(t)
	txManager.AssertExpectations(t)
}

func TestUseCase_Create_DuplicateName(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockFolderRepository{}
	secretRepo := &MockSecretRepository{}
	uc := New(txManager, repo, secretRepo)

	ctx := context.Background()
	existing := &folderDomain.Folder{ID: uuid.New(), Name: "secrets"}

	repo.On("GetByParentAndName", ctx, (*uuid.UUID)(nil), "secrets").Return(existing, nil)

	f, err := uc.Create(ctx, "secrets", nil)

	assert.Error(t, err)
	assert.Nil(t, f)
	assert.Equal(t, apperrors.KindConflict, apperrors.GetKind(err))
	repo.AssertExpectations(t)
}

func TestUseCase_Create_ParentNotFound(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockFolderRepository{}
	secretRepo := &MockSecretRepository{}
	uc := New(txManager, repo, secretRepo)

	ctx := context.Background()
	parentID := uuid.New()
	notFound := apperrors.New(apperrors.KindNotFound, "folder not found")

	repo.On("GetByID", ctx, parentID).Return(nil, notFound)

	f, err := uc.Create(ctx, "child", &parentID)

	assert.Error(t, err)
	assert.Nil(t, f)
	repo.AssertExpectations(t)
}

func TestUseCase_Update_SelfParentRejected(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockFolderRepository{}
	secretRepo := &MockSecretRepository{}
	uc := New(txManager, repo, secretRepo)

	ctx := context.Background()
	id := uuid.New()
	existing := &folderDomain.Folder{ID: id, Name: "a"}

	repo.On("GetByID", ctx, id).Return(existing, nil)

	f, err := uc.Update(ctx, id, "a", &id)

	assert.Error(t, err)
	assert.Nil(t, f)
	assert.True(t, errors.Is(err, apperrors.ErrFolderCycle))
	repo.AssertExpectations(t)
}

func TestUseCase_Update_CycleRejected(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockFolderRepository{}
	secretRepo := &MockSecretRepository{}
	uc := New(txManager, repo, secretRepo)

	ctx := context.Background()
	grandparentID := uuid.New()
	parentID := uuid.New()
	id := uuid.New()

	existing := &folderDomain.Folder{ID: id, Name: "a", ParentID: &grandparentID}
	parent := &folderDomain.Folder{ID: parentID, Name: "parent", ParentID: &id}

	repo.On("GetByID", ctx, id).Return(existing, nil)
	repo.On("GetByID", ctx, parentID).Return(parent, nil)

	f, err := uc.Update(ctx, id, "a", &parentID)

	assert.Error(t, err)
	assert.Nil(t, f)
	assert.True(t, errors.Is(err, apperrors.ErrFolderCycle))
	repo.AssertExpectations(t)
}

func TestUseCase_Delete_RefusedWhenHasChildren(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockFolderRepository{}
	secretRepo := &MockSecretRepository{}
	uc := New(txManager, repo, secretRepo)

	ctx := context.Background()
	id := uuid.New()

	repo.On("HasChildren", ctx, id).Return(true, nil)

	err := uc.Delete(ctx, id)

	assert.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.GetKind(err))
	repo.AssertExpectations(t)
}

func TestUseCase_Delete_RefusedWhenHasSecrets(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockFolderRepository{}
	secretRepo := &MockSecretRepository{}
	uc := New(txManager, repo, secretRepo)

	ctx := context.Background()
	id := uuid.New()

	repo.On("HasChildren", ctx, id).Return(false, nil)
	secretRepo.On("List", ctx, &id, 1, 0).Return([]*secretsDomain.Secret{{ID: uuid.New()}}, nil)

	err := uc.Delete(ctx, id)

	assert.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.GetKind(err))
	repo.AssertExpectations(t)
	secretRepo.AssertExpectations(t)
}

func TestUseCase_Delete_Success(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockFolderRepository{}
	secretRepo := &MockSecretRepository{}
	uc := New(txManager, repo, secretRepo)

	ctx := context.Background()
	id := uuid.New()

	repo.On("HasChildren", ctx, id).Return(false, nil)
	secretRepo.On("List", ctx, &id, 1, 0).Return([]*secretsDomain.Secret{}, nil)
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("Delete", ctx, id).Return(nil)

	err := uc.Delete(ctx, id)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	secretRepo.AssertExpectations(t)
	txManager.AssertExpectations(t)
}
