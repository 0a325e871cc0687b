package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/folder/domain"
	"github.com/sealedbox/sealedbox/internal/folder/http/dto"
	"github.com/sealedbox/sealedbox/internal/folder/usecase"
	secretsDomain "github.com/sealedbox/sealedbox/internal/secrets/domain"
)

func noSuchFolder() error {
	return apperrors.New(apperrors.KindNotFound, "folder not found")
}

type fakeRepo struct {
	byID map[uuid.UUID]*domain.Folder
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]*domain.Folder{}}
}

func (f *fakeRepo) Create(_ context.Context, fo *domain.Folder) error {
	f.byID[fo.ID] = fo
	return nil
}

func (f *fakeRepo) Update(_ context.Context, fo *domain.Folder) error {
	f.byID[fo.ID] = fo
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Folder, error) {
	fo, ok := f.byID[id]
	if !ok {
		return nil, noSuchFolder()
	}
	return fo, nil
}

func (f *fakeRepo) GetByParentAndName(_ context.Context, parentID *uuid.UUID, name string) (*domain.Folder, error) {
	for _, fo := range f.byID {
		if fo.Name == name && sameParent(fo.ParentID, parentID) {
			return fo, nil
		}
	}
	return nil, noSuchFolder()
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeRepo) List(_ context.Context, parentID *uuid.UUID) ([]*domain.Folder, error) {
	out := make([]*domain.Folder, 0)
	for _, fo := range f.byID {
		if sameParent(fo.ParentID, parentID) {
			out = append(out, fo)
		}
	}
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return noSuchFolder()
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) HasChildren(_ context.Context, id uuid.UUID) (bool, error) {
	for _, fo := range f.byID {
		if fo.ParentID != nil && *fo.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeSecretRepo struct{}

func (fakeSecretRepo) Create(context.Context, *secretsDomain.Secret) error { return nil }
func (fakeSecretRepo) Update(context.Context, *secretsDomain.Secret) error { return nil }
func (fakeSecretRepo) GetByID(context.Context, uuid.UUID) (*secretsDomain.Secret, error) {
	return nil, apperrors.New(apperrors.KindNotFound, "secret not found")
}
func (fakeSecretRepo) GetByName(context.Context, string) (*secretsDomain.Secret, error) {
	return nil, apperrors.New(apperrors.KindNotFound, "secret not found")
}
func (fakeSecretRepo) List(context.Context, *uuid.UUID, int, int) ([]*secretsDomain.Secret, error) {
	return nil, nil
}
func (fakeSecretRepo) ListByDekID(context.Context, uint32, int) ([]*secretsDomain.Secret, error) {
	return nil, nil
}
func (fakeSecretRepo) Delete(context.Context, uuid.UUID) error { return nil }

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestHandler(t *testing.T) (*Handler, *fakeRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeRepo()
	uc := usecase.New(noopTx{}, repo, fakeSecretRepo{})
	return NewHandler(uc, nil), repo
}

func doJSON(h *Handler, method, path string, body any, handlerFn func(*gin.Context), params gin.Params) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewBuffer(b)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params

	handlerFn(c)
	return w
}

func TestHandler_Create_Folders(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "infra"}, h.Create, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.FolderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "infra", resp.Name)
	assert.Nil(t, resp.ParentID)
}

func TestHandler_Create_Folders_ValidationError(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: ""}, h.Create, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Create_Folders_InvalidParentID(t *testing.T) {
	h, _ := newTestHandler(t)

	bad := "not-a-uuid"
	w := doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "infra", ParentID: &bad}, h.Create, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Get_Folders(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "db"}, h.Create, nil)
	var created dto.FolderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	id := created.ID.String()
	w = doJSON(h, http.MethodGet, "/folder/"+id, nil, h.Get, gin.Params{{Key: "id", Value: id}})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Get_Folders_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	id := uuid.Must(uuid.NewV7()).String()
	w := doJSON(h, http.MethodGet, "/folder/"+id, nil, h.Get, gin.Params{{Key: "id", Value: id}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Get_Folders_InvalidID(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodGet, "/folder/not-a-uuid", nil, h.Get, gin.Params{{Key: "id", Value: "not-a-uuid"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_List_Folders(t *testing.T) {
	h, _ := newTestHandler(t)

	doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "a"}, h.Create, nil)
	doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "b"}, h.Create, nil)

	w := doJSON(h, http.MethodGet, "/folder", nil, h.List, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []dto.FolderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestHandler_List_Folders_InvalidParentID(t *testing.T) {
	h, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/folder?parent_id=not-a-uuid", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Update_Folders(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "old-name"}, h.Create, nil)
	var created dto.FolderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	id := created.ID.String()
	w = doJSON(h, http.MethodPut, "/folder/"+id, dto.UpdateFolderRequest{Name: "new-name"},
		h.Update, gin.Params{{Key: "id", Value: id}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.FolderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new-name", resp.Name)
}

func TestHandler_Delete_Folders(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "deletable"}, h.Create, nil)
	var created dto.FolderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	id := created.ID.String()
	w = doJSON(h, http.MethodDelete, "/folder/"+id, nil, h.Delete, gin.Params{{Key: "id", Value: id}})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandler_Delete_Folders_RefusedWithChildren(t *testing.T) {
	h, repo := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "parent"}, h.Create, nil)
	var parent dto.FolderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parent))

	parentID := parent.ID
	w = doJSON(h, http.MethodPost, "/folder", dto.CreateFolderRequest{Name: "child", ParentID: strPtr(parentID.String())}, h.Create, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	_ = repo

	id := parentID.String()
	w = doJSON(h, http.MethodDelete, "/folder/"+id, nil, h.Delete, gin.Params{{Key: "id", Value: id}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func strPtr(s string) *string { return &s }
