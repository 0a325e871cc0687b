package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealedbox/sealedbox/internal/crypto/aead"
	"github.com/sealedbox/sealedbox/internal/crypto/dek"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/secrets/http/dto"
	secretsDomain "github.com/sealedbox/sealedbox/internal/secrets/domain"
	"github.com/sealedbox/sealedbox/internal/secrets/usecase"
)

type fakeRepo struct {
	byID   map[uuid.UUID]*secretsDomain.Secret
	byName map[string]*secretsDomain.Secret
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]*secretsDomain.Secret{}, byName: map[string]*secretsDomain.Secret{}}
}

func (f *fakeRepo) Create(_ context.Context, s *secretsDomain.Secret) error {
	f.byID[s.ID] = s
	f.byName[s.Name] = s
	return nil
}

func (f *fakeRepo) Update(_ context.Context, s *secretsDomain.Secret) error {
	f.byID[s.ID] = s
	f.byName[s.Name] = s
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*secretsDomain.Secret, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "secret not found")
	}
	return s, nil
}

func (f *fakeRepo) GetByName(_ context.Context, name string) (*secretsDomain.Secret, error) {
	s, ok := f.byName[name]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "secret not found")
	}
	return s, nil
}

func (f *fakeRepo) List(_ context.Context, folderID *uuid.UUID, limit, offset int) ([]*secretsDomain.Secret, error) {
	out := make([]*secretsDomain.Secret, 0, len(f.byID))
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) ListByDekID(_ context.Context, dekID uint32, batchSize int) ([]*secretsDomain.Secret, error) {
	return nil, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	s, ok := f.byID[id]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "secret not found")
	}
	delete(f.byID, id)
	delete(f.byName, s.Name)
	return nil
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestHandler(t *testing.T) (*Handler, *fakeRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeRepo()
	ring := dek.NewKeyRing()
	key, err := aead.GenerateKey()
	require.NoError(t, err)
	ring.Put(1, key)
	ring.SetDefault(1)

	uc := usecase.New(noopTx{}, repo, ring, nil, nil)
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

func TestHandler_Create_Secrets(t *testing.T) {
	h, _ := newTestHandler(t)

	value := base64.StdEncoding.EncodeToString([]byte("hunter2pass"))
	w := doJSON(h, http.MethodPost, "/secret", dto.CreateSecretRequest{Name: "db-password", Value: value}, h.Create, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.SecretResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "db-password", resp.Name)
	assert.Equal(t, uint32(1), resp.DekID)
}

func TestHandler_Create_Secrets_ValidationError(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/secret", dto.CreateSecretRequest{Name: "db", Value: "not-base64!!"}, h.Create, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Get_ByIDAndName(t *testing.T) {
	h, _ := newTestHandler(t)

	value := base64.StdEncoding.EncodeToString([]byte("top-secret-value"))
	w := doJSON(h, http.MethodPost, "/secret", dto.CreateSecretRequest{Name: "api-key", Value: value}, h.Create, nil)
	var created dto.SecretResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(h, http.MethodGet, "/secret/"+created.ID, nil, h.Get, gin.Params{{Key: "idOrName", Value: created.ID}})
	require.Equal(t, http.StatusOK, w.Code)
	var getByID dto.SecretValueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &getByID))
	decoded, err := base64.StdEncoding.DecodeString(getByID.Value)
	require.NoError(t, err)
	assert.Equal(t, "top-secret-value", string(decoded))

	w = doJSON(h, http.MethodGet, "/secret/api-key", nil, h.Get, gin.Params{{Key: "idOrName", Value: "api-key"}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Update_Secrets(t *testing.T) {
	h, _ := newTestHandler(t)

	value := base64.StdEncoding.EncodeToString([]byte("original-value"))
	w := doJSON(h, http.MethodPost, "/secret", dto.CreateSecretRequest{Name: "rotatable", Value: value}, h.Create, nil)
	var created dto.SecretResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	newValue := base64.StdEncoding.EncodeToString([]byte("updated-value"))
	w = doJSON(h, http.MethodPut, "/secret/"+created.ID, dto.UpdateSecretRequest{Value: newValue},
		h.Update, gin.Params{{Key: "idOrName", Value: created.ID}})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Delete_Secrets(t *testing.T) {
	h, _ := newTestHandler(t)

	value := base64.StdEncoding.EncodeToString([]byte("delete-me-value"))
	w := doJSON(h, http.MethodPost, "/secret", dto.CreateSecretRequest{Name: "deletable", Value: value}, h.Create, nil)
	var created dto.SecretResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(h, http.MethodDelete, "/secret/"+created.ID, nil, h.Delete, gin.Params{{Key: "idOrName", Value: created.ID}})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandler_List_Secrets(t *testing.T) {
	h, _ := newTestHandler(t)

	value := base64.StdEncoding.EncodeToString([]byte("value-one-here"))
	doJSON(h, http.MethodPost, "/secret", dto.CreateSecretRequest{Name: "s1", Value: value}, h.Create, nil)
	doJSON(h, http.MethodPost, "/secret", dto.CreateSecretRequest{Name: "s2", Value: value}, h.Create, nil)

	w := doJSON(h, http.MethodGet, "/secret", nil, h.List, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []dto.SecretResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}
