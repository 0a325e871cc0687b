package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
	"github.com/sealedbox/sealedbox/internal/auth/http/dto"
	"github.com/sealedbox/sealedbox/internal/auth/password"
	"github.com/sealedbox/sealedbox/internal/auth/token"
	"github.com/sealedbox/sealedbox/internal/auth/usecase"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
)

func noSuchClient() error {
	return apperrors.New(apperrors.KindNotFound, "client not found")
}

type fakeRepo struct {
	byID   map[uuid.UUID]*authDomain.Client
	byName map[string]*authDomain.Client
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]*authDomain.Client{}, byName: map[string]*authDomain.Client{}}
}

func (f *fakeRepo) Create(_ context.Context, c *authDomain.Client) error {
	f.byID[c.ID] = c
	f.byName[c.Name] = c
	return nil
}

func (f *fakeRepo) Update(_ context.Context, c *authDomain.Client) error {
	f.byID[c.ID] = c
	f.byName[c.Name] = c
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (*authDomain.Client, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, noSuchClient()
	}
	return c, nil
}

func (f *fakeRepo) GetByName(_ context.Context, name string) (*authDomain.Client, error) {
	c, ok := f.byName[name]
	if !ok {
		return nil, noSuchClient()
	}
	return c, nil
}

func (f *fakeRepo) List(_ context.Context, limit, offset int) ([]*authDomain.Client, error) {
	out := make([]*authDomain.Client, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) Count(_ context.Context) (int, error) {
	return len(f.byID), nil
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestHandler(t *testing.T) (*Handler, *fakeRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher, err := password.New()
	require.NoError(t, err)
	tokens, err := token.New([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)

	repo := newFakeRepo()
	uc := usecase.New(noopTx{}, repo, hasher, tokens, nil)
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

func TestHandler_Register_Success(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/client/register",
		dto.RegisterClientRequest{Name: "svc-a", Roles: []string{"writer"}}, h.Register, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.RegisterClientResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.NotEmpty(t, resp.Secret)
}

func TestHandler_Register_ValidationError(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/client/register", dto.RegisterClientRequest{Name: ""}, h.Register, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Login_Success(t *testing.T) {
	h, repo := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/client/register",
		dto.RegisterClientRequest{Name: "svc-b"}, h.Register, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var reg dto.RegisterClientResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	_ = repo

	w = doJSON(h, http.MethodPost, "/client/login",
		dto.LoginRequest{Name: "svc-b", Secret: reg.Secret}, h.Login, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loginResp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	assert.NotEmpty(t, loginResp.Token)
}

func TestHandler_Login_WrongSecret(t *testing.T) {
	h, _ := newTestHandler(t)

	doJSON(h, http.MethodPost, "/client/register", dto.RegisterClientRequest{Name: "svc-c"}, h.Register, nil)
	w := doJSON(h, http.MethodPost, "/client/login", dto.LoginRequest{Name: "svc-c", Secret: "wrong"}, h.Login, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Info_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	id := uuid.Must(uuid.NewV7()).String()
	w := doJSON(h, http.MethodGet, "/client/info/"+id, nil, h.Info, gin.Params{{Key: "id", Value: id}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Info_InvalidID(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodGet, "/client/info/not-a-uuid", nil, h.Info, gin.Params{{Key: "id", Value: "not-a-uuid"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Revoke(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(h, http.MethodPost, "/client/register", dto.RegisterClientRequest{Name: "svc-d"}, h.Register, nil)
	var reg dto.RegisterClientResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	w = doJSON(h, http.MethodPost, "/client/"+reg.ID+"/revoke", nil, h.Revoke, gin.Params{{Key: "id", Value: reg.ID}})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandler_List(t *testing.T) {
	h, _ := newTestHandler(t)

	doJSON(h, http.MethodPost, "/client/register", dto.RegisterClientRequest{Name: "svc-e"}, h.Register, nil)
	doJSON(h, http.MethodPost, "/client/register", dto.RegisterClientRequest{Name: "svc-f"}, h.Register, nil)

	w := doJSON(h, http.MethodGet, "/client", nil, h.List, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []dto.ClientResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}
