package register_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magelanzzz/subscription-manager/internal/errs"
	"github.com/magelanzzz/subscription-manager/internal/http/handlers/register"
	"github.com/magelanzzz/subscription-manager/internal/http/response"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

type mockRegistration struct {
	RegisterFunc func(ctx context.Context, req models.DummyRegister) (int, error)
}

func (m *mockRegistration) Register(ctx context.Context, req models.DummyRegister) (int, error) {
	return m.RegisterFunc(ctx, req)
}

func makeLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		body, _ := json.Marshal(models.DummyRegister{
			Username: "validuser",
			Email:    "valid@example.com",
			Password: "password123",
		})

		registration := &mockRegistration{
			RegisterFunc: func(_ context.Context, req models.DummyRegister) (int, error) {
				require.Equal(t, "validuser", req.Username)
				return 1, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
		w := httptest.NewRecorder()

		register.New(makeLogger(), registration).ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusOK, resp.Status)
		assert.Equal(t, "validuser", resp.Data.(map[string]any)["username"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		registration := &mockRegistration{
			RegisterFunc: func(context.Context, models.DummyRegister) (int, error) {
				t.Fatal("Register should not be called")
				return 0, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{bad json")))
		w := httptest.NewRecorder()

		register.New(makeLogger(), registration).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "failed to decode request")
	})

	t.Run("validation error", func(t *testing.T) {
		body, _ := json.Marshal(models.DummyRegister{Username: "", Email: "nope", Password: "ab"})
		registration := &mockRegistration{
			RegisterFunc: func(context.Context, models.DummyRegister) (int, error) {
				t.Fatal("Register should not be called")
				return 0, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
		w := httptest.NewRecorder()

		register.New(makeLogger(), registration).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "is a required field")
	})

	t.Run("duplicate user maps to conflict", func(t *testing.T) {
		body, _ := json.Marshal(models.DummyRegister{
			Username: "validuser",
			Email:    "valid@example.com",
			Password: "password123",
		})
		registration := &mockRegistration{
			RegisterFunc: func(context.Context, models.DummyRegister) (int, error) {
				return 0, errs.ErrDuplicateUser
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
		w := httptest.NewRecorder()

		register.New(makeLogger(), registration).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already exists")

		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, string(errs.CodeConflict), resp.Code)
	})
}
