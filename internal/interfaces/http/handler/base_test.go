package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tradeapp "github.com/storefront/backend/internal/application/trade"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func TestBaseHandler_HandleError(t *testing.T) {
	variant := uuid.New()
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", shared.NewNotFoundError("order", uuid.New()), http.StatusNotFound, dto.CodeNotFound, "not found"},
		{"validation", shared.NewValidationError("quantity must be positive"), http.StatusBadRequest, dto.CodeValidation, "quantity must be positive"},
		{"invalid state", shared.NewDomainError(shared.CodeInvalidState, "cannot ship"), http.StatusUnprocessableEntity, dto.CodeInvalidState, "cannot ship"},
		{"conflict", shared.NewDomainError(shared.CodeConcurrencyConflict, "stale"), http.StatusConflict, dto.CodeConcurrencyConflict, "stale"},
		{"already exists", shared.NewDomainError(shared.CodeAlreadyExists, "open request"), http.StatusConflict, dto.CodeAlreadyExists, "open request"},
		{"wrapped", fmt.Errorf("load: %w", shared.NewNotFoundError("order", uuid.New())), http.StatusNotFound, dto.CodeNotFound, "not found"},
		{
			"insufficient stock",
			inventory.NewStockUnavailableError([]inventory.LineShortfall{{VariantID: variant, Requested: 3, Available: 1}}),
			http.StatusUnprocessableEntity, dto.CodeInsufficientStock, "",
		},
		{"unexpected", errors.New("pq: connection reset"), http.StatusInternalServerError, dto.CodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := newTestRouter()
			r.GET("/fail", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w, resp := doRequest(t, r, http.MethodGet, "/fail", nil)

			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.message)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_Shortfalls(t *testing.T) {
	variant := uuid.New()
	h := &BaseHandler{}
	r := newTestRouter()
	r.GET("/fail", func(c *gin.Context) {
		h.HandleError(c, inventory.NewStockUnavailableError([]inventory.LineShortfall{
			{VariantID: variant, Requested: 3, Available: 1},
		}))
	})

	_, resp := doRequest(t, r, http.MethodGet, "/fail", nil)

	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Shortfalls, 1)
	assert.Equal(t, variant, resp.Error.Shortfalls[0].VariantID)
	assert.Equal(t, 3, resp.Error.Shortfalls[0].Requested)
	assert.Equal(t, 1, resp.Error.Shortfalls[0].Available)
}

func TestBaseHandler_HandleError_SetsErrorCode(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter()
	var recorded string
	r.Use(func(c *gin.Context) {
		c.Next()
		recorded = c.GetString(middleware.ErrorCodeKey)
	})
	r.GET("/fail", func(c *gin.Context) {
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidState, "nope"))
	})

	doRequest(t, r, http.MethodGet, "/fail", nil)
	assert.Equal(t, shared.CodeInvalidState, recorded)
}

func TestBaseHandler_BindJSON(t *testing.T) {
	bind := func(c *gin.Context) {
		h := &BaseHandler{}
		var req tradeapp.CancelOrderRequest
		if h.BindJSON(c, &req) {
			c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Reason))
		}
	}

	t.Run("valid", func(t *testing.T) {
		r := newTestRouter()
		r.POST("/bind", bind)
		w, resp := doRequest(t, r, http.MethodPost, "/bind", map[string]any{"reason": "changed my mind"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `"changed my mind"`, string(resp.Data))
	})

	t.Run("validation details use json names", func(t *testing.T) {
		r := newTestRouter()
		r.POST("/bind", bind)
		w, resp := doRequest(t, r, http.MethodPost, "/bind", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.CodeValidation, resp.Error.Code)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "reason", resp.Error.Details[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		r := newTestRouter()
		r.POST("/bind", bind)
		w, resp := doRequest(t, r, http.MethodPost, "/bind", `{"reason":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.CodeInvalidJSON, resp.Error.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		r := newTestRouter()
		r.POST("/bind", bind)
		req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(""))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.CodeInvalidJSON)
	})

	t.Run("body over limit", func(t *testing.T) {
		r := newTestRouter()
		r.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 8)
			c.Next()
		})
		r.POST("/bind", bind)
		w, resp := doRequest(t, r, http.MethodPost, "/bind", map[string]any{"reason": strings.Repeat("x", 64)})
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.CodeRequestTooLarge, resp.Error.Code)
	})
}

func TestBaseHandler_PathID(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := h.PathID(c)
		if ok {
			c.JSON(http.StatusOK, dto.NewSuccessResponse(id))
		}
	})

	w, resp := doRequest(t, r, http.MethodGet, "/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.CodeValidation, resp.Error.Code)

	id := uuid.New()
	w, resp = doRequest(t, r, http.MethodGet, "/items/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"`+id.String()+`"`, string(resp.Data))
}

func TestBaseHandler_SuccessWithMetaDefaults(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter()
	r.GET("/list", func(c *gin.Context) { h.SuccessWithMeta(c, []string{"a"}, 45, 0, 0) })

	_, resp := doRequest(t, r, http.MethodGet, "/list", nil)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
