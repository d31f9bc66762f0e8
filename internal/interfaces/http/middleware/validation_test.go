package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/olist/dashboard/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SelectionQuery(t *testing.T) {
	SetupValidator()

	tests := []struct {
		name    string
		query   map[string][]string
		field   string
		message string
	}{
		{"valid", map[string][]string{"state": {"SP,RJ"}, "year": {"2017"}}, "", ""},
		{"value too long", map[string][]string{"state": {strings.Repeat("x", 257)}}, "facets[state][0]", "Must be at most 256 characters"},
		{"facet name too long", map[string][]string{strings.Repeat("f", 65): {"x"}}, "", "Must be at most 64 characters"},
		{"too many values", map[string][]string{"state": {strings.TrimSuffix(strings.Repeat("a,", 201), ",")}}, "facets[state]", "Must be at most 200 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := dto.NewSelectionQuery(tt.query)
			err := Validate(&q)
			if tt.message == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)

			resp := FormatValidationErrors(err, "req-1")
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			require.Len(t, resp.Error.Details, 1)
			if tt.field != "" {
				assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			}
			assert.Equal(t, tt.message, resp.Error.Details[0].Message)
		})
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("boom"), "")

	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		q := dto.NewSelectionQuery(c.Request.URL.Query())
		if err := Validate(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test?state="+strings.Repeat("x", 300), nil)
	req.Header.Set(HeaderRequestID, "req-9")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "req-9", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}
