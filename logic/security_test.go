package logic

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityCheck(t *testing.T) {
	t.Setenv("MASTER_KEY", "secretkey")
	handler := SecurityCheck(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"master key", "Bearer secretkey", http.StatusNoContent},
		{"lowercase scheme", "bearer secretkey", http.StatusNoContent},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"no scheme", "secretkey", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestSecurityCheck_NoMasterKey(t *testing.T) {
	t.Setenv("MASTER_KEY", "")
	assert.False(t, authenticateMaster(""))
}
