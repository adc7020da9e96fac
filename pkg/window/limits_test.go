package window

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

func TestLimits_Check(t *testing.T) {
	tests := []struct {
		name    string
		limits  Limits
		req     *domain.WindowRequest
		wantErr bool
	}{
		{"unlimited", Limits{}, &domain.WindowRequest{StartRow: 0, EndRow: 100000}, false},
		{"below ceiling", Limits{MaxEndRow: 150}, &domain.WindowRequest{StartRow: 100, EndRow: 149}, false},
		{"ceiling is exclusive", Limits{MaxEndRow: 150}, &domain.WindowRequest{StartRow: 100, EndRow: 150}, true},
		{"past ceiling", Limits{MaxEndRow: 150}, &domain.WindowRequest{StartRow: 100, EndRow: 151}, true},
		{"page too large", Limits{MaxPageSize: 50}, &domain.WindowRequest{StartRow: 0, EndRow: 51}, true},
		{"page size is inclusive", Limits{MaxPageSize: 50}, &domain.WindowRequest{StartRow: 0, EndRow: 50}, false},
		{"page fits", Limits{MaxEndRow: 150, MaxPageSize: 50}, &domain.WindowRequest{StartRow: 100, EndRow: 149}, false},
		{"nil request", Limits{MaxEndRow: 1}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.limits.Check(tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var limitErr *domain.ErrRowLimitExceeded
			assert.True(t, errors.As(err, &limitErr))
			assert.Contains(t, err.Error(), "Too many rows requested.")
		})
	}
}
