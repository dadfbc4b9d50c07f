package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateJob(t *testing.T) {
	tests := []struct {
		name    string
		job     *Job
		wantErr error
	}{
		{"valid", NewJob("https://example.com/soup", 1, 0), nil},
		{"valid http", NewJob("http://example.com/soup", 1, 2), nil},
		{"nil", nil, ErrInvalidJob},
		{"empty url", NewJob("  ", 1, 0), ErrEmptyURL},
		{"ftp url", NewJob("ftp://example.com/soup", 1, 0), ErrUnsupportedURL},
		{"relative url", NewJob("/soup", 1, 0), ErrUnsupportedURL},
		{"no requester", NewJob("https://example.com/soup", 0, 0), ErrMissingRequester},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJob(tt.job)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidJob)
		})
	}
}

func TestValidateRecord(t *testing.T) {
	valid := NewRecipeRecord("https://example.com/soup", 0, RecipeFields{}, 1, 0)
	assert.NoError(t, ValidateRecord(valid))

	assert.ErrorIs(t, ValidateRecord(nil), ErrInvalidRecord)

	noURL := *valid
	noURL.SourceURL = ""
	assert.ErrorIs(t, ValidateRecord(&noURL), ErrEmptyURL)

	negative := *valid
	negative.Position = -1
	assert.ErrorIs(t, ValidateRecord(&negative), ErrInvalidRecord)

	orphan := *valid
	orphan.Owners = nil
	assert.ErrorIs(t, ValidateRecord(&orphan), ErrMissingRequester)
}
