// ABOUTME: Tests for lead validation and capture
// ABOUTME: Covers field validation rules and persistence via the mock store

package leads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/store"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    Data
		wantErr []string
	}{
		{
			name: "valid lead",
			data: Data{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+44 20 7946 0958"},
		},
		{
			name: "valid with dashes and parens in phone",
			data: Data{Name: "Bob", Email: "bob@mail.co", Phone: "(555) 123-4567"},
		},
		{
			name: "all fields invalid",
			data: Data{Name: "A", Email: "bad", Phone: "123"},
			wantErr: []string{
				"Name must be at least 2 characters long",
				"Please provide a valid email address",
				"Please provide a valid phone number",
			},
		},
		{
			name:    "whitespace-only name",
			data:    Data{Name: "  x ", Email: "x@example.com", Phone: "12345678"},
			wantErr: []string{"Name must be at least 2 characters long"},
		},
		{
			name:    "email missing domain dot",
			data:    Data{Name: "Carol", Email: "carol@host", Phone: "12345678"},
			wantErr: []string{"Please provide a valid email address"},
		},
		{
			name:    "email with spaces",
			data:    Data{Name: "Carol", Email: "carol smith@example.com", Phone: "12345678"},
			wantErr: []string{"Please provide a valid email address"},
		},
		{
			name:    "phone too short",
			data:    Data{Name: "Dan", Email: "dan@example.com", Phone: "1234567"},
			wantErr: []string{"Please provide a valid phone number"},
		},
		{
			name:    "phone with letters",
			data:    Data{Name: "Dan", Email: "dan@example.com", Phone: "phone12345"},
			wantErr: []string{"Please provide a valid phone number"},
		},
		{
			name:    "empty everything",
			data:    Data{},
			wantErr: []string{
				"Name must be at least 2 characters long",
				"Please provide a valid email address",
				"Please provide a valid phone number",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.data)
			assert.Equal(t, tt.wantErr, got)
		})
	}
}

func TestCapture_StoresLead(t *testing.T) {
	ctx := context.Background()
	mock := store.NewMockStore()
	_, err := mock.UpsertUser(ctx, "42", "thread_42", store.Profile{})
	require.NoError(t, err)

	svc := NewService(mock, nil)
	lead, err := svc.Capture(ctx, "42", Data{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Phone: "+44 20 7946 0958",
		Extra: `{"company":"Analytical Engines Ltd"}`,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, store.LeadStatusNew, lead.Status)

	stored, err := mock.ListLeadsByUser(ctx, "42")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "ada@example.com", stored[0].Email)
	assert.Equal(t, `{"company":"Analytical Engines Ltd"}`, stored[0].Extra)
}

func TestCapture_UnknownUser(t *testing.T) {
	svc := NewService(store.NewMockStore(), nil)

	_, err := svc.Capture(context.Background(), "nobody", Data{
		Name:  "Ghost",
		Email: "ghost@example.com",
		Phone: "12345678",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCapture_StoreFailure(t *testing.T) {
	ctx := context.Background()
	mock := store.NewMockStore()
	_, err := mock.UpsertUser(ctx, "42", "thread_42", store.Profile{})
	require.NoError(t, err)
	mock.FailWrites = true

	svc := NewService(mock, nil)
	_, err = svc.Capture(ctx, "42", Data{
		Name:  "Ada",
		Email: "ada@example.com",
		Phone: "12345678",
	})
	assert.Error(t, err)
}
