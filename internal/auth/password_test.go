package auth_test

import (
	"github.com/myrjola/lettergen/internal/auth"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()
	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	require.NotEqual(t, []byte("admin123"), hash)

	require.NoError(t, auth.CheckPassword(hash, "admin123"))
	require.ErrorIs(t, auth.CheckPassword(hash, "admin124"), auth.ErrPasswordMismatch)
	require.ErrorIs(t, auth.CheckPassword([]byte("not a hash"), "admin123"), auth.ErrPasswordMismatch)
}

func TestValidateNewPassword(t *testing.T) {
	tests := []struct {
		name         string
		password     string
		confirmation string
		wantErr      error
	}{
		{name: "valid", password: "s3cret!", confirmation: "s3cret!", wantErr: nil},
		{name: "empty", password: "", confirmation: "", wantErr: auth.ErrPasswordRequired},
		{name: "short", password: "abc", confirmation: "abc", wantErr: auth.ErrWeakPassword},
		{name: "mismatch", password: "s3cret!", confirmation: "s3cret?", wantErr: auth.ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := auth.ValidateNewPassword(tt.password, tt.confirmation)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
