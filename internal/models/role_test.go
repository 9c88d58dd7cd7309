package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_TotalOrder(t *testing.T) {
	for i, lower := range Roles {
		for j, higher := range Roles {
			assert.Equal(t, j >= i, higher.AtLeast(lower), "%s >= %s", higher, lower)
		}
	}
}

func TestRole_UnknownSatisfiesNothing(t *testing.T) {
	unknown := Role("superuser")
	assert.False(t, unknown.Valid())
	assert.False(t, unknown.AtLeast(RoleUser))
	assert.Equal(t, 0, unknown.Rank())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Moderator ")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestUser_CanModerate(t *testing.T) {
	assert.False(t, (&User{Role: RoleAuthor}).CanModerate())
	assert.True(t, (&User{Role: RoleModerator}).CanModerate())
	assert.True(t, (&User{Role: RoleAdmin}).CanModerate())

	var nilUser *User
	assert.False(t, nilUser.HasRole(RoleUser))
}

func TestClassifyMimetype(t *testing.T) {
	assert.Equal(t, FileTypeImage, ClassifyMimetype("image/png"))
	assert.Equal(t, FileTypeDocument, ClassifyMimetype("application/pdf"))
	assert.Equal(t, FileTypeOther, ClassifyMimetype("application/zip"))
}
