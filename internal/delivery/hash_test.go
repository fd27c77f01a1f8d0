package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_Hash(t *testing.T) {
	hashed := Identity{
		Email:     "  John.Doe@Example.COM ",
		Phone:     "+55 (11) 98765-4321",
		FirstName: "John",
		City:      "Sao Paulo",
	}.Hash()

	require.Len(t, hashed.Emails, 1)
	assert.Equal(t, HashValue("john.doe@example.com"), hashed.Emails[0])
	assert.Equal(t, HashValue("5511987654321"), hashed.Phones[0])
	assert.Equal(t, HashValue("john"), hashed.FirstNames[0])
	assert.Equal(t, HashValue("saopaulo"), hashed.Cities[0])
	assert.Nil(t, hashed.LastNames)
	assert.Nil(t, hashed.ZipCodes)
}

func TestIdentity_HashKeepsDigests(t *testing.T) {
	digest := HashValue("john.doe@example.com")

	hashed := Identity{Email: digest}.Hash()

	assert.Equal(t, []string{digest}, hashed.Emails)
}

func TestIsHashed(t *testing.T) {
	assert.True(t, IsHashed(HashValue("x")))
	assert.False(t, IsHashed("not-a-digest"))
	assert.False(t, IsHashed(""))
}
