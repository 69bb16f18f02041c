package anonymize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/PatronScore/pkg/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"5551234567", "5551234567", true},
		{"(555) 123-4567", "5551234567", true},
		{"555.123.4567", "5551234567", true},
		{" 555 123 4567 ", "5551234567", true},
		{"+1 555 123 4567", "", false},
		{"555123456", "", false},
		{"", "", false},
		{"call me maybe", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if !tt.ok {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPhone)
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_ErrorNamesPhoneField(t *testing.T) {
	_, err := Normalize("123")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_PHONE", appErr.Code)
	assert.Equal(t, "phone", appErr.Field)
	assert.Equal(t, 400, appErr.Status)
}

func TestHash_KnownDigest(t *testing.T) {
	key, err := Hash("5551234567")
	require.NoError(t, err)
	assert.Equal(t, "3c95277da5fd0da6a1a44ee3fdf56d20af6c6d242695a40e18e6e90dc3c5872c", key)
	assert.Len(t, key, 64)
}

func TestHash_DeterministicAcrossFormatting(t *testing.T) {
	a, err := Hash("(555) 123-4567")
	require.NoError(t, err)
	b, err := Hash("555-123-4567")
	require.NoError(t, err)
	c, err := Hash("5551234567")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestHash_DistinctNumbersDistinctKeys(t *testing.T) {
	seen := make(map[string]string)
	for _, phone := range []string{
		"5551234567", "5551234568", "5551234576", "7651234555", "0000000000", "9999999999",
	} {
		key, err := Hash(phone)
		require.NoError(t, err)
		prev, dup := seen[key]
		assert.False(t, dup, "%s collides with %s", phone, prev)
		seen[key] = phone
	}
}

func TestHash_DoesNotContainDigits(t *testing.T) {
	key, err := Hash("0000000000")
	require.NoError(t, err)
	assert.Equal(t, "84d9c4b849506b6d8f8075a9000e7e0a254be71060ea889fad3c88395988f4fc", key)
	assert.NotContains(t, key, "0000000000")
}

func TestHash_InvalidPhone(t *testing.T) {
	_, err := Hash("12345")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestHasher_Unkeyed(t *testing.T) {
	h := NewHasher("")
	assert.False(t, h.Keyed())

	key, err := h.Key("555-123-4567")
	require.NoError(t, err)
	plain, err := Hash("5551234567")
	require.NoError(t, err)
	assert.Equal(t, plain, key)
}

func TestHasher_Peppered(t *testing.T) {
	h := NewHasher("pepper-1")
	assert.True(t, h.Keyed())

	key, err := h.Key("(555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, "a6ef72493520f3d026f3984aab99f0f3a5a06e0570e17b1436c570aa8216f6d2", key)

	plain, err := Hash("5551234567")
	require.NoError(t, err)
	assert.NotEqual(t, plain, key)

	other, err := NewHasher("pepper-2").Key("5551234567")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = h.Key("12345")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestDisplayIdentity(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{"0000000000", "Alex A."},
		{"5551234567", "Dana H."},
		{"9999999999", "Kai A."},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			got, err := DisplayIdentity(tt.phone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayIdentity_DependsOnlyOnDigitSum(t *testing.T) {
	a, err := DisplayIdentity("5551234567")
	require.NoError(t, err)
	b, err := DisplayIdentity("7654321555")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDisplayIdentity_InvalidPhone(t *testing.T) {
	_, err := DisplayIdentity("555-1234")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}
