package signature

import (
	"testing"

	"github.com/ecell-portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() domain.TicketPayload {
	return domain.TicketPayload{
		TicketID:  "TK01HZXW5T9GQ4R8K2M3N4P5Q6R7",
		Email:     "bob@example.edu",
		CreatedAt: "2025-03-01T10:00:00Z",
	}
}

func TestNewCodec_EmptyKey(t *testing.T) {
	_, err := NewCodec("")
	require.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	c, err := NewCodec("test-secret")
	require.NoError(t, err)

	p := testPayload()
	sig := c.Sign(p)
	assert.NotEmpty(t, sig)
	assert.True(t, c.Verify(p, sig))
}

func TestSign_Deterministic(t *testing.T) {
	c, err := NewCodec("test-secret")
	require.NoError(t, err)

	assert.Equal(t, c.Sign(testPayload()), c.Sign(testPayload()))
}

func TestVerify_RejectsTamperedFields(t *testing.T) {
	c, err := NewCodec("test-secret")
	require.NoError(t, err)

	sig := c.Sign(testPayload())

	tampered := testPayload()
	tampered.TicketID = "TK01HZXW5T9GQ4R8K2M3N4P5Q6R8"
	assert.False(t, c.Verify(tampered, sig), "ticket id")

	tampered = testPayload()
	tampered.Email = "mallory@example.edu"
	assert.False(t, c.Verify(tampered, sig), "email")

	tampered = testPayload()
	tampered.CreatedAt = "2025-03-01T10:00:01Z"
	assert.False(t, c.Verify(tampered, sig), "created at")
}

func TestVerify_RejectsMalformedSignature(t *testing.T) {
	c, err := NewCodec("test-secret")
	require.NoError(t, err)

	p := testPayload()
	assert.False(t, c.Verify(p, ""))
	assert.False(t, c.Verify(p, "not-hex!"))
	assert.False(t, c.Verify(p, "deadbeef"))
}

func TestVerify_RejectsSignatureFromDifferentKey(t *testing.T) {
	c1, err := NewCodec("key-one")
	require.NoError(t, err)
	c2, err := NewCodec("key-two")
	require.NoError(t, err)

	p := testPayload()
	assert.False(t, c2.Verify(p, c1.Sign(p)))
}
