package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_GetProfile(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	assert.Equal(t, "default", getProfile())

	t.Setenv("AWS_PROFILE", "signer")
	assert.Equal(t, "signer", getProfile())
}
