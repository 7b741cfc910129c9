//go:build darwin || freebsd

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContinueAddr(t *testing.T) {
	assert.Equal(t, uintptr(resumeInPlace), continueAddr(0), "omitted address resumes in place")
	assert.Equal(t, uintptr(resumeInPlace), continueAddr(1))
	assert.Equal(t, uintptr(0x3f50), continueAddr(0x3f50))
}
