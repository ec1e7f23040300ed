package util

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandUser(t *testing.T) {
	assert.Equal(t, os.ExpandEnv("$HOME/abc"), ExpandUser("~/abc"))
	assert.Equal(t, os.Getenv("HOME"), ExpandUser("~"))
	assert.Equal(t, "/dev/ttyS0", ExpandUser("/dev/ttyS0"))
	assert.Equal(t, "~abc", ExpandUser("~abc"))
}
