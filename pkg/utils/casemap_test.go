package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kasuganosora/sqlexec/pkg/utils"
)

func TestToUpperEnglish(t *testing.T) {
	assert.Equal(t, "HELLO", utils.ToUpperEnglish("hello"))
	assert.Equal(t, "HELLO", utils.ToUpperEnglish("hello"), "repeated call must hit the cache with the same result")
}

func TestToLowerEnglish(t *testing.T) {
	assert.Equal(t, "hello", utils.ToLowerEnglish("HELLO"))
}

func TestToUpperEnglish_BeyondCacheKeyLen(t *testing.T) {
	long := strings.Repeat("a", 200)
	assert.Equal(t, strings.ToUpper(long), utils.ToUpperEnglish(long))
}
