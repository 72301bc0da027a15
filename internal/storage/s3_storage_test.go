package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passport.pdf", sanitizeFilename("passport.pdf"))
	assert.Equal(t, "passport.pdf", sanitizeFilename("../../etc/passport.pdf"))
	assert.Equal(t, "passport.pdf", sanitizeFilename("C:\\Users\\me\\passport.pdf"))
	assert.Equal(t, "my_id_card.jpg", sanitizeFilename("my id card.jpg"))
	assert.Equal(t, "_____.png", sanitizeFilename("удост.png"))
}
