package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Hello", SanitizeText("  <b>Hello</b> "))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
}

func TestSanitizeRichText(t *testing.T) {
	assert.Equal(t, "<p>Hello</p>", SanitizeRichText("<p>Hello</p><script>alert('x')</script>"))
}

func TestSanitizeList(t *testing.T) {
	assert.Nil(t, SanitizeList(nil))
	assert.Equal(t, []string{"PCR", "ELISA"}, SanitizeList([]string{"PCR", " <i>ELISA</i>", "<br>"}))
}
