package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactPhone(t *testing.T) {
	assert.Equal(t, "***67", RedactPhone("+15551234567"))
	assert.Equal(t, "***", RedactPhone("12"))
}

func TestRedactPIIValue(t *testing.T) {
	assert.Equal(t, "bu***@example.com", redactPIIValue("user_email", "buyer@example.com"))
	assert.Equal(t, "***21", RedactPhone("555-4321"))
	// Emails embedded in generic fields are still masked.
	assert.Equal(t, "contact is bu***@example.com", redactPIIValue("note", "contact is buyer@example.com"))
	// Non-PII fields pass through.
	assert.Equal(t, "act_123", redactPIIValue("account", "act_123"))
}
