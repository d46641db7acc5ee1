package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLang(t *testing.T) {
	l := NewLocalizer("zh-CN", "en")

	assert.Equal(t, "Failed to connect to the workflow service", l.Get("en", ERROR_WORKFLOW_UNAVAILABLE))
	assert.Equal(t, "消息不能为空", l.Get("zh-CN", ERROR_MESSAGE_EMPTY))
	assert.Equal(t, "Message is too long (max 5000 characters)", l.GetWithData("en", ERROR_MESSAGE_TOO_LONG, map[string]interface{}{"max": 5000}))
	// client tags are matched onto the loaded bundles
	assert.Equal(t, "消息不能为空", l.Get("zh-Hans", ERROR_MESSAGE_EMPTY))
	assert.Equal(t, "Message must not be empty", l.Get("en-GB", ERROR_MESSAGE_EMPTY))
	assert.Equal(t, "Message must not be empty", l.Get("fr", ERROR_MESSAGE_EMPTY))
	// unknown ids come back unchanged
	assert.Equal(t, "error.unknown", l.Get("en", "error.unknown"))

	assert.Equal(t, ERROR_INTERNAL, NewLocalizer().Get("en", ERROR_INTERNAL))
}
