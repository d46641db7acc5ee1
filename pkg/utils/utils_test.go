package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenUniqID(t *testing.T) {
	SetupIDWorker(1)

	a, b := GenUniqID(), GenUniqID()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func Test_ParseAcceptLanguage(t *testing.T) {
	res := ParseAcceptLanguage("en;q=0.7,zh-CN,zh;q=0.9")
	assert.Len(t, res, 3)
	assert.Equal(t, "zh-CN", res[0].Tag)
	assert.Equal(t, "zh", res[1].Tag)
	assert.Equal(t, "en", res[2].Tag)
}

func TestSessionTitle(t *testing.T) {
	assert.Equal(t, "I'm feeling anxious about exams", SessionTitle("I'm feeling anxious about exams", 50))
	assert.Equal(t, "hello world", SessionTitle("  hello \n world ", 50))

	long := strings.Repeat("a", 60)
	assert.Equal(t, strings.Repeat("a", 50)+"...", SessionTitle(long, 50))

	cn := strings.Repeat("焦虑", 30)
	title := SessionTitle(cn, 50)
	assert.Equal(t, 53, CountChars(title))
	assert.True(t, strings.HasSuffix(title, "..."))
}

func TestIsUUIDShape(t *testing.T) {
	assert.True(t, IsUUIDShape(NewSessionID()))
	assert.True(t, IsUUIDShape("123E4567-E89B-12D3-A456-426614174000"))

	for _, in := range []string{"", "abc", "{123e4567-e89b-12d3-a456-426614174000}", "urn:uuid:123e4567-e89b-12d3-a456-426614174000", "123e4567e89b12d3a456426614174000", "123e4567-e89b-12d3-a456-42661417400g"} {
		assert.False(t, IsUUIDShape(in), in)
	}
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}
