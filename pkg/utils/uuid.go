package utils

import (
	"regexp"

	"github.com/google/uuid"
)

// 8-4-4-4-12, hex only. uuid.Parse alone also accepts urn and braced forms.
var uuidShape = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func IsUUIDShape(s string) bool {
	return uuidShape.MatchString(s)
}

func NewSessionID() string {
	return uuid.NewString()
}
