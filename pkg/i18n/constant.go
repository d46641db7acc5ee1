package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_PERMISSION_DENIED = "error.permission.denied"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"
	ERROR_INVALID_TOKEN     = "error.invalid.token"

	ERROR_MESSAGE_EMPTY    = "error.message.empty"
	ERROR_MESSAGE_TOO_LONG = "error.message.too_long"

	ERROR_WORKFLOW_UNAVAILABLE      = "error.workflow.unavailable"
	ERROR_WORKFLOW_STATUS           = "error.workflow.status"
	ERROR_WORKFLOW_INVALID_RESPONSE = "error.workflow.invalid_response"
)
