package types

import "math"

// PageOffset returns the row offset of a 1 based page. It saturates at math.MaxInt64,
// so an absurd page reads as past the end instead of wrapping around.
func PageOffset(page, pageSize uint64) uint64 {
	if page <= 1 || pageSize == 0 {
		return 0
	}
	if page-1 > math.MaxInt64/pageSize {
		return math.MaxInt64
	}
	return (page - 1) * pageSize
}

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_CN_KEY = "zh-CN"
)

const (
	DEFAULT_APPID = "mindwell"
)
