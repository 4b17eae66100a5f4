package response

// Коды ошибок API. Details заполняется в обработчике.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeAuthentication  = "authentication_failed"
	CodeNotFound        = "not_found"
	CodeGiftExists      = "gift_exists"
	CodeGiftLocked      = "gift_locked"
	CodeVersionConflict = "version_conflict"
	CodeInvalidContent  = "invalid_content"
	CodeInvalidFile     = "invalid_file"
	CodeFileTooLarge    = "file_too_large"
	CodeScrapeFailed    = "scrape_failed"
	CodeUnavailable     = "service_unavailable"
	CodeInternal        = "internal_error"
)

// RetryMessage текст для ошибок ввода-вывода, которые стоит повторить.
const RetryMessage = "Не удалось выполнить операцию, попробуйте ещё раз"

func InvalidRequest(details string) ErrorResponse {
	return ErrorResponseWithDetails(CodeInvalidRequest, details)
}
