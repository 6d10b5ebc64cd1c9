package handlers

// Error Codes
const (
	ErrCodeRescanInProgress = "rescan_in_progress"
	ErrCodeThemeSaveFailed  = "theme_save_failed"
	ErrCodeUnknownAction    = "unknown_action"
	ErrCodeUnknown          = "unknown_error"
)

// ErrorMessages maps error codes to user-friendly messages
var ErrorMessages = map[string]string{
	ErrCodeRescanInProgress: "A rescan is already running. Please wait for it to finish.",
	ErrCodeThemeSaveFailed:  "Failed to save the theme preference.",
	ErrCodeUnknownAction:    "Unknown action.",
	ErrCodeUnknown:          "An unknown error occurred.",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code string) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return ErrorMessages[ErrCodeUnknown]
}
