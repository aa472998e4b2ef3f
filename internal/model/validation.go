package model

import "fmt"

// ValidationCode identifies one pre-send rule violation.
type ValidationCode string

const (
	CodeEmptyRecipientList     ValidationCode = "EMPTY_RECIPIENT_LIST"
	CodeDuplicateRecipient     ValidationCode = "DUPLICATE_RECIPIENT"
	CodeInvalidPhoneNumber     ValidationCode = "INVALID_PHONE_NUMBER"
	CodeNoChannelProfile       ValidationCode = "NO_CHANNEL_PROFILE_SELECTED"
	CodeMissingVariableValue   ValidationCode = "MISSING_VARIABLE_VALUE"
	CodeVariableValueTooLong   ValidationCode = "VARIABLE_VALUE_TOO_LONG"
	CodeBodyTooLong            ValidationCode = "BODY_TOO_LONG"
	CodeSubjectTooLong         ValidationCode = "SUBJECT_TOO_LONG"
	CodeTooManyButtons         ValidationCode = "TOO_MANY_BUTTONS"
	CodeButtonNameTooLong      ValidationCode = "BUTTON_NAME_TOO_LONG"
	CodeInvalidButtonURL       ValidationCode = "INVALID_BUTTON_URL"
	CodeTooManyImages          ValidationCode = "TOO_MANY_IMAGES"
	CodeImageTooLarge          ValidationCode = "IMAGE_TOO_LARGE"
	CodeUnsupportedImageType   ValidationCode = "UNSUPPORTED_IMAGE_TYPE"
	CodeOutsideAdWindow        ValidationCode = "OUTSIDE_AD_WINDOW"
	CodeTemplateRequired       ValidationCode = "TEMPLATE_REQUIRED"
	CodeTemplateNotApproved    ValidationCode = "TEMPLATE_NOT_APPROVED"
	CodeTemplateNameRequired   ValidationCode = "TEMPLATE_NAME_REQUIRED"
	CodeImageRequired          ValidationCode = "IMAGE_REQUIRED"
	CodeFeedEndDateTooFar      ValidationCode = "FEED_END_DATE_TOO_FAR"
	CodeFeedEndDateRequired    ValidationCode = "FEED_END_DATE_REQUIRED"
	CodeBlockContactRequired   ValidationCode = "BLOCK_CONTACT_REQUIRED"
	CodeUnknownChannel         ValidationCode = "UNKNOWN_CHANNEL"
	CodeDispatchNotConfirmed   ValidationCode = "DISPATCH_NOT_CONFIRMED"
)

// ValidationError is one batch-level rule violation. Validators return every
// violation, not just the first, so the caller can present a complete set.
type ValidationError struct {
	Code    ValidationCode `json:"code"`
	Field   string         `json:"field,omitempty"` // variable name, button index, etc.
	Message string         `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Violation builds a ValidationError.
func Violation(code ValidationCode, field, format string, args ...any) ValidationError {
	return ValidationError{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
