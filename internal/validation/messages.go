package validation

// CodeValidationError is the machine code attached to every schema violation.
const CodeValidationError = "VALIDATION_ERROR"

// MsgUnknownValidationError is returned when a failure cannot be tied to a
// schema violation.
const MsgUnknownValidationError = "Unknown validation error"

// Register/login field messages.
const (
	MsgNameRequired      = "Name is required"
	MsgNameMinLength     = "Name must be at least 2 characters long"
	MsgNameMaxLength     = "Name cannot exceed 50 characters"
	MsgNameInvalidFormat = "Name can only contain letters and spaces"

	MsgLastnameRequired      = "Last name is required"
	MsgLastnameMinLength     = "Last name must be at least 2 characters long"
	MsgLastnameMaxLength     = "Last name cannot exceed 50 characters"
	MsgLastnameInvalidFormat = "Last name can only contain letters and spaces"

	MsgEmailRequired      = "Email is required"
	MsgEmailInvalidFormat = "Must be a valid email"
	MsgEmailMaxLength     = "Email cannot exceed 100 characters"

	MsgPasswordRequired      = "Password is required"
	MsgPasswordMinLength     = "Password must be at least 8 characters long"
	MsgPasswordMaxLength     = "Password cannot exceed 128 characters"
	MsgPasswordInvalidFormat = "Password must contain at least: 1 lowercase, 1 uppercase, 1 number and 1 special character"
)
