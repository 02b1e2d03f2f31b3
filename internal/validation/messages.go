package validation

// messages maps "<field>.<rule>" to the text shown to the user. A key
// prefixed with the command name ("<Command>.<field>.<rule>") wins over the
// plain field key.
var messages = map[string]string{
	"name.required":     "Please enter your name",
	"name.min":          "Your name must contain at least 2 characters",
	"name.max":          "Your name must not exceed 20 characters",
	"name.nobrackets":   "Your name must not contain < or >",
	"name.alphaunicode": "Your name must contain only letters",

	"email.required": "Please enter your email address",
	"email.email":    "Please enter a valid email address",

	"password.required": "Please enter your password",
	"password.min":      "Your password must contain at least 6 characters",
	"password.eqfield":  "The passwords do not match",
	"password.nefield":  "The new password must be different from the old one",
	"password.password": "Your password must contain at least one lowercase letter, one uppercase letter, one digit and one special character (@$!%*?&)",

	"oldPassword.required": "Please enter your old password",

	"ChangePasswordCommand.password.required":        "Please enter your new password",
	"CompletePasswordResetCommand.password.required": "Please enter your new password",
	"DeleteAccountCommand.password.required":         MsgDeletePasswordNeed,
}

// Messages for checks that need the user store. They share the field-keyed
// shape of the declarative rules.
const (
	MsgEmailTaken         = "This email is already associated with an account"
	MsgEmailUnknown       = "This email is not associated with an account"
	MsgOldPasswordWrong   = "The old password is incorrect"
	MsgPasswordWrong      = "The password is incorrect"
	MsgDeletePasswordNeed = "A password is required to delete an account"
)
