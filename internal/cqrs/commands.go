package cqrs

// Field names in validation errors come from the json tags.

type RegisterUserCommand struct {
	Name                 string `json:"name" validate:"required,min=2,max=20,nobrackets"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6,eqfield=PasswordConfirmation,password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// UpdateProfileCommand deliberately uses a stricter name rule than
// registration (letters only) and does not re-check email uniqueness.
type UpdateProfileCommand struct {
	UserID string `json:"-"`
	Name   string `json:"name" validate:"required,min=2,max=20,alphaunicode"`
	Email  string `json:"email" validate:"required,email"`
}

type ChangePasswordCommand struct {
	UserID               string `json:"-"`
	OldPassword          string `json:"oldPassword" validate:"required"`
	Password             string `json:"password" validate:"required,min=6,eqfield=PasswordConfirmation,nefield=OldPassword,password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

type RequestPasswordResetCommand struct {
	Email string `json:"email" validate:"required,email"`
}

// CompletePasswordResetCommand has no "differs from old" rule: the caller
// cannot know the old password.
type CompletePasswordResetCommand struct {
	UserID               string `json:"-"`
	Token                string `json:"-"`
	Password             string `json:"password" validate:"required,min=6,eqfield=PasswordConfirmation,password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

type DeleteAccountCommand struct {
	UserID   string `json:"-"`
	Password string `json:"password" validate:"required"`
}

type LoginCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type LogoutCommand struct {
	SessionID string
}
