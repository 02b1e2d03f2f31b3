package validation

import (
	"testing"

	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/cqrs"
)

func fieldsByName(verr *apperr.ValidationError) map[string]apperr.FieldError {
	out := map[string]apperr.FieldError{}
	if verr == nil {
		return out
	}
	for _, f := range verr.Fields {
		out[f.Field] = f
	}
	return out
}

func TestIsComplexPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Abc123!", true},
		{"aB3@aB3@", true},
		{"abc123!", false},  // no uppercase
		{"ABC123!", false},  // no lowercase
		{"Abcdef!", false},  // no digit
		{"Abc1234", false},  // no symbol
		{"Abc123#", false},  // symbol outside the allowed set
		{"Abc 123!", false}, // space
		{"Àbc123!", false},  // non-ASCII letter
		{"", false},
	}
	for _, tt := range tests {
		if got := IsComplexPassword(tt.password); got != tt.want {
			t.Errorf("IsComplexPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestRegisterRules(t *testing.T) {
	tests := []struct {
		name       string
		cmd        cqrs.RegisterUserCommand
		wantFields map[string]string // field -> rule
	}{
		{
			name: "valid",
			cmd:  cqrs.RegisterUserCommand{Name: "Alice", Email: "a@x.com", Password: "Abc123!", PasswordConfirmation: "Abc123!"},
		},
		{
			name: "name with digits and spaces is allowed at registration",
			cmd:  cqrs.RegisterUserCommand{Name: "Alice 2", Email: "a@x.com", Password: "Abc123!", PasswordConfirmation: "Abc123!"},
		},
		{
			name:       "angle brackets in name",
			cmd:        cqrs.RegisterUserCommand{Name: "<b>Al</b>", Email: "a@x.com", Password: "Abc123!", PasswordConfirmation: "Abc123!"},
			wantFields: map[string]string{"name": "nobrackets"},
		},
		{
			name:       "everything missing",
			cmd:        cqrs.RegisterUserCommand{},
			wantFields: map[string]string{"name": "required", "email": "required", "password": "required"},
		},
		{
			name:       "name too short, bad email, short password",
			cmd:        cqrs.RegisterUserCommand{Name: "A", Email: "not-an-email", Password: "Ab1!", PasswordConfirmation: "Ab1!"},
			wantFields: map[string]string{"name": "min", "email": "email", "password": "min"},
		},
		{
			name:       "name too long",
			cmd:        cqrs.RegisterUserCommand{Name: "Abcdefghijklmnopqrstu", Email: "a@x.com", Password: "Abc123!", PasswordConfirmation: "Abc123!"},
			wantFields: map[string]string{"name": "max"},
		},
		{
			name:       "confirmation mismatch is reported before complexity",
			cmd:        cqrs.RegisterUserCommand{Name: "Alice", Email: "a@x.com", Password: "abcdefg", PasswordConfirmation: "abcdefh"},
			wantFields: map[string]string{"password": "eqfield"},
		},
		{
			name:       "complexity",
			cmd:        cqrs.RegisterUserCommand{Name: "Alice", Email: "a@x.com", Password: "abcdefg", PasswordConfirmation: "abcdefg"},
			wantFields: map[string]string{"password": "password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldsByName(Struct(tt.cmd))
			if len(got) != len(tt.wantFields) {
				t.Fatalf("expected %d field errors, got %+v", len(tt.wantFields), got)
			}
			for field, rule := range tt.wantFields {
				fe, ok := got[field]
				if !ok {
					t.Fatalf("expected an error on %q, got %+v", field, got)
				}
				if fe.Type != rule {
					t.Errorf("field %q: expected rule %q, got %q", field, rule, fe.Type)
				}
				if fe.Message == "" {
					t.Errorf("field %q: expected a message", field)
				}
			}
		})
	}
}

func TestUpdateProfileNameIsLettersOnly(t *testing.T) {
	if verr := Struct(cqrs.UpdateProfileCommand{Name: "Élodie", Email: "e@x.com"}); verr != nil {
		t.Fatalf("expected accented letters to pass, got %v", verr)
	}
	got := fieldsByName(Struct(cqrs.UpdateProfileCommand{Name: "Alice 2", Email: "a@x.com"}))
	if got["name"].Type != "alphaunicode" {
		t.Fatalf("expected alphaunicode failure, got %+v", got)
	}
	if got["name"].Message != "Your name must contain only letters" {
		t.Errorf("unexpected message %q", got["name"].Message)
	}
}

func TestChangePasswordMustDiffer(t *testing.T) {
	got := fieldsByName(Struct(cqrs.ChangePasswordCommand{
		OldPassword: "Abc123!", Password: "Abc123!", PasswordConfirmation: "Abc123!",
	}))
	fe, ok := got["password"]
	if !ok || fe.Type != "nefield" {
		t.Fatalf("expected nefield failure on password, got %+v", got)
	}
	if fe.Message != "The new password must be different from the old one" {
		t.Errorf("unexpected message %q", fe.Message)
	}
}

func TestCommandSpecificMessages(t *testing.T) {
	del := fieldsByName(Struct(cqrs.DeleteAccountCommand{}))
	if del["password"].Message != MsgDeletePasswordNeed {
		t.Errorf("unexpected delete message %q", del["password"].Message)
	}
	chg := fieldsByName(Struct(cqrs.ChangePasswordCommand{}))
	if chg["password"].Message != "Please enter your new password" {
		t.Errorf("unexpected change message %q", chg["password"].Message)
	}
	if chg["oldPassword"].Message != "Please enter your old password" {
		t.Errorf("unexpected old password message %q", chg["oldPassword"].Message)
	}
	reg := fieldsByName(Struct(cqrs.RegisterUserCommand{}))
	if reg["password"].Message != "Please enter your password" {
		t.Errorf("unexpected register message %q", reg["password"].Message)
	}
}

func TestCompletePasswordResetAllowsAnyCompliantPassword(t *testing.T) {
	if verr := Struct(cqrs.CompletePasswordResetCommand{Password: "Abc123!", PasswordConfirmation: "Abc123!"}); verr != nil {
		t.Fatalf("expected no errors, got %v", verr)
	}
}
