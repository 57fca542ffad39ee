package accounts

import (
	"strings"
	"unicode"

	"manualdesk/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// часто встречающиеся пароли, которые отклоняем сразу
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwerty123":  {},
	"iloveyou":   {},
	"admin123":   {},
	"letmein123": {},
	"welcome1":   {},
}

// ValidatePassword checks the password policy: minimum length, not purely
// numeric, not a common password and not containing the username.
func ValidatePassword(password, username string) error {
	var problems []string

	if len([]rune(password)) < minPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "This password is entirely numeric.")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "This password is too common.")
	}
	if u := strings.ToLower(strings.TrimSpace(username)); len(u) >= 3 && strings.Contains(strings.ToLower(password), u) {
		problems = append(problems, "The password is too similar to the username.")
	}

	if len(problems) > 0 {
		return apperr.ValidationFields("password does not meet the policy", map[string]string{
			"password": strings.Join(problems, " "),
		})
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
