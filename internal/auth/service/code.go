package service

import (
	"fmt"
	"strings"

	"github.com/jblukach/lunker/internal/auth/constants"
)

// ParseCode extracts the authorization code from a raw callback query string.
// The query must start with "code=" and the rest of it is the code, which may
// only contain ASCII letters, digits, '=' and '-'.
func ParseCode(rawQuery string) (string, error) {
	if !strings.HasPrefix(rawQuery, constants.CodeQueryPrefix) {
		return "", ErrMissingCode
	}
	code := strings.TrimPrefix(rawQuery, constants.CodeQueryPrefix)
	if code == "" {
		return "", ErrMissingCode
	}
	for i := 0; i < len(code); i++ {
		if !validCodeByte(code[i]) {
			return "", fmt.Errorf("%w: disallowed character at offset %d", ErrInvalidCodeFormat, i)
		}
	}
	return code, nil
}

func validCodeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '=' || c == '-':
		return true
	}
	return false
}
