package subscription

import (
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"
	"github.com/rivo/uniseg"

	domainerrors "missive/pkg/domain-errors"
)

// maxNameGraphemes bounds the display name in user-perceived characters, not
// bytes, so multi-rune emoji and combining marks count once.
const maxNameGraphemes = 256

// forbiddenNameRunes would let a subscriber name smuggle markup or path
// segments into emails and admin views.
const forbiddenNameRunes = `/(){}"<>\`

// ParseIdentity turns raw form fields into a validated Identity. It is pure:
// no store access, no partial results. The name is trimmed but otherwise kept
// verbatim; the email keeps its original casing.
func ParseIdentity(rawName, rawEmail string) (Identity, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return Identity{}, domainerrors.New(domainerrors.CodeValidation, "name must not be empty")
	}
	if uniseg.GraphemeClusterCount(name) > maxNameGraphemes {
		return Identity{}, domainerrors.New(domainerrors.CodeValidation, "name must not exceed 256 characters")
	}
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(forbiddenNameRunes, r) {
			return Identity{}, domainerrors.New(domainerrors.CodeValidation, "name contains forbidden characters")
		}
	}

	if err := validateEmail(rawEmail); err != nil {
		return Identity{}, err
	}

	return Identity{Name: name, Email: rawEmail}, nil
}

// validateEmail accepts addresses of the shape local@domain.tld. The
// structural checks run first so the error stays meaningful even where the
// library grammar and ours disagree.
func validateEmail(email string) error {
	if email == "" {
		return domainerrors.New(domainerrors.CodeValidation, "email must not be empty")
	}
	at := strings.Count(email, "@")
	if at != 1 {
		return domainerrors.New(domainerrors.CodeValidation, "email must contain exactly one @")
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || domain == "" {
		return domainerrors.New(domainerrors.CodeValidation, "email is missing local part or domain")
	}
	if !strings.Contains(domain, ".") {
		return domainerrors.New(domainerrors.CodeValidation, "email domain must contain a dot")
	}
	if !govalidator.IsEmail(email) {
		return domainerrors.New(domainerrors.CodeValidation, "email is not a valid address")
	}
	return nil
}
