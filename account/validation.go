package account

import (
	"html"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/microcosm-cc/bluemonday"
)

// ValidationErrors collects every field problem of one submission.
type ValidationErrors []*apperrors.ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(v))
	for _, e := range v {
		out = append(out, e)
	}
	return out
}

// Fields maps field names to their message, for inline rendering.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{7,20}$`)
	zipPattern   = regexp.MustCompile(`^[A-Za-z0-9 \-]{2,12}$`)
)

// Sanitizer strips markup from free-text form input.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean removes every tag from s and trims surrounding space. Entities the
// policy escapes are restored since the value is stored as text, not HTML.
func (s *Sanitizer) Clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

type fieldRule struct {
	field    string
	value    *string
	maxLen   int
	required bool
	check    func(string) string
}

// Validate cleans every present field of u in place and checks it. It
// returns ValidationErrors when any field is invalid.
func (s *Sanitizer) Validate(u *Update) error {
	var rules []fieldRule
	if p := u.Personal; p != nil {
		rules = append(rules,
			fieldRule{field: "personal.name", value: p.Name, maxLen: 100, required: true},
			fieldRule{field: "personal.phone", value: p.Phone, maxLen: 20, check: checkPattern(phonePattern, "Enter a valid phone number")},
		)
	}
	if b := u.Business; b != nil {
		rules = append(rules,
			fieldRule{field: "business.company_name", value: b.CompanyName, maxLen: 200},
			fieldRule{field: "business.registration_number", value: b.RegistrationNumber, maxLen: 50},
			fieldRule{field: "business.business_address", value: b.BusinessAddress, maxLen: 500},
			fieldRule{field: "business.state_province", value: b.StateProvince, maxLen: 100},
			fieldRule{field: "business.city", value: b.City, maxLen: 100},
			fieldRule{field: "business.zip_code", value: b.ZipCode, maxLen: 12, check: checkPattern(zipPattern, "Enter a valid zip or postal code")},
			fieldRule{field: "business.country", value: b.Country, required: true, check: checkCountry},
		)
	}

	var problems ValidationErrors
	for _, r := range rules {
		if r.value == nil {
			continue
		}
		*r.value = s.Clean(*r.value)
		if msg := r.validate(*r.value); msg != "" {
			problems = append(problems, &apperrors.ValidationError{Field: r.field, Message: msg})
		}
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (r fieldRule) validate(v string) string {
	if v == "" {
		if r.required {
			return "This field is required"
		}
		return ""
	}
	if r.maxLen > 0 && utf8.RuneCountInString(v) > r.maxLen {
		return "This field is too long"
	}
	if r.check != nil {
		return r.check(v)
	}
	return ""
}

func checkPattern(re *regexp.Regexp, msg string) func(string) string {
	return func(v string) string {
		if !re.MatchString(v) {
			return msg
		}
		return ""
	}
}

func checkCountry(v string) string {
	if !knownCountry(v) {
		return "Select a country from the list"
	}
	return ""
}

// ValidateEmailChange checks a requested new address against the current one.
func ValidateEmailChange(current, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return "", &apperrors.ValidationError{Field: "email", Message: "Please enter a new email address"}
	}
	addr, err := mail.ParseAddress(requested)
	if err != nil || addr.Address != requested || !strings.Contains(requested[strings.LastIndex(requested, "@")+1:], ".") {
		return "", &apperrors.ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	if strings.EqualFold(requested, strings.TrimSpace(current)) {
		return "", &apperrors.ValidationError{Field: "email", Message: "New email must be different from current email"}
	}
	return requested, nil
}
