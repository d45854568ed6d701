package cryptox

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const (
	// DefaultMinPasswordLength is the minimum length accepted by the default policy.
	DefaultMinPasswordLength = 8

	// MaxPasswordLength bounds the work a single hash or estimate can cost.
	MaxPasswordLength = 256

	// MaxScore is the top of the advisory strength scale.
	MaxScore = 4

	// minInputLength is the shortest name/email fragment checked against a password.
	minInputLength = 4

	// estimateRunes caps how much of a password is fed to zxcvbn.
	estimateRunes = 64
)

// Messages reported in StrengthResult.Errors.
const (
	MsgTooLong          = "Password must be at most 256 characters long"
	MsgMissingUppercase = "Password must contain at least one uppercase letter"
	MsgMissingLowercase = "Password must contain at least one lowercase letter"
	MsgMissingNumber    = "Password must contain at least one number"
	MsgTooCommon        = "Password is too common"
	MsgContainsInputs   = "Password must not contain your name or email"
)

// MsgTooShort returns the length violation message for min.
func MsgTooShort(min int) string {
	return fmt.Sprintf("Password must be at least %d characters long", min)
}

// DefaultDenylist holds common passwords and patterns rejected by default.
var DefaultDenylist = []string{
	"password",
	"password1",
	"password123",
	"passw0rd",
	"123456",
	"12345678",
	"123456789",
	"1234567890",
	"111111",
	"000000",
	"qwerty",
	"qwerty123",
	"qwertyuiop",
	"asdfghjkl",
	"abc123",
	"letmein",
	"welcome",
	"admin",
	"admin123",
	"administrator",
	"iloveyou",
	"monkey",
	"dragon",
	"football",
	"baseball",
	"sunshine",
	"princess",
	"changeme",
	"trustno1",
	"master",
	"login",
	"starwars",
	"secret",
}

// StrengthResult is the outcome of validating a candidate password. It is a
// normal result, not an error: callers render Errors and Suggestions as
// field-level messages.
type StrengthResult struct {
	IsValid     bool     `json:"is_valid"`
	Score       int      `json:"score"` // 0..4, advisory only
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`

	// Informational estimate, never used to decide validity.
	Entropy   float64 `json:"entropy"`
	CrackTime string  `json:"crack_time,omitempty"`
}

// StrengthValidator scores and validates candidate passwords against
// composition rules and a denylist. It is safe for concurrent use.
type StrengthValidator struct {
	MinLength int
	denylist  map[string]struct{}
}

// NewStrengthValidator builds a validator from a policy. A zero Policy gives
// the default rules and denylist.
func NewStrengthValidator(p Policy) *StrengthValidator {
	minLength := p.MinLength
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}

	entries := p.Denylist
	if entries == nil {
		entries = DefaultDenylist
	}

	deny := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if key := normalizeEntry(e); key != "" {
			deny[key] = struct{}{}
		}
	}

	return &StrengthValidator{MinLength: minLength, denylist: deny}
}

// DefaultStrengthValidator returns a validator with the built-in policy.
func DefaultStrengthValidator() *StrengthValidator {
	return NewStrengthValidator(Policy{})
}

// Validate checks plaintext against every rule and reports all violations.
func (v *StrengthValidator) Validate(plaintext string) StrengthResult {
	return v.ValidateWithInputs(plaintext)
}

// ValidateWithInputs is Validate with an extra rule rejecting passwords that
// contain any of the user's own details (email, email local part, name).
func (v *StrengthValidator) ValidateWithInputs(plaintext string, inputs ...string) StrengthResult {
	if v == nil {
		v = DefaultStrengthValidator()
	}

	length := utf8.RuneCountInString(plaintext)
	classes := classify(plaintext)
	common := v.IsCommon(plaintext)

	var errs, hints []string

	if length < v.MinLength {
		errs = append(errs, MsgTooShort(v.MinLength))
		hints = append(hints, fmt.Sprintf("Increase the length to at least %d characters", v.MinLength))
	}
	if length > MaxPasswordLength {
		errs = append(errs, MsgTooLong)
		hints = append(hints, "Use a shorter passphrase")
	}
	if !classes.upper {
		errs = append(errs, MsgMissingUppercase)
		hints = append(hints, "Add an uppercase letter")
	}
	if !classes.lower {
		errs = append(errs, MsgMissingLowercase)
		hints = append(hints, "Add a lowercase letter")
	}
	if !classes.digit {
		errs = append(errs, MsgMissingNumber)
		hints = append(hints, "Add a number")
	}
	if common {
		errs = append(errs, MsgTooCommon)
		hints = append(hints, "Avoid common passwords and simple variations of them")
	}
	if containsInputs(plaintext, inputs) {
		errs = append(errs, MsgContainsInputs)
		hints = append(hints, "Avoid using your name or email address")
	}
	if len(errs) > 0 && !classes.symbol {
		hints = append(hints, "Add a symbol such as ! or #")
	}

	res := StrengthResult{
		IsValid:     len(errs) == 0,
		Score:       v.score(length, classes.count(), common),
		Errors:      errs,
		Suggestions: hints,
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	if res.Suggestions == nil {
		res.Suggestions = []string{}
	}

	if plaintext != "" {
		est := zxcvbn.PasswordStrength(truncateRunes(plaintext, estimateRunes), inputs)
		res.Entropy = est.Entropy
		res.CrackTime = est.CrackTimeDisplay
	}

	return res
}

// IsCommon reports whether plaintext matches or closely resembles a
// denylist entry (case, separators, trailing digits and leet substitutions
// are ignored).
func (v *StrengthValidator) IsCommon(plaintext string) bool {
	if v == nil || len(v.denylist) == 0 {
		return false
	}
	for _, candidate := range candidates(plaintext) {
		if _, ok := v.denylist[candidate]; ok {
			return true
		}
	}
	return false
}

// score is monotonically non-decreasing in length and class count for a
// fixed denylist verdict.
func (v *StrengthValidator) score(length, classCount int, common bool) int {
	if common {
		return 0
	}
	s := 0
	if length >= v.MinLength {
		s++
	}
	if length >= 12 {
		s++
	}
	if length >= 16 {
		s++
	}
	if classCount >= 3 {
		s++
	}
	if classCount == 4 {
		s++
	}
	return min(s, MaxScore)
}

type charClasses struct {
	upper, lower, digit, symbol bool
}

func (c charClasses) count() int {
	n := 0
	for _, ok := range []bool{c.upper, c.lower, c.digit, c.symbol} {
		if ok {
			n++
		}
	}
	return n
}

func classify(s string) charClasses {
	var c charClasses
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			c.symbol = true
		}
	}
	return c
}

var leet = strings.NewReplacer(
	"@", "a",
	"4", "a",
	"0", "o",
	"1", "i",
	"!", "i",
	"3", "e",
	"5", "s",
	"$", "s",
	"7", "t",
)

// normalizeEntry reduces a denylist entry to lowercase letters and digits.
func normalizeEntry(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// candidates lists the reduced forms of a password compared to the denylist.
func candidates(plaintext string) []string {
	lower := strings.ToLower(strings.TrimSpace(plaintext))
	plain := normalizeEntry(lower)
	stripped := strings.TrimRightFunc(plain, unicode.IsDigit)

	// Undo leet on the part before any trailing digits/symbols.
	head := strings.TrimRightFunc(lower, func(r rune) bool {
		return unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
	unleet := normalizeEntry(leet.Replace(head))

	out := make([]string, 0, 5)
	for _, c := range []string{plain, stripped, unleet, strings.ReplaceAll(unleet, "i", "l")} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func containsInputs(plaintext string, inputs []string) bool {
	if len(inputs) == 0 {
		return false
	}
	lower := strings.ToLower(plaintext)
	for _, in := range inputs {
		for _, part := range inputParts(in) {
			if utf8.RuneCountInString(part) >= minInputLength && strings.Contains(lower, part) {
				return true
			}
		}
	}
	return false
}

// inputParts splits "Jane Doe" or "jane.doe@example.com" into comparable pieces.
func inputParts(in string) []string {
	in = strings.ToLower(strings.TrimSpace(in))
	if in == "" {
		return nil
	}
	if local, _, ok := strings.Cut(in, "@"); ok {
		in = local
	}
	parts := strings.FieldsFunc(in, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return append(parts, in)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
