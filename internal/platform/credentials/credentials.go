// Package credentials generates login e-mail/password pairs for stores and agents
// and renders the e-mail that delivers them.
package credentials

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html/template"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/retail-ops/internal/shared/failure"
)

const (
	// PasswordLength is the length of generated passwords.
	PasswordLength = 12
	// MaxEmailAttempts bounds the check-and-regenerate loop for login e-mails.
	MaxEmailAttempts = 10

	passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%&*"
)

// ErrEmailExhausted is returned when no unused login e-mail was found.
var ErrEmailExhausted = fmt.Errorf("%w: could not generate a unique login e-mail", failure.ErrConflict)

// Generator produces credentials. Random is injectable for tests.
type Generator struct {
	Domain string
	Random func(max int64) (int64, error)
}

// NewGenerator builds a generator for the given login domain.
func NewGenerator(domain string) *Generator {
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain == "" {
		domain = "retail-ops.local"
	}
	return &Generator{Domain: domain, Random: cryptoInt}
}

// LoginEmail builds <slug(part0)>.<slug(part1)>...<4 digits>@<domain>.
func (g *Generator) LoginEmail(parts ...string) (string, error) {
	slugs := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := Slug(part); s != "" {
			slugs = append(slugs, s)
		}
	}
	if len(slugs) == 0 {
		slugs = append(slugs, "user")
	}
	n, err := g.Random(10000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d@%s", strings.Join(slugs, "."), n, g.Domain), nil
}

// UniqueLoginEmail regenerates until taken reports false, at most MaxEmailAttempts times.
func (g *Generator) UniqueLoginEmail(ctx context.Context, taken func(context.Context, string) (bool, error), parts ...string) (string, error) {
	for attempt := 0; attempt < MaxEmailAttempts; attempt++ {
		email, err := g.LoginEmail(parts...)
		if err != nil {
			return "", err
		}
		exists, err := taken(ctx, email)
		if err != nil {
			return "", err
		}
		if !exists {
			return email, nil
		}
	}
	return "", ErrEmailExhausted
}

// Password returns a random PasswordLength-character password.
func (g *Generator) Password() (string, error) {
	var b strings.Builder
	b.Grow(PasswordLength)
	for i := 0; i < PasswordLength; i++ {
		n, err := g.Random(int64(len(passwordAlphabet)))
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n])
	}
	return b.String(), nil
}

// Hash stores only the bcrypt hash of the password.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Slug lowercases s and keeps ASCII letters and digits only.
func Slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Email is a rendered credential e-mail.
type Email struct {
	To      string
	Subject string
	HTML    string
}

var bodyTemplate = template.Must(template.New("credentials").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif">
<p>Hello {{.Name}},</p>
<p>Your {{.Role}} account has been created. Sign in with:</p>
<table>
<tr><td>E-mail</td><td><strong>{{.LoginEmail}}</strong></td></tr>
<tr><td>Password</td><td><strong>{{.Password}}</strong></td></tr>
</table>
<p>Please change the password after your first sign-in.</p>
</body>
</html>`))

// Render builds the e-mail for a freshly provisioned account.
func Render(to, name, role, loginEmail, password string) (Email, error) {
	if strings.TrimSpace(to) == "" {
		return Email{}, errors.New("recipient is required")
	}
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, map[string]string{
		"Name":       name,
		"Role":       role,
		"LoginEmail": loginEmail,
		"Password":   password,
	})
	if err != nil {
		return Email{}, err
	}
	return Email{To: to, Subject: fmt.Sprintf("Your %s account credentials", role), HTML: buf.String()}, nil
}

func cryptoInt(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}
