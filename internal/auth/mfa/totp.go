package mfa

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

const (
	defaultIssuer          = "Secure Auth"
	defaultBackupCodeCount = 10
	defaultQRCodeSize      = 256

	// Codes are accepted for the previous, current, and next 30-second step
	// to absorb client clock skew.
	totpPeriod = 30
	totpSkew   = 1

	backupCodeMin = 10_000_000
	backupCodeMax = 99_999_999
)

// Option allows customising the TOTP engine.
type Option func(*Engine)

// WithIssuer overrides the issuer string encoded in provisioning URIs.
func WithIssuer(issuer string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(issuer) != "" {
			e.issuer = issuer
		}
	}
}

// WithBackupCodeCount overrides the number of backup codes generated per pool.
func WithBackupCodeCount(count int) Option {
	return func(e *Engine) {
		if count > 0 {
			e.backupCodes = count
		}
	}
}

// WithClock injects a custom clock, primarily for testing.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// Engine generates MFA secrets and backup codes and validates submitted
// codes. It holds no storage; callers persist the staged material.
type Engine struct {
	issuer      string
	backupCodes int
	qrCodeSize  int
	now         func() time.Time
}

// NewEngine constructs a TOTP engine with defaults applied.
func NewEngine(opts ...Option) *Engine {
	engine := &Engine{
		issuer:      defaultIssuer,
		backupCodes: defaultBackupCodeCount,
		qrCodeSize:  defaultQRCodeSize,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// Enrollment is the staged material produced by Setup.
type Enrollment struct {
	Secret      string
	BackupCodes []string
	QRCode      string // PNG data URL suitable for an <img> tag
}

// Setup generates a fresh secret, backup-code pool, and enrollment image for
// the given account. Nothing is persisted here; the caller stages the result.
func (e *Engine) Setup(email string) (*Enrollment, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("mfa: email is required")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: email,
		Period:      totpPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("mfa: generate key: %w", err)
	}

	codes, err := e.GenerateBackupCodes()
	if err != nil {
		return nil, err
	}

	image, err := e.qrDataURL(key)
	if err != nil {
		return nil, fmt.Errorf("mfa: render enrollment image: %w", err)
	}

	return &Enrollment{
		Secret:      key.Secret(),
		BackupCodes: codes,
		QRCode:      image,
	}, nil
}

// VerifyCode checks a submitted 6-digit code against the shared secret,
// accepting the previous, current, and next time step.
func (e *Engine) VerifyCode(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}

	valid, err := totp.ValidateCustom(code, secret, e.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}

// CurrentCode derives the code for the current time step. Test helper.
func (e *Engine) CurrentCode(secret string) (string, error) {
	return totp.GenerateCodeCustom(secret, e.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// GenerateBackupCodes draws a fresh pool of 8-digit numeric codes from a
// cryptographically secure source. Codes are independent draws; batch
// uniqueness is not enforced.
func (e *Engine) GenerateBackupCodes() ([]string, error) {
	codes := make([]string, e.backupCodes)
	for i := range codes {
		code, err := generateBackupCode()
		if err != nil {
			return nil, fmt.Errorf("mfa: generate backup code: %w", err)
		}
		codes[i] = code
	}
	return codes, nil
}

// ConsumeBackupCode matches code against the pool and, on success, returns
// the pool with that single entry removed. Duplicates consume one entry only.
func ConsumeBackupCode(code string, pool []string) (bool, []string) {
	code = strings.TrimSpace(code)
	for i, candidate := range pool {
		if candidate == code {
			remaining := make([]string, 0, len(pool)-1)
			remaining = append(remaining, pool[:i]...)
			remaining = append(remaining, pool[i+1:]...)
			return true, remaining
		}
	}
	return false, pool
}

// DecodePool parses a persisted JSON backup-code pool. A missing pool is an
// empty slice, not an error.
func DecodePool(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var pool []string
	if err := json.Unmarshal(raw, &pool); err != nil {
		return nil, fmt.Errorf("mfa: decode backup codes: %w", err)
	}
	return pool, nil
}

// EncodePool serialises a backup-code pool for persistence.
func EncodePool(pool []string) ([]byte, error) {
	encoded, err := json.Marshal(pool)
	if err != nil {
		return nil, fmt.Errorf("mfa: encode backup codes: %w", err)
	}
	return encoded, nil
}

func (e *Engine) qrDataURL(key *otp.Key) (string, error) {
	png, err := qrcode.Encode(key.String(), qrcode.Medium, e.qrCodeSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func generateBackupCode() (string, error) {
	span := big.NewInt(backupCodeMax - backupCodeMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+backupCodeMin), nil
}
