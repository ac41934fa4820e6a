package user

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrOTPInvalid    = errors.New("invalid or expired verification code")
	ErrOTPCooldown   = errors.New("please wait before requesting another code")
	ErrOTPBlocked    = errors.New("too many verification requests; try again later")
	ErrAlreadyActive = errors.New("account is already verified")
)

// generateOTP returns a 6-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func otpMatches(stored, provided string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}
