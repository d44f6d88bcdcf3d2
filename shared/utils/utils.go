package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountNumberWidth is the fixed number of digits in an account number.
const AccountNumberWidth = 10

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// GenerateTransactionID returns a random 128-bit identifier rendered as 32 hex
// characters without separators.
func GenerateTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// FormatAccountNumber renders n zero-padded to the fixed account number width.
func FormatAccountNumber(n int64) string {
	return fmt.Sprintf("%0*d", AccountNumberWidth, n)
}

// ParseAccountNumber parses an account number produced by FormatAccountNumber.
func ParseAccountNumber(s string) (int64, error) {
	if !ValidateAccountNumber(s) {
		return 0, fmt.Errorf("invalid account number %q", s)
	}
	return strconv.ParseInt(s, 10, 64)
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidateAccountNumber validates the account number format
func ValidateAccountNumber(accountNumber string) bool {
	if len(accountNumber) != AccountNumberWidth {
		return false
	}
	for _, r := range accountNumber {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateUserID validates the user ID format
func ValidateUserID(userID string) bool {
	return strings.HasPrefix(userID, "usr-")
}

// ValidateTransactionID validates the transaction ID format
func ValidateTransactionID(transactionID string) bool {
	if len(transactionID) != 32 {
		return false
	}
	_, err := uuid.Parse(transactionID)
	return err == nil
}
