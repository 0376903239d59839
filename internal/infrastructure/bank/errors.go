package bank

import (
	"errors"
	"fmt"
)

type BankError struct {
	Message    string
	StatusCode int
}

func (e *BankError) Error() string {
	return fmt.Sprintf("bank error: %s (status: %d)", e.Message, e.StatusCode)
}

func (e *BankError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsBankError(err error) (*BankError, bool) {
	var bankErr *BankError
	ok := errors.As(err, &bankErr)
	return bankErr, ok
}
