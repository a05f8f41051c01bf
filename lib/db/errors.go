package db

import (
	"errors"
	"io"
	"strings"
	"syscall"
)

var retryableErrs = []error{
	syscall.ECONNRESET,
	syscall.ECONNREFUSED,
	io.EOF,
}

// Drivers do not always wrap the syscall error, so the message is checked too.
var retryableMessages = []string{
	"connection reset by peer",
	"connection refused",
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	for _, retryableErr := range retryableErrs {
		if errors.Is(err, retryableErr) {
			return true
		}
	}

	for _, msg := range retryableMessages {
		if strings.Contains(err.Error(), msg) {
			return true
		}
	}

	return false
}
