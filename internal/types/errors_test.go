package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (s *ErrorTestSuite) TestNewPlatformError() {
	// Setup
	code := ErrNotFound
	message := "book not found"

	// Execute
	err := NewPlatformError(code, message)

	// Assert
	s.Equal(code, err.Code, "Error code should match")
	s.Equal(message, err.Message, "Error message should match")
	s.Nil(err.Err, "Underlying error should be nil")
}

func (s *ErrorTestSuite) TestWrapError() {
	// Setup
	code := ErrDatabaseError
	message := "failed to save wallet"
	underlying := errors.New("connection failed")

	// Execute
	err := WrapError(code, message, underlying)

	// Assert
	s.Equal(code, err.Code, "Error code should match")
	s.Equal(message, err.Message, "Error message should match")
	s.Equal(underlying, err.Err, "Underlying error should match")
}

func (s *ErrorTestSuite) TestErrorString() {
	testCases := []struct {
		name     string
		err      *PlatformError
		expected string
	}{
		{
			name:     "Simple error",
			err:      NewPlatformError(ErrInsufficientBalance, "insufficient balance"),
			expected: "INSUFFICIENT_BALANCE: insufficient balance",
		},
		{
			name:     "Wrapped error",
			err:      WrapError(ErrDatabaseError, "failed to save wallet", errors.New("connection failed")),
			expected: "DATABASE_ERROR: failed to save wallet (connection failed)",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, tc.err.Error(), "Error string should match expected format")
		})
	}
}

func (s *ErrorTestSuite) TestIsPlatformError() {
	// Setup
	platformErr := NewPlatformError(ErrAlreadyClaimed, "reward already claimed")
	regularErr := errors.New("regular error")

	// Test cases
	testCases := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{
			name:     "Matching platform error",
			err:      platformErr,
			code:     ErrAlreadyClaimed,
			expected: true,
		},
		{
			name:     "Non-matching platform error",
			err:      platformErr,
			code:     ErrNotEligible,
			expected: false,
		},
		{
			name:     "Regular error",
			err:      regularErr,
			code:     ErrAlreadyClaimed,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			code:     ErrAlreadyClaimed,
			expected: false,
		},
	}

	// Execute and assert
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			result := IsPlatformError(tc.err, tc.code)
			s.Equal(tc.expected, result, "IsPlatformError result should match expected value")
		})
	}
}

func (s *ErrorTestSuite) TestAs() {
	// Setup
	platformErr := NewPlatformError(ErrNotFound, "book not found")
	regularErr := errors.New("regular error")

	// Test cases
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Platform error",
			err:      platformErr,
			expected: true,
		},
		{
			name:     "Regular error",
			err:      regularErr,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	// Execute and assert
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			var target *PlatformError
			result := As(tc.err, &target)
			s.Equal(tc.expected, result, "As result should match expected value")
			if tc.expected {
				s.Equal(platformErr, target, "Target should be set to the platform error")
			}
		})
	}
}
