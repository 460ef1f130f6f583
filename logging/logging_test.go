package logging

import (
	"testing"

	"go.viam.com/test"
)

func TestNewTestLoggerNotNil(t *testing.T) {
	logger := NewTestLogger(t)
	test.That(t, logger, test.ShouldNotBeNil)
}

func TestNewDevelopmentLoggerNotNil(t *testing.T) {
	logger := NewDevelopmentLogger("test")
	test.That(t, logger, test.ShouldNotBeNil)
}
