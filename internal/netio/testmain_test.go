package netio_test

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain checks for goroutine leaks after every test in this package,
// which matters here specifically because Receiver.Run starts one
// goroutine per conn that must exit once the conn is closed.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
