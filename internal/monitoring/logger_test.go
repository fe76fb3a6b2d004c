package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	// Save original logger
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestEventf(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var gotFormat string
	SetLogger(func(format string, v ...interface{}) {
		gotFormat = format
	})

	Eventf("stall", "rpm=%0.f", 120.0)
	if gotFormat != "event stall: rpm=%0.f" {
		t.Errorf("Eventf format = %q", gotFormat)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}
