package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.WarnLevel)

	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"INFO":    logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
	}
	for in, want := range cases {
		if err := SetLogLevel(in); err != nil {
			t.Fatalf("set level %q: %v", in, err)
		}
		if Log.GetLevel() != want {
			t.Fatalf("level %q: got %v want %v", in, Log.GetLevel(), want)
		}
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Fatalf("expected invalid level to fail")
	}
}
