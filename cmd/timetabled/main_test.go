package main

import (
	"testing"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"config", "log-level", "dev", "skip-preflight"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Error("expected positional arguments to be rejected")
	}
}
