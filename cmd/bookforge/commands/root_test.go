// ABOUTME: Tests for root command wiring
// ABOUTME: Verifies subcommand registration and persistent flags

package commands

import "testing"

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"new", "generate", "status", "usage", "mcp", "version"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	root := NewRootCmd()
	for _, flag := range []string{"quiet", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag %q missing", flag)
		}
	}
}
