package policy

import (
	"os"

	"gopkg.in/yaml.v3"
)

func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return nil, err
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, err
	}

	if policy.Program == "" {
		policy.Program = "mo"
	}
	if policy.DeadlineSeconds <= 0 {
		policy.DeadlineSeconds = 120
	}

	return &policy, nil
}

// DefaultPolicy covers the stock Mole CLI surface: read-only subcommands
// run freely, maintenance subcommands are gated, and the ones with a real
// preview mode are marked dry-run-capable.
func DefaultPolicy() *Policy {
	return &Policy{
		Version: "0.1",
		Program: "mo",
		SafePrefixes: []string{
			"status", "analyze", "list", "info", "help", "version", "doctor",
		},
		DestructivePrefixes: []string{
			"clean", "uninstall", "purge", "remove", "reset", "optimize",
		},
		DryRunCapable: []string{
			"clean", "uninstall", "purge", "remove",
		},
		DeadlineSeconds: 120,
	}
}
