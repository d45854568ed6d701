package cryptox

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Policy configures a StrengthValidator. A nil Denylist means DefaultDenylist;
// an empty non-nil one disables the common-password rule.
type Policy struct {
	MinLength int
	Denylist  []string
}

// Denylist modes accepted in a policy file.
const (
	DenylistExtend  = "extend"
	DenylistReplace = "replace"
)

type policyFile struct {
	MinLength    int      `yaml:"min_length"`
	DenylistMode string   `yaml:"denylist_mode"`
	Denylist     []string `yaml:"denylist"`
}

// LoadPolicyFile reads a YAML password policy:
//
//	min_length: 10
//	denylist_mode: extend   # or replace
//	denylist: [worklog, timesheet]
//
// In extend mode (the default) the entries are added to DefaultDenylist.
func LoadPolicyFile(path string) (Policy, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Policy{}, fmt.Errorf("cryptox: read policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML password policy document.
func ParsePolicy(data []byte) (Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Policy{}, fmt.Errorf("cryptox: parse policy: %w", err)
	}
	if f.MinLength < 0 || f.MinLength > MaxPasswordLength {
		return Policy{}, fmt.Errorf("cryptox: policy min_length %d out of range", f.MinLength)
	}

	p := Policy{MinLength: f.MinLength}
	switch f.DenylistMode {
	case "", DenylistExtend:
		if len(f.Denylist) > 0 {
			p.Denylist = append(append([]string{}, DefaultDenylist...), f.Denylist...)
		}
	case DenylistReplace:
		p.Denylist = append([]string{}, f.Denylist...)
	default:
		return Policy{}, fmt.Errorf("cryptox: unknown denylist_mode %q", f.DenylistMode)
	}
	return p, nil
}
