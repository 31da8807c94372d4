package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed profiles.toml
var builtinProfiles []byte

// ErrUnknownProfile is returned by Lookup for ids not in the table.
var ErrUnknownProfile = errors.New("unknown profile")

// Table is an immutable, ordered set of profiles.
type Table struct {
	profiles []Profile
	byID     map[string]int
}

type tableFile struct {
	Profiles []Profile `toml:"profile"`
}

// NewTable validates profiles, compiles their text rules, and returns a table
// holding private copies.
func NewTable(profiles []Profile) (*Table, error) {
	if len(profiles) == 0 {
		return nil, errors.New("profile table: no profiles defined")
	}

	t := &Table{
		profiles: make([]Profile, 0, len(profiles)),
		byID:     make(map[string]int, len(profiles)),
	}
	for i, src := range profiles {
		p := src.clone()
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("profile table: profile %d has no id", i)
		}
		if _, dup := t.byID[p.ID]; dup {
			return nil, fmt.Errorf("profile table: duplicate id %q", p.ID)
		}
		if p.MaxWidth < 0 || p.MaxHeight < 0 {
			return nil, fmt.Errorf("profile %q: dimension caps must not be negative", p.ID)
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		p.GrayscaleLevels = clampLevels(p.GrayscaleLevels)

		for j := range p.TextRules {
			rule := &p.TextRules[j]
			if rule.TargetPath == "" {
				return nil, fmt.Errorf("profile %q: text rule %d has no target_path", p.ID, j)
			}
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("profile %q: text rule %d: %w", p.ID, j, err)
			}
			rule.re = re
		}

		t.byID[p.ID] = len(t.profiles)
		t.profiles = append(t.profiles, p)
	}
	return t, nil
}

// Parse decodes a TOML profile table. Unknown keys are rejected.
func Parse(data []byte) (*Table, error) {
	var file tableFile
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse profile table: %w", err)
	}
	return NewTable(file.Profiles)
}

// Load reads a TOML profile table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile table: %w", err)
	}
	return Parse(data)
}

// Builtin returns the embedded default table.
func Builtin() *Table {
	t, err := Parse(builtinProfiles)
	if err != nil {
		panic(fmt.Sprintf("builtin profiles: %v", err))
	}
	return t
}

// Lookup returns a copy of the profile with the given id.
func (t *Table) Lookup(id string) (Profile, error) {
	idx, ok := t.byID[strings.TrimSpace(id)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, id)
	}
	return t.profiles[idx].clone(), nil
}

// Default returns the first profile of the table.
func (t *Table) Default() Profile {
	return t.profiles[0].clone()
}

// List returns copies of every profile in table order.
func (t *Table) List() []Profile {
	out := make([]Profile, len(t.profiles))
	for i, p := range t.profiles {
		out[i] = p.clone()
	}
	return out
}
