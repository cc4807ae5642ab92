// Package gamedata loads the game rule tables. The compiled-in defaults
// are authoritative; a YAML file can override individual sections for
// variant games without recompiling.
package gamedata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/greenm01/ec4x-sub006/pkg/ec4x"
)

// Load returns the rule tables, applying overrides from the YAML file at
// path when it is non-empty. Override sections are merged onto the stock
// tables by JSON key, so a file listing only victory settings leaves the
// unit tables untouched.
func Load(path string) (*ec4x.Rules, error) {
	rules := ec4x.DefaultRules()
	if path == "" {
		return rules, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	settings := v.AllSettings()
	// viper lowercases every key; class codes and tech lines are uppercase
	for _, section := range []string{"ship_classes", "ground_classes", "facilities", "techs"} {
		m, ok := settings[section].(map[string]any)
		if !ok {
			continue
		}
		up := make(map[string]any, len(m))
		for k, val := range m {
			up[strings.ToUpper(k)] = val
		}
		settings[section] = up
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode rules overrides: %w", err)
	}
	if err := json.Unmarshal(raw, rules); err != nil {
		return nil, fmt.Errorf("apply rules overrides: %w", err)
	}

	if _, err := ec4x.CompileDoctrine(rules.AutopilotDoctrine); err != nil {
		return nil, fmt.Errorf("rules file doctrine: %w", err)
	}
	return rules, nil
}
