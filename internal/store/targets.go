package store

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Target binds a source name to its destination table and identity key.
type Target struct {
	Name       string   `yaml:"name"`
	Table      string   `yaml:"table"`
	KeyColumns []string `yaml:"key_columns"`
}

type targetsFile struct {
	Targets []Target `yaml:"targets"`
}

// DefaultTargets returns the targets for the shipped collectors.
func DefaultTargets() map[string]Target {
	return map[string]Target{
		"surveys": {
			Name:       "surveys",
			Table:      "activity.survey_responses",
			KeyColumns: []string{"response_id"},
		},
		"workspace": {
			Name:       "workspace",
			Table:      "activity.workspace_usage",
			KeyColumns: []string{"user_email", "report_date"},
		},
		"meetings": {
			Name:       "meetings",
			Table:      "activity.meeting_usage",
			KeyColumns: []string{"meeting_id"},
		},
		"scm": {
			Name:       "scm",
			Table:      "activity.scm_activity",
			KeyColumns: []string{"commit_sha"},
		},
	}
}

// LoadTargets returns the default targets overlaid with entries from the
// given YAML file. An empty path means defaults only.
func LoadTargets(path string) (map[string]Target, error) {
	targets := DefaultTargets()
	if path == "" {
		return targets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read targets file %s", path)
	}

	var tf targetsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, eris.Wrapf(err, "store: parse targets file %s", path)
	}

	for _, t := range tf.Targets {
		if t.Name == "" || t.Table == "" {
			return nil, eris.Errorf("store: targets file %s: entry missing name or table", path)
		}
		targets[t.Name] = t
	}
	return targets, nil
}
