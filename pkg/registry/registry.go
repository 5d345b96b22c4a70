// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

//go:embed activities.json
var embeddedActivities []byte

var (
	defaultRegistry     *ActivityRegistry
	defaultRegistryErr  error
	defaultRegistryOnce sync.Once
)

// Default returns the activity registry compiled into the binary.
func Default() *ActivityRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = Parse(embeddedActivities)
	})
	if defaultRegistryErr != nil {
		panic(fmt.Sprintf("embedded activity registry: %v", defaultRegistryErr))
	}
	return defaultRegistry
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Find looks an activity up by task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// InputSchemaFor returns the rendered input schema of taskType.
func (r *ActivityRegistry) InputSchemaFor(taskType string) ([]byte, error) {
	activity, ok := r.Find(taskType)
	if !ok {
		return nil, fmt.Errorf("activity %q not in registry", taskType)
	}
	raw, err := activity.InputSchemaJSON()
	if err != nil {
		return nil, fmt.Errorf("input schema of %q: %w", taskType, err)
	}
	return raw, nil
}

// MustInputSchema is InputSchemaFor for handler construction. It panics
// with the lookup error.
func (r *ActivityRegistry) MustInputSchema(taskType string) []byte {
	raw, err := r.InputSchemaFor(taskType)
	if err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
	return raw
}

// InputSchemaJSON renders the activity's input schema for a validator.
func (a *Activity) InputSchemaJSON() ([]byte, error) {
	if len(a.InputSchema) == 0 {
		return []byte(`{"type":"object"}`), nil
	}
	return json.Marshal(a.InputSchema)
}

// TimeoutDuration parses Timeout, falling back to def when unset or invalid.
func (a *Activity) TimeoutDuration(def time.Duration) time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Validate reports activities with missing ids, duplicate task types,
// schemas that are not objects, bad timeouts or repeated error codes.
func (r *ActivityRegistry) Validate() []error {
	var problems []error
	seen := map[string]bool{}
	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			problems = append(problems, fmt.Errorf("activity %q: id and taskType are required", a.DisplayName))
			continue
		}
		if seen[a.TaskType] {
			problems = append(problems, fmt.Errorf("activity %s: duplicate taskType %s", a.ID, a.TaskType))
		}
		seen[a.TaskType] = true
		if t, ok := a.InputSchema["type"]; ok && t != "object" {
			problems = append(problems, fmt.Errorf("activity %s: input schema must be an object", a.ID))
		}
		if _, err := time.ParseDuration(a.Timeout); a.Timeout != "" && err != nil {
			problems = append(problems, fmt.Errorf("activity %s: invalid timeout %q", a.ID, a.Timeout))
		}
		codes := map[string]bool{}
		for _, code := range a.ErrorCodes {
			if codes[code] {
				problems = append(problems, fmt.Errorf("activity %s: duplicate error code %s", a.ID, code))
			}
			codes[code] = true
		}
	}
	return problems
}
