// pkg/registry/schema.go
package registry

// ActivityRegistry is the document embedded from activities.json. Each
// activity is one Zeebe task type served by a matching worker.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity ties a task type to its payload contract. InputSchema is checked
// by the worker before any matching work starts; Timeout is a Go duration.
type Activity struct {
	ID                   string                 `json:"id"`
	TaskType             string                 `json:"taskType"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	// ErrorCodes are the BPMN error codes the worker may throw.
	ErrorCodes []string `json:"errorCodes"`
	Timeout    string   `json:"timeout"`
	Retries    int      `json:"retries"`
	// Workflows names the BPMN processes that call this task type.
	Workflows []string `json:"workflows"`
}
