package catalog

import (
	"fmt"

	"github.com/viant/safealloc/model/resource"
)

// DefaultCPUUsage is the CPU percent declared by built-in entries.
const DefaultCPUUsage = 30

// Entry describes a launchable application.
type Entry struct {
	ID        int          `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Resources resource.Set `json:"resources" yaml:"resources"`
	CPUUsage  int          `json:"cpuUsage" yaml:"cpuUsage"`
}

// Validate checks entry fields.
func (e *Entry) Validate() error {
	if e.ID <= 0 {
		return fmt.Errorf("catalog entry id must be > 0, got %d", e.ID)
	}
	if e.Name == "" {
		return fmt.Errorf("catalog entry %d: name was empty", e.ID)
	}
	for _, t := range e.Resources {
		if !t.Valid() {
			return fmt.Errorf("catalog entry %d: unknown resource type %v", e.ID, t)
		}
	}
	if e.CPUUsage < 0 || e.CPUUsage > 100 {
		return fmt.Errorf("catalog entry %d: cpuUsage must be within [0,100]", e.ID)
	}
	return nil
}

// DefaultEntries returns the built-in applications. Each needs CPU and Disk
// and declares DefaultCPUUsage.
func DefaultEntries() []Entry {
	names := []string{"Text editor", "Spreadsheet editor", "Presentation editor", "Browser", "Game"}
	ret := make([]Entry, 0, len(names))
	for i, name := range names {
		ret = append(ret, Entry{
			ID:        i + 1,
			Name:      name,
			Resources: resource.NewSet(resource.CPU, resource.Disk),
			CPUUsage:  DefaultCPUUsage,
		})
	}
	return ret
}
