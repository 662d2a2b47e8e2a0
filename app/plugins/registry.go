// Package plugins registers the recommendation advisors selectable by name.
package plugins

import (
	"fmt"
	"sort"

	coreadvisor "github.com/kilianp07/feederwatch/core/advisor"
	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/infra/advisor"
)

// AdvisorFactory builds an advisor from its configuration.
type AdvisorFactory func(cfg advisor.Config, log logger.Logger) (coreadvisor.Advisor, error)

var Advisors = map[string]AdvisorFactory{}

// RegisterAdvisor makes f available under name, replacing any previous entry.
func RegisterAdvisor(name string, f AdvisorFactory) {
	Advisors[name] = f
}

// NewAdvisor builds the advisor registered as name.
func NewAdvisor(name string, cfg advisor.Config, log logger.Logger) (coreadvisor.Advisor, error) {
	f, ok := Advisors[name]
	if !ok {
		return nil, fmt.Errorf("unknown advisor %q (known: %v)", name, AdvisorNames())
	}
	return f(cfg, log)
}

// AdvisorNames lists the registered advisors in sorted order.
func AdvisorNames() []string {
	names := make([]string, 0, len(Advisors))
	for n := range Advisors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
