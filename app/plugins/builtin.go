package plugins

import (
	coreadvisor "github.com/kilianp07/feederwatch/core/advisor"
	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/infra/advisor"
)

const (
	// Anthropic calls the messages API.
	Anthropic = "anthropic"
	// Heuristic never advises, so every cycle uses the proximity heuristic.
	Heuristic = "heuristic"
)

func init() {
	RegisterAdvisor(Anthropic, func(cfg advisor.Config, log logger.Logger) (coreadvisor.Advisor, error) {
		return advisor.NewClient(cfg, log)
	})
	RegisterAdvisor(Heuristic, func(advisor.Config, logger.Logger) (coreadvisor.Advisor, error) {
		return coreadvisor.NopAdvisor{}, nil
	})
}
