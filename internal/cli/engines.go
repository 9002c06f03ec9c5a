package cli

import (
	"github.com/lighthouse-ai/lighthouse/internal/config"
	"github.com/lighthouse-ai/lighthouse/internal/nlu"
	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

// buildEngines constructs the interpretation and policy engines from
// configuration. A malformed domain-rule document is a hard error here;
// only the long-running watcher path tolerates one.
func buildEngines(cfg *config.Config) (*nlu.Engine, *safety.Engine, error) {
	nluEngine := nlu.NewEngine(nlu.WithConfidenceThreshold(cfg.NLU.ConfidenceThreshold))

	domainRules, err := safety.LoadDomainRules(cfg.Safety.DomainRulesPath)
	if err != nil {
		return nil, nil, err
	}

	policy := safety.NewEngine(safety.Options{
		AllowedDomains:    cfg.Safety.AllowedDomains,
		RestrictedActions: cfg.Safety.RestrictedActionTypes(),
		DomainRules:       domainRules,
	})
	return nluEngine, policy, nil
}
