// Package runtime holds the process-wide engine instance shared by the
// reporting and jobs services. The admission engine itself is plain Go
// with no framework dependency (spec.md §1 excludes web-framework
// adapters from the core); this package is the one place that stitches it
// into Encore-style service wiring, following the teacher's pattern of a
// lazily-built global guarded by sync.Once.
package runtime

import (
	"context"
	"log"
	"sync"

	"trafficgov.app/pkg/admission"
	"trafficgov.app/pkg/breaker"
	"trafficgov.app/pkg/config"
	"trafficgov.app/pkg/flow"
	"trafficgov.app/pkg/ruleloader"
	"trafficgov.app/pkg/telemetry"
	"trafficgov.app/pkg/topology"
)

// Runtime bundles every collaborator a service needs to either drive
// admission decisions or report on them.
type Runtime struct {
	Config   config.Config
	Topology *topology.Manager
	Flow     *ruleloader.Refreshing
	Degrade  *ruleloader.StaticDegrade
	Breakers *breaker.Manager
	Engine   *admission.Engine
	Logger   *telemetry.Logger
}

var (
	instance *Runtime
	once     sync.Once
)

// Get returns the process-wide runtime, constructing it on first use.
func Get() *Runtime {
	once.Do(func() {
		instance = build()
	})
	return instance
}

func build() *Runtime {
	cfg := config.DefaultConfig()
	topo := topology.NewManager(cfg)
	degrade := ruleloader.NewStaticDegrade()

	logger := telemetry.NewLogger(log.Default())
	breakers := breaker.NewManager(breaker.MultiObserver{
		telemetry.BreakerObserver{Logger: logger},
		pubsubObserver{},
	})

	flowProvider := ruleloader.NewRefreshing(func(_ context.Context) (map[string][]flow.Rule, error) {
		return map[string][]flow.Rule{}, nil
	})

	tokens := flow.NewClusterTokenClient()
	controller := flow.NewController(topo, flowProvider, tokens)

	engine := admission.NewEngine(cfg, topo, controller, breakers, logger)

	return &Runtime{
		Config:   cfg,
		Topology: topo,
		Flow:     flowProvider,
		Degrade:  degrade,
		Breakers: breakers,
		Engine:   engine,
		Logger:   logger,
	}
}
