package cmd

import (
	"fmt"

	"github.com/opmodel/extplugin/internal/builtin"
	"github.com/opmodel/extplugin/internal/config"
	"github.com/opmodel/extplugin/internal/container"
	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/kubernetes"
	"github.com/opmodel/extplugin/internal/pipeline"
	"github.com/opmodel/extplugin/internal/promoter"
	"github.com/opmodel/extplugin/internal/registry"
	"github.com/opmodel/extplugin/internal/source"
	"github.com/opmodel/extplugin/internal/unit"
)

// gateway wires the loading core to the live pipeline.
type gateway struct {
	host       *unit.Host
	container  *container.Memory
	registry   *registry.Registry
	promoter   *promoter.Promoter
	dispatcher *pipeline.Dispatcher
	handlers   *pipeline.HandlerSet
}

// newGateway builds the gateway and publishes the built-in host components.
func newGateway() (*gateway, error) {
	host, err := builtin.Host()
	if err != nil {
		return nil, err
	}
	definer, err := unit.NewCUEDefiner()
	if err != nil {
		return nil, err
	}

	mem := container.NewMemory()
	g := &gateway{
		host:       host,
		container:  mem,
		registry:   registry.New(host, definer, mem),
		promoter:   promoter.New(mem),
		dispatcher: pipeline.NewDispatcher(),
		handlers:   pipeline.NewHandlerSet(),
	}

	var (
		plugins  []core.Plugin
		handlers []core.Component
	)
	for _, name := range host.Names() {
		c, ok, err := g.promoter.Promote(name, host)
		if err != nil {
			return nil, fmt.Errorf("promoting built-in %s: %w", name, err)
		}
		if !ok {
			continue
		}
		if p, isPlugin := c.Plugin(); isPlugin {
			plugins = append(plugins, p)
		} else if c.IsExtendDataHandler() {
			handlers = append(handlers, c)
		}
	}
	g.dispatcher.PutExtPlugins(plugins)
	g.handlers.PutExtendDataHandlers(handlers)
	return g, nil
}

// newSource creates the package source selected by cfg.
func newSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceKindKubernetes:
		k := cfg.Source.Kubernetes
		kubeconfig, err := config.ExpandPath(k.Kubeconfig)
		if err != nil {
			return nil, err
		}
		client, err := kubernetes.NewClient(kubernetes.ClientOptions{
			Kubeconfig: kubeconfig,
			Context:    k.Context,
			Namespace:  k.Namespace,
		})
		if err != nil {
			return nil, err
		}
		return source.NewKubeSource(client.Clientset, client.Namespace, k.LabelSelector), nil
	default:
		return source.NewDirSource(cfg.ExtPlugin.Path), nil
	}
}

// validateConfig checks cfg against the configuration schema.
func validateConfig(cfg *config.Config) error {
	v, err := config.NewValidator()
	if err != nil {
		return err
	}
	if err := v.Validate(cfg); err != nil {
		return withExitCode(&oerrors.DetailError{
			Type:    "validation failed",
			Message: err.Error(),
			Hint:    "Run 'extplugin config vet' to check the configuration file",
			Cause:   oerrors.ErrValidation,
		})
	}
	return nil
}
