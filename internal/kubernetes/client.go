// Package kubernetes stores plugin packages in labelled ConfigMaps.
package kubernetes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	oerrors "github.com/opmodel/extplugin/internal/errors"
)

// DefaultNamespace is used when neither the options nor the kubeconfig
// context name a namespace.
const DefaultNamespace = "default"

// serviceAccountNamespaceFile holds the pod namespace inside a cluster.
var serviceAccountNamespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

// ClientOptions configures Kubernetes client creation.
type ClientOptions struct {
	// Kubeconfig is the path to the kubeconfig file.
	// Precedence: this field > EXTPLUGIN_KUBECONFIG env > KUBECONFIG env > ~/.kube/config
	Kubeconfig string

	// Context is the Kubernetes context to use.
	// If empty, uses the current-context from kubeconfig.
	Context string

	// Namespace overrides the namespace of the selected context.
	Namespace string
}

// Client wraps the Kubernetes API client used for package storage.
type Client struct {
	// Clientset reads and writes package ConfigMaps.
	Clientset kubernetes.Interface

	// RestConfig is the underlying REST configuration.
	RestConfig *rest.Config

	// Namespace is where package ConfigMaps are read and written.
	Namespace string
}

// NewClient creates a Kubernetes client. Inside a cluster without a
// kubeconfig file it uses the pod's service account.
func NewClient(opts ClientOptions) (*Client, error) {
	restConfig, namespace, err := buildRestConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("building kubernetes config: %w",
			oerrors.Wrap(oerrors.ErrConnectivity, err.Error()))
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating clientset: %w",
			oerrors.Wrap(oerrors.ErrConnectivity, err.Error()))
	}

	if opts.Namespace != "" {
		namespace = opts.Namespace
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Client{
		Clientset:  clientset,
		RestConfig: restConfig,
		Namespace:  namespace,
	}, nil
}

// buildRestConfig returns the REST config and the namespace of the
// selected context.
func buildRestConfig(opts ClientOptions) (*rest.Config, string, error) {
	kubeconfigPath := resolveKubeconfig(opts.Kubeconfig)
	if opts.Kubeconfig == "" && os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		if _, err := os.Stat(kubeconfigPath); err != nil {
			cfg, err := rest.InClusterConfig()
			if err != nil {
				return nil, "", err
			}
			return cfg, inClusterNamespace(), nil
		}
	}

	overrides := &clientcmd.ConfigOverrides{}
	if opts.Context != "" {
		overrides.CurrentContext = opts.Context
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath},
		overrides,
	)

	cfg, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, "", err
	}
	namespace, _, err := clientConfig.Namespace()
	if err != nil {
		return nil, "", err
	}
	return cfg, namespace, nil
}

func inClusterNamespace() string {
	data, err := os.ReadFile(serviceAccountNamespaceFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// resolveKubeconfig resolves kubeconfig path with precedence:
// flag > EXTPLUGIN_KUBECONFIG > KUBECONFIG > ~/.kube/config
func resolveKubeconfig(flagValue string) string {
	for _, path := range []string{flagValue, os.Getenv("EXTPLUGIN_KUBECONFIG"), os.Getenv("KUBECONFIG")} {
		if path != "" {
			return expandTilde(path)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kube", "config")
}

// expandTilde expands a leading ~ or ~/ to the home directory.
func expandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
