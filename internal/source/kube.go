package source

import (
	"context"

	k8s "k8s.io/client-go/kubernetes"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/kubernetes"
)

// KubeSource offers the package archives stored in labelled ConfigMaps.
type KubeSource struct {
	Client        k8s.Interface
	Namespace     string
	LabelSelector string
}

// NewKubeSource creates a source listing ConfigMaps in namespace.
func NewKubeSource(client k8s.Interface, namespace, labelSelector string) *KubeSource {
	if labelSelector == "" {
		labelSelector = kubernetes.DefaultLabelSelector
	}
	return &KubeSource{Client: client, Namespace: namespace, LabelSelector: labelSelector}
}

// Candidates lists every package entry of the matching ConfigMaps.
func (s *KubeSource) Candidates(ctx context.Context) ([]Candidate, error) {
	stored, err := kubernetes.ListPackages(ctx, s.Client, s.Namespace, s.LabelSelector, archive.Extension)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(stored))
	for _, p := range stored {
		out = append(out, BytesCandidate(p.Name(), p.Data))
	}
	return out, nil
}

func (s *KubeSource) String() string {
	return "kubernetes:" + s.Namespace + "?" + s.LabelSelector
}
