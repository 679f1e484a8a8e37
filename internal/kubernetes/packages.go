package kubernetes

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	k8s "k8s.io/client-go/kubernetes"

	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/output"
)

// PackageKey is the binaryData key of a package written by WritePackage.
const PackageKey = "package.zip"

// StoredPackage is one package archive held in a ConfigMap.
type StoredPackage struct {
	Namespace string
	ConfigMap string
	Key       string
	Data      []byte
}

// Name identifies the stored package in logs.
func (p StoredPackage) Name() string {
	return fmt.Sprintf("configmap/%s/%s/%s", p.Namespace, p.ConfigMap, p.Key)
}

// ListPackages returns every binaryData entry ending in suffix from the
// ConfigMaps matching selector, ordered by ConfigMap then key.
func ListPackages(ctx context.Context, cs k8s.Interface, namespace, selector, suffix string) ([]StoredPackage, error) {
	list, err := cs.CoreV1().ConfigMaps(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("listing package ConfigMaps in %q: %w", namespace,
			oerrors.Wrap(oerrors.ErrConnectivity, err.Error()))
	}

	items := list.Items
	sort.Slice(items, func(i, j int) bool {
		if items[i].Namespace != items[j].Namespace {
			return items[i].Namespace < items[j].Namespace
		}
		return items[i].Name < items[j].Name
	})

	var out []StoredPackage
	for _, cm := range items {
		keys := make([]string, 0, len(cm.BinaryData))
		for k := range cm.BinaryData {
			if strings.HasSuffix(k, suffix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, StoredPackage{
				Namespace: cm.Namespace,
				ConfigMap: cm.Name,
				Key:       k,
				Data:      cm.BinaryData[k],
			})
		}
	}
	return out, nil
}

// PackageMeta identifies the package written to a ConfigMap.
type PackageMeta struct {
	GroupID    string
	ArtifactID string
	Version    string
}

var invalidNameChars = regexp.MustCompile(`[^a-z0-9.-]+`)

// ConfigMapName derives a valid ConfigMap name for a package key.
func ConfigMapName(meta PackageMeta) (string, error) {
	name := "extplugin." + invalidNameChars.ReplaceAllString(strings.ToLower(meta.GroupID+"."+meta.ArtifactID), "-")
	name = strings.Trim(name, "-.")
	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return "", oerrors.NewValidationError(
			fmt.Sprintf("cannot derive ConfigMap name from %s:%s: %s", meta.GroupID, meta.ArtifactID, strings.Join(errs, "; ")),
			"", "Use shorter groupId and artifactId values")
	}
	return name, nil
}

// WritePackage creates or replaces the ConfigMap holding the package archive
// data. It returns the ConfigMap name.
func WritePackage(ctx context.Context, cs k8s.Interface, namespace string, meta PackageMeta, data []byte) (string, error) {
	name, err := ConfigMapName(meta)
	if err != nil {
		return "", err
	}

	desired := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				LabelManagedBy: labelManagedByValue,
				LabelPackage:   "true",
			},
			Annotations: map[string]string{
				AnnotationGroupID:    meta.GroupID,
				AnnotationArtifactID: meta.ArtifactID,
				AnnotationVersion:    meta.Version,
			},
		},
		BinaryData: map[string][]byte{PackageKey: data},
	}

	configMaps := cs.CoreV1().ConfigMaps(namespace)
	existing, err := configMaps.Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := configMaps.Create(ctx, desired, metav1.CreateOptions{}); err != nil {
			return "", fmt.Errorf("creating package ConfigMap %q: %w", name, err)
		}
		output.Debug("created package ConfigMap", "name", name, "namespace", namespace)
		return name, nil
	}
	if err != nil {
		return "", fmt.Errorf("getting package ConfigMap %q: %w", name,
			oerrors.Wrap(oerrors.ErrConnectivity, err.Error()))
	}

	desired.ResourceVersion = existing.ResourceVersion
	if _, err := configMaps.Update(ctx, desired, metav1.UpdateOptions{}); err != nil {
		if apierrors.IsConflict(err) {
			return "", fmt.Errorf("package ConfigMap %q was modified concurrently, retry: %w", name, err)
		}
		return "", fmt.Errorf("updating package ConfigMap %q: %w", name, err)
	}
	output.Debug("updated package ConfigMap", "name", name, "namespace", namespace)
	return name, nil
}
