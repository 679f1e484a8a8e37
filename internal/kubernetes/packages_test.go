package kubernetes_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/kubernetes"
)

func packageConfigMap(name string, labels map[string]string, data map[string][]byte) runtime.Object {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "gateway", Labels: labels},
		BinaryData: data,
	}
}

func TestListPackages(t *testing.T) {
	labelled := map[string]string{kubernetes.LabelPackage: "true"}
	cs := fake.NewClientset( //nolint:staticcheck // fake.NewSimpleClientset alternative
		packageConfigMap("b", labelled, map[string][]byte{"waf.zip": []byte("b1"), "notes.txt": []byte("x")}),
		packageConfigMap("a", labelled, map[string][]byte{"z.zip": []byte("a2"), "y.zip": []byte("a1")}),
		packageConfigMap("unlabelled", nil, map[string][]byte{"other.zip": []byte("c")}),
	)

	pkgs, err := kubernetes.ListPackages(context.Background(), cs, "gateway", kubernetes.DefaultLabelSelector, ".zip")
	require.NoError(t, err)

	var names []string
	for _, p := range pkgs {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{
		"configmap/gateway/a/y.zip",
		"configmap/gateway/a/z.zip",
		"configmap/gateway/b/waf.zip",
	}, names)
	assert.Equal(t, "a1", string(pkgs[0].Data))
}

func TestWritePackage_CreateThenUpdate(t *testing.T) {
	cs := fake.NewClientset() //nolint:staticcheck // fake.NewSimpleClientset alternative
	ctx := context.Background()
	meta := kubernetes.PackageMeta{GroupID: "io.Example", ArtifactID: "waf_plugin", Version: "1.0"}

	name, err := kubernetes.WritePackage(ctx, cs, "gateway", meta, []byte("v1"))
	require.NoError(t, err)
	assert.Equal(t, "extplugin.io.example.waf-plugin", name)

	meta.Version = "2.0"
	_, err = kubernetes.WritePackage(ctx, cs, "gateway", meta, []byte("v2"))
	require.NoError(t, err)

	cm, err := cs.CoreV1().ConfigMaps("gateway").Get(ctx, name, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "v2", string(cm.BinaryData[kubernetes.PackageKey]))
	assert.Equal(t, "2.0", cm.Annotations[kubernetes.AnnotationVersion])
	assert.Equal(t, "true", cm.Labels[kubernetes.LabelPackage])

	pkgs, err := kubernetes.ListPackages(ctx, cs, "gateway", kubernetes.DefaultLabelSelector, ".zip")
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

func TestConfigMapName_Invalid(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	_, err := kubernetes.ConfigMapName(kubernetes.PackageMeta{GroupID: string(long), ArtifactID: "a"})
	assert.ErrorIs(t, err, oerrors.ErrValidation)
}
