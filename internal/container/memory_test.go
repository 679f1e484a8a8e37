package container_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/extplugin/internal/container"
	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/unit"
)

type owner struct{ id string }

func (o *owner) Resolve(name string) (*unit.Type, error) { return nil, oerrors.ErrUnitNotFound }

type tracked struct {
	destroyed atomic.Bool
	failWith  error
}

func (tr *tracked) Destroy() error {
	tr.destroyed.Store(true)
	return tr.failWith
}

func trackedType(name string, inst *tracked, created *atomic.Int32) *unit.Type {
	return unit.NewType(name, core.KindNone, func() (any, error) {
		if created != nil {
			created.Add(1)
		}
		return inst, nil
	})
}

func TestMemory_RegisterAndGet(t *testing.T) {
	m := container.NewMemory()
	o := &owner{"a"}
	var created atomic.Int32
	typ := trackedType("svc", &tracked{}, &created)

	name, err := m.Register("svc", typ, o)
	require.NoError(t, err)
	assert.Equal(t, "svc", name)
	assert.True(t, m.Exists("svc"))

	reg, ok := m.Lookup("svc")
	require.True(t, ok)
	assert.False(t, reg.Instantiated)

	first, err := m.Get("svc")
	require.NoError(t, err)
	second, err := m.Get("svc")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), created.Load())

	reg, _ = m.Lookup("svc")
	assert.True(t, reg.Instantiated)
}

func TestMemory_RegisterIdempotentForOwner(t *testing.T) {
	m := container.NewMemory()
	o := &owner{"a"}

	_, err := m.Register("svc", trackedType("svc", &tracked{}, nil), o)
	require.NoError(t, err)
	_, err = m.Register("svc", trackedType("svc", &tracked{}, nil), o)
	require.NoError(t, err)

	assert.Equal(t, []string{"svc"}, m.Names())
	assert.Zero(t, m.Retired())
}

func TestMemory_RegisterRejectsInvalid(t *testing.T) {
	m := container.NewMemory()
	typ := trackedType("svc", &tracked{}, nil)

	_, err := m.Register("", typ, &owner{})
	assert.ErrorIs(t, err, oerrors.ErrRegistration)
	_, err = m.Register("svc", nil, &owner{})
	assert.ErrorIs(t, err, oerrors.ErrRegistration)
	_, err = m.Register("svc", typ, nil)
	assert.ErrorIs(t, err, oerrors.ErrRegistration)
}

func TestMemory_GetMissing(t *testing.T) {
	_, err := container.NewMemory().Get("nope")
	assert.ErrorIs(t, err, oerrors.ErrNotFound)
}

func TestMemory_SupersedeKeepsOldUntilOwnerDestroys(t *testing.T) {
	m := container.NewMemory()
	oldOwner, newOwner := &owner{"v1"}, &owner{"v2"}
	oldInst, newInst := &tracked{}, &tracked{}

	_, err := m.Register("svc", trackedType("svc", oldInst, nil), oldOwner)
	require.NoError(t, err)
	_, err = m.Get("svc")
	require.NoError(t, err)

	_, err = m.Register("svc", trackedType("svc", newInst, nil), newOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Retired())

	got, err := m.Get("svc")
	require.NoError(t, err)
	assert.Same(t, newInst, got)
	assert.False(t, oldInst.destroyed.Load())

	require.NoError(t, m.Destroy("svc", oldOwner))
	assert.True(t, oldInst.destroyed.Load())
	assert.False(t, newInst.destroyed.Load())
	assert.True(t, m.Exists("svc"), "the new generation survives the old owner's teardown")
	assert.Zero(t, m.Retired())

	owned, ok := m.Owner("svc")
	require.True(t, ok)
	assert.Same(t, newOwner, owned)
}

func TestMemory_DestroyNewerReinstatesSuperseded(t *testing.T) {
	m := container.NewMemory()
	v1, v2, v3 := &owner{"v1"}, &owner{"v2"}, &owner{"v3"}
	inst1, inst2, inst3 := &tracked{}, &tracked{}, &tracked{}

	_, err := m.Register("svc", trackedType("svc", inst1, nil), v1)
	require.NoError(t, err)
	_, err = m.Get("svc")
	require.NoError(t, err)
	_, err = m.Register("svc", trackedType("svc", inst2, nil), v2)
	require.NoError(t, err)
	_, err = m.Register("svc", trackedType("svc", inst3, nil), v3)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Retired())

	require.NoError(t, m.Destroy("svc", v3))
	owned, ok := m.Owner("svc")
	require.True(t, ok)
	assert.Same(t, v2, owned, "the most recent superseded registration comes back")

	require.NoError(t, m.Destroy("svc", v2))
	owned, ok = m.Owner("svc")
	require.True(t, ok)
	assert.Same(t, v1, owned)
	assert.Zero(t, m.Retired())

	got, err := m.Get("svc")
	require.NoError(t, err)
	assert.Same(t, inst1, got, "the reinstated instance was never destroyed")
	assert.False(t, inst1.destroyed.Load())
}

func TestMemory_DestroyIgnoresForeignOwner(t *testing.T) {
	m := container.NewMemory()
	o := &owner{"a"}
	_, err := m.Register("svc", trackedType("svc", &tracked{}, nil), o)
	require.NoError(t, err)

	require.NoError(t, m.Destroy("svc", &owner{"b"}))
	assert.True(t, m.Exists("svc"))

	require.NoError(t, m.Destroy("svc", o))
	assert.False(t, m.Exists("svc"))
	require.NoError(t, m.Destroy("svc", o), "destroy is idempotent")
}

func TestMemory_DestroyReportsFailure(t *testing.T) {
	m := container.NewMemory()
	o := &owner{"a"}
	inst := &tracked{failWith: errors.New("boom")}
	_, err := m.Register("svc", trackedType("svc", inst, nil), o)
	require.NoError(t, err)
	_, err = m.Get("svc")
	require.NoError(t, err)

	err = m.Destroy("svc", o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, m.Exists("svc"))
}

func TestMemory_ConcurrentGet(t *testing.T) {
	m := container.NewMemory()
	var created atomic.Int32
	typ := unit.NewType("svc", core.KindNone, func() (any, error) {
		created.Add(1)
		return &tracked{}, nil
	})
	_, err := m.Register("svc", typ, &owner{"a"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]any, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.Get("svc")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}
