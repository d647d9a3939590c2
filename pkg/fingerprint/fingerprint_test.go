package fingerprint_test

import (
	"net/netip"
	"testing"
	"time"

	"github.com/effective-security/mmtools/pkg/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical_OrderIndependent(t *testing.T) {
	a := map[string]any{"b": 2, "a": map[string]any{"y": true, "x": []any{1, "s"}}}
	b := map[string]any{"a": map[string]any{"x": []any{1, "s"}, "y": true}, "b": 2}

	ca, err := fingerprint.Canonical(a)
	require.NoError(t, err)
	cb, err := fingerprint.Canonical(b)
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))
	assert.Equal(t, `[{"k":"a","v":[{"k":"x","v":[1,"s"]},{"k":"y","v":true}]},{"k":"b","v":2}]`, string(ca))

	fa, err := fingerprint.Of(a)
	require.NoError(t, err)
	fb, err := fingerprint.Of(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.NotEmpty(t, fa)
}

func TestCanonical_Values(t *testing.T) {
	type cfg struct {
		Name string
		Opts map[int]string
	}
	bs, err := fingerprint.Canonical(&cfg{Name: "<ocr>", Opts: map[int]string{2: "b", 10: "a"}})
	require.NoError(t, err)
	assert.Equal(t, `{"t":"fingerprint_test.cfg","v":[{"k":"Name","v":"<ocr>"},{"k":"Opts","v":[{"k":"10","v":"a"},{"k":"2","v":"b"}]}]}`, string(bs))

	type hidden struct {
		Name  string
		state int
	}
	_, err = fingerprint.Canonical(map[string]any{"h": hidden{Name: "x", state: 1}})
	assert.EqualError(t, err, "value of type fingerprint_test.hidden has unexported field state")

	bs, err = fingerprint.Canonical(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(bs))

	_, err = fingerprint.Canonical(map[string]any{"fn": func() {}})
	assert.EqualError(t, err, "value of type func() can not be serialized")

	_, err = fingerprint.Canonical(map[[2]int]string{{1, 2}: "x"})
	assert.EqualError(t, err, "map key of type [2]int can not be serialized")
}

func TestCanonical_DistinguishesValues(t *testing.T) {
	a, err := fingerprint.Of(map[string]any{"model": "svtr-small"})
	require.NoError(t, err)
	b, err := fingerprint.Of(map[string]any{"model": "other-model"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCanonical_Marshalers(t *testing.T) {
	at := time.Unix(0, 0).UTC()
	bs, err := fingerprint.Canonical(map[string]any{"since": at})
	require.NoError(t, err)
	assert.Equal(t, `[{"k":"since","v":{"t":"time.Time","v":"1970-01-01T00:00:00Z"}}]`, string(bs))

	ptr, err := fingerprint.Canonical(map[string]any{"since": &at})
	require.NoError(t, err)
	assert.Equal(t, string(bs), string(ptr))

	a, err := fingerprint.Of(map[string]any{"since": time.Unix(0, 0)})
	require.NoError(t, err)
	b, err := fingerprint.Of(map[string]any{"since": time.Unix(1_000_000, 0)})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	a, err = fingerprint.Of(map[string]any{"addr": netip.MustParseAddr("10.0.0.1")})
	require.NoError(t, err)
	b, err = fingerprint.Of(map[string]any{"addr": netip.MustParseAddr("10.0.0.2")})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCanonical_TypeNames(t *testing.T) {
	type left struct{ Name string }
	type right struct{ Name string }
	a, err := fingerprint.Of(left{Name: "x"})
	require.NoError(t, err)
	b, err := fingerprint.Of(right{Name: "x"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
