package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(v float64) Descriptor {
	d := make(Descriptor, DescriptorLen)
	for i := range d {
		d[i] = v
	}
	return d
}

// shifted returns a copy of d whose first component is moved by delta.
func shifted(d Descriptor, delta float64) Descriptor {
	c := make(Descriptor, len(d))
	copy(c, d)
	c[0] += delta
	return c
}

func TestDescriptor_Distance(t *testing.T) {
	base := descriptor(0.1)

	dist, err := base.Distance(shifted(base, 0.5))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, dist, 1e-9)

	_, err = base.Distance(Descriptor{1, 2})
	assert.Error(t, err)

	tests := []struct {
		name  string
		other Descriptor
		want  bool
	}{
		{name: "identical", other: base, want: true},
		{name: "close", other: shifted(base, 0.3), want: true},
		{name: "just under threshold", other: shifted(base, 0.59), want: true},
		{name: "too far", other: shifted(base, 0.61), want: false},
		{name: "wrong length", other: Descriptor{0.1}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Matches(tt.other))
		})
	}
}

func TestDescriptor_ValueScan(t *testing.T) {
	d := Descriptor{0.25, -1, 3.5}
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "[0.25,-1,3.5]", v)

	var got Descriptor
	require.NoError(t, got.Scan(v))
	assert.Equal(t, d, got)

	require.NoError(t, got.Scan(nil))
	assert.Nil(t, got)

	v, err = Descriptor(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestClosestMatch(t *testing.T) {
	alice := User{ID: "alice", FaceDescriptor: descriptor(0.1)}
	bob := User{ID: "bob", FaceDescriptor: descriptor(0.5)}
	noFace := User{ID: "noface"}
	candidates := []User{noFace, alice, bob}

	usr, ok := closestMatch(shifted(descriptor(0.1), 0.2), candidates)
	assert.True(t, ok)
	assert.Equal(t, "alice", usr.ID)

	usr, ok = closestMatch(shifted(descriptor(0.5), -0.1), candidates)
	assert.True(t, ok)
	assert.Equal(t, "bob", usr.ID)

	_, ok = closestMatch(descriptor(3), candidates)
	assert.False(t, ok)
}
