package user

import (
	"database/sql/driver"
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

const (
	// DescriptorLen is the size of the vectors produced by the client's face-recognition model.
	DescriptorLen = 128

	// FaceMatchThreshold is the maximum Euclidean distance between two descriptors of the same face.
	FaceMatchThreshold = 0.6
)

var errDescriptorLen = errors.New("descriptors have different lengths")

// Descriptor is a face feature vector, stored as a JSON array.
type Descriptor []float64

// Distance returns the Euclidean distance between d and other.
func (d Descriptor) Distance(other Descriptor) (float64, error) {
	if len(d) != len(other) || len(d) == 0 {
		return 0, errDescriptorLen
	}
	var sum float64
	for i := range d {
		diff := d[i] - other[i]
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}

// Matches reports whether other is close enough to d to be considered the same face.
func (d Descriptor) Matches(other Descriptor) bool {
	dist, err := d.Distance(other)
	return err == nil && dist <= FaceMatchThreshold
}

func (d Descriptor) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]float64(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *Descriptor) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.Errorf("cannot scan %T into Descriptor", src)
	}
	if len(data) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(data, (*[]float64)(d))
}

// closestMatch returns the user whose descriptor is the nearest to d, provided it is within FaceMatchThreshold.
func closestMatch(d Descriptor, candidates []User) (User, bool) {
	best := -1
	bestDist := math.MaxFloat64
	for i, usr := range candidates {
		dist, err := d.Distance(usr.FaceDescriptor)
		if err != nil {
			continue
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 || bestDist > FaceMatchThreshold {
		return User{}, false
	}
	return candidates[best], true
}
