package pointcloud

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/reveal-viewer/internal/annotations"
)

// Geometry errors. A ParseError wraps one of these.
var (
	ErrNoGeometry        = errors.New("region has neither box nor cylinder")
	ErrAmbiguousGeometry = errors.New("region has both box and cylinder")
	ErrEmptyRegion       = errors.New("annotation has no region")
	ErrMatrixSize        = errors.New("box matrix must have 16 elements")
	ErrVectorSize        = errors.New("cylinder centre must have 3 elements")
	ErrNonFinite         = errors.New("geometry contains a non-finite value")
	ErrSingularMatrix    = errors.New("box matrix is not invertible")
	ErrNonPositiveRadius = errors.New("cylinder radius must be positive")
	ErrDegenerateAxis    = errors.New("cylinder centres coincide")
)

// MatrixOrder is the element order of a box matrix on the wire.
type MatrixOrder int

const (
	// RowMajor lists the matrix row by row, translation in elements 3, 7, 11.
	RowMajor MatrixOrder = iota
	// ColumnMajor lists the matrix column by column, translation in 12, 13, 14.
	ColumnMajor
)

func (o MatrixOrder) String() string {
	if o == ColumnMajor {
		return "column-major"
	}
	return "row-major"
}

// ParseMatrixOrder parses "row-major" or "column-major".
func ParseMatrixOrder(s string) (MatrixOrder, error) {
	switch s {
	case "row-major", "":
		return RowMajor, nil
	case "column-major":
		return ColumnMajor, nil
	}
	return RowMajor, fmt.Errorf("unknown matrix order %q", s)
}

// ParseError reports why one annotation was rejected.
type ParseError struct {
	AnnotationID int64
	Region       int // -1 when the annotation as a whole is at fault
	Err          error
}

func (e *ParseError) Error() string {
	if e.Region < 0 {
		return fmt.Sprintf("annotation %d: %v", e.AnnotationID, e.Err)
	}
	return fmt.Sprintf("annotation %d region %d: %v", e.AnnotationID, e.Region, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseRegion converts one region record into a shape.
func ParseRegion(r annotations.RegionGeometry, order MatrixOrder) (Shape, error) {
	switch {
	case r.Box != nil && r.Cylinder != nil:
		return nil, ErrAmbiguousGeometry
	case r.Box != nil:
		m, err := parseMatrix(r.Box.Matrix, order)
		if err != nil {
			return nil, err
		}
		return NewBox(m)
	case r.Cylinder != nil:
		a, err := parseVec3(r.Cylinder.CenterA)
		if err != nil {
			return nil, err
		}
		b, err := parseVec3(r.Cylinder.CenterB)
		if err != nil {
			return nil, err
		}
		return NewCylinder(a, b, r.Cylinder.Radius)
	}
	return nil, ErrNoGeometry
}

// ParseAnnotation converts every region of a. Any bad region rejects the
// whole annotation.
func ParseAnnotation(a annotations.Annotation, order MatrixOrder) (StylableObject, error) {
	if len(a.Data.Region) == 0 {
		return StylableObject{}, &ParseError{AnnotationID: a.ID, Region: -1, Err: ErrEmptyRegion}
	}
	shapes := make([]Shape, 0, len(a.Data.Region))
	for i, r := range a.Data.Region {
		s, err := ParseRegion(r, order)
		if err != nil {
			return StylableObject{}, &ParseError{AnnotationID: a.ID, Region: i, Err: err}
		}
		shapes = append(shapes, s)
	}
	return StylableObject{
		ObjectID: a.ID,
		AssetRef: assetReference(a.Data.AssetRef),
		Shapes:   shapes,
	}, nil
}

// Convert turns a batch of annotations into stylable objects. Rejected
// annotations are returned as errors and left out of the result. Objects keep
// the order in which their id first appears; a repeated id adds its shapes to
// the earlier object.
func Convert(list []annotations.Annotation, order MatrixOrder) ([]StylableObject, []error) {
	objects := make([]StylableObject, 0, len(list))
	index := make(map[int64]int, len(list))
	var rejected []error

	for _, a := range list {
		obj, err := ParseAnnotation(a, order)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		if i, ok := index[obj.ObjectID]; ok {
			objects[i].Shapes = append(objects[i].Shapes, obj.Shapes...)
			if objects[i].AssetRef == nil {
				objects[i].AssetRef = obj.AssetRef
			}
			continue
		}
		index[obj.ObjectID] = len(objects)
		objects = append(objects, obj)
	}
	return objects, rejected
}

func parseMatrix(v []float64, order MatrixOrder) (mgl64.Mat4, error) {
	if len(v) != 16 {
		return mgl64.Mat4{}, fmt.Errorf("%w, got %d", ErrMatrixSize, len(v))
	}
	var m mgl64.Mat4
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return mgl64.Mat4{}, ErrNonFinite
		}
		m[i] = x
	}
	// mgl64 stores column-major.
	if order == RowMajor {
		m = m.Transpose()
	}
	return m, nil
}

func parseVec3(v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%w, got %d", ErrVectorSize, len(v))
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return mgl64.Vec3{}, ErrNonFinite
		}
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}
