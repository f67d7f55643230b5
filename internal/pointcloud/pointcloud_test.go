package pointcloud

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/reveal-viewer/internal/annotations"
)

var identity = []float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func boxRegion(m []float64) annotations.RegionGeometry {
	return annotations.RegionGeometry{Box: &annotations.BoxGeometry{Matrix: m}}
}

func cylRegion(a, b []float64, r float64) annotations.RegionGeometry {
	return annotations.RegionGeometry{Cylinder: &annotations.CylinderGeometry{CenterA: a, CenterB: b, Radius: r}}
}

func ann(id int64, regions ...annotations.RegionGeometry) annotations.Annotation {
	return annotations.Annotation{
		ID:                    id,
		AnnotatedResourceType: annotations.ResourceThreeDModel,
		AnnotatedResourceID:   42,
		Data:                  annotations.Data{Region: regions},
	}
}

func countShapes(objects []StylableObject) int {
	n := 0
	for _, o := range objects {
		n += len(o.Shapes)
	}
	return n
}

func provider(items ...annotations.Annotation) *Provider {
	return NewProvider(annotations.NewStore(items...), Options{PageLimit: 2})
}

func TestIdentityBox(t *testing.T) {
	objects, err := provider(ann(1, boxRegion(identity))).GetPointCloudObjects(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Len(t, objects[0].Shapes, 1)
	assert.Equal(t, Box{Transform: mgl64.Ident4()}, objects[0].Shapes[0])
	assert.Equal(t, int64(1), objects[0].ObjectID)
	assert.Nil(t, objects[0].AssetRef)
}

func TestCylinderExample(t *testing.T) {
	objects, err := provider(ann(1, cylRegion([]float64{0, 0, 0}, []float64{0, 0, 1}, 0.5))).
		GetPointCloudObjects(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, []Shape{Cylinder{
		CenterA: mgl64.Vec3{0, 0, 0},
		CenterB: mgl64.Vec3{0, 0, 1},
		Radius:  0.5,
	}}, objects[0].Shapes)
}

func TestConversionTotality(t *testing.T) {
	var items []annotations.Annotation
	for i := int64(1); i <= 9; i++ {
		if i%2 == 0 {
			items = append(items, ann(i, boxRegion(identity)))
		} else {
			items = append(items, ann(i, cylRegion([]float64{0, 0, 0}, []float64{0, float64(i), 0}, 0.1*float64(i))))
		}
	}
	objects, err := provider(items...).GetPointCloudObjects(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, objects, 9)
	assert.Equal(t, 9, countShapes(objects))
}

func TestConversionRobustness(t *testing.T) {
	both := annotations.RegionGeometry{
		Box:      &annotations.BoxGeometry{Matrix: identity},
		Cylinder: &annotations.CylinderGeometry{CenterA: []float64{0, 0, 0}, CenterB: []float64{1, 0, 0}, Radius: 1},
	}
	items := []annotations.Annotation{
		ann(1, boxRegion(identity)),
		ann(2, both),
		ann(3, cylRegion([]float64{0, 0, 0}, []float64{0, 0, 1}, 1)),
		ann(4, boxRegion(identity)),
	}
	objects, err := provider(items...).GetPointCloudObjects(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, len(items)-1, countShapes(objects))
	for _, o := range objects {
		assert.NotEqual(t, int64(2), o.ObjectID)
	}
}

func TestParseRegionErrors(t *testing.T) {
	singular := []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	tests := []struct {
		name   string
		region annotations.RegionGeometry
		want   error
	}{
		{"neither", annotations.RegionGeometry{}, ErrNoGeometry},
		{"short matrix", boxRegion(identity[:15]), ErrMatrixSize},
		{"singular", boxRegion(singular), ErrSingularMatrix},
		{"nan", boxRegion([]float64{math.NaN(), 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}), ErrNonFinite},
		{"zero radius", cylRegion([]float64{0, 0, 0}, []float64{0, 0, 1}, 0), ErrNonPositiveRadius},
		{"negative radius", cylRegion([]float64{0, 0, 0}, []float64{0, 0, 1}, -1), ErrNonPositiveRadius},
		{"coincident centres", cylRegion([]float64{1, 1, 1}, []float64{1, 1, 1}, 1), ErrDegenerateAxis},
		{"short centre", cylRegion([]float64{0, 0}, []float64{0, 0, 1}, 1), ErrVectorSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegion(tt.region, RowMajor)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseAnnotationRejectsWhole(t *testing.T) {
	a := ann(7, boxRegion(identity), cylRegion([]float64{0, 0, 0}, []float64{0, 0, 1}, 0))
	_, err := ParseAnnotation(a, RowMajor)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, int64(7), pe.AnnotationID)
	assert.Equal(t, 1, pe.Region)
	assert.ErrorIs(t, err, ErrNonPositiveRadius)
	assert.Contains(t, err.Error(), "annotation 7 region 1")

	_, err = ParseAnnotation(ann(8), RowMajor)
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestMatrixOrder(t *testing.T) {
	// Translation (3, -1, 2) with a scale of 2 on x.
	row := []float64{2, 0, 0, 3, 0, 1, 0, -1, 0, 0, 1, 2, 0, 0, 0, 1}
	col := []float64{2, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 3, -1, 2, 1}

	for _, tc := range []struct {
		order MatrixOrder
		data  []float64
	}{{RowMajor, row}, {ColumnMajor, col}} {
		s, err := ParseRegion(boxRegion(tc.data), tc.order)
		require.NoError(t, err, tc.order.String())
		b := s.BoundingBox()
		assert.InDeltaSlice(t, []float64{2, -1.5, 1.5}, b.Min[:], 1e-12, tc.order.String())
		assert.InDeltaSlice(t, []float64{4, -0.5, 2.5}, b.Max[:], 1e-12, tc.order.String())
	}

	o, err := ParseMatrixOrder("column-major")
	require.NoError(t, err)
	assert.Equal(t, ColumnMajor, o)
	o, err = ParseMatrixOrder("")
	require.NoError(t, err)
	assert.Equal(t, RowMajor, o)
	_, err = ParseMatrixOrder("diagonal")
	assert.Error(t, err)
}

func TestBoxContainsRotated(t *testing.T) {
	rot := mgl64.HomogRotate3DZ(math.Pi / 4)
	box, err := NewBox(mgl64.Translate3D(10, 0, 0).Mul4(rot).Mul4(mgl64.Scale3D(2, 2, 2)))
	require.NoError(t, err)

	assert.True(t, box.Contains(mgl64.Vec3{10, 0, 0}))
	// The corner direction of the unrotated box now points along +x.
	assert.True(t, box.Contains(mgl64.Vec3{11.3, 0, 0}))
	assert.False(t, box.Contains(mgl64.Vec3{11, 1, 0}))
	assert.False(t, box.Contains(mgl64.Vec3{10, 0, 1.1}))
}

func TestCylinderContainsAndBounds(t *testing.T) {
	c, err := NewCylinder(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 2}, 0.5)
	require.NoError(t, err)

	assert.True(t, c.Contains(mgl64.Vec3{0, 0, 1}))
	assert.True(t, c.Contains(mgl64.Vec3{0.5, 0, 2}))
	assert.False(t, c.Contains(mgl64.Vec3{0.6, 0, 1}))
	assert.False(t, c.Contains(mgl64.Vec3{0, 0, 2.1}))
	assert.False(t, c.Contains(mgl64.Vec3{0, 0, -0.1}))

	b := c.BoundingBox()
	assert.InDeltaSlice(t, []float64{-0.5, -0.5, 0}, b.Min[:], 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 2}, b.Max[:], 1e-12)
}

func TestGroupingAndAssetRef(t *testing.T) {
	withRef := ann(1, boxRegion(identity), cylRegion([]float64{0, 0, 0}, []float64{1, 0, 0}, 1))
	withRef.Data.AssetRef = &annotations.AssetRef{ExternalID: "pump-17"}
	emptyRef := ann(2, boxRegion(identity))
	emptyRef.Data.AssetRef = &annotations.AssetRef{}

	objects, rejected := Convert([]annotations.Annotation{withRef, emptyRef, ann(1, boxRegion(identity))}, RowMajor)
	assert.Empty(t, rejected)
	require.Len(t, objects, 2)

	assert.Equal(t, int64(1), objects[0].ObjectID)
	assert.Len(t, objects[0].Shapes, 3)
	require.NotNil(t, objects[0].AssetRef)
	assert.Equal(t, "pump-17", objects[0].AssetRef.ExternalID)
	assert.Nil(t, objects[1].AssetRef)

	assert.True(t, objects[0].Contains(mgl64.Vec3{0.9, 0, 0}))
	assert.False(t, objects[0].Contains(mgl64.Vec3{0, 5, 0}))
	b := objects[0].BoundingBox()
	assert.InDeltaSlice(t, []float64{-0.5, -1, -1}, b.Min[:], 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, b.Max[:], 1e-12)
}

func TestEmptyModel(t *testing.T) {
	objects, err := provider().GetPointCloudObjects(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, objects)
	assert.Empty(t, objects)
}

func TestFixtureThroughProvider(t *testing.T) {
	store, err := annotations.LoadStore(filepath.Join("..", "annotations", "testdata", "fixture.yaml"))
	require.NoError(t, err)
	p := NewProvider(store, Options{PageLimit: 1})

	objects, err := p.GetPointCloudObjects(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, 4, countShapes(objects))
	require.NotNil(t, objects[1].AssetRef)
	assert.Equal(t, int64(7001), objects[1].AssetRef.ID)
}

type failingLister struct {
	calls atomic.Int32
	after int32
	err   error
	next  annotations.Lister
}

func (f *failingLister) List(ctx context.Context, req annotations.ListRequest) (annotations.ListResponse, error) {
	if f.calls.Add(1) > f.after {
		return annotations.ListResponse{}, f.err
	}
	return f.next.List(ctx, req)
}

func TestNetworkErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	store := annotations.NewStore(ann(1, boxRegion(identity)), ann(2, boxRegion(identity)), ann(3, boxRegion(identity)))

	// Second page fails: nothing partial comes back.
	l := &failingLister{after: 1, err: boom, next: store}
	objects, err := NewProvider(l, Options{PageLimit: 2}).GetPointCloudObjects(context.Background(), 42)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, objects)
	assert.Equal(t, int32(2), l.calls.Load())
}

func TestForModels(t *testing.T) {
	other := ann(10, boxRegion(identity))
	other.AnnotatedResourceID = 99
	store := annotations.NewStore(ann(1, boxRegion(identity)), ann(2, boxRegion(identity)), other)

	got, err := NewProvider(store, Options{}).GetPointCloudObjectsForModels(context.Background(), []int64{42, 99, 7})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Len(t, got[42], 2)
	assert.Len(t, got[99], 1)
	assert.Empty(t, got[7])

	boom := errors.New("unavailable")
	l := &failingLister{after: 0, err: boom, next: store}
	_, err = NewProvider(l, Options{Concurrency: 1}).GetPointCloudObjectsForModels(context.Background(), []int64{42, 99})
	assert.ErrorIs(t, err, boom)
}
