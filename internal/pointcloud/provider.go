package pointcloud

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/reveal-viewer/internal/annotations"
	"github.com/Faultbox/reveal-viewer/internal/logger"
)

// AssetReference links a stylable object to an external asset.
type AssetReference struct {
	ID         int64
	ExternalID string
}

// StylableObject is a named group of shapes that styling applies to as one
// unit. Shapes is never empty.
type StylableObject struct {
	ObjectID int64
	AssetRef *AssetReference
	Shapes   []Shape
}

// BoundingBox returns the union of the shape bounds.
func (o StylableObject) BoundingBox() Bounds {
	b := emptyBounds()
	for _, s := range o.Shapes {
		b = b.Union(s.BoundingBox())
	}
	return b
}

// Contains reports whether any shape contains p.
func (o StylableObject) Contains(p mgl64.Vec3) bool {
	for _, s := range o.Shapes {
		if s.Contains(p) {
			return true
		}
	}
	return false
}

func assetReference(ref *annotations.AssetRef) *AssetReference {
	if ref == nil || (ref.ID == 0 && ref.ExternalID == "") {
		return nil
	}
	return &AssetReference{ID: ref.ID, ExternalID: ref.ExternalID}
}

// DefaultPageLimit is the page size requested when Options leaves it unset.
const DefaultPageLimit = 1000

// Options configures a Provider.
type Options struct {
	PageLimit   int
	MatrixOrder MatrixOrder
	// Concurrency bounds GetPointCloudObjectsForModels. Zero means 4.
	Concurrency int
}

// Provider fetches a model's annotations and converts them into stylable
// objects. It holds no cache; every call fetches.
type Provider struct {
	lister annotations.Lister
	opts   Options
	log    *zap.Logger
}

// NewProvider creates a provider reading from lister.
func NewProvider(lister annotations.Lister, opts Options) *Provider {
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Provider{lister: lister, opts: opts, log: logger.Named("pointcloud")}
}

// GetPointCloudObjects returns the stylable objects of one 3D model. Invalid
// annotations are logged and skipped. Fetch errors are returned unretried.
func (p *Provider) GetPointCloudObjects(ctx context.Context, modelID int64) ([]StylableObject, error) {
	filter := annotations.Filter{
		AnnotatedResourceType: annotations.ResourceThreeDModel,
		AnnotatedResourceIDs:  []annotations.ResourceRef{{ID: modelID}},
	}
	list, err := annotations.ListAll(ctx, p.lister, filter, p.opts.PageLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching annotations for model %d: %w", modelID, err)
	}

	objects, rejected := Convert(list, p.opts.MatrixOrder)
	for _, err := range rejected {
		fields := []zap.Field{zap.Int64("model", modelID), zap.Error(err)}
		var pe *ParseError
		if errors.As(err, &pe) {
			fields = append(fields, zap.Int64("annotation", pe.AnnotationID))
		}
		p.log.Warn("dropping annotation", fields...)
	}
	p.log.Debug("point cloud objects ready",
		zap.Int64("model", modelID),
		zap.Int("annotations", len(list)),
		zap.Int("objects", len(objects)),
		zap.Int("dropped", len(rejected)))
	return objects, nil
}

// GetPointCloudObjectsForModels fetches several models concurrently. The first
// failure cancels the remaining fetches and is returned.
func (p *Provider) GetPointCloudObjectsForModels(ctx context.Context, modelIDs []int64) (map[int64][]StylableObject, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	var mu sync.Mutex
	out := make(map[int64][]StylableObject, len(modelIDs))
	for _, id := range modelIDs {
		id := id
		g.Go(func() error {
			objects, err := p.GetPointCloudObjects(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = objects
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
