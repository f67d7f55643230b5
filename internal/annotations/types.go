// Package annotations talks to the annotation service: the list wire format,
// an HTTP client, a YAML-backed fixture store and a local server for it.
package annotations

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/logger"
)

// Annotated resource types accepted by the list filter.
const (
	ResourceThreeDModel = "threedmodel"
	ResourceFile        = "file"
)

// ErrCursorLoop is returned by ListAll when the service hands back a cursor it
// already returned.
var ErrCursorLoop = errors.New("annotations: pagination cursor repeated")

// Annotation is one stored record describing a labelled region or asset link.
type Annotation struct {
	ID                    int64  `json:"id" yaml:"id"`
	AnnotatedResourceType string `json:"annotatedResourceType" yaml:"annotatedResourceType"`
	AnnotatedResourceID   int64  `json:"annotatedResourceId" yaml:"annotatedResourceId"`
	Status                string `json:"status,omitempty" yaml:"status,omitempty"`
	Data                  Data   `json:"data" yaml:"data"`
}

// Data is the annotation payload. Region entries each describe one shape.
type Data struct {
	AssetRef *AssetRef        `json:"assetRef,omitempty" yaml:"assetRef,omitempty"`
	Region   []RegionGeometry `json:"region,omitempty" yaml:"region,omitempty"`
}

// AssetRef links an annotation to an external asset by id or external id.
type AssetRef struct {
	ID         int64  `json:"id,omitempty" yaml:"id,omitempty"`
	ExternalID string `json:"externalId,omitempty" yaml:"externalId,omitempty"`
}

// RegionGeometry is a discriminated record: exactly one of Box and Cylinder
// must be set. Consumers validate that.
type RegionGeometry struct {
	Box      *BoxGeometry      `json:"box,omitempty" yaml:"box,omitempty"`
	Cylinder *CylinderGeometry `json:"cylinder,omitempty" yaml:"cylinder,omitempty"`
}

// BoxGeometry carries a 4x4 transform of the unit cube. The element order is
// a producer convention.
type BoxGeometry struct {
	Matrix []float64 `json:"matrix" yaml:"matrix,flow"`
}

// CylinderGeometry is a capped cylinder between two centres.
type CylinderGeometry struct {
	CenterA []float64 `json:"centerA" yaml:"centerA,flow"`
	CenterB []float64 `json:"centerB" yaml:"centerB,flow"`
	Radius  float64   `json:"radius" yaml:"radius"`
}

// ResourceRef identifies one annotated resource in a filter.
type ResourceRef struct {
	ID int64 `json:"id" yaml:"id"`
}

// Filter scopes a list call.
type Filter struct {
	AnnotatedResourceType string        `json:"annotatedResourceType"`
	AnnotatedResourceIDs  []ResourceRef `json:"annotatedResourceIds,omitempty"`
}

// Matches reports whether a passes the filter. An empty id list matches every
// resource of the type.
func (f Filter) Matches(a Annotation) bool {
	if f.AnnotatedResourceType != "" && f.AnnotatedResourceType != a.AnnotatedResourceType {
		return false
	}
	if len(f.AnnotatedResourceIDs) == 0 {
		return true
	}
	for _, ref := range f.AnnotatedResourceIDs {
		if ref.ID == a.AnnotatedResourceID {
			return true
		}
	}
	return false
}

// ListRequest is the body of POST /annotations/list.
type ListRequest struct {
	Filter Filter `json:"filter"`
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// ListResponse is one page of results. An empty NextCursor ends the listing.
type ListResponse struct {
	Items      []Annotation `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// Lister fetches one page of annotations.
type Lister interface {
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

// ListAll follows cursors until the listing is exhausted and returns every
// item in service order.
func ListAll(ctx context.Context, l Lister, filter Filter, limit int) ([]Annotation, error) {
	log := logger.Named("annotations")

	var (
		all    []Annotation
		cursor string
		seen   = make(map[string]struct{})
	)
	for page := 0; ; page++ {
		resp, err := l.List(ctx, ListRequest{Filter: filter, Limit: limit, Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}
		all = append(all, resp.Items...)
		log.Debug("fetched annotation page",
			zap.Int("page", page),
			zap.Int("items", len(resp.Items)),
			zap.Bool("more", resp.NextCursor != ""))

		if resp.NextCursor == "" {
			return all, nil
		}
		if _, dup := seen[resp.NextCursor]; dup {
			return nil, fmt.Errorf("%w: %q", ErrCursorLoop, resp.NextCursor)
		}
		seen[resp.NextCursor] = struct{}{}
		cursor = resp.NextCursor
	}
}
