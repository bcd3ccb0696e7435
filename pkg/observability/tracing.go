package observability

import (
	"context"
	"fmt"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray segment handling for command and query handlers.
type Tracer struct {
	serviceName string
}

// NewTracer creates a tracer for the named service.
func NewTracer(serviceName string) *Tracer {
	return &Tracer{serviceName: serviceName}
}

// StartSegment begins a root segment. Outside Lambda the SDK needs an
// explicit root before subsegments can attach.
func (t *Tracer) StartSegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	return xray.BeginSegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, name))
}

// Trace runs fn inside a subsegment, recording its error. A nil
// tracer, or a context without a parent segment, runs fn untraced.
func (t *Tracer) Trace(ctx context.Context, name string, fn func(context.Context) error) error {
	if t == nil || xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}

	ctx, seg := xray.BeginSubsegment(ctx, name)
	err := fn(ctx)
	if seg != nil {
		if err != nil {
			seg.AddError(err)
		}
		seg.Close(nil)
	}
	return err
}

// AddAnnotation adds an indexed annotation to the current segment.
func (t *Tracer) AddAnnotation(ctx context.Context, key, value string) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddAnnotation(key, value)
	}
}

// AddMetadata attaches unindexed metadata to the current segment.
func (t *Tracer) AddMetadata(ctx context.Context, key string, value interface{}) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddMetadata(key, value)
	}
}
