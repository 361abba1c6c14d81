// Package tessellate produces triangle meshes for the parts of a scene
// using a geometry kernel. One mesh is produced per part.
package tessellate

import (
	"context"
	"fmt"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/chazu/caliper/pkg/scene"
	"golang.org/x/sync/errgroup"
)

// Tessellate meshes every part of sc, at most workers at a time, and
// returns the meshes in scene order. The tessellator is read-only and
// never mutates the scene. A nil scene yields no meshes.
func Tessellate(ctx context.Context, sc *scene.Scene, k kernel.Kernel, workers int) ([]*kernel.Mesh, error) {
	if sc == nil {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	parts := sc.Parts()
	meshes := make([]*kernel.Mesh, len(parts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mesh, err := k.ToMesh(p.Solid())
			if err != nil {
				return fmt.Errorf("tessellate: ToMesh failed for part %q: %w", p.Name(), err)
			}
			mesh.PartName = p.Name()
			meshes[i] = mesh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}

// TriangleCount sums the triangles of meshes.
func TriangleCount(meshes []*kernel.Mesh) int {
	n := 0
	for _, m := range meshes {
		n += m.TriangleCount()
	}
	return n
}
