package poly

import (
	"math"

	"github.com/chazu/caliper/pkg/kernel/trimesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// boxMesh returns a centered box. Vertex i has bit 0, 1, 2 set when it
// sits on the +X, +Y, +Z side respectively.
func boxMesh(x, y, z float64) *trimesh.Mesh {
	m := &trimesh.Mesh{Vertices: make([]r3.Vec, 8)}
	for i := range m.Vertices {
		v := r3.Vec{X: -x / 2, Y: -y / 2, Z: -z / 2}
		if i&1 != 0 {
			v.X = x / 2
		}
		if i&2 != 0 {
			v.Y = y / 2
		}
		if i&4 != 0 {
			v.Z = z / 2
		}
		m.Vertices[i] = v
	}
	m.Triangles = [][3]int{
		{0, 2, 1}, {1, 2, 3}, // bottom
		{4, 5, 6}, {5, 7, 6}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{2, 6, 7}, {2, 7, 3}, // back
		{0, 4, 6}, {0, 6, 2}, // left
		{1, 3, 7}, {1, 7, 5}, // right
	}
	return m
}

// cylinderMesh returns an n-sided prism along Z. Ring vertices sit half a
// step off the axes so that side facet k faces angle k*step.
func cylinderMesh(height, radius float64, n int) *trimesh.Mesh {
	step := 2 * math.Pi / float64(n)
	h := height / 2
	m := &trimesh.Mesh{Vertices: make([]r3.Vec, 0, 2*n+2)}
	for _, z := range []float64{-h, h} {
		for k := 0; k < n; k++ {
			a := (float64(k) - 0.5) * step
			m.Vertices = append(m.Vertices, r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z})
		}
	}
	bottomCenter := len(m.Vertices)
	m.Vertices = append(m.Vertices, r3.Vec{Z: -h})
	topCenter := len(m.Vertices)
	m.Vertices = append(m.Vertices, r3.Vec{Z: h})

	for k := 0; k < n; k++ {
		next := (k + 1) % n
		b0, b1 := k, next
		t0, t1 := n+k, n+next
		m.Triangles = append(m.Triangles,
			[3]int{bottomCenter, b1, b0},
			[3]int{topCenter, t0, t1},
			[3]int{b0, b1, t1},
			[3]int{b0, t1, t0},
		)
	}
	return m
}

// sphereMesh returns a UV sphere with n segments of longitude and n/2
// bands of latitude.
func sphereMesh(radius float64, n int) *trimesh.Mesh {
	bands := n / 2
	m := &trimesh.Mesh{}
	north := 0
	m.Vertices = append(m.Vertices, r3.Vec{Z: radius})
	for i := 1; i < bands; i++ {
		phi := float64(i) * math.Pi / float64(bands)
		rho, z := radius*math.Sin(phi), radius*math.Cos(phi)
		for j := 0; j < n; j++ {
			theta := float64(j) * 2 * math.Pi / float64(n)
			m.Vertices = append(m.Vertices, r3.Vec{X: rho * math.Cos(theta), Y: rho * math.Sin(theta), Z: z})
		}
	}
	south := len(m.Vertices)
	m.Vertices = append(m.Vertices, r3.Vec{Z: -radius})

	ring := func(i, j int) int { return 1 + (i-1)*n + j%n }
	for j := 0; j < n; j++ {
		m.Triangles = append(m.Triangles, [3]int{north, ring(1, j), ring(1, j+1)})
		m.Triangles = append(m.Triangles, [3]int{south, ring(bands-1, j+1), ring(bands-1, j)})
	}
	for i := 1; i < bands-1; i++ {
		for j := 0; j < n; j++ {
			u0, u1 := ring(i, j), ring(i, j+1)
			l0, l1 := ring(i+1, j), ring(i+1, j+1)
			m.Triangles = append(m.Triangles, [3]int{u0, l0, l1}, [3]int{u0, l1, u1})
		}
	}
	return m
}
