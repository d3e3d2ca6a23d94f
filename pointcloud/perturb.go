package pointcloud

import (
	"math/rand"

	"github.com/golang/geo/r3"
)

// Perturb returns a copy of cloud whose coordinates carry zero-mean gaussian noise with
// standard deviation sigma along each axis. Colors are copied unchanged. The same seed
// always produces the same copy.
func Perturb(cloud *Cloud, sigma float64, seed int64) *Cloud {
	//nolint:gosec
	r := rand.New(rand.NewSource(seed))
	out := &Cloud{Points: make([]r3.Vector, cloud.Size()), Colors: make([]Color, cloud.Size())}
	copy(out.Colors, cloud.Colors)
	for i, p := range cloud.Points {
		out.Points[i] = r3.Vector{
			X: p.X + sigma*r.NormFloat64(),
			Y: p.Y + sigma*r.NormFloat64(),
			Z: p.Z + sigma*r.NormFloat64(),
		}
	}
	return out
}

// Permute returns a copy of cloud with points and colors reordered together by a seeded
// random permutation, along with the permutation (out[i] = cloud[perm[i]]).
func Permute(cloud *Cloud, seed int64) (*Cloud, []int) {
	//nolint:gosec
	r := rand.New(rand.NewSource(seed))
	perm := r.Perm(cloud.Size())
	return cloud.Subset(perm), perm
}
