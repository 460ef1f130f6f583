// Command loamsim drives scan registration and laser odometry over a
// synthetic two-sweep VLP-16-shaped point cloud and prints the estimated
// per-sweep transform and accumulated transformSum. It exists as a
// development smoke test for wiring changes to the registration/odometry
// pipeline, not as the robot-config-driven CLI entrypoint the pipeline's
// non-goals exclude.
package main

import (
	"fmt"
	"math"

	"github.com/edaniels/golog"

	"github.com/viam-labs/loam-core/geometry"
	"github.com/viam-labs/loam-core/loamconfig"
	"github.com/viam-labs/loam-core/odometry"
	"github.com/viam-labs/loam-core/registration"
	"github.com/viam-labs/loam-core/scanmapper"
)

var logger = golog.NewDevelopmentLogger("loamsim")

// syntheticSweep generates a synthetic lidar sweep of a half-cylinder of
// horizontal radius wallDist around the sensor (azimuth -90 to +90 degrees),
// with the sensor displaced by (dx, dy, dz) from
// the previous sweep's frame, in the original x-forward/y-left/z-up sensor
// convention registration.Process expects.
func syntheticSweep(wallDist, dx, dy, dz float64) []geometry.Vector {
	const nBeams = 16
	const nAzimuth = 180
	points := make([]geometry.Vector, 0, nBeams*nAzimuth)

	for b := 0; b < nBeams; b++ {
		elevDeg := -15 + float64(b)*(30.0/float64(nBeams-1))
		elev := geometry.DegToRad(elevDeg)
		for a := 0; a < nAzimuth; a++ {
			az := -math.Pi/2 + float64(a)*(math.Pi/float64(nAzimuth-1))

			// Range that keeps the horizontal distance at wallDist for this elevation.
			r := wallDist / math.Cos(elev)
			x := r * math.Cos(elev) * math.Cos(az)
			y := r * math.Cos(elev) * math.Sin(az)
			z := r * math.Sin(elev)

			points = append(points, geometry.Vector{X: x - dx, Y: y - dy, Z: z - dz})
		}
	}
	return points
}

func main() {
	cfg := loamconfig.DefaultConfig()
	mapper := scanmapper.NewVLP16Mapper()

	reg, err := registration.New(cfg, mapper, logger)
	if err != nil {
		logger.Fatalw("failed to construct registrar", "err", err)
	}
	odom, err := odometry.New(cfg, logger)
	if err != nil {
		logger.Fatalw("failed to construct odometry", "err", err)
	}

	sweeps := [][]geometry.Vector{
		syntheticSweep(5.0, 0, 0, 0),
		syntheticSweep(5.0, 0.10, 0, 0),
	}

	for i, raw := range sweeps {
		regResult, err := reg.Process(raw)
		if err != nil {
			logger.Fatalw("registration failed", "sweep", i, "err", err)
		}

		sweep := odometry.Sweep{
			CornerSharp:     regResult.Features.CornerSharp,
			CornerLessSharp: regResult.Features.CornerLessSharp,
			SurfFlat:        regResult.Features.SurfFlat,
			SurfLessFlat:    regResult.Features.SurfLessFlat,
			FullRes:         regResult.FullResInt,
			SweepTime:       float64(i) * cfg.ScanPeriod,
		}
		result, err := odom.Process(sweep)
		if err != nil {
			logger.Fatalw("odometry failed", "sweep", i, "err", err)
		}

		fmt.Printf("sweep %d: transform=%+v transformSum=%+v degenerate=%v\n",
			i, result.Transform, result.TransformSum, result.Degenerate)
	}
}
