package track

import (
	"context"
	"fmt"
	"math"

	"raceline/internal/ctrl"
	"raceline/internal/model"
)

// RingConfig describes an annular road centered on the origin. The car
// starts on the mid-line heading counterclockwise.
type RingConfig struct {
	InnerRadius float64
	OuterRadius float64
	SensorCount int
	SensorRange float64
	Checkpoints int
	MaxSteps    int
	StallSteps  int
}

func DefaultRingConfig() RingConfig {
	return RingConfig{
		InnerRadius: 60,
		OuterRadius: 100,
		SensorCount: 5,
		SensorRange: 80,
		Checkpoints: 16,
		MaxSteps:    2000,
		StallSteps:  60,
	}
}

const (
	ringTimeStep     = 0.1
	ringMaxSpeed     = 12.0
	ringAcceleration = 8.0
	ringBrakePower   = 14.0
	ringDrag         = 0.4
	ringMaxSteer     = 1.8 // rad/s at full lock
	ringStallSpeed   = 0.3

	checkpointReward = 100.0
	lapReward        = 1000.0
)

// Ring is a deterministic closed-loop evaluation track. Sensors are computed
// analytically against the two wall circles, so no geometry raycasting grid
// is needed.
type Ring struct {
	cfg          RingConfig
	sensorAngles []float64
}

func NewRing(cfg RingConfig) *Ring {
	if cfg.InnerRadius <= 0 || cfg.OuterRadius <= cfg.InnerRadius {
		cfg = DefaultRingConfig()
	}
	if cfg.SensorCount < 1 {
		cfg.SensorCount = 5
	}
	if cfg.Checkpoints < 2 {
		cfg.Checkpoints = 16
	}
	if cfg.MaxSteps < 1 {
		cfg.MaxSteps = 2000
	}
	if cfg.StallSteps < 1 {
		cfg.StallSteps = 60
	}

	// Sensor fan spread evenly across the forward half: [-60 deg, +60 deg]
	// for five sensors.
	angles := make([]float64, cfg.SensorCount)
	if cfg.SensorCount == 1 {
		angles[0] = 0
	} else {
		span := 2 * math.Pi / 3
		for i := range angles {
			angles[i] = -span/2 + span*float64(i)/float64(cfg.SensorCount-1)
		}
	}
	return &Ring{cfg: cfg, sensorAngles: angles}
}

func (r *Ring) Name() string {
	return "ring"
}

// InputSize is one reading per sensor plus normalized speed.
func (r *Ring) InputSize() int {
	return r.cfg.SensorCount + 1
}

// OutputSize is throttle, brake, steer.
func (r *Ring) OutputSize() int {
	return 3
}

type ringCar struct {
	x, y     float64
	heading  float64
	speed    float64
	distance float64
}

// Evaluate runs the car until wall contact, stall timeout or the step limit.
// Deterministic for a given controller.
func (r *Ring) Evaluate(ctx context.Context, controller *ctrl.Controller) (model.TerminalRecord, error) {
	if controller == nil {
		return model.TerminalRecord{}, fmt.Errorf("controller is required")
	}
	if controller.InputSize() != r.InputSize() || controller.OutputSize() != r.OutputSize() {
		return model.TerminalRecord{}, fmt.Errorf("%w: controller %dx%d, track wants %dx%d",
			ctrl.ErrDimensionMismatch,
			controller.InputSize(), controller.OutputSize(), r.InputSize(), r.OutputSize())
	}

	midRadius := (r.cfg.InnerRadius + r.cfg.OuterRadius) / 2
	car := ringCar{x: midRadius, y: 0, heading: math.Pi / 2}

	checkpointArc := 2 * math.Pi / float64(r.cfg.Checkpoints)
	lastAngle := 0.0
	progress := 0.0
	checkpoints := 0
	laps := 0
	bestLapTime := model.NoLapTime()
	lapStartStep := 0
	stall := 0
	steps := 0
	alive := true

	input := make([]float64, r.InputSize())
	for steps = 0; steps < r.cfg.MaxSteps; steps++ {
		if steps%64 == 0 {
			if err := ctx.Err(); err != nil {
				return model.TerminalRecord{}, err
			}
		}

		for i, offset := range r.sensorAngles {
			input[i] = r.sensorReading(car, offset)
		}
		input[len(input)-1] = car.speed / ringMaxSpeed

		action, err := controller.Predict(input)
		if err != nil {
			return model.TerminalRecord{}, err
		}
		throttle := clamp01(action[0]-0.5) * 2
		brake := clamp01(action[1]-0.5) * 2
		steer := (action[2] - 0.5) * 2

		car.speed += (throttle*ringAcceleration - brake*ringBrakePower) * ringTimeStep
		car.speed -= ringDrag * car.speed * ringTimeStep
		if car.speed < 0 {
			car.speed = 0
		}
		if car.speed > ringMaxSpeed {
			car.speed = ringMaxSpeed
		}
		car.heading += steer * ringMaxSteer * ringTimeStep
		step := car.speed * ringTimeStep
		car.x += math.Cos(car.heading) * step
		car.y += math.Sin(car.heading) * step
		car.distance += step

		radius := math.Hypot(car.x, car.y)
		if radius <= r.cfg.InnerRadius || radius >= r.cfg.OuterRadius {
			alive = false
			break
		}

		if car.speed < ringStallSpeed {
			stall++
			if stall >= r.cfg.StallSteps {
				alive = false
				break
			}
		} else {
			stall = 0
		}

		angle := math.Atan2(car.y, car.x)
		delta := angle - lastAngle
		if delta > math.Pi {
			delta -= 2 * math.Pi
		} else if delta < -math.Pi {
			delta += 2 * math.Pi
		}
		lastAngle = angle

		before := progress
		progress += delta
		beforeSector := int(math.Floor(before / checkpointArc))
		afterSector := int(math.Floor(progress / checkpointArc))
		if afterSector > beforeSector {
			checkpoints += afterSector - beforeSector
		}
		for progress >= 2*math.Pi {
			progress -= 2 * math.Pi
			laps++
			lapTime := float64(steps-lapStartStep) * ringTimeStep
			if lapTime < bestLapTime {
				bestLapTime = lapTime
			}
			lapStartStep = steps
		}
	}

	elapsed := float64(steps+1) * ringTimeStep
	fitness := float64(checkpoints)*checkpointReward + car.distance + float64(laps)*lapReward
	return model.TerminalRecord{
		Fitness:     fitness,
		Laps:        laps,
		BestLapTime: bestLapTime,
		Alive:       alive,
		Behavior: model.Behavior{
			FinalX:            car.x,
			FinalY:            car.y,
			CheckpointsPassed: checkpoints,
			TotalDistance:     car.distance,
			AvgSpeed:          car.distance / elapsed,
		},
	}, nil
}

// sensorReading casts one ray from the car and returns the normalized
// distance to the nearest wall circle, 1 when nothing is in range.
func (r *Ring) sensorReading(car ringCar, angleOffset float64) float64 {
	angle := car.heading + angleOffset
	dx, dy := math.Cos(angle), math.Sin(angle)

	nearest := r.cfg.SensorRange
	if d, ok := rayCircle(car.x, car.y, dx, dy, r.cfg.OuterRadius); ok && d < nearest {
		nearest = d
	}
	if d, ok := rayCircle(car.x, car.y, dx, dy, r.cfg.InnerRadius); ok && d < nearest {
		nearest = d
	}
	return nearest / r.cfg.SensorRange
}

// rayCircle intersects the ray (px,py)+t(dx,dy), t>0 with the circle of the
// given radius centered on the origin, returning the nearest positive t.
func rayCircle(px, py, dx, dy, radius float64) (float64, bool) {
	// |p + t d|^2 = r^2 with |d| = 1
	b := px*dx + py*dy
	c := px*px + py*py - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sqrtDisc := math.Sqrt(disc)
	if t := -b - sqrtDisc; t > 0 {
		return t, true
	}
	if t := -b + sqrtDisc; t > 0 {
		return t, true
	}
	return 0, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
