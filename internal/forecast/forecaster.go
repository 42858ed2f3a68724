package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptyHistory   = errors.New("demand history is empty")
	ErrInvalidHorizon = errors.New("forecast horizon must be positive")
)

// Forecaster turns a daily demand history into a daily forecast of the
// given horizon. Forecasts are never negative.
type Forecaster interface {
	Name() string
	Forecast(history []float64, horizon int) ([]float64, error)
}

const (
	NameMovingAverage        = "moving_average"
	NameExponentialSmoothing = "exponential_smoothing"
	NameLinearTrend          = "linear_trend"
)

// New returns the forecaster registered under name. An empty name selects
// the moving average.
func New(name string) (Forecaster, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameMovingAverage, "ma":
		return MovingAverage{Window: 30}, nil
	case NameExponentialSmoothing, "ses":
		return ExponentialSmoothing{Alpha: 0.3}, nil
	case NameLinearTrend, "trend":
		return LinearTrend{Window: 90}, nil
	default:
		return nil, fmt.Errorf("unknown forecaster %q", name)
	}
}

// MovingAverage forecasts a flat level equal to the mean of the last Window
// observations (all of them when Window <= 0).
type MovingAverage struct {
	Window int
}

func (m MovingAverage) Name() string { return NameMovingAverage }

func (m MovingAverage) Forecast(history []float64, horizon int) ([]float64, error) {
	clean, err := prepare(history, horizon)
	if err != nil {
		return nil, err
	}
	return flat(stat.Mean(tail(clean, m.Window), nil), horizon), nil
}

// ExponentialSmoothing is simple exponential smoothing with a flat forecast
// at the final level. Alpha outside (0, 1] falls back to 0.3.
type ExponentialSmoothing struct {
	Alpha float64
}

func (e ExponentialSmoothing) Name() string { return NameExponentialSmoothing }

func (e ExponentialSmoothing) Forecast(history []float64, horizon int) ([]float64, error) {
	clean, err := prepare(history, horizon)
	if err != nil {
		return nil, err
	}
	alpha := e.Alpha
	if !(alpha > 0 && alpha <= 1) {
		alpha = 0.3
	}

	level := clean[0]
	for _, v := range clean[1:] {
		level = alpha*v + (1-alpha)*level
	}
	return flat(level, horizon), nil
}

// LinearTrend fits a least-squares line through the last Window
// observations and extends it over the horizon, floored at zero.
type LinearTrend struct {
	Window int
}

func (l LinearTrend) Name() string { return NameLinearTrend }

func (l LinearTrend) Forecast(history []float64, horizon int) ([]float64, error) {
	clean, err := prepare(history, horizon)
	if err != nil {
		return nil, err
	}
	ys := tail(clean, l.Window)
	if len(ys) < 2 {
		return flat(ys[0], horizon), nil
	}

	xs := make([]float64, len(ys))
	floats.Span(xs, 0, float64(len(ys)-1))
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	out := make([]float64, horizon)
	n := float64(len(ys))
	for i := range out {
		out[i] = math.Max(0, alpha+beta*(n+float64(i)))
	}
	return out, nil
}

func prepare(history []float64, horizon int) ([]float64, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	clean := make([]float64, len(history))
	for i, v := range history {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		clean[i] = v
	}
	return clean, nil
}

func tail(series []float64, window int) []float64 {
	if window <= 0 || window >= len(series) {
		return series
	}
	return series[len(series)-window:]
}

func flat(level float64, horizon int) []float64 {
	level = math.Max(0, level)
	out := make([]float64, horizon)
	for i := range out {
		out[i] = level
	}
	return out
}
