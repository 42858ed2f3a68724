package optimizer

import "math"

// JITInput parameterizes the just-in-time calculator.
type JITInput struct {
	Forecast           []float64
	LeadTimeDays       float64
	OrderFrequencyDays float64 // default 7 (weekly)
	BufferPercentage   float64 // e.g. 0.2 for 20%
	DaysPerYear        float64
}

// JITPlan is the output of CalculateJIT.
type JITPlan struct {
	OrderQuantity       float64
	SafetyBuffer        float64
	ReorderPoint        float64
	MeanDemand          float64
	AverageWindowDemand float64
	BaseOrderQuantity   float64
	StockoutProbability float64
	OrdersPerYear       float64
	WindowDays          int
	WindowsUsed         int
}

// CalculateJIT sizes frequent small replenishments. The average demand is
// taken over rolling windows of (lead time + order frequency) days; a
// forecast shorter than one window uses its plain mean. Order quantity and
// safety buffer are both at least one unit.
func CalculateJIT(in JITInput) (JITPlan, error) {
	clean := CleanDemand(in.Forecast)
	if len(clean) == 0 {
		return JITPlan{}, ErrEmptyForecast
	}

	freq := in.OrderFrequencyDays
	if math.IsNaN(freq) || freq <= 0 {
		freq = 7
	}
	buffer := in.BufferPercentage
	if math.IsNaN(buffer) || buffer < 0 {
		buffer = 0
	}
	lead := in.LeadTimeDays
	if math.IsNaN(lead) || lead < 0 {
		lead = 0
	}
	daysPerYear := in.DaysPerYear
	if daysPerYear <= 0 {
		daysPerYear = DaysPerYear
	}

	mean := 0.0
	for _, v := range clean {
		mean += v
	}
	mean /= float64(len(clean))

	window := int(math.Ceil(lead + freq))
	if window < 1 {
		window = 1
	}
	avg, used := rollingMeanAverage(clean, window)

	base := avg * freq
	plan := JITPlan{
		OrderQuantity:       math.Max(1, base*(1+buffer)),
		SafetyBuffer:        math.Max(1, mean*lead*buffer),
		MeanDemand:          mean,
		AverageWindowDemand: avg,
		BaseOrderQuantity:   base,
		StockoutProbability: 1 - 1/(1+buffer),
		OrdersPerYear:       daysPerYear / freq,
		WindowDays:          window,
		WindowsUsed:         used,
	}
	plan.ReorderPoint = mean*lead + plan.SafetyBuffer
	return plan, nil
}

// rollingMeanAverage averages the means of every full window of the given
// size. It returns the number of windows averaged (0 when the series is
// shorter than one window and the plain mean is used).
func rollingMeanAverage(series []float64, window int) (float64, int) {
	n := len(series)
	if n == 0 {
		return 0, 0
	}
	if n < window {
		sum := 0.0
		for _, v := range series {
			sum += v
		}
		return sum / float64(n), 0
	}

	sum := 0.0
	for i := 0; i < window; i++ {
		sum += series[i]
	}
	total := sum / float64(window)
	windows := 1
	for i := window; i < n; i++ {
		sum += series[i] - series[i-window]
		total += sum / float64(window)
		windows++
	}
	return total / float64(windows), windows
}
