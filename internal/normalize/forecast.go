package normalize

import "time"

// Strategy describes how a provider decimates a dense forecast.
// Step keeps every Step-th sample (<=1 keeps all) and Limit caps the
// result length (<=0 is unbounded). The zero value passes samples through.
type Strategy struct {
	Step  int
	Limit int
}

// Downsample applies s to points and returns a new slice.
func Downsample[T any](points []T, s Strategy) []T {
	step := s.Step
	if step < 1 {
		step = 1
	}

	out := make([]T, 0, len(points)/step+1)
	for i := 0; i < len(points); i += step {
		if s.Limit > 0 && len(out) == s.Limit {
			break
		}
		out = append(out, points[i])
	}
	return out
}

// Sample is one timestamped forecast point fed into daily grouping.
type Sample struct {
	Time          time.Time
	Temperature   float64
	Icon          string
	Description   string
	Precipitation float64
}

// DailyBucket summarises all samples that share a local calendar date.
type DailyBucket struct {
	Key           string
	Label         string
	MaxTemp       float64
	MinTemp       float64
	Icon          string
	Description   string
	Precipitation float64
}

// GroupIntoDailyBuckets groups samples by calendar date in loc (UTC when nil).
// Buckets follow first-occurrence order, the first is labelled "Today" and the
// rest by short weekday. Representative fields come from each bucket's first sample.
func GroupIntoDailyBuckets(samples []Sample, loc *time.Location) []DailyBucket {
	if loc == nil {
		loc = time.UTC
	}

	index := make(map[string]int)
	buckets := make([]DailyBucket, 0, 6)

	for _, s := range samples {
		local := s.Time.In(loc)
		key := local.Format(dateKey)

		i, ok := index[key]
		if !ok {
			label := local.Format("Mon")
			if len(buckets) == 0 {
				label = "Today"
			}
			index[key] = len(buckets)
			buckets = append(buckets, DailyBucket{
				Key:           key,
				Label:         label,
				MaxTemp:       s.Temperature,
				MinTemp:       s.Temperature,
				Icon:          s.Icon,
				Description:   s.Description,
				Precipitation: s.Precipitation,
			})
			continue
		}

		b := &buckets[i]
		if s.Temperature > b.MaxTemp {
			b.MaxTemp = s.Temperature
		}
		if s.Temperature < b.MinTemp {
			b.MinTemp = s.Temperature
		}
	}

	return buckets
}

// DayLabel labels the i-th entry of a provider's daily series.
func DayLabel(i int, day time.Time) string {
	if i == 0 {
		return "Today"
	}
	return day.Format("Mon")
}
