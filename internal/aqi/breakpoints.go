package aqi

// Breakpoint maps a PM2.5 concentration range (µg/m³, 24h average) onto an AQI range.
type Breakpoint struct {
	ConcLow  float64
	ConcHigh float64
	AQILow   int
	AQIHigh  int
}

// pm25Table is the US EPA PM2.5 breakpoint table, ascending and contiguous.
var pm25Table = [...]Breakpoint{
	{ConcLow: 0.0, ConcHigh: 12.0, AQILow: 0, AQIHigh: 50},
	{ConcLow: 12.1, ConcHigh: 35.4, AQILow: 51, AQIHigh: 100},
	{ConcLow: 35.5, ConcHigh: 55.4, AQILow: 101, AQIHigh: 150},
	{ConcLow: 55.5, ConcHigh: 150.4, AQILow: 151, AQIHigh: 200},
	{ConcLow: 150.5, ConcHigh: 250.4, AQILow: 201, AQIHigh: 300},
	{ConcLow: 250.5, ConcHigh: 500.0, AQILow: 301, AQIHigh: 500},
}

// PM25Breakpoints returns a copy of the PM2.5 breakpoint table.
func PM25Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(pm25Table))
	copy(out, pm25Table[:])
	return out
}
