package model

// IndicatorSnapshot is the engine output for one accepted price sample.
type IndicatorSnapshot struct {
	TokenID   string
	Price     float64
	FastEMA   float64
	SlowEMA   float64
	MACD      float64
	Signal    float64
	Histogram float64 // MACD - Signal
	Samples   int
	// HasPriorSignal is false only for the first sample of a token.
	HasPriorSignal bool
}
