package types

// HistoricalRecord is one prior day's KPI counts.
type HistoricalRecord struct {
	Date          string `json:"date"` // YYYY-MM-DD
	Answered      int    `json:"answered"`
	Abandoned     int    `json:"abandoned"`
	RetainedInIVR int    `json:"retainedInIVR"`
	Other         int    `json:"other"`
	Total         int    `json:"total"`
}

// HistoryMeans holds the rounded arithmetic means over the days that
// actually produced data. The divisor is always the count of successful
// days, never the requested window size.
type HistoryMeans struct {
	Answered      int `json:"answered"`
	Abandoned     int `json:"abandoned"`
	RetainedInIVR int `json:"retainedInIVR"`
	Other         int `json:"other"`
	Total         int `json:"total"`
}

// History is the rolling baseline built from the last N days.
type History struct {
	Days     []HistoricalRecord `json:"days"`
	Means    HistoryMeans       `json:"means"`
	DaysUsed int                `json:"daysUsed"`
}

// Level is the classification tier of a current metric against its
// historical mean.
type Level string

const (
	LevelBelowNormal Level = "below_normal" // ratio < 70%
	LevelNormal      Level = "normal"       // 70-99%
	LevelHigh        Level = "high"         // 100-129%
	LevelVeryHigh    Level = "very_high"    // >= 130%
	LevelUndefined   Level = "undefined"    // mean is zero
)

// Classification compares one current metric to its baseline mean.
// Ratio is current/mean*100 rounded; it is meaningless when Defined is false.
type Classification struct {
	Current   int    `json:"current"`
	Mean      int    `json:"mean"`
	Ratio     int    `json:"ratio"`
	Level     Level  `json:"level"`
	Indicator string `json:"indicator"`
	Defined   bool   `json:"defined"`
}

// LevelSet classifies each of the four metrics plus the grand total.
type LevelSet struct {
	Answered      Classification `json:"answered"`
	Abandoned     Classification `json:"abandoned"`
	RetainedInIVR Classification `json:"retainedInIVR"`
	Total         Classification `json:"total"`
}

// Comparison is the result of classifying today against the rolling
// baseline. When the history could not be built, History and Levels are nil
// and Error carries the soft-failure marker; Today is still populated.
type Comparison struct {
	Today   KPISnapshot `json:"today"`
	History *History    `json:"history"`
	Levels  *LevelSet   `json:"levels"`
	Summary string      `json:"summary,omitempty"`
	Error   string      `json:"error,omitempty"`
}
