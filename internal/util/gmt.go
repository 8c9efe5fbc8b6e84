package util

import (
	"fmt"
	"time"
)

// Layouts que usa Garmin para timestamps GMT en texto
// (sleepLevels.startGMT, hrvReadings.readingTimeGMT).
var gmtLayouts = []string{
	"2006-01-02T15:04:05.0",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// ParseGMT parsea un timestamp GMT en texto de Garmin como UTC.
func ParseGMT(s string) (time.Time, error) {
	for _, layout := range gmtLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("util: timestamp GMT no reconocido: %q", s)
}

// FromMillis convierte epoch millis (como vienen en heartRateValues y
// stressValuesArray) a instante UTC.
func FromMillis(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}
