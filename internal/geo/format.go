package geo

import "fmt"

func FormatKm(meters int) string {
	return fmt.Sprintf("%.2f km", float64(meters)/1000)
}

func FormatMinutes(seconds int) string {
	return fmt.Sprintf("%.2f min", float64(seconds)/60)
}

// FormatHoursMinutes truncates to whole minutes, e.g. "1 hours 5 minutes".
func FormatHoursMinutes(seconds int) string {
	return fmt.Sprintf("%d hours %d minutes", seconds/3600, (seconds%3600)/60)
}
