package store

import "time"

func PlanKey(id string) string       { return "plan:" + id }
func JobKey(id string) string        { return "job:" + id }
func VehicleKey(id string) string    { return "veh:" + id }
func SessionKey(token string) string { return "session:" + token }

// GeocodeKey buckets coordinates to ~1 m so repeated drags hit the cache.
func GeocodeKey(lat, lng float64) string {
	return "geo:" + formatCoord(lat) + "," + formatCoord(lng)
}

func DailyCounterKey(name string, now time.Time) string {
	return "quota:" + name + ":" + now.UTC().Format("20060102")
}
