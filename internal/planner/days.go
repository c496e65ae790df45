package planner

// DaysOfWeek is the fixed Monday-first order used for plans.
var DaysOfWeek = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// IsDay reports whether day is one of DaysOfWeek (case-sensitive).
func IsDay(day string) bool {
	for _, d := range DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}
