package scheduler

// Presence returns the roster members not on duty, truncated to target. When fewer
// than target are idle, assigned ids are appended in first-appearance order until
// target is reached or the roster is exhausted.
func Presence(roster, assigned []string, target int) []string {
	if target < 0 {
		target = 0
	}
	onDuty := make(map[string]bool, len(assigned))
	for _, id := range assigned {
		onDuty[id] = true
	}

	present := make([]string, 0, target)
	listed := make(map[string]bool, target)
	for _, id := range roster {
		if len(present) == target {
			return present
		}
		if !onDuty[id] && !listed[id] {
			listed[id] = true
			present = append(present, id)
		}
	}

	inRoster := make(map[string]bool, len(roster))
	for _, id := range roster {
		inRoster[id] = true
	}
	for _, id := range assigned {
		if len(present) == target {
			break
		}
		if inRoster[id] && !listed[id] {
			listed[id] = true
			present = append(present, id)
		}
	}
	return present
}
