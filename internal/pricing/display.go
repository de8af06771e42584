package pricing

// DisplayGroup is one entry of the display-ordered cart view: either a single
// directly-sold line or the merged collection of lines granted by one reward.
type DisplayGroup struct {
	// RewardID is empty for an individual line.
	RewardID string
	// Name is the reward's display name for a collection, the line name
	// otherwise.
	Name string
	// Indexes are the original positions of the member lines.
	Indexes []int
	Lines   []ProcessedLine
}

// GroupForDisplay partitions processed lines into individually-displayed
// lines and redeemed-reward collections grouped by reward id. The output is
// ordered by the minimum original index each entry contains, so the display
// order follows the order lines were added even though redeemed lines are
// visually merged.
func GroupForDisplay(lines []ProcessedLine) []DisplayGroup {
	groups := make([]DisplayGroup, 0, len(lines))
	byReward := make(map[string]int)

	for i, ln := range lines {
		if ln.Source == SourceRewardRedemption && ln.RewardID != "" {
			if gi, ok := byReward[ln.RewardID]; ok {
				groups[gi].Indexes = append(groups[gi].Indexes, i)
				groups[gi].Lines = append(groups[gi].Lines, ln)
				continue
			}
			byReward[ln.RewardID] = len(groups)
			groups = append(groups, DisplayGroup{
				RewardID: ln.RewardID,
				Name:     ln.RewardName,
				Indexes:  []int{i},
				Lines:    []ProcessedLine{ln},
			})
			continue
		}

		groups = append(groups, DisplayGroup{
			Name:    ln.Name,
			Indexes: []int{i},
			Lines:   []ProcessedLine{ln},
		})
	}
	return groups
}
