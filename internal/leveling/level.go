// Package leveling turns review events into experience points and levels.
package leveling

// thresholds holds the cumulative XP required for each level; index 0 is level 1
var thresholds = [...]int{
	0, 100, 250, 500, 1000,
	1750, 2750, 4000, 5500, 7500,
	10000, 13000, 16500, 20500, 25000,
}

// MaxLevel is the highest reachable level. XP keeps accumulating past it.
const MaxLevel = len(thresholds)

// MaxDifficulty is the hardest word tier in the catalog
const MaxDifficulty = 5

// LevelFor returns the level reached with the given total XP
func LevelFor(totalXP int) int {
	level := 1
	for i, t := range thresholds {
		if totalXP >= t {
			level = i + 1
		}
	}
	return level
}

// Threshold returns the cumulative XP required to reach level
func Threshold(level int) int {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return thresholds[level-1]
}

// XPForNextLevel returns the XP still missing to reach the next level,
// or zero at the maximum level.
func XPForNextLevel(totalXP int) int {
	level := LevelFor(totalXP)
	if level >= MaxLevel {
		return 0
	}
	return Threshold(level+1) - totalXP
}

// DifficultyCeiling returns the hardest word tier offered to a learner at level
func DifficultyCeiling(level int) int {
	ceiling := 1 + level/3
	if ceiling > MaxDifficulty {
		return MaxDifficulty
	}
	return ceiling
}
