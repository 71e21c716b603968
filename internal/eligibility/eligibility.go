// Package eligibility computes attendance percentages and the 75% exam
// eligibility figures. Every function is pure.
//
// Counts are whole classes, so the threshold formulas are evaluated in integer
// arithmetic: with T total and A attended, (0.75T-A)/0.25 = 3T-4A and
// (A-0.75T)/0.75 = (4A-3T)/3.
package eligibility

import (
	"fmt"
	"math"
)

// Threshold is the eligibility percentage.
const (
	Threshold        = 75.0
	WarningThreshold = 70.0
)

// Status is the attendance zone.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// Info bundles the eligibility figures for one set of counts.
type Info struct {
	Percentage         float64 `json:"percentage"`
	Status             Status  `json:"status"`
	ClassesNeeded      int     `json:"classesNeeded"`
	MaxMissableClasses int     `json:"maxMissableClasses"`
	Message            string  `json:"message"`
}

// Percentage returns attended/(attended+missed)*100, or 0 with no classes.
func Percentage(attended, missed int) float64 {
	total := attended + missed
	if total <= 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}

// Classify maps a percentage onto its zone.
func Classify(percentage float64) Status {
	switch {
	case percentage >= Threshold:
		return StatusSafe
	case percentage >= WarningThreshold:
		return StatusWarning
	default:
		return StatusDanger
	}
}

// CalculateEligibilityStatus classifies the counts. No classes yet is safe.
func CalculateEligibilityStatus(attended, missed int) Status {
	if attended+missed <= 0 {
		return StatusSafe
	}
	return Classify(Percentage(attended, missed))
}

// GetClassesNeededFor75 is the number of consecutive attended classes that
// brings attended/total to 75%. It assumes every future class is attended.
func GetClassesNeededFor75(attended, total int) int {
	if total <= 0 {
		return 0
	}
	n := 3*total - 4*attended
	if n < 0 {
		return 0
	}
	return n
}

// GetMaxMissableClasses is the largest number of further misses that keeps
// attended/total at or above 75%. It is 0 whenever attendance is already below.
func GetMaxMissableClasses(attended, total int) int {
	if total <= 0 {
		return 0
	}
	surplus := 4*attended - 3*total
	if surplus <= 0 {
		return 0
	}
	return surplus / 3
}

// GetEligibilityInfo computes the full eligibility picture for the counts.
func GetEligibilityInfo(attended, missed int) Info {
	total := attended + missed
	info := Info{
		Percentage:         round2(Percentage(attended, missed)),
		Status:             CalculateEligibilityStatus(attended, missed),
		ClassesNeeded:      GetClassesNeededFor75(attended, total),
		MaxMissableClasses: GetMaxMissableClasses(attended, total),
	}
	info.Message = message(total, info)
	return info
}

// GetProjectedPercentage is the percentage after the upcoming classes, or 0
// when there are none at all.
func GetProjectedPercentage(attended, total, upcomingAttended, upcomingTotal int) float64 {
	all := total + upcomingTotal
	if all <= 0 {
		return 0
	}
	return float64(attended+upcomingAttended) / float64(all) * 100
}

func message(total int, info Info) string {
	if total == 0 {
		return "No classes recorded yet."
	}
	switch info.Status {
	case StatusSafe:
		if info.MaxMissableClasses == 0 {
			return fmt.Sprintf("You are at %.2f%%. You cannot miss any more classes without dropping below 75%%.", info.Percentage)
		}
		return fmt.Sprintf("You are at %.2f%%. You can miss %s and stay above 75%%.", info.Percentage, plural(info.MaxMissableClasses))
	case StatusWarning:
		return fmt.Sprintf("You are at %.2f%%, close to the limit. Attend the next %s to get back to 75%%.", info.Percentage, plural(info.ClassesNeeded))
	default:
		return fmt.Sprintf("You are at %.2f%% and not eligible. Attend the next %s in a row to reach 75%%.", info.Percentage, plural(info.ClassesNeeded))
	}
}

func plural(n int) string {
	if n == 1 {
		return "1 class"
	}
	return fmt.Sprintf("%d classes", n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
