package matching

import "math"

// Overlap compares a job keyword set with a resume keyword set. The score is
// the share of job keywords present in the resume; an empty job set scores 0.
func Overlap(job, resume KeywordSet) (matched, missing KeywordSet, score float64) {
	matched, missing = KeywordSet{}, KeywordSet{}
	for w := range job {
		if resume.Has(w) {
			matched.Add(w)
		} else {
			missing.Add(w)
		}
	}

	if job.Len() == 0 {
		return matched, missing, 0
	}

	return matched, missing, clamp01(float64(matched.Len()) / float64(job.Len()))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
