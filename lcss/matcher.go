package lcss

import (
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"gomatch/gosm-matcher/matching"
)

// maxIterations caps the refinement loop. Non-convergence after the cap is
// not an error; the last scheme is the best-effort result.
const maxIterations = 10

// Matcher aligns a noisy GPS trace to a path through a road network using the
// trajectory segmentation approach of Zhu, Holden and Gonder, "Trajectory
// Segmentation Map-Matching Approach for Large-Scale, High-Resolution GPS
// Data", Transportation Research Record 2645 (2017).
//
// A whole-trace candidate path is scored with a similarity-weighted LCS
// recurrence, split at cutting points where the match is poor, and the split
// is kept only when rejoining the pieces scores better than the unsplit
// segment. The loop repeats until the scheme stops changing or the iteration
// cap is hit.
type Matcher struct {
	// DistanceEpsilon is the distance (working-plane units) within which a
	// point contributes to similarity.
	DistanceEpsilon float64
	// SimilarityCutoff is the score at or above which a segment is left alone.
	SimilarityCutoff float64
	// CuttingThreshold marks borderline matches: points within this distance
	// of DistanceEpsilon become cutting points.
	CuttingThreshold float64
	// RandomCuts adds uniformly random cutting points per segment for
	// stochastic exploration. Zero keeps the matcher deterministic.
	RandomCuts int
	// DistanceThreshold is the distance beyond which a point is unmatched.
	DistanceThreshold float64
	// Rand is consulted only when RandomCuts is positive.
	Rand *rand.Rand

	router matching.Router
	log    *logrus.Logger
}

// NewMatcher creates a matcher with the standard parameters.
func NewMatcher(router matching.Router, log *logrus.Logger) *Matcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Matcher{
		DistanceEpsilon:   50.0,
		SimilarityCutoff:  0.9,
		CuttingThreshold:  10.0,
		RandomCuts:        0,
		DistanceThreshold: 10000.0,
		router:            router,
		log:               log,
	}
}

// MatchTrace aligns the trace to the road network. The trace must be in the
// router's reference system and non-empty.
func (m *Matcher) MatchTrace(trace matching.Trace) (matching.MatchResult, error) {
	if trace.Len() < 1 {
		return matching.MatchResult{}, ErrEmptyTrace
	}

	stationary := FindStationaryPoints(trace)
	subTrace := DropStationaryPoints(trace, stationary)

	path, err := NewPath(m.router, subTrace)
	if err != nil {
		return matching.MatchResult{}, err
	}

	scored, err := NewTrajectorySegment(subTrace, path).ScoreAndMatch(m.DistanceEpsilon, m.DistanceThreshold)
	if err != nil {
		return matching.MatchResult{}, err
	}
	scored = scored.ComputeCuttingPoints(m.DistanceEpsilon, m.CuttingThreshold, m.RandomCuts, m.Rand)

	scheme, err := SplitTrajectorySegment(m.router, scored)
	if err != nil {
		return matching.MatchResult{}, err
	}

	for n := 0; n < maxIterations; n++ {
		scoredScheme, err := m.scoreScheme(scheme)
		if err != nil {
			return matching.MatchResult{}, err
		}

		nextScheme := make(TrajectoryScheme, 0, len(scoredScheme))
		for _, segment := range scoredScheme {
			if segment.Score >= m.SimilarityCutoff {
				nextScheme = append(nextScheme, segment)
				continue
			}

			// split and keep the pieces only if rejoining them scores better
			newSplit, err := SplitTrajectorySegment(m.router, segment)
			if err != nil {
				return matching.MatchResult{}, err
			}
			joined, err := m.fold(newSplit).ScoreAndMatch(m.DistanceEpsilon, m.DistanceThreshold)
			if err != nil {
				return matching.MatchResult{}, err
			}
			if joined.Score > segment.Score {
				nextScheme = append(nextScheme, newSplit...)
			} else {
				nextScheme = append(nextScheme, segment)
			}
		}

		m.log.WithFields(logrus.Fields{
			"iteration": n,
			"segments":  len(nextScheme),
		}).Debug("refinement iteration complete")

		if SameTrajectoryScheme(scheme, nextScheme) {
			break
		}
		scheme = nextScheme
	}

	finalSegment, err := m.fold(scheme).ScoreAndMatch(m.DistanceEpsilon, m.DistanceThreshold)
	if err != nil {
		return matching.MatchResult{}, err
	}

	matches := AddMatchesForStationaryPoints(finalSegment.Matches, stationary)

	m.log.WithFields(logrus.Fields{
		"points": len(matches),
		"roads":  len(finalSegment.Path),
		"score":  finalSegment.Score,
	}).Info("trace matched")

	return matching.MatchResult{Matches: matches, Path: finalSegment.Path}, nil
}

// scoreScheme re-scores every segment and recomputes its cutting points.
// Segments are independent here, so they are processed concurrently; the
// router is only read. With RandomCuts set the pass runs sequentially to keep
// the random source unshared.
func (m *Matcher) scoreScheme(scheme TrajectoryScheme) (TrajectoryScheme, error) {
	out := make(TrajectoryScheme, len(scheme))
	errs := make([]error, len(scheme))

	if m.RandomCuts > 0 {
		for i, segment := range scheme {
			out[i], errs[i] = m.scoreSegment(segment)
		}
	} else {
		var wg sync.WaitGroup
		for i, segment := range scheme {
			wg.Add(1)
			go func(i int, segment TrajectorySegment) {
				defer wg.Done()
				out[i], errs[i] = m.scoreSegment(segment)
			}(i, segment)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *Matcher) scoreSegment(segment TrajectorySegment) (TrajectorySegment, error) {
	scored, err := segment.ScoreAndMatch(m.DistanceEpsilon, m.DistanceThreshold)
	if err != nil {
		return TrajectorySegment{}, err
	}
	return scored.ComputeCuttingPoints(m.DistanceEpsilon, m.CuttingThreshold, m.RandomCuts, m.Rand), nil
}

// fold collapses a scheme back into a single segment by repeated joining.
func (m *Matcher) fold(scheme TrajectoryScheme) TrajectorySegment {
	joined := scheme[0]
	for _, segment := range scheme[1:] {
		joined = JoinSegment(m.router, joined, segment)
	}
	return joined
}
