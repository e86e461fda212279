package ports

// Match outcomes reported to MatchRecorder.
const (
	MatchOutcomeHit  = "hit"
	MatchOutcomeMiss = "miss"
)

type MatchRecorder interface {
	RecordMatch(outcome string)
}
