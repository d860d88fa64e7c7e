package costkey

// NoSubJob is the sentinel sub-job key for lines recorded without a sub-job.
// Real sub-job ids start at 1, so the sentinel can never collide.
const NoSubJob = 0

// Key is the composite identity that correlates ledger rows across tables:
// project, sub-job, cost code, cost type. It is comparable, so it can be used
// directly as a map key.
type Key struct {
	ProjectID  int
	SubJobKey  int
	CostCodeID int
	CostTypeID int
}

// Normalize builds the canonical Key for a ledger row. A nil subJobID maps to
// the NoSubJob sentinel, so rows with and without a sub-job never spuriously
// match or spuriously fail to match on nullable-field equality.
func Normalize(projectID int, subJobID *int, costCodeID, costTypeID int) Key {
	subJobKey := NoSubJob
	if subJobID != nil {
		subJobKey = *subJobID
	}
	return Key{
		ProjectID:  projectID,
		SubJobKey:  subJobKey,
		CostCodeID: costCodeID,
		CostTypeID: costTypeID,
	}
}

// SubJobID returns the raw nullable sub-job id for persistence.
func (k Key) SubJobID() *int {
	if k.SubJobKey == NoSubJob {
		return nil
	}
	id := k.SubJobKey
	return &id
}
