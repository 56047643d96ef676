package server

// The poller's progress message is a heuristic UX affordance derived from
// wall-clock time only. It does not reflect which generation step is
// actually running; do not wire it to real per-step state without adding
// that state to the job record first.

type progressBucket struct {
	maxSeconds int64 // exclusive upper bound
	message    string
}

var progressBuckets = []progressBucket{
	{10, "Warming up the analysis engine"},
	{25, "Reading your questionnaire answers"},
	{45, "Drafting the memo sections"},
	{90, "Writing the investment narrative"},
	{150, "Reviewing numbers and claims"},
}

const finalProgressMessage = "Finalizing your memo"

// ProgressMessage maps elapsed seconds onto the fixed, ordered bucket
// table; anything past the last threshold gets the closing message.
func ProgressMessage(elapsedSeconds int64) string {
	for _, b := range progressBuckets {
		if elapsedSeconds < b.maxSeconds {
			return b.message
		}
	}
	return finalProgressMessage
}
