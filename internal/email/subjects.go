package email

const (
	subjectNewLeadFmt = "New lead: %s"
)
