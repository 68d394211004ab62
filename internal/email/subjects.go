package email

const (
	subjectLeadAssignedFmt = "New lead assigned: %s"
	subjectTaskDueFmt      = "Task due for %s: %s"
)
