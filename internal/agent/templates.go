package agent

import (
	"fmt"
	"strings"

	"github.com/hospital-shifts/scheduler/internal/models"
)

const (
	replyEmpty = "You sent an empty message. Please type what you need."

	replySchedule = "Schedule generation request received. Using the current priority rules I will draft next week's roster:\n\n" +
		"- night shifts spread evenly (3-4 staff per night)\n" +
		"- rest days rotated for senior doctors\n" +
		"- no back-to-back night shifts for new staff\n\n" +
		"The draft should be ready in 1-2 minutes and will be sent to the administrators."

	replyValidate = "Checking the current roster for conflicts...\n\n" +
		"Result:\n" +
		"  - total shifts: 42\n" +
		"  - conflicting shifts: 0\n" +
		"  - coverage: 100%\n\n" +
		"No conflicts found, the roster can be published."

	replySync = "Syncing data from the hospital information system...\n\n" +
		"Synced:\n" +
		"  - staff records: 152\n" +
		"  - departments: 18\n" +
		"  - shift rule sets: 8\n\n" +
		"Sync complete, the data is ready for scheduling."

	replyHelp = "I am the shift scheduling assistant. I can:\n\n" +
		"1. generate a schedule - \"generate next week's schedule\"\n" +
		"2. validate a schedule - \"validate the current schedule\"\n" +
		"3. sync data - \"sync HIS data\"\n" +
		"4. look up shifts - \"show this month's shifts\"\n\n" +
		"Use one of these phrases and I will take care of it."

	replyDefaultFormat = "Message received: %q\n\n" +
		"I am the shift scheduling assistant running in demo mode. Try one of:\n" +
		"- generate schedule\n" +
		"- validate schedule\n" +
		"- sync data\n" +
		"- help\n\n" +
		"To connect a real workflow set COZE_API_KEY and COZE_WORKFLOW_ID."
)

var demoRules = []struct {
	keywords []string
	reply    string
}{
	{[]string{"生成", "排班", "schedule"}, replySchedule},
	{[]string{"校验", "检查", "validate"}, replyValidate},
	{[]string{"数据", "同步", "sync"}, replySync},
	{[]string{"帮助", "help"}, replyHelp},
}

// DemoReply returns the canned assistant answer for input. Keywords are
// matched case-insensitively in a fixed order; the first hit wins.
func DemoReply(input string) string {
	if strings.TrimSpace(input) == "" {
		return replyEmpty
	}
	lower := strings.ToLower(input)
	for _, rule := range demoRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply
			}
		}
	}
	return fmt.Sprintf(replyDefaultFormat, input)
}

// TaskPrompt turns a queued task into assistant input.
func TaskPrompt(t models.AgentTask) string {
	switch t.TaskType {
	case models.TaskScheduleGeneration:
		return "Generate a schedule. Details: " + t.Payload
	case models.TaskScheduleValidation:
		return "Validate the current schedule. Details: " + t.Payload
	case models.TaskDataSync:
		return "Sync HIS data. Details: " + t.Payload
	}
	return t.Payload
}

// TaskReply is the canned result for a task type in demo mode.
func TaskReply(t models.AgentTaskType) string {
	switch t {
	case models.TaskScheduleGeneration:
		return replySchedule
	case models.TaskScheduleValidation:
		return replyValidate
	case models.TaskDataSync:
		return replySync
	}
	return replyHelp
}
