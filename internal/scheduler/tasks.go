package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadTaskReminder = "activity.task.reminder"

type TaskReminderPayload struct {
	TaskID string `json:"taskId"`
	LeadID string `json:"leadId"`
}

func NewTaskReminderTask(payload TaskReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadTaskReminder, data), nil
}

func ParseTaskReminderPayload(task *asynq.Task) (TaskReminderPayload, error) {
	var payload TaskReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TaskReminderPayload{}, err
	}
	return payload, nil
}

// reminderTaskID keeps one queued reminder per lead task.
func reminderTaskID(taskID string) string {
	return "task-reminder:" + taskID
}
