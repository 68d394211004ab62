package activity

import (
	"estate_crm_backend/internal/leads/transport"
)

// ToFeedResponse maps merged feed entries for the API.
func ToFeedResponse(items []FeedItem) transport.FeedResponse {
	out := make([]transport.FeedItemResponse, 0, len(items))
	for _, item := range items {
		resp := transport.FeedItemResponse{Kind: string(item.Kind), Timestamp: item.Timestamp}
		switch {
		case item.Note != nil:
			n := transport.ToNoteResponse(*item.Note)
			resp.Note = &n
		case item.Call != nil:
			c := transport.ToCallResponse(*item.Call)
			resp.Call = &c
		case item.Task != nil:
			t := transport.ToTaskResponse(*item.Task)
			resp.Task = &t
		case item.Meeting != nil:
			m := transport.ToMeetingResponse(*item.Meeting)
			resp.Meeting = &m
		case item.Event != nil:
			e := transport.ToSystemEventResponse(*item.Event)
			resp.Event = &e
		}
		out = append(out, resp)
	}
	return transport.FeedResponse{Items: out}
}

// ToSummaryResponse maps a lead summary for the API.
func ToSummaryResponse(s Summary) transport.SummaryResponse {
	resp := transport.SummaryResponse{
		LastContactedAt: s.LastContactedAt,
		NoteCount:       s.NoteCount,
		CallCount:       s.CallCount,
		TaskCount:       s.TaskCount,
		PendingTasks:    s.PendingTasks,
		MeetingCount:    s.MeetingCount,
	}
	if s.NextActionDue != nil {
		t := transport.ToTaskResponse(*s.NextActionDue)
		resp.NextActionDue = &t
	}
	return resp
}
