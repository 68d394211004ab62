package service

import (
	"estate_crm_backend/internal/assignment/transport"
	"estate_crm_backend/platform/apperr"
)

func ToTeamDetailResponse(d TeamDetail) transport.TeamDetailResponse {
	return transport.TeamDetailResponse{
		TeamResponse: transport.ToTeamResponse(d.Team),
		Members:      transport.ToMemberResponses(d.Members),
	}
}

func ToAddMembersResponse(results []MemberResult) transport.AddMembersResponse {
	resp := transport.AddMembersResponse{Results: make([]transport.MemberResultResponse, 0, len(results))}
	for _, r := range results {
		item := transport.MemberResultResponse{UserID: r.UserID, OK: r.Err == nil}
		if r.Err != nil {
			resp.Failed++
			item.Code = apperr.GetKind(r.Err).Code()
			item.Error = "internal error"
			if e, ok := apperr.As(r.Err); ok {
				item.Error = e.Message
			}
		} else {
			resp.Added++
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}
